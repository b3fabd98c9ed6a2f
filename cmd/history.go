package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history <service>",
	Short: "Show a service's recent deploy history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	service := args[0]

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	deployments := application.cache.ListDeployments(service)

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(deployments)
	}

	if len(deployments) == 0 {
		fmt.Printf("%s no recorded deploys for %s\n",
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("?"), service)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("DEPLOY ID"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("STRATEGY"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("STATUS"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("VERIFIED"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("DURATION"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("WHEN"),
	})

	for _, d := range deployments {
		statusColor := text.FgHiGreen
		if d.Status != "completed" {
			statusColor = text.FgHiRed
		}
		t.AppendRow(table.Row{
			d.DeployID,
			d.Strategy,
			statusColor.Sprint(d.Status),
			d.Verified,
			fmt.Sprintf("%dms", d.DurationMs),
			d.Timestamp.Format(time.RFC3339),
		})
	}
	t.Render()
	return nil
}

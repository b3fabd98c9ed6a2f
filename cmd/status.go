package cmd

import (
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/false-systems/nopea/internal/agentrt"
)

var (
	statusService string
	statusJSON    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the runtime status of one service's agent, or all of them",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusService, "service", "s", "", "service name (default: all services with a live agent)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	var statuses []agentrt.Status
	if statusService != "" {
		status, err := application.registry.Status(statusService)
		if err != nil {
			return err
		}
		statuses = []agentrt.Status{status}
	} else {
		statuses = application.registry.Health()
	}

	return printStatuses(statuses)
}

func printStatuses(statuses []agentrt.Status) error {
	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("SERVICE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("STATE"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("DEPLOYS"),
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("QUEUED"),
	})

	for _, s := range statuses {
		stateColor := text.FgHiGreen
		if s.State == "deploying" {
			stateColor = text.FgHiYellow
		}
		t.AppendRow(table.Row{s.Service, stateColor.Sprint(s.State), s.DeployCount, s.QueueLength})
	}
	t.Render()
	return nil
}

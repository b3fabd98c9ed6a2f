package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	contextNamespace string
	contextJSON      bool
)

var contextCmd = &cobra.Command{
	Use:   "context <service>",
	Short: "Show what nopea's memory knows about a service",
	Long: `context prints the failure patterns, dependencies, and canary
recommendations nopea's knowledge graph has accumulated for a service —
the same read the orchestrator consults before choosing a strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextNamespace, "namespace", "n", "default", "namespace")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "print as JSON")
}

func runContext(cmd *cobra.Command, args []string) error {
	service := args[0]

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	memCtx := application.memory.GetDeployContext(service, contextNamespace)

	if contextJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(memCtx)
	}

	if !memCtx.Known {
		fmt.Printf("%s %s is not yet known to nopea's memory\n",
			text.Colors{text.FgHiYellow, text.Bold}.Sprint("?"), service)
		return nil
	}

	if len(memCtx.FailurePatterns) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.SetTitle("Failure patterns")
		t.AppendHeader(table.Row{
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("ERROR"),
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("CONFIDENCE"),
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("OBSERVATIONS"),
		})
		for _, fp := range memCtx.FailurePatterns {
			t.AppendRow(table.Row{fp.Error, fmt.Sprintf("%.2f", fp.Confidence), fp.Observations})
		}
		t.Render()
	}

	if len(memCtx.Dependencies) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.SetTitle("Dependencies")
		t.AppendHeader(table.Row{
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("TARGET"),
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("WEIGHT"),
			text.Colors{text.FgHiBlue, text.Bold}.Sprint("OBSERVATIONS"),
		})
		for _, dep := range memCtx.Dependencies {
			t.AppendRow(table.Row{dep.TargetName, fmt.Sprintf("%.2f", dep.Weight), dep.Observations})
		}
		t.Render()
	}

	for _, rec := range memCtx.Recommendations {
		fmt.Printf("%s %s\n", text.Colors{text.FgHiMagenta, text.Bold}.Sprint("→"), rec)
	}

	return nil
}

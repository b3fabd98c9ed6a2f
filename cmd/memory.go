package cmd

import (
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var memoryJSON bool

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show summary statistics for nopea's knowledge graph",
	Args:  cobra.NoArgs,
	RunE:  runMemory,
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.Flags().BoolVar(&memoryJSON, "json", false, "print as JSON")
}

func runMemory(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	stats := struct {
		Nodes         int `json:"nodes"`
		Relationships int `json:"relationships"`
		Services      int `json:"servicesWithCachedState"`
	}{
		Nodes:         application.memory.NodeCount(),
		Relationships: application.memory.RelationshipCount(),
		Services:      len(application.cache.ListServices()),
	}

	if memoryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{text.Colors{text.FgHiBlue, text.Bold}.Sprint("Nodes"), stats.Nodes})
	t.AppendRow(table.Row{text.Colors{text.FgHiBlue, text.Bold}.Sprint("Relationships"), stats.Relationships})
	t.AppendRow(table.Row{text.Colors{text.FgHiBlue, text.Bold}.Sprint("Services with cached state"), stats.Services})
	t.Render()
	return nil
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/false-systems/nopea/internal/nlog"
)

// Exit codes for CLI commands, per the stable CLI contract: 0 on
// success, 1 on any other error.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command for the nopea binary.
var rootCmd = &cobra.Command{
	Use:   "nopea",
	Short: "A learning Kubernetes deploy orchestrator with knowledge-graph memory",
	Long: `nopea deploys Kubernetes manifests with direct, canary, and
blue/green strategies, verifies the result against the live cluster,
and remembers what happened so the next deploy of the same service can
make a better-informed strategy choice.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := nlog.LevelInfo
		if verbose {
			level = nlog.LevelDebug
		}
		if cmd.Name() == "serve" {
			nlog.InitForServer(level, os.Stderr)
		} else {
			nlog.InitForCLI(level, os.Stderr)
		}
		return nil
	},
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command, mapping any returned error onto a
// process exit code.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "nopea version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".nopea/config.yaml", "path to nopea's configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
}

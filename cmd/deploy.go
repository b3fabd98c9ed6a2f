package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/false-systems/nopea/internal/deploy"
)

var (
	deployFile      string
	deployService   string
	deployNamespace string
	deployStrategy  string
	deployJSON      bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a manifest file to a service",
	Long: `deploy reads one or more Kubernetes manifests from a YAML file
(multi-document, separated by "---"), submits them to the named
service's agent, and waits for the result.`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringVarP(&deployFile, "file", "f", "", "path to a YAML manifest file (required)")
	deployCmd.Flags().StringVarP(&deployService, "service", "s", "", "service name (required)")
	deployCmd.Flags().StringVarP(&deployNamespace, "namespace", "n", "default", "target namespace")
	deployCmd.Flags().StringVar(&deployStrategy, "strategy", "", "rollout strategy: direct, canary, or blue_green (default: auto-select)")
	deployCmd.Flags().BoolVar(&deployJSON, "json", false, "print the result as JSON")
	_ = deployCmd.MarkFlagRequired("file")
	_ = deployCmd.MarkFlagRequired("service")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	manifests, err := loadManifestFile(deployFile)
	if err != nil {
		return err
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	spec := &deploy.Spec{
		Service:   deployService,
		Namespace: deployNamespace,
		Manifests: manifests,
		Strategy:  deploy.Strategy(deployStrategy),
	}
	spec.Normalize()

	result := application.registry.Deploy(deployService, spec)
	return printDeployResult(result)
}

// loadManifestFile reads path and splits it on "---" document
// separators, decoding each document from YAML to a deploy.Manifest
// via the YAML→JSON bridge. Empty documents are skipped.
func loadManifestFile(path string) ([]deploy.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}

	var manifests []deploy.Manifest
	for _, doc := range strings.Split(string(data), "\n---") {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			continue
		}
		jsonBytes, err := k8syaml.YAMLToJSON([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("parsing manifest document in %s: %w", path, err)
		}
		var m deploy.Manifest
		if err := json.Unmarshal(jsonBytes, &m); err != nil {
			return nil, fmt.Errorf("decoding manifest document in %s: %w", path, err)
		}
		if len(m) > 0 {
			manifests = append(manifests, m)
		}
	}
	if len(manifests) == 0 {
		return nil, fmt.Errorf("%s contains no manifest documents", path)
	}
	return manifests, nil
}

func printDeployResult(result *deploy.Result) error {
	if deployJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	statusColor := text.FgHiGreen
	if result.Status != deploy.StatusCompleted {
		statusColor = text.FgHiRed
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Deploy ID", result.DeployID})
	t.AppendRow(table.Row{"Service", result.Service})
	t.AppendRow(table.Row{"Namespace", result.Namespace})
	t.AppendRow(table.Row{"Strategy", result.Strategy})
	t.AppendRow(table.Row{"Status", statusColor.Sprint(result.Status)})
	t.AppendRow(table.Row{"Verified", result.Verified})
	t.AppendRow(table.Row{"Duration", fmt.Sprintf("%dms", result.DurationMs)})
	if result.Error != nil {
		t.AppendRow(table.Row{"Error", text.FgHiRed.Sprint(result.Error.Message)})
	}
	t.Render()

	if result.Status != deploy.StatusCompleted {
		return fmt.Errorf("deploy did not complete: %s", result.Error.Message)
	}
	return nil
}

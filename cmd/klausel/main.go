// Command klausel analyzes German service contracts: it extracts typed
// facts from plain text, derives key facts, resolves parties, builds the
// price schedule and evaluates a compliance policy.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vertragslab/klausel/internal/config"
	"github.com/vertragslab/klausel/internal/pipeline"
	"github.com/vertragslab/klausel/internal/policy"
)

const version = "0.1.0"

var (
	flagConfig     string
	flagDB         string
	flagPolicy     string
	flagExtractors string
)

func main() {
	root := &cobra.Command{
		Use:           "klausel",
		Short:         "Contract text analysis for German service agreements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.klausel/config.yaml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "run database path")
	root.PersistentFlags().StringVar(&flagPolicy, "policy", "", "YAML policy file (default: built-in rule set)")
	root.PersistentFlags().StringVar(&flagExtractors, "extractors", "", "comma-separated extractor allow-list")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newPoliciesCmd())
	root.AddCommand(newMCPCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("klausel %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig merges config file, environment and CLI flags.
func resolveConfig() (config.ResolvedConfig, error) {
	return config.Resolve(config.ResolveOptions{
		ConfigPath:    flagConfig,
		CLIDBPath:     flagDB,
		CLIPolicyPath: flagPolicy,
		CLIExtractors: flagExtractors,
	})
}

// buildRunner assembles the pipeline runner from the resolved configuration.
func buildRunner(cfg config.ResolvedConfig) (*pipeline.Runner, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	runner := pipeline.New(logger)
	runner.Allow = cfg.AllowList()
	if cfg.PolicyPath.Value != "" {
		pol, err := policy.Load(cfg.PolicyPath.Value)
		if err != nil {
			return nil, err
		}
		runner.Policy = pol
	}
	return runner, nil
}

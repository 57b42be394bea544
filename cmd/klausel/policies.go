package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertragslab/klausel/internal/policy"
)

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the active compliance rule set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			pol := policy.Default()
			source := "built-in"
			if cfg.PolicyPath.Value != "" {
				pol, err = policy.Load(cfg.PolicyPath.Value)
				if err != nil {
					return err
				}
				source = cfg.PolicyPath.Value
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d rules (%s)\n", len(pol.Rules), source)
			for _, r := range pol.Rules {
				sev := r.Severity
				if sev == "" {
					sev = "low"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-32s %-8s %s\n", r.ID, r.Type, sev, r.Description)
			}
			return nil
		},
	}
}

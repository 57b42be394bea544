package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertragslab/klausel/internal/store"
)

func newRunsCmd() *cobra.Command {
	var docFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted analysis runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			st, err := store.NewStore(cfg.DBPath.Value)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), store.ListOpts{DocID: docFilter, Limit: limit})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  spans=%d  passed=%d  failed=%d\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.DocID,
					r.SpanCount, r.RulesPassed, r.RulesFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&docFilter, "doc", "", "only runs for this document id")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	return cmd
}

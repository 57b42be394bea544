package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vertragslab/klausel/internal/pipeline"
	"github.com/vertragslab/klausel/internal/store"
)

func newAnalyzeCmd() *cobra.Command {
	var docID string
	var save bool
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "analyze <file | ->",
		Short: "Analyze one contract text file ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, inferredID, err := readInput(args[0])
			if err != nil {
				return err
			}
			if docID == "" {
				docID = inferredID
			}

			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			runner, err := buildRunner(cfg)
			if err != nil {
				return err
			}

			res, err := runner.Run(pipeline.Document{ID: docID, Text: text})
			if err != nil {
				return err
			}

			if save {
				if err := persistRun(cmd.Context(), cfg.DBPath.Value, res); err != nil {
					return err
				}
			}

			if summaryOnly {
				fmt.Fprintln(cmd.OutOrStdout(), res.Summary)
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&docID, "doc-id", "", "document id (default: file name)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the run database")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "print the German summary instead of JSON")
	return cmd
}

// readInput loads the document text. "-" reads stdin with doc id "stdin";
// otherwise the file's base name without extension becomes the default id.
func readInput(arg string) (text, docID string, err error) {
	if arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), "stdin", nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", arg, err)
	}
	base := filepath.Base(arg)
	return string(b), strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// persistRun writes a pipeline result to the run database.
func persistRun(ctx context.Context, dbPath string, res *pipeline.Result) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	facts, err := json.Marshal(res.KeyFacts)
	if err != nil {
		return fmt.Errorf("encoding key facts: %w", err)
	}
	run := &store.Run{DocID: res.DocID, KeyFactsJSON: string(facts), Summary: res.Summary}
	id, err := st.SaveRun(ctx, run, res.Spans, res.Compliance)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "run saved: %s\n", id)
	return nil
}

// Package mcp provides a Model Context Protocol server for the contract
// analyzer.
//
// It exposes the analysis pipeline as MCP tools over stdio:
// klausel_analyze runs one document through the full pipeline,
// klausel_policies lists the loaded rule set, and klausel_runs pages
// through persisted run history.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vertragslab/klausel/internal/pipeline"
	"github.com/vertragslab/klausel/internal/policy"
	"github.com/vertragslab/klausel/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Runner  *pipeline.Runner
	Store   store.Store // optional; enables run persistence and klausel_runs
	Version string
}

// dbMu serializes tool calls that touch the database. The mcp-go library
// dispatches handlers concurrently and SQLite supports one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with the analyzer tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.New(nil)
	}

	s := server.NewMCPServer(
		"Klausel",
		ver,
		server.WithToolCapabilities(false),
	)

	registerAnalyzeTool(s, cfg.Runner, cfg.Store)
	registerPoliciesTool(s, cfg.Runner)
	if cfg.Store != nil {
		registerRunsTool(s, cfg.Store)
	}

	return s
}

func registerAnalyzeTool(s *server.MCPServer, runner *pipeline.Runner, st store.Store) {
	tool := mcp.NewTool("klausel_analyze",
		mcp.WithDescription("Analyze one German contract document: extract typed spans, derive key facts, resolve parties, build the price schedule and evaluate the compliance policy. Returns the full result as JSON."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("doc_id",
			mcp.Required(),
			mcp.Description("Document identifier"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Full document text (UTF-8)"),
		),
		mcp.WithString("policy_path",
			mcp.Description("Path to a YAML policy file; empty = built-in rule set"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Persist the run to the run store (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := req.RequireString("doc_id")
		if err != nil {
			return mcp.NewToolResultError("doc_id is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		r := runner
		if path, err := req.RequireString("policy_path"); err == nil && path != "" {
			pol, err := policy.Load(path)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid policy: %v", err)), nil
			}
			override := *runner
			override.Policy = pol
			r = &override
		}

		res, err := r.Run(pipeline.Document{ID: docID, Text: text})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		if save, err := req.RequireBool("save"); err == nil && save {
			if st == nil {
				return mcp.NewToolResultError("no run store configured"), nil
			}
			if _, err := saveRun(ctx, st, res); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("saving run: %v", err)), nil
			}
		}

		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerPoliciesTool(s *server.MCPServer, runner *pipeline.Runner) {
	tool := mcp.NewTool("klausel_policies",
		mcp.WithDescription("List the loaded compliance rule set: id, type, severity and description per rule."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.MarshalIndent(PolicySummary(runner.Policy), "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding policy: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("klausel_runs",
		mcp.WithDescription("List persisted analysis runs, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("doc_id",
			mcp.Description("Only runs for this document"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs (default: 20, max: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		opts := store.ListOpts{Limit: 20}
		if docID, err := req.RequireString("doc_id"); err == nil && docID != "" {
			opts.DocID = docID
		}
		if limitVal, err := req.RequireFloat("limit"); err == nil {
			limit := int(limitVal)
			if limit > 100 {
				limit = 100
			}
			if limit > 0 {
				opts.Limit = limit
			}
		}

		runs, err := st.ListRuns(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing runs: %v", err)), nil
		}
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding runs: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

// RuleInfo is one row of the klausel_policies listing.
type RuleInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// PolicySummary reduces a policy to its listing form.
func PolicySummary(pol *policy.Policy) []RuleInfo {
	if pol == nil {
		return nil
	}
	out := make([]RuleInfo, 0, len(pol.Rules))
	for _, r := range pol.Rules {
		sev := r.Severity
		if sev == "" {
			sev = "low"
		}
		out = append(out, RuleInfo{ID: r.ID, Type: r.Type, Severity: sev, Description: r.Description})
	}
	return out
}

// saveRun persists a pipeline result to the run store.
func saveRun(ctx context.Context, st store.Store, res *pipeline.Result) (string, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	facts, err := json.Marshal(res.KeyFacts)
	if err != nil {
		return "", fmt.Errorf("encoding key facts: %w", err)
	}
	run := &store.Run{
		DocID:        res.DocID,
		KeyFactsJSON: string(facts),
		Summary:      res.Summary,
	}
	return st.SaveRun(ctx, run, res.Spans, res.Compliance)
}

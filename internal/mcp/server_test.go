package mcp

import (
	"context"
	"testing"

	"github.com/vertragslab/klausel/internal/pipeline"
	"github.com/vertragslab/klausel/internal/policy"
	"github.com/vertragslab/klausel/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Store: newTestStore(t), Version: "test"})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestNewServerWithoutStore(t *testing.T) {
	if srv := NewServer(ServerConfig{}); srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestPolicySummary(t *testing.T) {
	pol := &policy.Policy{Rules: []policy.Rule{
		{ID: "a", Type: "presence", Severity: "high", Description: "erste Regel"},
		{ID: "b", Type: "min_value"},
	}}
	got := PolicySummary(pol)
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	if got[0].ID != "a" || got[0].Severity != "high" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Severity != "low" {
		t.Errorf("missing severity should default to low, got %q", got[1].Severity)
	}
	if PolicySummary(nil) != nil {
		t.Error("nil policy should yield nil")
	}
}

func TestSaveRunPersistsAnalysis(t *testing.T) {
	st := newTestStore(t)
	runner := pipeline.New(nil)
	res, err := runner.Run(pipeline.Document{
		ID:   "mcp1",
		Text: "Die Vergütung beträgt 10.000,00 EUR zuzüglich Umsatzsteuer von derzeit 19%.",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	id, err := saveRun(context.Background(), st, res)
	if err != nil {
		t.Fatalf("saveRun: %v", err)
	}
	run, err := st.GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.DocID != "mcp1" {
		t.Errorf("doc id = %q", run.DocID)
	}
	if run.SpanCount == 0 {
		t.Error("no spans persisted")
	}
	if run.RulesPassed+run.RulesFailed == 0 {
		t.Error("no compliance results persisted")
	}
}

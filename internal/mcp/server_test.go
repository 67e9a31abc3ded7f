package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/ledger"
)

func newTestServer(t *testing.T) (*Server, fsx.FS) {
	t.Helper()
	fs := fsx.NewMem()
	if err := fs.WriteText("scenarios/login.glyph", "Log in as admin"); err != nil {
		t.Fatalf("seed scenario: %v", err)
	}
	if err := fs.WriteText("scenarios/create_user.glyph", "[ref: login] create a user"); err != nil {
		t.Fatalf("seed scenario: %v", err)
	}

	progress := ledger.New()
	progress.Register("login", "scenarios/login.glyph", nil)
	progress.Register("create_user", "scenarios/create_user.glyph", []string{"login"})
	progress.MarkInProgress("login")
	progress.SetStepList("login", []string{"a", "b", "c"})
	progress.AppendCompletedStep("login", 0)
	progress.MarkCompleted("login", "scenarios/login.spec.js")
	if err := progress.Save(fs, ledger.PathIn(".glyph")); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	return NewServer(fs, ".glyph", "scenarios"), fs
}

func TestProgressReport_Counts(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	_, out, err := srv.handleProgressReport(context.Background(), nil, progressReportInput{})
	if err != nil {
		t.Fatalf("progress_report: %v", err)
	}

	if out.Total != 2 || out.Completed != 1 || out.Pending != 1 {
		t.Fatalf("counts = %+v", out)
	}
	if len(out.Scenarios) != 2 {
		t.Fatalf("scenarios = %+v", out.Scenarios)
	}
	// Sorted by name: create_user before login.
	if out.Scenarios[0].Name != "create_user" || out.Scenarios[1].Name != "login" {
		t.Fatalf("order = %+v", out.Scenarios)
	}
	if out.Scenarios[1].CompletedSteps != 1 || out.Scenarios[1].TotalSteps != 3 {
		t.Fatalf("login summary = %+v", out.Scenarios[1])
	}
}

func TestScenarioStatus_KnownAndUnknown(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	_, out, err := srv.handleScenarioStatus(context.Background(), nil, scenarioStatusInput{Name: "login"})
	if err != nil {
		t.Fatalf("scenario_status: %v", err)
	}
	if out.Status != ledger.StatusCompleted {
		t.Fatalf("status = %q", out.Status)
	}
	if out.SpecPath != "scenarios/login.spec.js" {
		t.Fatalf("spec_path = %q", out.SpecPath)
	}

	_, _, err = srv.handleScenarioStatus(context.Background(), nil, scenarioStatusInput{Name: "ghost"})
	if err == nil || !strings.Contains(err.Error(), "unknown scenario") {
		t.Fatalf("err = %v, want unknown scenario", err)
	}
}

func TestBuildLayers_OrderAndCycles(t *testing.T) {
	t.Parallel()

	srv, fs := newTestServer(t)
	_, out, err := srv.handleBuildLayers(context.Background(), nil, buildLayersInput{})
	if err != nil {
		t.Fatalf("build_layers: %v", err)
	}
	if len(out.Layers) != 2 {
		t.Fatalf("layers = %v", out.Layers)
	}
	if out.Layers[0][0] != "login" || out.Layers[1][0] != "create_user" {
		t.Fatalf("layer order = %v", out.Layers)
	}

	// Introduce a cycle; the tool reports problems instead of layers.
	if err := fs.WriteText("scenarios/login.glyph", "[ref: create_user] log in"); err != nil {
		t.Fatalf("rewrite scenario: %v", err)
	}
	_, out, err = srv.handleBuildLayers(context.Background(), nil, buildLayersInput{})
	if err != nil {
		t.Fatalf("build_layers with cycle: %v", err)
	}
	if len(out.Problems) == 0 {
		t.Fatal("cycle not reported")
	}
	if len(out.Layers) != 0 {
		t.Fatalf("layers = %v, want none with a cycle", out.Layers)
	}
}

package ledger

import (
	"strings"
	"testing"

	"github.com/glyphtool/glyph/internal/fsx"
)

func TestLoad_MissingFileYieldsEmptyLedger(t *testing.T) {
	t.Parallel()
	p, err := Load(fsx.NewMem(), ".glyph/build_progress.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != CurrentVersion || len(p.Scenarios) != 0 {
		t.Fatalf("unexpected ledger: %+v", p)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	fs := fsx.NewMem()
	path := ".glyph/build_progress.json"

	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.Register("create_user", "scenarios/create_user.glyph", []string{"login"})
	p.MarkInProgress("create_user")
	p.SetStepList("create_user", []string{"log in", "open admin", "create user"})
	p.AppendCompletedStep("create_user", 0)
	p.UpdateSpecCode("create_user", "await page.goto('/');")

	if err := p.Save(fs, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sp := loaded.Scenarios["create_user"]
	if sp == nil {
		t.Fatal("create_user missing after reload")
	}
	if sp.Status != StatusInProgress {
		t.Fatalf("status = %q", sp.Status)
	}
	if len(sp.CompletedSteps) != 1 || sp.CompletedSteps[0] != 0 {
		t.Fatalf("completed_steps = %v", sp.CompletedSteps)
	}
	if sp.CurrentSpecCode == nil || *sp.CurrentSpecCode != "await page.goto('/');" {
		t.Fatalf("current_spec_code = %v", sp.CurrentSpecCode)
	}
	if loaded.CurrentScenario == nil || *loaded.CurrentScenario != "create_user" {
		t.Fatalf("current_scenario = %v", loaded.CurrentScenario)
	}
	// Resuming picks up at the first uncompleted step.
	if got := loaded.NextStep("create_user"); got != 1 {
		t.Fatalf("NextStep = %d, want 1", got)
	}
}

func TestLoad_LegacyLedgerWithoutVersion(t *testing.T) {
	t.Parallel()
	fs := fsx.NewMem()
	path := ".glyph/build_progress.json"
	legacy := `{
  "scenarios": {
    "login": {
      "scenario_name": "login",
      "scenario_path": "scenarios/login.glyph",
      "status": "completed",
      "dependencies": [],
      "references": null,
      "current_spec_code": null,
      "current_reference_building": null,
      "error_message": null,
      "spec_file_path": "scenarios/login.spec.js",
      "completed_steps": null,
      "step_list": null
    }
  },
  "current_scenario": null
}`
	if err := fs.WriteText(path, legacy); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	p, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != CurrentVersion {
		t.Fatalf("version = %d, want upgraded to %d", p.Version, CurrentVersion)
	}
	sp := p.Scenarios["login"]
	if sp == nil || sp.Status != StatusCompleted {
		t.Fatalf("legacy scenario lost: %+v", sp)
	}
	if sp.CompletedSteps == nil || sp.StepList == nil || sp.References == nil {
		t.Fatal("nil slices not normalized on legacy load")
	}

	if err := p.Save(fs, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	text, _ := fs.ReadText(path)
	if !strings.Contains(text, `"version": 1`) {
		t.Fatalf("saved ledger missing version: %s", text)
	}
}

func TestLoad_CorruptLedger(t *testing.T) {
	t.Parallel()
	fs := fsx.NewMem()
	path := ".glyph/build_progress.json"
	if err := fs.WriteText(path, "{broken"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if _, err := Load(fs, path); err == nil {
		t.Fatal("Load returned nil error for corrupt ledger")
	}
}

func TestLoad_RepairsCrashResidue(t *testing.T) {
	t.Parallel()
	fs := fsx.NewMem()
	path := ".glyph/build_progress.json"

	// current_scenario points at a completed record, and two extra records
	// were left in_progress: one with a checkpoint, one without.
	raw := `{
  "version": 1,
  "scenarios": {
    "done": {"scenario_name": "done", "scenario_path": "scenarios/done.glyph", "status": "completed"},
    "fresh": {"scenario_name": "fresh", "scenario_path": "scenarios/fresh.glyph", "status": "in_progress"},
    "resumable": {"scenario_name": "resumable", "scenario_path": "scenarios/resumable.glyph", "status": "in_progress", "completed_steps": [0, 1]}
  },
  "current_scenario": "done"
}`
	if err := fs.WriteText(path, raw); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	p, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.CurrentScenario != nil {
		t.Fatalf("current_scenario = %q, want cleared", *p.CurrentScenario)
	}
	// First in_progress record by name keeps its status, the other had no
	// checkpointed steps and would keep it too only if it came first.
	if got := p.Scenarios["fresh"].Status; got != StatusInProgress {
		t.Fatalf("fresh status = %q, want %q", got, StatusInProgress)
	}
	if got := p.Scenarios["resumable"].Status; got != StatusInProgress {
		t.Fatalf("resumable status = %q, want %q (has checkpoints)", got, StatusInProgress)
	}
}

func TestLoad_ResetsStrayInProgress(t *testing.T) {
	t.Parallel()
	fs := fsx.NewMem()
	path := ".glyph/build_progress.json"

	raw := `{
  "version": 1,
  "scenarios": {
    "active": {"scenario_name": "active", "scenario_path": "scenarios/active.glyph", "status": "in_progress", "completed_steps": [0]},
    "stray": {"scenario_name": "stray", "scenario_path": "scenarios/stray.glyph", "status": "in_progress"}
  },
  "current_scenario": "active"
}`
	if err := fs.WriteText(path, raw); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	p, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.CurrentScenario == nil || *p.CurrentScenario != "active" {
		t.Fatal("current_scenario lost during repair")
	}
	if got := p.Scenarios["stray"].Status; got != StatusNotYetImplemented {
		t.Fatalf("stray status = %q, want %q", got, StatusNotYetImplemented)
	}
	if got := p.Scenarios["active"].Status; got != StatusInProgress {
		t.Fatalf("active status = %q, want %q", got, StatusInProgress)
	}
}

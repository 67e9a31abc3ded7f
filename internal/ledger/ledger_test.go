package ledger

import (
	"testing"
)

func TestRegister_FirstSight(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)

	sp := p.Scenarios["login"]
	if sp == nil {
		t.Fatal("scenario not registered")
	}
	if sp.Status != StatusNotYetImplemented {
		t.Fatalf("status = %q, want %q", sp.Status, StatusNotYetImplemented)
	}
	if sp.Dependencies == nil || sp.CompletedSteps == nil || sp.StepList == nil {
		t.Fatal("slices not initialized")
	}
}

func TestRegister_KeepsStateOnReRegister(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.MarkInProgress("login")
	p.AppendCompletedStep("login", 0)

	p.Register("login", "scenarios/login.glyph", []string{"signup"})

	sp := p.Scenarios["login"]
	if sp.Status != StatusInProgress {
		t.Fatalf("status = %q, want in_progress preserved", sp.Status)
	}
	if len(sp.CompletedSteps) != 1 {
		t.Fatalf("completed steps = %v, want preserved", sp.CompletedSteps)
	}
	if len(sp.Dependencies) != 1 || sp.Dependencies[0] != "signup" {
		t.Fatalf("dependencies = %v, want refreshed", sp.Dependencies)
	}
}

func TestNotYetImplemented_FollowsGivenOrder(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.Register("create_user", "scenarios/create_user.glyph", []string{"login"})
	p.Register("signup", "scenarios/signup.glyph", nil)

	p.MarkInProgress("create_user")
	p.MarkCompleted("login", "scenarios/login.spec.js")

	got := p.NotYetImplemented([]string{"login", "signup", "create_user"})
	if len(got) != 2 || got[0] != "signup" || got[1] != "create_user" {
		t.Fatalf("NotYetImplemented = %v, want [signup create_user]", got)
	}
}

func TestNotYetImplemented_ExcludesFailed(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.MarkFailed("login", "model gave up")

	if got := p.NotYetImplemented([]string{"login"}); len(got) != 0 {
		t.Fatalf("NotYetImplemented = %v, want empty", got)
	}
}

func TestMarkTransitions(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)

	p.MarkInProgress("login")
	if p.CurrentScenario == nil || *p.CurrentScenario != "login" {
		t.Fatalf("current_scenario = %v, want login", p.CurrentScenario)
	}

	p.UpdateSpecCode("login", "await page.goto('/');")
	p.SetCurrentReference("login", "signup")

	p.MarkCompleted("login", "scenarios/login.spec.js")
	sp := p.Scenarios["login"]
	if sp.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", sp.Status)
	}
	if sp.CurrentSpecCode != nil || sp.CurrentReferenceBuilding != nil {
		t.Fatal("working state not cleared on completion")
	}
	if sp.SpecFilePath == nil || *sp.SpecFilePath != "scenarios/login.spec.js" {
		t.Fatalf("spec_file_path = %v", sp.SpecFilePath)
	}
	if p.CurrentScenario != nil {
		t.Fatalf("current_scenario = %v, want cleared", p.CurrentScenario)
	}
}

func TestMarkFailed_RecordsMessage(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.MarkInProgress("login")
	p.MarkFailed("login", "dependencies could not be resolved")

	sp := p.Scenarios["login"]
	if sp.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", sp.Status)
	}
	if sp.ErrorMessage == nil || *sp.ErrorMessage != "dependencies could not be resolved" {
		t.Fatalf("error_message = %v", sp.ErrorMessage)
	}
	if p.CurrentScenario != nil {
		t.Fatal("current_scenario not cleared on failure")
	}
}

func TestFailedThenRetry(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.MarkFailed("login", "timeout")

	p.MarkInProgress("login")
	sp := p.Scenarios["login"]
	if sp.Status != StatusInProgress {
		t.Fatalf("status = %q, want in_progress on retry", sp.Status)
	}
	if sp.ErrorMessage != nil {
		t.Fatalf("error_message = %v, want cleared on retry", sp.ErrorMessage)
	}
}

func TestAppendCompletedStep_Monotonic(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)

	p.AppendCompletedStep("login", 0)
	p.AppendCompletedStep("login", 0)
	p.AppendCompletedStep("login", 1)

	sp := p.Scenarios["login"]
	if len(sp.CompletedSteps) != 2 || sp.CompletedSteps[0] != 0 || sp.CompletedSteps[1] != 1 {
		t.Fatalf("completed_steps = %v, want [0 1]", sp.CompletedSteps)
	}
	if got := p.NextStep("login"); got != 2 {
		t.Fatalf("NextStep = %d, want 2", got)
	}
}

func TestScenarioIsolation(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.Register("signup", "scenarios/signup.glyph", nil)

	p.MarkInProgress("login")
	p.AppendCompletedStep("login", 0)
	p.MarkFailed("login", "boom")

	sp := p.Scenarios["signup"]
	if sp.Status != StatusNotYetImplemented || len(sp.CompletedSteps) != 0 {
		t.Fatalf("signup affected by login: %+v", sp)
	}
}

func TestReconcile_DropsVanishedScenarios(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.Register("old_flow", "scenarios/old_flow.glyph", nil)
	p.MarkInProgress("old_flow")

	dropped := p.Reconcile(map[string]bool{"login": true})
	if len(dropped) != 1 || dropped[0] != "old_flow" {
		t.Fatalf("dropped = %v, want [old_flow]", dropped)
	}
	if _, ok := p.Scenarios["old_flow"]; ok {
		t.Fatal("old_flow still in ledger")
	}
	if p.CurrentScenario != nil {
		t.Fatal("current_scenario not cleared after drop")
	}
}

func TestFinalReport(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", nil)
	p.Register("signup", "scenarios/signup.glyph", nil)
	p.MarkCompleted("login", "scenarios/login.spec.js")

	report := p.FinalReport()
	if report["scenarios/login.glyph"] != StatusCompleted {
		t.Fatalf("report = %v", report)
	}
	if report["scenarios/signup.glyph"] != StatusNotYetImplemented {
		t.Fatalf("report = %v", report)
	}
}

func TestInvalidate_ResetsDerivedState(t *testing.T) {
	t.Parallel()
	p := New()
	p.Register("login", "scenarios/login.glyph", []string{"seed"})
	p.MarkInProgress("login")
	p.SetStepList("login", []string{"open", "submit"})
	p.AppendCompletedStep("login", 0)
	p.UpdateSpecCode("login", "test()")
	p.MarkCompleted("login", "scenarios/login.spec.js")

	p.Invalidate("login")

	sp := p.Scenarios["login"]
	if sp.Status != StatusNotYetImplemented {
		t.Fatalf("status = %q, want %q", sp.Status, StatusNotYetImplemented)
	}
	if len(sp.CompletedSteps) != 0 || len(sp.StepList) != 0 {
		t.Fatalf("derived state survived: steps=%v list=%v", sp.CompletedSteps, sp.StepList)
	}
	if sp.SpecFilePath != nil || sp.CurrentSpecCode != nil {
		t.Fatal("spec references survived invalidation")
	}
	if got := sp.Dependencies; len(got) != 1 || got[0] != "seed" {
		t.Fatalf("dependencies = %v, want [seed]", got)
	}
}

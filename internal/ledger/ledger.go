// Package ledger persists build progress. The ledger is the single source of
// truth for what has been built: it is checkpointed after every step so a
// crashed or interrupted run resumes at the first uncompleted step instead of
// redoing finished work.
package ledger

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// CurrentVersion is written to every saved ledger. Files without a version
// key predate versioning and load as legacy.
const CurrentVersion = 1

// Scenario build statuses.
const (
	StatusNotYetImplemented = "not_yet_implemented"
	StatusInProgress        = "in_progress"
	StatusCompleted         = "completed"
	StatusFailed            = "failed"
)

// ScenarioProgress is the mutable per-scenario record.
type ScenarioProgress struct {
	ScenarioName             string   `json:"scenario_name"`
	ScenarioPath             string   `json:"scenario_path"`
	Status                   string   `json:"status"`
	Dependencies             []string `json:"dependencies"`
	References               []string `json:"references"`
	CurrentSpecCode          *string  `json:"current_spec_code"`
	CurrentReferenceBuilding *string  `json:"current_reference_building"`
	ErrorMessage             *string  `json:"error_message"`
	SpecFilePath             *string  `json:"spec_file_path"`
	CompletedSteps           []int    `json:"completed_steps"`
	StepList                 []string `json:"step_list"`
}

// BuildProgress is the whole ledger.
type BuildProgress struct {
	Version         int                          `json:"version"`
	Scenarios       map[string]*ScenarioProgress `json:"scenarios"`
	CurrentScenario *string                      `json:"current_scenario"`
}

// New returns an empty ledger at the current version.
func New() *BuildProgress {
	return &BuildProgress{
		Version:   CurrentVersion,
		Scenarios: make(map[string]*ScenarioProgress),
	}
}

// Register creates the record for a scenario at first sight. Re-registering
// an already known scenario keeps its state but refreshes the dependency
// list, so edits to references take effect on the next run.
func (p *BuildProgress) Register(name, path string, dependencies []string) {
	if dependencies == nil {
		dependencies = []string{}
	}
	if existing, ok := p.Scenarios[name]; ok {
		existing.Dependencies = dependencies
		existing.ScenarioPath = path
		return
	}
	p.Scenarios[name] = &ScenarioProgress{
		ScenarioName:   name,
		ScenarioPath:   path,
		Status:         StatusNotYetImplemented,
		Dependencies:   dependencies,
		References:     []string{},
		CompletedSteps: []int{},
		StepList:       []string{},
	}
}

// NotYetImplemented returns the names from order that still need building:
// anything neither completed nor failed, including in_progress leftovers
// from an interrupted run.
func (p *BuildProgress) NotYetImplemented(order []string) []string {
	var out []string
	for _, name := range order {
		sp, ok := p.Scenarios[name]
		if !ok {
			continue
		}
		if sp.Status != StatusCompleted && sp.Status != StatusFailed {
			out = append(out, name)
		}
	}
	return out
}

// Completed returns the completed scenario names, sorted.
func (p *BuildProgress) Completed() []string {
	return p.withStatus(StatusCompleted)
}

// Failed returns the failed scenario names, sorted.
func (p *BuildProgress) Failed() []string {
	return p.withStatus(StatusFailed)
}

// InProgress returns the in-progress scenario names, sorted.
func (p *BuildProgress) InProgress() []string {
	return p.withStatus(StatusInProgress)
}

func (p *BuildProgress) withStatus(status string) []string {
	var out []string
	for name, sp := range p.Scenarios {
		if sp.Status == status {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Invalidate resets a scenario whose source changed since it was built. The
// record keeps its dependencies but loses every derived artifact reference,
// so the next run rebuilds it from the decomposition onward.
func (p *BuildProgress) Invalidate(name string) {
	sp, ok := p.Scenarios[name]
	if !ok {
		return
	}
	sp.Status = StatusNotYetImplemented
	sp.CompletedSteps = []int{}
	sp.StepList = []string{}
	sp.CurrentSpecCode = nil
	sp.CurrentReferenceBuilding = nil
	sp.ErrorMessage = nil
	sp.SpecFilePath = nil
	p.clearCurrentIf(name)
}

// MarkInProgress transitions a scenario to in_progress and makes it current.
func (p *BuildProgress) MarkInProgress(name string) {
	sp, ok := p.Scenarios[name]
	if !ok {
		return
	}
	sp.Status = StatusInProgress
	sp.ErrorMessage = nil
	p.CurrentScenario = &sp.ScenarioName
}

// MarkCompleted transitions a scenario to completed and records where its
// script was written. Working state is cleared; the script lives on disk now.
func (p *BuildProgress) MarkCompleted(name, specFilePath string) {
	sp, ok := p.Scenarios[name]
	if !ok {
		return
	}
	sp.Status = StatusCompleted
	sp.SpecFilePath = &specFilePath
	sp.CurrentSpecCode = nil
	sp.CurrentReferenceBuilding = nil
	sp.ErrorMessage = nil
	p.clearCurrentIf(name)
}

// MarkFailed transitions a scenario to failed with the abort reason.
func (p *BuildProgress) MarkFailed(name, errorMessage string) {
	sp, ok := p.Scenarios[name]
	if !ok {
		return
	}
	sp.Status = StatusFailed
	sp.ErrorMessage = &errorMessage
	p.clearCurrentIf(name)
}

func (p *BuildProgress) clearCurrentIf(name string) {
	if p.CurrentScenario != nil && *p.CurrentScenario == name {
		p.CurrentScenario = nil
	}
}

// SetCurrentReference records which dependency is being built for name.
func (p *BuildProgress) SetCurrentReference(name, reference string) {
	if sp, ok := p.Scenarios[name]; ok {
		sp.CurrentReferenceBuilding = &reference
	}
}

// ClearCurrentReference clears the dependency-building marker.
func (p *BuildProgress) ClearCurrentReference(name string) {
	if sp, ok := p.Scenarios[name]; ok {
		sp.CurrentReferenceBuilding = nil
	}
}

// UpdateSpecCode replaces the working script text.
func (p *BuildProgress) UpdateSpecCode(name, specCode string) {
	if sp, ok := p.Scenarios[name]; ok {
		sp.CurrentSpecCode = &specCode
	}
}

// SetStepList stores the decomposed step descriptions for name.
func (p *BuildProgress) SetStepList(name string, steps []string) {
	if sp, ok := p.Scenarios[name]; ok {
		if steps == nil {
			steps = []string{}
		}
		sp.StepList = steps
	}
}

// AppendCompletedStep records that step index finished. Indices only ever
// grow; re-appending the current last index is ignored so a checkpoint retry
// stays idempotent.
func (p *BuildProgress) AppendCompletedStep(name string, index int) {
	sp, ok := p.Scenarios[name]
	if !ok {
		return
	}
	if n := len(sp.CompletedSteps); n > 0 && sp.CompletedSteps[n-1] == index {
		return
	}
	sp.CompletedSteps = append(sp.CompletedSteps, index)
}

// NextStep returns the index of the first uncompleted step for name.
func (p *BuildProgress) NextStep(name string) int {
	if sp, ok := p.Scenarios[name]; ok {
		return len(sp.CompletedSteps)
	}
	return 0
}

// FinalReport maps scenario paths to their status, mirroring what the
// orchestrator prints when a run ends.
func (p *BuildProgress) FinalReport() map[string]string {
	out := make(map[string]string, len(p.Scenarios))
	for _, sp := range p.Scenarios {
		out[sp.ScenarioPath] = sp.Status
	}
	return out
}

// repair cleans crash residue after load. A current_scenario marker must
// point at an in_progress record; at most one record without checkpointed
// steps may sit in in_progress, the rest go back to not_yet_implemented.
func (p *BuildProgress) repair() {
	if p.CurrentScenario != nil {
		sp, ok := p.Scenarios[*p.CurrentScenario]
		if !ok || sp.Status != StatusInProgress {
			p.CurrentScenario = nil
		}
	}

	keep := ""
	if p.CurrentScenario != nil {
		keep = *p.CurrentScenario
	}
	for _, name := range p.InProgress() {
		if keep == "" {
			keep = name
			continue
		}
		if name == keep {
			continue
		}
		sp := p.Scenarios[name]
		if len(sp.CompletedSteps) > 0 {
			continue
		}
		log.Debug().Str("scenario", name).Msg("stray in_progress record reset")
		sp.Status = StatusNotYetImplemented
	}
}

// Reconcile drops ledger entries whose scenario files vanished from disk and
// clears a dangling current_scenario marker. Returns the dropped names.
func (p *BuildProgress) Reconcile(known map[string]bool) []string {
	var dropped []string
	for name := range p.Scenarios {
		if !known[name] {
			dropped = append(dropped, name)
		}
	}
	sort.Strings(dropped)
	for _, name := range dropped {
		log.Warn().Str("scenario", name).Msg("scenario file removed, dropping ledger entry")
		delete(p.Scenarios, name)
	}
	if p.CurrentScenario != nil {
		if _, ok := p.Scenarios[*p.CurrentScenario]; !ok {
			p.CurrentScenario = nil
		}
	}
	return dropped
}

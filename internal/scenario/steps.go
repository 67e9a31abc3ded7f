package scenario

import (
	"github.com/rs/zerolog/log"
)

// Kind discriminates the step variants.
type Kind string

// Step kinds.
const (
	KindAction       Kind = "action"
	KindCheck        Kind = "check"
	KindPrecondition Kind = "precondition"
)

// Step is one ordered unit of a decomposed scenario. The populated fields
// depend on Kind; the zero values of the other variants stay empty in JSON.
type Step struct {
	Kind        Kind   `json:"type"`
	Description string `json:"description"`

	// action
	ActionType string         `json:"action_type,omitempty"`
	Data       map[string]any `json:"data,omitempty"`

	// check
	CheckType  string `json:"check_type,omitempty"`
	Expected   string `json:"expected,omitempty"`
	IsExplicit bool   `json:"is_explicit,omitempty"`

	// precondition
	PreconditionType string `json:"precondition_type,omitempty"`
	Role             string `json:"role,omitempty"`

	// shared by all variants
	Target string `json:"target,omitempty"`
}

// NewAction builds an action step.
func NewAction(description, actionType, target string, data map[string]any) Step {
	return Step{Kind: KindAction, Description: description, ActionType: actionType, Target: target, Data: data}
}

// NewCheck builds a check step. Explicit checks come from the scenario text;
// baseline checks are implicit.
func NewCheck(description, checkType, target, expected string, explicit bool) Step {
	return Step{Kind: KindCheck, Description: description, CheckType: checkType, Target: target, Expected: expected, IsExplicit: explicit}
}

// NewPrecondition builds a precondition step.
func NewPrecondition(description, preconditionType, role, target string) Step {
	return Step{Kind: KindPrecondition, Description: description, PreconditionType: preconditionType, Role: role, Target: target}
}

// PlannedStep is the decomposition shape returned by the model.
type PlannedStep struct {
	Type             string         `json:"type"`
	Description      string         `json:"description"`
	ActionType       string         `json:"action_type"`
	Target           string         `json:"target"`
	Data             map[string]any `json:"data"`
	CheckType        string         `json:"check_type"`
	Expected         string         `json:"expected"`
	PreconditionType string         `json:"precondition_type"`
	Role             string         `json:"role"`
}

// StepsFromPlan converts model-planned steps into typed steps, applying the
// historical defaults for missing fields. Reference markers that do not
// resolve to a known scenario are stripped and reported as unresolved in the
// returned outcomes. The two baseline checks are appended.
func StepsFromPlan(planned []PlannedStep, known map[string]Scenario, scenarioName string) ([]Step, []RefOutcome) {
	steps := make([]Step, 0, len(planned)+2)
	var refs []RefOutcome
	for _, p := range planned {
		description := p.Description
		switch p.Type {
		case "check":
			checkType := p.CheckType
			if checkType == "" {
				checkType = "visible"
			}
			steps = append(steps, NewCheck(description, checkType, p.Target, p.Expected, true))
		case "precondition":
			preType := p.PreconditionType
			if preType == "" {
				preType = "setup"
			}
			steps = append(steps, NewPrecondition(description, preType, p.Role, p.Target))
		default:
			actionType := p.ActionType
			if actionType == "" {
				actionType = "click"
			}
			for _, ref := range Refs(description) {
				if _, ok := known[ref]; ok {
					refs = append(refs, RefOutcome{Ref: ref, State: RefResolved})
					continue
				}
				log.Warn().
					Str("scenario", scenarioName).
					Str("reference", ref).
					Msg("step references unknown scenario, keeping as direct action")
				description = StripRef(description, ref)
				refs = append(refs, RefOutcome{Ref: ref, State: RefUnresolved})
			}
			steps = append(steps, NewAction(description, actionType, p.Target, p.Data))
		}
	}
	return AppendBaselineChecks(steps), refs
}

// AppendBaselineChecks adds the two implicit technical checks every scenario
// ends with: no console errors and a successful page load.
func AppendBaselineChecks(steps []Step) []Step {
	return append(steps,
		NewCheck("no console errors", "console_error", "", "", false),
		NewCheck("page loaded successfully", "page_load", "", "", false),
	)
}

// Descriptions projects the ordered step descriptions, the form stored in
// guides and the ledger.
func Descriptions(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Description
	}
	return out
}

package build

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/scenario"
)

// resolveDependencies brings every dependency of sc to a usable state before
// its own build starts, building not-yet-built dependencies inline. Each
// reference yields a typed outcome; a failed dependency aborts resolution.
func (a *Agent) resolveDependencies(ctx context.Context, sc scenario.Scenario) ([]scenario.RefOutcome, error) {
	sp := a.progress.Scenarios[sc.Name]
	var outcomes []scenario.RefOutcome

	record := func(ref string, state scenario.RefState) {
		outcomes = append(outcomes, scenario.RefOutcome{Ref: ref, State: state})
		a.emit(Event{Type: EventReference, Scenario: sc.Name, Ref: ref, Detail: string(state)})
	}

	for _, dep := range sp.Dependencies {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		dp, ok := a.progress.Scenarios[dep]
		if !ok {
			log.Warn().Str("scenario", sc.Name).Str("dependency", dep).Msg("dependency not in ledger, skipping")
			record(dep, scenario.RefUnresolved)
			continue
		}

		switch dp.Status {
		case ledger.StatusCompleted:
			record(dep, scenario.RefResolved)
			continue
		case ledger.StatusFailed:
			record(dep, scenario.RefFailed)
			return outcomes, fmt.Errorf("dependency %s already failed", dep)
		case ledger.StatusInProgress:
			// Already being built higher up the chain; do not recurse.
			log.Warn().Str("scenario", sc.Name).Str("dependency", dep).Msg("dependency build already in progress")
			record(dep, scenario.RefDeferred)
			continue
		}

		depSc, ok := a.scenarios[dep]
		if !ok {
			record(dep, scenario.RefUnresolved)
			return outcomes, fmt.Errorf("dependency scenario %s not found", dep)
		}

		log.Info().Str("scenario", sc.Name).Str("dependency", dep).Msg("building dependency first")
		a.progress.SetCurrentReference(sc.Name, dep)
		if err := a.checkpoint(); err != nil {
			return outcomes, err
		}

		if !a.buildScenario(ctx, depSc) {
			record(dep, scenario.RefFailed)
			return outcomes, fmt.Errorf("dependency %s failed to build", dep)
		}

		a.progress.ClearCurrentReference(sc.Name)
		if err := a.checkpoint(); err != nil {
			return outcomes, err
		}
		record(dep, scenario.RefResolved)
	}

	return outcomes, nil
}

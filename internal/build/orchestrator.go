package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/graph"
	"github.com/glyphtool/glyph/internal/guide"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/scenario"
)

// BuildAll builds every pending scenario in dependency order. One scenario's
// failure never aborts the rest; the returned ledger carries the terminal
// status of each. The error return covers run-level problems only: graph
// validation, ledger IO, cancellation.
func (a *Agent) BuildAll(ctx context.Context, scenarios []scenario.Scenario) (*ledger.BuildProgress, error) {
	a.all = scenarios
	a.scenarios = scenario.ByName(scenarios)

	progress, err := ledger.Load(a.fs, a.ledgerPath)
	if err != nil {
		return nil, err
	}
	a.progress = progress

	known := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		known[sc.Name] = true
	}

	g := graph.New()
	for _, sc := range scenarios {
		resolved, unknown := scenario.KnownRefs(scenario.Refs(sc.Text), a.scenarios)
		for _, ref := range unknown {
			log.Warn().Str("scenario", sc.Name).Str("reference", ref).Msg("reference to unknown scenario dropped")
			a.emit(Event{Type: EventReference, Scenario: sc.Name, Ref: ref, Detail: string(scenario.RefUnresolved)})
		}
		a.progress.Register(sc.Name, sc.Path, resolved)
		g.AddScenario(sc.Name, resolved)
	}
	a.progress.Reconcile(known)
	if err := a.checkpoint(); err != nil {
		return nil, err
	}

	if ok, problems := g.Validate(); !ok {
		for _, p := range problems {
			log.Error().Msg(p)
		}
		return a.progress, fmt.Errorf("dependency validation failed: %s", strings.Join(problems, "; "))
	}

	layers, err := g.BuildLayers()
	if err != nil {
		return a.progress, err
	}
	catalog := guide.NewCatalog(a.fs, a.glyphDir)
	catalog.SetBuildLayers(layers)
	if err := catalog.Save(); err != nil {
		log.Warn().Err(err).Msg("knowledge catalog not updated")
	}

	var order []string
	for _, layer := range layers {
		order = append(order, layer...)
	}
	if a.target != "" {
		closure, err := g.Closure(a.target)
		if err != nil {
			return a.progress, err
		}
		kept := order[:0]
		for _, name := range order {
			if closure[name] {
				kept = append(kept, name)
			}
		}
		order = kept
	}

	a.invalidateStale(order)
	if err := a.checkpoint(); err != nil {
		return nil, err
	}

	pending := a.progress.NotYetImplemented(order)
	a.emit(Event{Type: EventRunStart, Total: len(pending)})
	log.Info().Int("scenarios", len(scenarios)).Int("pending", len(pending)).Msg("build run starting")

	built := 0
	for {
		if err := ctx.Err(); err != nil {
			return a.progress, err
		}
		remaining := a.progress.NotYetImplemented(order)
		if len(remaining) == 0 {
			break
		}
		name := remaining[0]
		sc, ok := a.scenarios[name]
		if !ok {
			// Ledger record without a source file; Reconcile should have
			// dropped it, so fail it rather than loop forever.
			a.fail(name, "scenario source missing")
			continue
		}

		built++
		log.Info().Str("scenario", name).Int("position", built).Int("pending", len(remaining)).Msg("building scenario")
		a.buildScenario(ctx, sc)
		if err := a.checkpoint(); err != nil {
			return a.progress, err
		}
	}

	report := a.progress.FinalReport()
	completed, failed := 0, 0
	for _, status := range report {
		switch status {
		case ledger.StatusCompleted:
			completed++
		case ledger.StatusFailed:
			failed++
		}
	}
	a.emit(Event{Type: EventRunComplete, Step: completed, Total: len(report), Detail: fmt.Sprintf("%d completed, %d failed", completed, failed)})
	log.Info().Int("completed", completed).Int("failed", failed).Msg("build run finished")

	return a.progress, nil
}

// invalidateStale re-opens completed scenarios whose source hash no longer
// matches the cached guide. The stale generated script is removed so the
// finished rebuild can write a fresh one.
func (a *Agent) invalidateStale(order []string) {
	for _, name := range order {
		sp, ok := a.progress.Scenarios[name]
		if !ok || sp.Status != ledger.StatusCompleted {
			continue
		}
		sc := a.scenarios[name]
		if !a.cache.ShouldRebuild(name, sc.Path, a.force) {
			a.emit(Event{Type: EventScenarioSkip, Scenario: name, Detail: "guide up to date"})
			continue
		}
		a.progress.Invalidate(name)
		if err := a.fs.Remove(sc.SpecPath()); err != nil {
			log.Warn().Err(err).Str("scenario", name).Msg("stale spec not removed")
		}
	}
}

// buildScenario takes one scenario from pending to a terminal status and
// reports whether it completed. Failures are recorded in the ledger, never
// propagated as errors.
func (a *Agent) buildScenario(ctx context.Context, sc scenario.Scenario) bool {
	a.emit(Event{Type: EventScenarioStart, Scenario: sc.Name})
	a.progress.MarkInProgress(sc.Name)
	if err := a.checkpoint(); err != nil {
		a.fail(sc.Name, err.Error())
		return false
	}

	if _, err := a.resolveDependencies(ctx, sc); err != nil {
		log.Error().Err(err).Str("scenario", sc.Name).Msg("dependency resolution failed")
		a.fail(sc.Name, "dependencies could not be resolved")
		return false
	}

	if err := a.iterativeBuild(ctx, sc); err != nil {
		log.Error().Err(err).Str("scenario", sc.Name).Msg("iterative build failed")
		a.fail(sc.Name, err.Error())
		return false
	}

	if err := a.finalize(sc); err != nil {
		a.fail(sc.Name, err.Error())
		return false
	}

	a.emit(Event{Type: EventScenarioDone, Scenario: sc.Name, Detail: sc.SpecPath()})
	return true
}

func (a *Agent) fail(name, msg string) {
	a.progress.MarkFailed(name, msg)
	if err := a.checkpoint(); err != nil {
		log.Error().Err(err).Str("scenario", name).Msg("failure not persisted")
	}
	a.emit(Event{Type: EventScenarioFail, Scenario: name, Detail: msg})
}

// finalize persists the finished script and guide. An existing script file
// is never overwritten; the ledger keeps the working copy as the in-memory
// fallback in that case.
func (a *Agent) finalize(sc scenario.Scenario) error {
	sp := a.progress.Scenarios[sc.Name]
	specPath := sc.SpecPath()
	current := ""
	if sp.CurrentSpecCode != nil {
		current = *sp.CurrentSpecCode
	}

	switch {
	case a.fs.Exists(specPath):
		preserved := sp.CurrentSpecCode
		a.progress.MarkCompleted(sc.Name, specPath)
		sp.CurrentSpecCode = preserved
		log.Info().Str("scenario", sc.Name).Str("path", specPath).Msg("existing spec left in place")
	case strings.TrimSpace(current) != "":
		if err := a.fs.WriteText(specPath, current); err != nil {
			return fmt.Errorf("write spec: %w", err)
		}
		a.progress.MarkCompleted(sc.Name, specPath)
		log.Info().Str("scenario", sc.Name).Str("path", specPath).Msg("spec written")
	default:
		return errors.New("no script produced")
	}

	hash, err := guide.HashFile(a.fs, sc.Path)
	if err != nil {
		log.Warn().Err(err).Str("scenario", sc.Name).Msg("guide not written")
		return nil
	}
	g := guide.Guide{
		ScenarioName: sc.Name,
		Actions:      sp.StepList,
		GlyphHash:    hash,
		BuiltAt:      time.Now().UTC(),
		Dependencies: sp.Dependencies,
	}
	if err := a.cache.Save(g); err != nil {
		log.Warn().Err(err).Str("scenario", sc.Name).Msg("guide not written")
	}
	return nil
}

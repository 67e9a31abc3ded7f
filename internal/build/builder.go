// Package build drives scenarios from natural-language text to passing
// Playwright specs. The orchestrator schedules scenarios in dependency
// order; the iterative builder turns one scenario into a script step by
// step, checkpointing the ledger after every step so an interrupted run
// resumes where it stopped.
package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/guide"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/llm"
	"github.com/glyphtool/glyph/internal/parse"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/scenario"
)

// Options configures an Agent.
type Options struct {
	FS       fsx.FS
	Provider llm.Provider
	Runner   sandbox.Runner
	Config   config.Config
	GlyphDir string
	Observer Observer

	// Force bypasses guide staleness checks and rebuilds everything.
	Force bool
	// Target restricts the run to one scenario and its dependency subtree.
	Target string
}

// Agent owns one build run: the ledger, the guide cache, and the scenario
// set stay fixed for its lifetime.
type Agent struct {
	fs       fsx.FS
	provider llm.Provider
	runner   sandbox.Runner
	cache    *guide.Cache
	cfg      config.Config
	glyphDir string
	obs      Observer
	force    bool
	target   string

	progress   *ledger.BuildProgress
	ledgerPath string
	all        []scenario.Scenario
	scenarios  map[string]scenario.Scenario
}

// NewAgent wires an Agent from options. Missing GlyphDir defaults to the
// sandbox workspace directory.
func NewAgent(opts Options) *Agent {
	glyphDir := opts.GlyphDir
	if glyphDir == "" {
		glyphDir = sandbox.DefaultDir
	}
	return &Agent{
		fs:         opts.FS,
		provider:   opts.Provider,
		runner:     opts.Runner,
		cache:      guide.NewCache(opts.FS, glyphDir),
		cfg:        opts.Config,
		glyphDir:   glyphDir,
		obs:        opts.Observer,
		force:      opts.Force,
		target:     opts.Target,
		ledgerPath: ledger.PathIn(glyphDir),
	}
}

func (a *Agent) emit(e Event) {
	if a.obs != nil {
		a.obs.OnEvent(e)
	}
}

// checkpoint persists the ledger. Every state transition goes through here
// so a crash at any point resumes from the last durable state.
func (a *Agent) checkpoint() error {
	if err := a.progress.Save(a.fs, a.ledgerPath); err != nil {
		log.Error().Err(err).Msg("ledger checkpoint failed")
		return err
	}
	return nil
}

type planReply struct {
	Steps []scenario.PlannedStep `json:"steps"`
}

type generationReply struct {
	Success bool   `json:"success"`
	Script  string `json:"script"`
	Reason  string `json:"reason"`
}

// decompose asks the model to break the scenario text into ordered steps and
// returns their descriptions, baseline checks included.
func (a *Agent) decompose(ctx context.Context, sc scenario.Scenario) ([]string, error) {
	reply, err := a.provider.Generate(ctx, planSystem, planUser(a.cfg, sc, scenario.OtherTexts(a.all, sc.Name)))
	if err != nil {
		return nil, fmt.Errorf("plan scenario: %w", err)
	}
	doc, err := parse.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("plan reply: %w", err)
	}
	if err := parse.ValidateReply(parse.ReplyPlan, doc); err != nil {
		return nil, err
	}
	var plan planReply
	if err := json.Unmarshal([]byte(doc), &plan); err != nil {
		return nil, fmt.Errorf("decode plan reply: %w", err)
	}
	if len(plan.Steps) == 0 {
		return nil, errors.New("scenario decomposed into no steps")
	}

	steps, refs := scenario.StepsFromPlan(plan.Steps, a.scenarios, sc.Name)
	for _, ref := range refs {
		if ref.State == scenario.RefUnresolved {
			a.emit(Event{Type: EventReference, Scenario: sc.Name, Ref: ref.Ref, Detail: string(ref.State)})
		}
	}
	return scenario.Descriptions(steps), nil
}

// iterativeBuild runs the execute, observe, generate loop for one scenario
// until every step is checkpointed. A nil return means the working script in
// the ledger implements the full step list.
func (a *Agent) iterativeBuild(ctx context.Context, sc scenario.Scenario) error {
	sp := a.progress.Scenarios[sc.Name]

	if len(sp.StepList) == 0 {
		steps, err := a.decompose(ctx, sc)
		if err != nil {
			return err
		}
		a.progress.SetStepList(sc.Name, steps)
		if err := a.checkpoint(); err != nil {
			return err
		}
		log.Info().Str("scenario", sc.Name).Int("steps", len(steps)).Msg("scenario decomposed")
	} else {
		log.Info().Str("scenario", sc.Name).Int("resume_at", a.progress.NextStep(sc.Name)).Msg("resuming from checkpoint")
	}

	current := ""
	if sp.CurrentSpecCode != nil {
		current = *sp.CurrentSpecCode
	}
	if strings.TrimSpace(current) == "" {
		current = BaseScript(sc.Name, a.cfg.Connection.URL)
		a.progress.UpdateSpecCode(sc.Name, current)
		if err := a.checkpoint(); err != nil {
			return err
		}
	}

	iterations := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := a.progress.NextStep(sc.Name)
		total := len(sp.StepList)
		if next >= total {
			return nil
		}
		iterations++
		if iterations > a.cfg.Build.MaxIterations {
			return fmt.Errorf("step limit reached after %d iterations", a.cfg.Build.MaxIterations)
		}

		a.emit(Event{Type: EventStepStart, Scenario: sc.Name, Step: next, Total: total, Detail: sp.StepList[next]})

		specName, err := sandbox.WriteCapture(a.fs, a.glyphDir, current)
		if err != nil {
			return err
		}
		runCtx, cancel := context.WithTimeout(ctx, a.cfg.Build.ExecTimeout)
		outcome := a.runner.Run(runCtx, specName)
		cancel()
		a.emit(Event{Type: EventExecution, Scenario: sc.Name, Step: next, Total: total, Outcome: outcome.Status, Elapsed: outcome.Duration})

		switch outcome.Status {
		case sandbox.StatusError:
			return fmt.Errorf("execution error at step %d: %s", next, firstLine(outcome.Output))
		case sandbox.StatusFailed:
			// Expected before the first step exists; informative after.
			if next == 0 {
				log.Debug().Str("scenario", sc.Name).Msg("seed spec failed, proceeding to generation")
			}
		}

		observed := parse.PageState(outcome.Output)

		reply, err := a.provider.Generate(ctx, generateSystem,
			generateUser(a.cfg, sc, sp.StepList, next, current, observed, string(outcome.Status), scenario.OtherTexts(a.all, sc.Name)))
		if err != nil {
			return fmt.Errorf("generate step %d: %w", next, err)
		}
		doc, err := parse.ExtractJSON(reply)
		if err != nil {
			return fmt.Errorf("generation reply at step %d: %w", next, err)
		}
		if err := parse.ValidateReply(parse.ReplyGeneration, doc); err != nil {
			return err
		}
		var gen generationReply
		if err := json.Unmarshal([]byte(doc), &gen); err != nil {
			return fmt.Errorf("decode generation reply: %w", err)
		}
		if !gen.Success {
			if gen.Reason != "" {
				return fmt.Errorf("model declined step %d: %s", next, gen.Reason)
			}
			return fmt.Errorf("model declined step %d", next)
		}
		script := parse.ExtractScript(gen.Script)
		if strings.TrimSpace(script) == "" {
			return fmt.Errorf("empty script for step %d", next)
		}

		current = script
		a.progress.UpdateSpecCode(sc.Name, current)
		a.progress.AppendCompletedStep(sc.Name, next)
		if err := a.checkpoint(); err != nil {
			return err
		}
		a.emit(Event{Type: EventStepDone, Scenario: sc.Name, Step: next, Total: total})
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

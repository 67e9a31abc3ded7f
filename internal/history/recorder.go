package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/build"
)

// Recorder mirrors build events into the history store. Store failures are
// logged and swallowed; a broken history database must not stop a build.
type Recorder struct {
	ctx   context.Context
	store *Store

	mu     sync.Mutex
	active map[string]string // scenario name -> build id
	steps  map[string]int    // scenario name -> completed steps
}

// NewRecorder creates a recorder writing through store.
func NewRecorder(ctx context.Context, store *Store) *Recorder {
	return &Recorder{
		ctx:    ctx,
		store:  store,
		active: make(map[string]string),
		steps:  make(map[string]int),
	}
}

// OnEvent implements build.Observer.
func (r *Recorder) OnEvent(e build.Event) {
	var err error
	switch e.Type {
	case build.EventScenarioStart:
		err = r.start(e.Scenario)
	case build.EventScenarioSkip:
		err = r.skip(e.Scenario)
	case build.EventScenarioDone:
		err = r.finish(e.Scenario, BuildCompleted, e.Detail, nil)
	case build.EventScenarioFail:
		err = r.finish(e.Scenario, BuildFailed, "", &EventRecord{Type: "build_failed", Message: e.Detail})
	case build.EventStepStart:
		err = r.event(e.Scenario, "step_start", fmt.Sprintf("step %d/%d: %s", e.Step+1, e.Total, e.Detail), "")
	case build.EventStepDone:
		r.mu.Lock()
		r.steps[e.Scenario]++
		r.mu.Unlock()
		err = r.event(e.Scenario, "step_done", fmt.Sprintf("step %d/%d", e.Step+1, e.Total), "")
	case build.EventExecution:
		data, _ := json.Marshal(map[string]any{"elapsed_ms": e.Elapsed.Milliseconds()})
		err = r.event(e.Scenario, "execution", string(e.Outcome), string(data))
	case build.EventReference:
		err = r.event(e.Scenario, "reference", fmt.Sprintf("%s: %s", e.Ref, e.Detail), "")
	}
	if err != nil {
		log.Warn().Err(err).Str("scenario", e.Scenario).Msg("build history not recorded")
	}
}

func (r *Recorder) start(scenarioName string) error {
	buildID, err := NewBuildID()
	if err != nil {
		return err
	}
	if err := r.store.StartBuild(r.ctx, buildID, scenarioName); err != nil {
		return err
	}
	r.mu.Lock()
	r.active[scenarioName] = buildID
	r.steps[scenarioName] = 0
	r.mu.Unlock()
	return nil
}

func (r *Recorder) skip(scenarioName string) error {
	buildID, err := NewBuildID()
	if err != nil {
		return err
	}
	if err := r.store.StartBuild(r.ctx, buildID, scenarioName); err != nil {
		return err
	}
	return r.store.FinishBuild(r.ctx, buildID, BuildSkipped, 0, nil, nil)
}

func (r *Recorder) finish(scenarioName, status, specPath string, closing *EventRecord) error {
	r.mu.Lock()
	buildID, ok := r.active[scenarioName]
	steps := r.steps[scenarioName]
	delete(r.active, scenarioName)
	delete(r.steps, scenarioName)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	var path *string
	if specPath != "" {
		path = &specPath
	}
	return r.store.FinishBuild(r.ctx, buildID, status, steps, path, closing)
}

func (r *Recorder) event(scenarioName, typ, message, dataJSON string) error {
	r.mu.Lock()
	buildID, ok := r.active[scenarioName]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.store.AddEvent(r.ctx, buildID, typ, message, dataJSON)
}

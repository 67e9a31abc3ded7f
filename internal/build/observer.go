package build

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/sandbox"
)

// EventType classifies build events for filtering and routing.
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventRunComplete   EventType = "run_complete"
	EventScenarioStart EventType = "scenario_start"
	EventScenarioSkip  EventType = "scenario_skip"
	EventScenarioDone  EventType = "scenario_done"
	EventScenarioFail  EventType = "scenario_fail"
	EventReference     EventType = "reference"
	EventStepStart     EventType = "step_start"
	EventStepDone      EventType = "step_done"
	EventExecution     EventType = "execution"
)

// Event is a single observation from a build run. Step indices are zero
// based; renderers add one for display.
type Event struct {
	Type     EventType
	Scenario string
	Step     int
	Total    int
	Detail   string
	Ref      string
	Outcome  sandbox.Status
	Elapsed  time.Duration
	Err      error
}

// Observer receives build events. Single-method design so adding event types
// never breaks implementations.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, obs := range m {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}

// LogObserver writes build events as structured zerolog lines.
type LogObserver struct{}

func (LogObserver) OnEvent(e Event) {
	var ev *zerolog.Event
	switch e.Type {
	case EventScenarioFail:
		ev = log.Error()
	case EventReference:
		ev = log.Warn()
	case EventStepStart, EventStepDone, EventExecution:
		ev = log.Debug()
	default:
		ev = log.Info()
	}

	if e.Scenario != "" {
		ev = ev.Str("scenario", e.Scenario)
	}
	if e.Total > 0 {
		ev = ev.Int("step", e.Step).Int("total", e.Total)
	}
	if e.Detail != "" {
		ev = ev.Str("detail", e.Detail)
	}
	if e.Ref != "" {
		ev = ev.Str("reference", e.Ref)
	}
	if e.Outcome != "" {
		ev = ev.Str("outcome", string(e.Outcome))
	}
	if e.Elapsed > 0 {
		ev = ev.Dur("elapsed", e.Elapsed)
	}
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	ev.Msg(string(e.Type))
}

// Collector accumulates events in memory for assertions. Safe for concurrent
// use.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) OnEvent(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// OfType returns the collected events matching one type.
func (c *Collector) OfType(t EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

package sandbox

import (
	"context"
	"sync"
)

// Mock is a scripted Runner for tests. Outcomes are returned in order; once
// exhausted the last one repeats.
type Mock struct {
	mu       sync.Mutex
	outcomes []Outcome
	next     int
	specs    []string
}

// NewMock returns a runner that replays the given outcomes.
func NewMock(outcomes ...Outcome) *Mock {
	return &Mock{outcomes: outcomes}
}

// Run records the spec name and returns the next scripted outcome.
func (m *Mock) Run(_ context.Context, spec string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs = append(m.specs, spec)
	if len(m.outcomes) == 0 {
		return Outcome{Status: StatusError, Output: "mock runner: no outcomes queued"}
	}
	out := m.outcomes[m.next]
	if m.next < len(m.outcomes)-1 {
		m.next++
	}
	return out
}

// Specs returns the spec names run so far.
func (m *Mock) Specs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.specs...)
}

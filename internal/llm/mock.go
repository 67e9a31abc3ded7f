package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockCall records one exchange sent to the mock.
type MockCall struct {
	System string
	User   string
}

// Mock replays scripted replies in order and records every call. When the
// script runs out the last reply repeats, which keeps iteration loops in
// tests from needing an exact call count.
type Mock struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []MockCall
}

// NewMock builds a mock provider that replays the given replies.
func NewMock(replies ...string) *Mock {
	return &Mock{replies: replies}
}

// NewMockError builds a mock provider that always fails.
func NewMockError(err error) *Mock {
	return &Mock{err: err}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{System: system, User: user})
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", fmt.Errorf("mock provider has no replies")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return m.replies[idx], nil
}

// Calls returns a copy of the recorded exchanges.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

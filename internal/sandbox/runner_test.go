package sandbox

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestClassify_OutcomeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		ctxErr error
		runErr error
		want   Status
	}{
		{"clean exit", nil, nil, StatusPassed},
		{"nonzero exit", nil, &exec.ExitError{}, StatusFailed},
		{"deadline beats exit error", context.DeadlineExceeded, &exec.ExitError{}, StatusTimeout},
		{"missing binary", nil, errors.New(`exec: "npx": executable file not found`), StatusError},
		{"canceled run", context.Canceled, &exec.ExitError{}, StatusError},
	}
	for _, tc := range cases {
		if got := classify(tc.ctxErr, tc.runErr); got != tc.want {
			t.Errorf("%s: classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestMock_ReplaysOutcomesInOrder(t *testing.T) {
	t.Parallel()

	m := NewMock(
		Outcome{Status: StatusFailed, Output: "step one failed"},
		Outcome{Status: StatusPassed},
	)
	ctx := context.Background()

	if got := m.Run(ctx, "a.spec.js"); got.Status != StatusFailed {
		t.Fatalf("first run status = %q, want %q", got.Status, StatusFailed)
	}
	if got := m.Run(ctx, "b.spec.js"); got.Status != StatusPassed {
		t.Fatalf("second run status = %q, want %q", got.Status, StatusPassed)
	}
	// Exhausted mocks keep answering with the last outcome.
	if got := m.Run(ctx, "c.spec.js"); got.Status != StatusPassed {
		t.Fatalf("third run status = %q, want %q", got.Status, StatusPassed)
	}

	specs := m.Specs()
	if len(specs) != 3 || specs[0] != "a.spec.js" || specs[2] != "c.spec.js" {
		t.Fatalf("recorded specs = %v", specs)
	}
}

func TestMock_Empty(t *testing.T) {
	t.Parallel()

	m := NewMock()
	if got := m.Run(context.Background(), "a.spec.js"); got.Status != StatusError {
		t.Fatalf("status = %q, want %q", got.Status, StatusError)
	}
}

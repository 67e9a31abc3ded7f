// Package sandbox owns the Playwright workspace under .glyph: it keeps the
// harness files in shape, executes generated specs there, and classifies how
// each run ended.
package sandbox

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Status classifies a single spec execution.
type Status string

const (
	// StatusPassed means the spec ran and every test in it succeeded.
	StatusPassed Status = "passed"
	// StatusFailed means Playwright ran the spec and reported failures.
	StatusFailed Status = "failed"
	// StatusTimeout means the run was cut off by its deadline.
	StatusTimeout Status = "timeout"
	// StatusError means the spec never ran to a verdict, for example when
	// npx is missing or the run was canceled.
	StatusError Status = "error"
)

// Outcome is the result of one spec execution.
type Outcome struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output"`
}

// Runner executes one spec file and reports how it went. The spec name is
// relative to the runner's workspace.
type Runner interface {
	Run(ctx context.Context, spec string) Outcome
}

// Playwright runs specs through npx from inside the workspace directory so
// the playwright.config.js written by EnsureEnv governs the run.
type Playwright struct {
	dir string
}

// NewPlaywright returns a runner rooted at the workspace directory.
func NewPlaywright(dir string) *Playwright {
	return &Playwright{dir: dir}
}

// Run executes the named spec with the JSON reporter and combined output
// capture. It never returns an error; failures are folded into the Outcome
// so callers can feed the output back into the next generation round.
func (p *Playwright) Run(ctx context.Context, spec string) Outcome {
	start := time.Now()
	cmd := exec.CommandContext(ctx, "npx", "playwright", "test", spec, "--reporter=json")
	cmd.Dir = p.dir
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	status := classify(ctx.Err(), err)
	output := string(out)
	if status == StatusError && strings.TrimSpace(output) == "" && err != nil {
		output = err.Error()
	}

	log.Debug().
		Str("spec", spec).
		Str("status", string(status)).
		Dur("elapsed", elapsed).
		Msg("playwright run finished")

	return Outcome{Status: status, Duration: elapsed, Output: output}
}

// classify maps the context state and command error onto a Status. A killed
// process surfaces as an ExitError, so the deadline check must come first.
func classify(ctxErr, runErr error) Status {
	switch {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return StatusTimeout
	case runErr == nil:
		return StatusPassed
	case errors.Is(ctxErr, context.Canceled):
		return StatusError
	default:
		var exit *exec.ExitError
		if errors.As(runErr, &exit) {
			return StatusFailed
		}
		return StatusError
	}
}

package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/glyphtool/glyph/internal/build"
	"github.com/glyphtool/glyph/internal/ledger"
)

// Reporter turns build events into console output. Step-level detail only
// shows in verbose mode; the default is one line per scenario outcome.
type Reporter struct {
	w       io.Writer
	verbose bool
}

// NewReporter writes build progress to w.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

func (r *Reporter) printf(format string, a ...any) {
	fmt.Fprintf(r.w, format+"\n", a...)
}

// OnEvent implements build.Observer.
func (r *Reporter) OnEvent(e build.Event) {
	switch e.Type {
	case build.EventRunStart:
		if e.Total == 0 {
			r.printf("%s", InfoMsg("nothing to build"))
			return
		}
		r.printf("%s", InfoMsg("building %d %s", e.Total, plural(e.Total, "scenario")))
	case build.EventScenarioStart:
		r.printf("%s", Bold(e.Scenario))
	case build.EventScenarioSkip:
		r.printf("%s", Muted("  "+e.Scenario+" skipped ("+e.Detail+")"))
	case build.EventScenarioDone:
		r.printf("%s", SuccessMsg("%s", e.Scenario))
	case build.EventScenarioFail:
		r.printf("%s", ErrorMsg("%s: %s", e.Scenario, e.Detail))
	case build.EventReference:
		r.printf("%s", WarnMsg("%s: reference %s %s", e.Scenario, e.Ref, e.Detail))
	case build.EventStepStart:
		r.printf("  %s %s", Muted(fmt.Sprintf("[%d/%d]", e.Step+1, e.Total)), e.Detail)
	case build.EventExecution:
		if r.verbose {
			r.printf("    %s", Muted(fmt.Sprintf("run: %s in %s", e.Outcome, e.Elapsed.Round(time.Millisecond))))
		}
	case build.EventRunComplete:
		r.printf("%s", InfoMsg("%s", e.Detail))
	}
}

// StatusHeaders are the columns of the scenario status table.
func StatusHeaders() []string {
	return []string{"Scenario", "Status", "Steps", "Dependencies", "Detail"}
}

// StatusRows flattens the ledger into sorted table rows. Statuses stay
// unstyled so callers that measure cell widths get clean text.
func StatusRows(progress *ledger.BuildProgress) [][]string {
	names := make([]string, 0, len(progress.Scenarios))
	for name := range progress.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		sp := progress.Scenarios[name]
		steps := "-"
		if len(sp.StepList) > 0 {
			steps = fmt.Sprintf("%d/%d", len(sp.CompletedSteps), len(sp.StepList))
		}
		detail := ""
		switch {
		case sp.ErrorMessage != nil:
			detail = *sp.ErrorMessage
		case sp.CurrentReferenceBuilding != nil:
			detail = "building " + *sp.CurrentReferenceBuilding
		}
		rows = append(rows, []string{
			name,
			sp.Status,
			steps,
			strings.Join(sp.Dependencies, ", "),
			detail,
		})
	}
	return rows
}

// RenderStatus formats the ledger as a status table.
func RenderStatus(progress *ledger.BuildProgress) string {
	if len(progress.Scenarios) == 0 {
		return Muted("no scenarios tracked yet") + "\n"
	}

	rows := StatusRows(progress)
	for _, row := range rows {
		row[1] = StatusBadge(row[1])
	}
	return Table(StatusHeaders(), rows) + "\n"
}

// RenderSummary formats the final report counts as one line.
func RenderSummary(progress *ledger.BuildProgress) string {
	completed := len(progress.Completed())
	failed := len(progress.Failed())
	total := len(progress.Scenarios)

	parts := []string{SuccessStyle.Render(fmt.Sprintf("%d completed", completed))}
	if failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	if rest := total - completed - failed; rest > 0 {
		parts = append(parts, Muted(fmt.Sprintf("%d pending", rest)))
	}
	return strings.Join(parts, ", ") + Muted(fmt.Sprintf(" (%d total)", total))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

package scenario

import (
	"regexp"
	"strings"
)

// refPattern matches the explicit dependency marker inside step or scenario
// text: [ref: scenario-name].
var refPattern = regexp.MustCompile(`\[ref:\s*([A-Za-z0-9_][A-Za-z0-9_-]*)\s*\]`)

// RefState is how a reference to another scenario ended up.
type RefState string

const (
	// RefResolved means the reference named a known scenario.
	RefResolved RefState = "resolved"
	// RefUnresolved means the name is unknown; the marker is dropped and the
	// step kept as a direct action.
	RefUnresolved RefState = "unresolved"
	// RefFailed means the referenced scenario exists but its build failed.
	RefFailed RefState = "failed"
	// RefDeferred means the referenced scenario was already being built
	// higher up the chain, so resolution skipped it.
	RefDeferred RefState = "deferred"
)

// RefOutcome records one reference and how it resolved, so callers can report
// on unresolved references instead of inferring them from unchanged text.
type RefOutcome struct {
	Ref   string
	State RefState
}

// Refs returns every referenced scenario name in text, in first-appearance
// order, without duplicates.
func Refs(text string) []string {
	matches := refPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// RefsFromSteps collects references across an ordered list of step
// descriptions, preserving first-appearance order.
func RefsFromSteps(descriptions []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range descriptions {
		for _, ref := range Refs(d) {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

// KnownRefs splits refs into those resolving to a known scenario and the
// rest. Unknown references are not errors; a step may legitimately name a
// helper function rather than a scenario.
func KnownRefs(refs []string, known map[string]Scenario) (resolved, unknown []string) {
	for _, ref := range refs {
		if _, ok := known[ref]; ok {
			resolved = append(resolved, ref)
		} else {
			unknown = append(unknown, ref)
		}
	}
	return resolved, unknown
}

// StripRef removes the marker for one reference from text, collapsing the
// surrounding whitespace.
func StripRef(text, name string) string {
	out := refPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := refPattern.FindStringSubmatch(m)
		if len(sub) == 2 && sub[1] == name {
			return ""
		}
		return m
	})
	return strings.Join(strings.Fields(out), " ")
}

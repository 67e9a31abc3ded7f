package build

import (
	"fmt"
	"strings"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/glyphtool/glyph/internal/scenario"
)

// baseScriptTemplate is the seed every scenario starts from: navigate to the
// application and nothing else. The first generation round replaces it.
const baseScriptTemplate = `const { test, expect } = require('@playwright/test');

test('%s', async ({ page }) => {
  await page.goto('%s');
});
`

// BaseScript renders the bootstrap spec for a scenario.
func BaseScript(name, baseURL string) string {
	if baseURL == "" {
		baseURL = "/"
	}
	return fmt.Sprintf(baseScriptTemplate, name, baseURL)
}

const planSystem = `You are an expert automation engineer specializing in web automation.
Decompose a natural-language test scenario into ordered, atomic steps.
Respond with JSON only, in this shape:
{"steps": [{"type": "action" | "check" | "precondition", "description": "...",
"action_type": "...", "target": "...", "data": {}, "check_type": "...",
"expected": "...", "precondition_type": "...", "role": "..."}]}
Every step needs a description. Keep [ref: name] markers exactly as written
when a step delegates to another scenario.`

func planUser(cfg config.Config, sc scenario.Scenario, others []string) string {
	var b strings.Builder
	b.WriteString(cfg.PromptContext())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Scenario %q:\n%s\n", sc.Name, strings.TrimSpace(sc.Text))
	if len(others) > 0 {
		b.WriteString("\nOther scenarios available as references:\n\n")
		b.WriteString(strings.Join(others, "\n\n"))
		b.WriteString("\n")
	}
	b.WriteString("\nDecompose the scenario into ordered steps.")
	return b.String()
}

const generateSystem = `You are an expert automation engineer specializing in web automation.
You write Playwright test specs in JavaScript. Respond with JSON only:
{"success": true | false, "script": "<complete spec file>"}
Return the entire spec file, implementing every step marked done plus the
step marked current, using the observed page state to pick selectors.
Set success to false only when the current step cannot be implemented from
the observed state; include a short "reason" when you do.`

func generateUser(cfg config.Config, sc scenario.Scenario, steps []string, next int, script, observed string, lastRun string, others []string) string {
	var b strings.Builder
	b.WriteString(cfg.PromptContext())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Scenario %q:\n%s\n\n", sc.Name, strings.TrimSpace(sc.Text))
	b.WriteString("Steps:\n")
	b.WriteString(stepChecklist(steps, next))
	b.WriteString("\nCurrent spec:\n```js\n")
	b.WriteString(strings.TrimRight(script, "\n"))
	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "\nLast run outcome: %s\n", lastRun)
	if strings.TrimSpace(observed) != "" {
		b.WriteString("\nObserved page state:\n")
		b.WriteString(strings.TrimSpace(observed))
		b.WriteString("\n")
	}
	if len(others) > 0 {
		b.WriteString("\nOther scenarios for reference:\n\n")
		b.WriteString(strings.Join(others, "\n\n"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nExtend the spec so it also implements step %d.", next)
	return b.String()
}

// stepChecklist renders the ordered step list with done, current, and
// pending markers.
func stepChecklist(steps []string, next int) string {
	var b strings.Builder
	for i, step := range steps {
		mark := "[ ]"
		switch {
		case i < next:
			mark = "[x]"
		case i == next:
			mark = "[>]"
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i, step)
	}
	return b.String()
}

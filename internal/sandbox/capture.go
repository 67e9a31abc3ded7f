package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/glyphtool/glyph/internal/fsx"
)

// CaptureSpecFile is the scratch spec used for page state capture runs.
const CaptureSpecFile = "temp_state_capture.spec.js"

const captureMarker = "// glyph: page state capture"

// captureFooter is appended after the scripted steps. The afterEach hook
// fires for every test in the file, so the state dump reflects wherever the
// page ended up even when a step fails partway through.
const captureFooter = captureMarker + `
test.afterEach(async ({ page }) => {
  const state = await page.evaluate(() => {
    const describe = (el) => {
      const entry = { tag: el.tagName.toLowerCase() };
      if (el.id) entry.id = el.id;
      const name = el.getAttribute('name');
      if (name) entry.name = name;
      const type = el.getAttribute('type');
      if (type) entry.type = type;
      const testId = el.getAttribute('data-testid');
      if (testId) entry.testId = testId;
      const text = (el.innerText || el.value || el.getAttribute('placeholder') || '').trim();
      if (text) entry.text = text.slice(0, 80);
      const href = el.getAttribute('href');
      if (href) entry.href = href;
      return entry;
    };
    const pick = (selector) => Array.from(document.querySelectorAll(selector)).slice(0, 50).map(describe);
    return {
      url: window.location.href,
      title: document.title,
      interactionReport: {
        buttons: pick('button, [role="button"], input[type="submit"], input[type="button"]'),
        inputs: pick('input:not([type="submit"]):not([type="button"]), textarea'),
        selects: pick('select'),
        links: pick('a[href]'),
        labels: pick('label'),
      },
      headings: pick('h1, h2, h3'),
      elementCounts: {
        total: document.querySelectorAll('*').length,
        forms: document.forms.length,
      },
    };
  });
  console.log('Page State: ' + JSON.stringify(state));
});
`

// WithCapture appends the page state hook to a spec. Scripts that already
// carry the hook pass through unchanged.
func WithCapture(script string) string {
	if strings.Contains(script, captureMarker) {
		return script
	}
	return strings.TrimRight(script, "\n") + "\n\n" + captureFooter
}

// WriteCapture stores the capture variant of a script in the workspace and
// returns the spec name to hand to a Runner.
func WriteCapture(fs fsx.FS, dir, script string) (string, error) {
	if err := fs.WriteText(filepath.Join(dir, CaptureSpecFile), WithCapture(script)); err != nil {
		return "", err
	}
	return CaptureSpecFile, nil
}

package sandbox

import (
	"strings"
	"testing"

	"github.com/glyphtool/glyph/internal/fsx"
)

func TestEnsureEnv_CreatesHarnessFiles(t *testing.T) {
	t.Parallel()

	fs := fsx.NewMem()
	if err := EnsureEnv(fs, ".glyph", "http://localhost:4000"); err != nil {
		t.Fatalf("EnsureEnv: %v", err)
	}

	cfg, err := fs.ReadText(".glyph/playwright.config.js")
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(cfg, "baseURL: 'http://localhost:4000'") {
		t.Fatalf("config missing baseURL:\n%s", cfg)
	}
	if !fs.Exists(".glyph/package.json") {
		t.Fatal("package.json not written")
	}
}

func TestEnsureEnv_RewritesDriftedConfig(t *testing.T) {
	t.Parallel()

	fs := fsx.NewMem()
	if err := fs.WriteText(".glyph/playwright.config.js", "module.exports = {};"); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if err := EnsureEnv(fs, ".glyph", "http://localhost:3000"); err != nil {
		t.Fatalf("EnsureEnv: %v", err)
	}

	cfg, _ := fs.ReadText(".glyph/playwright.config.js")
	if cfg != PlaywrightConfig("http://localhost:3000") {
		t.Fatalf("config not restored to rendered template:\n%s", cfg)
	}
}

func TestEnsureEnv_KeepsEditedPackageJSON(t *testing.T) {
	t.Parallel()

	fs := fsx.NewMem()
	edited := `{"devDependencies": {"@playwright/test": "^1.99.0"}}`
	if err := fs.WriteText(".glyph/package.json", edited); err != nil {
		t.Fatalf("seed package.json: %v", err)
	}
	if err := EnsureEnv(fs, ".glyph", "http://localhost:3000"); err != nil {
		t.Fatalf("EnsureEnv: %v", err)
	}

	got, _ := fs.ReadText(".glyph/package.json")
	if got != edited {
		t.Fatalf("package.json rewritten:\n%s", got)
	}
}

func TestWithCapture_AppendsHookOnce(t *testing.T) {
	t.Parallel()

	script := "const { test, expect } = require('@playwright/test');\n\ntest('login', async ({ page }) => {\n  await page.goto('/');\n});\n"
	withHook := WithCapture(script)

	if !strings.HasPrefix(withHook, script[:strings.Index(script, "\n")]) {
		t.Fatal("original script head lost")
	}
	if !strings.Contains(withHook, "Page State: ") {
		t.Fatal("capture hook missing from composed spec")
	}
	if again := WithCapture(withHook); again != withHook {
		t.Fatal("second WithCapture changed an already composed spec")
	}
}

func TestWriteCapture_StoresScratchSpec(t *testing.T) {
	t.Parallel()

	fs := fsx.NewMem()
	name, err := WriteCapture(fs, ".glyph", "test('t', async () => {});")
	if err != nil {
		t.Fatalf("WriteCapture: %v", err)
	}
	if name != CaptureSpecFile {
		t.Fatalf("spec name = %q, want %q", name, CaptureSpecFile)
	}

	text, err := fs.ReadText(".glyph/" + CaptureSpecFile)
	if err != nil {
		t.Fatalf("read scratch spec: %v", err)
	}
	if !strings.Contains(text, "test('t'") || !strings.Contains(text, "test.afterEach") {
		t.Fatalf("scratch spec incomplete:\n%s", text)
	}
}

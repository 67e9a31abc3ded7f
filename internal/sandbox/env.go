package sandbox

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glyphtool/glyph/internal/fsx"
)

// DefaultDir is the workspace directory created next to the scenario sources.
const DefaultDir = ".glyph"

const (
	configFile  = "playwright.config.js"
	packageFile = "package.json"

	installTimeout = 5 * time.Minute
)

const packageJSON = `{
  "name": "glyph-playwright-tests",
  "version": "1.0.0",
  "description": "Playwright tests generated by glyph",
  "scripts": {
    "test": "playwright test",
    "test:headed": "playwright test --headed",
    "test:debug": "playwright test --debug"
  },
  "devDependencies": {
    "@playwright/test": "^1.40.0"
  }
}
`

const playwrightConfigTemplate = `const { defineConfig, devices } = require('@playwright/test');

module.exports = defineConfig({
  testDir: '.',
  fullyParallel: false,
  retries: 0,
  reporter: 'list',
  use: {
    baseURL: '%s',
    trace: 'on-first-retry',
  },
  projects: [
    {
      name: 'chromium',
      use: { ...devices['Desktop Chrome'] },
    },
  ],
});
`

// PlaywrightConfig renders the harness config for the given application URL.
func PlaywrightConfig(baseURL string) string {
	return fmt.Sprintf(playwrightConfigTemplate, baseURL)
}

// EnsureEnv makes the workspace runnable. The Playwright config is rewritten
// whenever its content drifts from what the current settings produce, so a
// changed application URL takes effect on the next run. package.json is only
// written when missing; local edits to pinned versions survive.
func EnsureEnv(fs fsx.FS, dir, baseURL string) error {
	configPath := filepath.Join(dir, configFile)
	want := PlaywrightConfig(baseURL)
	current, err := fs.ReadText(configPath)
	if err != nil || current != want {
		if err := fs.WriteText(configPath, want); err != nil {
			return err
		}
		log.Info().Str("path", configPath).Msg("wrote playwright config")
	}

	packagePath := filepath.Join(dir, packageFile)
	if !fs.Exists(packagePath) {
		if err := fs.WriteText(packagePath, packageJSON); err != nil {
			return err
		}
		log.Info().Str("path", packagePath).Msg("wrote package.json")
	}
	return nil
}

// Install fetches the npm packages and Playwright browsers the workspace
// needs. It is invoked from glyph init, not on every build.
func Install(ctx context.Context, dir string) error {
	steps := []struct {
		name string
		args []string
	}{
		{"npm packages", []string{"npm", "install"}},
		{"playwright browsers", []string{"npx", "playwright", "install"}},
	}
	for _, step := range steps {
		log.Info().Str("step", step.name).Msg("installing")
		stepCtx, cancel := context.WithTimeout(ctx, installTimeout)
		cmd := exec.CommandContext(stepCtx, step.args[0], step.args[1:]...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		cancel()
		if err != nil {
			return fmt.Errorf("install %s: %w: %s", step.name, err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

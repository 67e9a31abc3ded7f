package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initCmd() *cobra.Command {
	var skipInstall bool
	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Initialize a glyph workspace",
		Long:         "Initialize a glyph workspace by creating the .glyph directory, installing a default config, and fetching the Playwright toolchain.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			glyphDir := sandbox.DefaultDir
			log.Info().Str("dir", glyphDir).Msg("creating glyph directory")
			for _, sub := range []string{"runs", "guides", "locks"} {
				if err := os.MkdirAll(filepath.Join(glyphDir, sub), 0o755); err != nil {
					return fmt.Errorf("create %s dir: %w", sub, err)
				}
			}

			cfg := config.Default()
			if _, err := os.Stat(config.DefaultFile); err == nil {
				log.Info().Msgf("%s already exists, skipping", config.DefaultFile)
			} else {
				log.Info().Str("path", config.DefaultFile).Msg("installing default config")
				if err := writeDefaultConfig(config.DefaultFile, cfg); err != nil {
					return err
				}
			}

			if err := os.MkdirAll(cfg.ScenariosDir, 0o755); err != nil {
				return fmt.Errorf("create scenarios dir: %w", err)
			}

			if err := sandbox.EnsureEnv(fsx.NewOS(), glyphDir, cfg.Connection.URL); err != nil {
				return err
			}
			if !skipInstall {
				if err := sandbox.Install(cmd.Context(), glyphDir); err != nil {
					return err
				}
			}

			fmt.Println("glyph initialized successfully")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipInstall, "skip-install", false, "skip npm and browser installation")
	return cmd
}

func writeDefaultConfig(path string, cfg config.Config) error {
	defaultConfig := map[string]any{
		"target": cfg.Target,
		"connection": map[string]any{
			"url": cfg.Connection.URL,
		},
		"scenarios_dir": cfg.ScenariosDir,
		"llm": map[string]any{
			"provider":    cfg.LLM.Provider,
			"model":       cfg.LLM.Model,
			"api_key_env": cfg.LLM.APIKeyEnv,
		},
		"build": map[string]any{
			"max_iterations": cfg.Build.MaxIterations,
			"exec_timeout":   cfg.Build.ExecTimeout.String(),
		},
		"retention": map[string]any{
			"keep_last": cfg.Retention.KeepLast,
		},
	}
	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

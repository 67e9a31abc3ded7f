package main

import (
	"fmt"
	"os"

	"github.com/glyphtool/glyph/internal/build"
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/history"
	"github.com/glyphtool/glyph/internal/llm"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/scenario"
	"github.com/glyphtool/glyph/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func buildCmd() *cobra.Command {
	var verbose bool
	var force bool
	var target string
	cmd := &cobra.Command{
		Use:          "build",
		Short:        "Build spec files for every scenario",
		Long:         "Build spec files for every scenario in dependency order, resuming from the last checkpoint and skipping scenarios whose cached guides are still fresh.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fs := fsx.NewOS()

			lock, held, err := build.TryAcquireLock(sandbox.DefaultDir)
			if err != nil {
				return err
			}
			if !held {
				return fmt.Errorf("another build is running (lock %s/locks/run.lock)", sandbox.DefaultDir)
			}
			defer lock.Release()

			if err := sandbox.EnsureEnv(fs, sandbox.DefaultDir, cfg.Connection.URL); err != nil {
				return err
			}
			provider, err := llm.New(cmd.Context(), cfg.LLM)
			if err != nil {
				return err
			}
			scenarios, err := scenario.LoadDir(fs, cfg.ScenariosDir)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				fmt.Println(ui.WarnMsg("no scenario files in %s, nothing to build", cfg.ScenariosDir))
				return nil
			}

			obs := build.MultiObserver{
				build.LogObserver{},
				ui.NewReporter(os.Stdout, verbose),
			}
			if db, closeFn, err := openHistory(); err != nil {
				log.Warn().Err(err).Msg("build history disabled")
			} else {
				defer closeFn()
				obs = append(obs, history.NewRecorder(cmd.Context(), history.NewStore(db)))
			}

			agent := build.NewAgent(build.Options{
				FS:       fs,
				Provider: provider,
				Runner:   sandbox.NewPlaywright(sandbox.DefaultDir),
				Config:   cfg,
				GlyphDir: sandbox.DefaultDir,
				Observer: obs,
				Force:    force,
				Target:   target,
			})
			progress, err := agent.BuildAll(cmd.Context(), scenarios)
			if err != nil {
				return err
			}

			fmt.Println(ui.RenderSummary(progress))
			if failed := progress.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d scenario(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show execution detail for every step")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild everything, ignoring cached guides")
	cmd.Flags().StringVar(&target, "scenario", "", "build only this scenario and its dependency subtree")
	return cmd
}

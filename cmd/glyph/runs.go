package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/glyphtool/glyph/internal/history"
	"github.com/glyphtool/glyph/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and prune recorded builds",
	}
	cmd.AddCommand(runsListCmd())
	cmd.AddCommand(runsPruneCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List recorded builds, newest first",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openHistory()
			if err != nil {
				return err
			}
			defer closeFn()

			builds, err := history.NewStore(db).ListBuilds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(builds) == 0 {
				fmt.Println(ui.Muted("no builds recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(builds))
			for _, b := range builds {
				spec := ""
				if b.SpecPath != nil {
					spec = *b.SpecPath
				}
				created := b.CreatedAt
				if ts, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
					created = ts.Local().Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{
					b.BuildID,
					created,
					b.Scenario,
					ui.StatusBadge(b.Status),
					strconv.Itoa(b.Iteration),
					spec,
				})
			}
			fmt.Println(ui.Table([]string{"Build", "Created", "Scenario", "Status", "Steps", "Spec"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most N builds (0 for all)")
	return cmd
}

func runsPruneCmd() *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:          "prune",
		Short:        "Prune old builds from the history database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, closeFn, err := openHistory()
			if err != nil {
				return err
			}
			defer closeFn()

			policy := history.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays, DryRun: dryRun}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				policy.KeepLast = cfg.Retention.KeepLast
				policy.KeepDays = cfg.Retention.KeepDays
			}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in %s)", config.DefaultFile)
			}

			removed, err := history.Prune(cmd.Context(), history.NewStore(db), policy)
			if err != nil {
				return err
			}
			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			log.Info().Msgf("%s %d %s", mode, len(removed), plural(len(removed), "build"))
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N finished builds")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep builds newer than N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}

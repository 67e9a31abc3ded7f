package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/glyphtool/glyph/internal/build"
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/guide"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/scenario"
	"github.com/glyphtool/glyph/internal/ui"
	"github.com/spf13/cobra"
)

func purgeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:          "purge",
		Short:        "Remove the build ledger, generated specs, and cached guides",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !force {
				fmt.Print("This removes the build ledger, all generated specs, and cached guides. Continue? [y/N] ")
				answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read confirmation: %w", err)
				}
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Println("aborted")
					return nil
				}
			}

			lock, held, err := build.TryAcquireLock(sandbox.DefaultDir)
			if err != nil {
				return err
			}
			if !held {
				return fmt.Errorf("a build is running, wait for it to finish before purging")
			}
			defer lock.Release()

			fs := fsx.NewOS()
			scenarios, err := scenario.LoadDir(fs, cfg.ScenariosDir)
			if err != nil {
				return err
			}
			removed := 0
			for _, sc := range scenarios {
				spec := sc.SpecPath()
				if fs.Exists(spec) {
					if err := fs.Remove(spec); err != nil {
						return err
					}
					removed++
				}
			}

			if err := fs.Remove(ledger.PathIn(sandbox.DefaultDir)); err != nil {
				return err
			}
			if err := guide.NewCache(fs, sandbox.DefaultDir).Purge(); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("purged %d generated %s, the ledger, and all cached guides", removed, plural(removed, "spec")))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

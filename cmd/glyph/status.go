package main

import (
	"fmt"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/ui"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Show build progress for every scenario",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchStatus()
			}
			progress, err := ledger.Load(fsx.NewOS(), ledger.PathIn(sandbox.DefaultDir))
			if err != nil {
				return err
			}
			fmt.Print(ui.RenderStatus(progress))
			fmt.Println(ui.RenderSummary(progress))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the table open and refresh it as builds progress")
	return cmd
}

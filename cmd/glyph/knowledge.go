package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/guide"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/spf13/cobra"
)

func knowledgeCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:          "knowledge",
		Short:        "Show what glyph has learned about the system under test",
		Long:         "Show the knowledge catalog accumulated across builds: insights, discovered pages, known selectors, build layers, and common failures.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := guide.NewCatalog(fsx.NewOS(), sandbox.DefaultDir)
			markdown := catalog.Markdown()
			if raw {
				fmt.Print(markdown)
				return nil
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				return fmt.Errorf("create markdown renderer: %w", err)
			}
			rendered, err := renderer.Render(markdown)
			if err != nil {
				return fmt.Errorf("render knowledge catalog: %w", err)
			}
			fmt.Print(rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source instead of rendering it")
	return cmd
}

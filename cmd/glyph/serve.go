package main

import (
	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/mcp"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve build state over MCP on stdio",
		Long:         "Serve the read-only MCP tools progress_report, scenario_status, and build_layers over stdio so agent frontends can inspect build state.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Info().Msg("mcp server listening on stdio")
			return mcp.NewServer(fsx.NewOS(), sandbox.DefaultDir, cfg.ScenariosDir).Run(cmd.Context())
		},
	}
}

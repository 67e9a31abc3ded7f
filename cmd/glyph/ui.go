package main

import (
	"fmt"
	"net/http"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/web"
	"github.com/spf13/cobra"
)

func uiCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:          "ui",
		Short:        "Start the web dashboard",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			server, err := web.NewServer(fsx.NewOS(), sandbox.DefaultDir)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", port)
			fmt.Printf("Starting UI on http://localhost%s\n", addr)
			return http.ListenAndServe(addr, server.Routes())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}

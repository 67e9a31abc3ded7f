package main

import (
	"fmt"
	"strings"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/graph"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/scenario"
	"github.com/glyphtool/glyph/internal/ui"
	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	var target string
	var tree bool
	cmd := &cobra.Command{
		Use:          "graph",
		Short:        "Show the scenario dependency graph",
		Long:         "Show the scenario dependency graph with build markers, the computed build layers, and any validation problems.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fs := fsx.NewOS()
			scenarios, err := scenario.LoadDir(fs, cfg.ScenariosDir)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				fmt.Println(ui.WarnMsg("no scenario files in %s", cfg.ScenariosDir))
				return nil
			}
			progress, err := ledger.Load(fs, ledger.PathIn(sandbox.DefaultDir))
			if err != nil {
				return err
			}

			byName := scenario.ByName(scenarios)
			g := graph.New()
			for _, sc := range scenarios {
				resolved, unknown := scenario.KnownRefs(scenario.Refs(sc.Text), byName)
				for _, ref := range unknown {
					fmt.Println(ui.WarnMsg("%s references unknown scenario %q", sc.Name, ref))
				}
				g.AddScenario(sc.Name, resolved)
			}
			for _, name := range progress.Completed() {
				g.MarkBuilt(name)
			}

			if tree {
				name := target
				if name == "" && len(args) > 0 {
					name = args[0]
				}
				if name == "" {
					return fmt.Errorf("--tree needs a scenario: glyph graph --tree --target NAME")
				}
				fmt.Println(g.RenderTree(name))
				return nil
			}

			fmt.Println(g.Render(target))

			ok, problems := g.Validate()
			if !ok {
				for _, p := range problems {
					fmt.Println(ui.ErrorMsg("%s", p))
				}
				return fmt.Errorf("dependency validation failed")
			}

			if target == "" {
				layers, err := g.BuildLayers()
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(ui.Bold("Build layers"))
				for i, layer := range layers {
					fmt.Printf("  %d. %s\n", i+1, strings.Join(layer, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "focus on one scenario")
	cmd.Flags().BoolVar(&tree, "tree", false, "render the dependency tree for the target scenario")
	return cmd
}

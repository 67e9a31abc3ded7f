package graph

import (
	"fmt"
	"strings"
)

// Render returns a text view of the graph. With a focus scenario it shows
// that scenario's direct relations; otherwise every scenario with status
// markers.
func (g *Graph) Render(focus string) string {
	var lines []string
	lines = append(lines, "Scenario Dependency Graph", strings.Repeat("=", 30))

	if focus != "" {
		if _, ok := g.nodes[focus]; !ok {
			return fmt.Sprintf("scenario %q not found in graph", focus)
		}
		lines = append(lines,
			"",
			"Focus: "+focus,
			"Dependencies: "+strings.Join(g.Dependencies(focus), ", "),
			"Dependents: "+strings.Join(g.Dependents(focus), ", "),
		)
		return strings.Join(lines, "\n")
	}

	for _, name := range g.order {
		n := g.nodes[name]
		lines = append(lines, statusMark(n.built)+" "+name)
		if len(n.deps) > 0 {
			lines = append(lines, "  depends on: "+strings.Join(n.deps, ", "))
		}
		if len(n.dependents) > 0 {
			lines = append(lines, "  required by: "+strings.Join(n.dependents, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderTree returns an indented dependency tree rooted at name. Revisited
// nodes are marked instead of recursed into, so cyclic input still renders.
func (g *Graph) RenderTree(name string) string {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Sprintf("scenario %q not found in graph", name)
	}

	var lines []string
	lines = append(lines, "Dependency Tree for: "+name, strings.Repeat("=", 40))

	var walk func(name string, seen map[string]bool, depth int)
	walk = func(name string, seen map[string]bool, depth int) {
		indent := strings.Repeat("  ", depth)
		if seen[name] {
			lines = append(lines, fmt.Sprintf("%s↳ %s (circular dependency)", indent, name))
			return
		}
		seen[name] = true
		lines = append(lines, indent+statusMark(g.nodes[name].built)+" "+name)
		for _, dep := range g.nodes[name].deps {
			branch := make(map[string]bool, len(seen))
			for k, v := range seen {
				branch[k] = v
			}
			walk(dep, branch, depth+1)
		}
	}

	walk(name, make(map[string]bool), 0)
	return strings.Join(lines, "\n")
}

func statusMark(built bool) string {
	if built {
		return "✓"
	}
	return "○"
}

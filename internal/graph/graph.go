// Package graph models scenario-to-scenario dependencies and computes the
// build order. Validation fails closed: a missing dependency or a cycle is
// reported before any build work starts, never silently ignored.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

type node struct {
	name       string
	deps       []string
	dependents []string
	declared   bool
	built      bool
}

// Graph is a scenario dependency graph. Not safe for concurrent use; the
// orchestrator builds it once before scheduling.
type Graph struct {
	nodes map[string]*node
	order []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

func (g *Graph) node(name string) *node {
	n, ok := g.nodes[name]
	if !ok {
		n = &node{name: name}
		g.nodes[name] = n
		g.order = append(g.order, name)
	}
	return n
}

// AddScenario declares a scenario and its dependencies. Re-adding a scenario
// replaces its dependency list. Dependencies may be added before their own
// declaration; they stay undeclared until AddScenario names them.
func (g *Graph) AddScenario(name string, dependencies []string) {
	n := g.node(name)
	n.declared = true

	for _, old := range n.deps {
		g.nodes[old].dependents = remove(g.nodes[old].dependents, name)
	}
	n.deps = nil

	for _, dep := range dependencies {
		if contains(n.deps, dep) {
			continue
		}
		n.deps = append(n.deps, dep)
		d := g.node(dep)
		if !contains(d.dependents, name) {
			d.dependents = append(d.dependents, name)
		}
	}
}

// MarkBuilt flags a scenario as built for rendering.
func (g *Graph) MarkBuilt(name string) {
	if n, ok := g.nodes[name]; ok {
		n.built = true
	}
}

// Names returns every known scenario in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Dependencies returns the declared dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	out := make([]string, len(n.deps))
	copy(out, n.deps)
	return out
}

// Dependents returns the scenarios that depend on name.
func (g *Graph) Dependents(name string) []string {
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	out := make([]string, len(n.dependents))
	copy(out, n.dependents)
	return out
}

// Closure returns name plus every transitive dependency, the subtree a
// single-target build restricts itself to. Unknown names error.
func (g *Graph) Closure(name string) (map[string]bool, error) {
	if _, ok := g.nodes[name]; !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	closure := make(map[string]bool)
	var visit func(string)
	visit = func(n string) {
		if closure[n] {
			return
		}
		closure[n] = true
		node, ok := g.nodes[n]
		if !ok {
			return
		}
		for _, dep := range node.deps {
			visit(dep)
		}
	}
	visit(name)
	return closure, nil
}

// Validate reports every missing-dependency reference and every cycle. Cycles
// are found with three-color depth-first search and reported with the full
// offending chain.
func (g *Graph) Validate() (bool, []string) {
	var errs []string

	for _, name := range g.order {
		n := g.nodes[name]
		for _, dep := range n.deps {
			if !g.nodes[dep].declared {
				errs = append(errs, fmt.Sprintf("scenario %q depends on unknown scenario %q", name, dep))
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range g.nodes[name].deps {
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				errs = append(errs, "dependency cycle: "+chain(stack, dep))
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
	}

	for _, name := range g.order {
		if color[name] == white {
			visit(name)
		}
	}

	return len(errs) == 0, errs
}

// chain renders the cycle from the first occurrence of dep on the stack back
// to dep itself.
func chain(stack []string, dep string) string {
	start := 0
	for i, name := range stack {
		if name == dep {
			start = i
			break
		}
	}
	parts := append(append([]string{}, stack[start:]...), dep)
	return strings.Join(parts, " -> ")
}

// TopologicalSort returns every scenario in dependency-first order via
// Kahn's algorithm. A residual cycle is an error, never a partial order.
func (g *Graph) TopologicalSort() ([]string, error) {
	layers, err := g.BuildLayers()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, layer := range layers {
		out = append(out, layer...)
	}
	return out, nil
}

// BuildLayers groups scenarios into batches where every element of layer k
// has all dependencies resolved by layers before k. Layer membership is the
// natural parallelization boundary.
func (g *Graph) BuildLayers() ([][]string, error) {
	resolved := make(map[string]bool, len(g.nodes))
	var layers [][]string

	for len(resolved) < len(g.nodes) {
		var layer []string
		for _, name := range g.order {
			if resolved[name] {
				continue
			}
			ready := true
			for _, dep := range g.nodes[name].deps {
				if !resolved[dep] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, name)
			}
		}

		if len(layer) == 0 {
			var remaining []string
			for _, name := range g.order {
				if !resolved[name] {
					remaining = append(remaining, name)
				}
			}
			sort.Strings(remaining)
			return nil, fmt.Errorf("dependency cycle prevents ordering: %s", strings.Join(remaining, ", "))
		}

		for _, name := range layer {
			resolved[name] = true
		}
		layers = append(layers, layer)
	}

	return layers, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func remove(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

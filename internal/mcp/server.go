// Package mcp exposes ledger and graph state over the Model Context
// Protocol so agent frontends can inspect build progress without shelling
// out to the CLI. All tools are read-only; builds stay owned by the build
// command and its run lock.
package mcp

import (
	"context"
	"fmt"
	"sort"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/graph"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/scenario"
)

// Server wraps the MCP SDK server over one glyph workspace.
type Server struct {
	MCPServer *sdkmcp.Server

	fs          fsx.FS
	glyphDir    string
	scenarioDir string
}

// NewServer creates the server and registers the glyph tools. State is read
// fresh on every call so a build running in another process shows up.
func NewServer(fs fsx.FS, glyphDir, scenarioDir string) *Server {
	s := &Server{fs: fs, glyphDir: glyphDir, scenarioDir: scenarioDir}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "glyph", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "progress_report",
		Description: "Summarize build progress: per-scenario status plus completed/failed/pending counts.",
	}, s.handleProgressReport)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "scenario_status",
		Description: "Full build record of one scenario: status, steps, dependencies, error.",
	}, s.handleScenarioStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "build_layers",
		Description: "Dependency-ordered build layers and any graph validation problems.",
	}, s.handleBuildLayers)
}

// --- Tool input/output types ---

type progressReportInput struct{}

type scenarioSummary struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	CompletedSteps int    `json:"completed_steps"`
	TotalSteps     int    `json:"total_steps"`
	Error          string `json:"error,omitempty"`
}

type progressReportOutput struct {
	Total      int               `json:"total"`
	Completed  int               `json:"completed"`
	Failed     int               `json:"failed"`
	InProgress int               `json:"in_progress"`
	Pending    int               `json:"pending"`
	Scenarios  []scenarioSummary `json:"scenarios"`
}

type scenarioStatusInput struct {
	Name string `json:"name" jsonschema:"scenario name as in the scenario file stem"`
}

type scenarioStatusOutput struct {
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	Dependencies   []string `json:"dependencies"`
	StepList       []string `json:"step_list"`
	CompletedSteps []int    `json:"completed_steps"`
	Error          string   `json:"error,omitempty"`
	SpecPath       string   `json:"spec_path,omitempty"`
}

type buildLayersInput struct{}

type buildLayersOutput struct {
	Layers   [][]string `json:"layers,omitempty"`
	Problems []string   `json:"problems,omitempty"`
}

// --- Tool handlers ---

func (s *Server) loadProgress() (*ledger.BuildProgress, error) {
	return ledger.Load(s.fs, ledger.PathIn(s.glyphDir))
}

func (s *Server) handleProgressReport(_ context.Context, _ *sdkmcp.CallToolRequest, _ progressReportInput) (*sdkmcp.CallToolResult, progressReportOutput, error) {
	progress, err := s.loadProgress()
	if err != nil {
		return nil, progressReportOutput{}, fmt.Errorf("load ledger: %w", err)
	}

	names := make([]string, 0, len(progress.Scenarios))
	for name := range progress.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	out := progressReportOutput{Total: len(names)}
	for _, name := range names {
		sp := progress.Scenarios[name]
		summary := scenarioSummary{
			Name:           name,
			Status:         sp.Status,
			CompletedSteps: len(sp.CompletedSteps),
			TotalSteps:     len(sp.StepList),
		}
		if sp.ErrorMessage != nil {
			summary.Error = *sp.ErrorMessage
		}
		out.Scenarios = append(out.Scenarios, summary)

		switch sp.Status {
		case ledger.StatusCompleted:
			out.Completed++
		case ledger.StatusFailed:
			out.Failed++
		case ledger.StatusInProgress:
			out.InProgress++
		default:
			out.Pending++
		}
	}
	return nil, out, nil
}

func (s *Server) handleScenarioStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input scenarioStatusInput) (*sdkmcp.CallToolResult, scenarioStatusOutput, error) {
	progress, err := s.loadProgress()
	if err != nil {
		return nil, scenarioStatusOutput{}, fmt.Errorf("load ledger: %w", err)
	}
	sp, ok := progress.Scenarios[input.Name]
	if !ok {
		return nil, scenarioStatusOutput{}, fmt.Errorf("unknown scenario %q", input.Name)
	}

	out := scenarioStatusOutput{
		Name:           input.Name,
		Status:         sp.Status,
		Dependencies:   sp.Dependencies,
		StepList:       sp.StepList,
		CompletedSteps: sp.CompletedSteps,
	}
	if sp.ErrorMessage != nil {
		out.Error = *sp.ErrorMessage
	}
	if sp.SpecFilePath != nil {
		out.SpecPath = *sp.SpecFilePath
	}
	return nil, out, nil
}

func (s *Server) handleBuildLayers(_ context.Context, _ *sdkmcp.CallToolRequest, _ buildLayersInput) (*sdkmcp.CallToolResult, buildLayersOutput, error) {
	scenarios, err := scenario.LoadDir(s.fs, s.scenarioDir)
	if err != nil {
		return nil, buildLayersOutput{}, fmt.Errorf("load scenarios: %w", err)
	}
	byName := scenario.ByName(scenarios)

	g := graph.New()
	for _, sc := range scenarios {
		resolved, _ := scenario.KnownRefs(scenario.Refs(sc.Text), byName)
		g.AddScenario(sc.Name, resolved)
	}

	if ok, problems := g.Validate(); !ok {
		return nil, buildLayersOutput{Problems: problems}, nil
	}
	layers, err := g.BuildLayers()
	if err != nil {
		return nil, buildLayersOutput{}, err
	}
	return nil, buildLayersOutput{Layers: layers}, nil
}

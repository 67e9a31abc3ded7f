// Package web serves a read-only dashboard of build progress. The ledger is
// reloaded on every request so a build running in another process shows up
// on refresh without any push machinery.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/ledger"
)

// Server provides the dashboard handlers.
type Server struct {
	fs       fsx.FS
	glyphDir string
	index    *template.Template
}

// NewServer creates a dashboard server over one workspace.
func NewServer(fs fsx.FS, glyphDir string) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Server{fs: fs, glyphDir: glyphDir, index: tmpl}, nil
}

//go:embed templates/*.html
var templatesFS embed.FS

// Routes returns the router for the dashboard.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	return mux
}

type scenarioRow struct {
	Name         string
	Status       string
	Steps        string
	Dependencies string
	Detail       string
}

type indexView struct {
	Total       int
	Completed   int
	Failed      int
	Pending     int
	Rows        []scenarioRow
	GeneratedAt string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	progress, err := ledger.Load(s.fs, ledger.PathIn(s.glyphDir))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.index.Execute(w, buildView(progress)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildView(progress *ledger.BuildProgress) indexView {
	view := indexView{
		Total:       len(progress.Scenarios),
		GeneratedAt: time.Now().Format(time.RFC1123),
	}

	names := make([]string, 0, len(progress.Scenarios))
	for name := range progress.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sp := progress.Scenarios[name]
		switch sp.Status {
		case ledger.StatusCompleted:
			view.Completed++
		case ledger.StatusFailed:
			view.Failed++
		default:
			view.Pending++
		}

		steps := "-"
		if len(sp.StepList) > 0 {
			steps = fmt.Sprintf("%d/%d", len(sp.CompletedSteps), len(sp.StepList))
		}
		detail := ""
		if sp.ErrorMessage != nil {
			detail = *sp.ErrorMessage
		}
		view.Rows = append(view.Rows, scenarioRow{
			Name:         name,
			Status:       sp.Status,
			Steps:        steps,
			Dependencies: strings.Join(sp.Dependencies, ", "),
			Detail:       detail,
		})
	}
	return view
}

package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/glyphtool/glyph/internal/fsx"
	"github.com/glyphtool/glyph/internal/ledger"
	"github.com/glyphtool/glyph/internal/sandbox"
	"github.com/glyphtool/glyph/internal/ui"
)

const watchInterval = time.Second

type tickMsg time.Time

// watchModel is the live status view: a scenario table backed by the ledger,
// reloaded on every tick.
type watchModel struct {
	table   table.Model
	summary string
	err     error
}

func watchStatus() error {
	m, err := newWatchModel()
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func loadLedger() (*ledger.BuildProgress, error) {
	return ledger.Load(fsx.NewOS(), ledger.PathIn(sandbox.DefaultDir))
}

func newWatchModel() (*watchModel, error) {
	progress, err := loadLedger()
	if err != nil {
		return nil, err
	}
	rows := ui.StatusRows(progress)

	t := table.New(
		table.WithColumns(statusColumns(rows)),
		table.WithRows(statusTableRows(rows)),
		table.WithFocused(true),
		table.WithHeight(watchHeight(len(rows))),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(ui.AccentStyle.GetForeground()).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ui.MutedStyle.GetForeground())
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(ui.AccentStyle.GetForeground()).
		Bold(false)
	t.SetStyles(s)

	return &watchModel{table: t, summary: ui.RenderSummary(progress)}, nil
}

func statusColumns(rows [][]string) []table.Column {
	headers := ui.StatusHeaders()
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		w := len(h)
		for _, row := range rows {
			if i < len(row) && len(row[i]) > w {
				w = len(row[i])
			}
		}
		columns[i] = table.Column{Title: h, Width: w + 2}
	}
	return columns
}

func statusTableRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		out[i] = table.Row(row)
	}
	return out
}

func watchHeight(rows int) int {
	return min(max(rows, 1), 20)
}

func tick() tea.Cmd {
	return tea.Tick(watchInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *watchModel) Init() tea.Cmd {
	return tick()
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		progress, err := loadLedger()
		if err != nil {
			m.err = err
			return m, tick()
		}
		m.err = nil
		rows := ui.StatusRows(progress)
		m.table.SetColumns(statusColumns(rows))
		m.table.SetRows(statusTableRows(rows))
		m.table.SetHeight(watchHeight(len(rows)))
		m.summary = ui.RenderSummary(progress)
		return m, tick()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *watchModel) View() string {
	var b strings.Builder
	b.WriteString(ui.Bold("glyph status") + "\n\n")
	b.WriteString(m.table.View() + "\n")
	if m.err != nil {
		b.WriteString(ui.ErrorMsg("%v", m.err) + "\n")
	}
	b.WriteString(m.summary + "\n")
	b.WriteString(ui.Muted("↑/↓ navigate  q quit") + "\n")
	return b.String()
}

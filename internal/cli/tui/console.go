package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/searchwire"
)

// Run starts the interactive search console and blocks until the user
// leaves it. The search keeps streaming while the console is open; quitting
// before the stream ends cancels it.
func Run(s *searchwire.Search, collection, query string) error {
	m := newModel(s, collection, query)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

type model struct {
	search     *searchwire.Search
	collection string
	query      string

	spinner spinner.Model
	trace   viewport.Model

	snap       searchwire.Snapshot
	done       bool
	cancelling bool
	ready      bool
	width      int
	height     int
}

func newModel(s *searchwire.Search, collection, query string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return model{
		search:     s,
		collection: collection,
		query:      query,
		spinner:    sp,
	}
}

// waitForSnapshot blocks on the updates channel and feeds the next
// snapshot into the message loop. The channel closes after the final
// snapshot, which ends the wait loop.
func waitForSnapshot(s *searchwire.Search) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-s.Updates()
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.search))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshTrace()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}
			// First press cancels the stream; the console stays open so
			// the cancelled state and trace remain visible.
			m.search.Cancel()
			m.cancelling = true
			return m, nil
		}
		var cmd tea.Cmd
		m.trace, cmd = m.trace.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = msg.snap
		m.layout()
		m.refreshTrace()
		return m, waitForSnapshot(m.search)

	case streamClosedMsg:
		m.done = true
		m.cancelling = false
		m.snap = m.search.Snapshot()
		m.layout()
		m.refreshTrace()
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.trace, cmd = m.trace.Update(msg)
	return m, cmd
}

// layout sizes the trace viewport from the terminal size and the current
// answer panel height.
func (m *model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	traceHeight := m.height - headerHeight - m.answerHeight() - footerHeight
	if traceHeight < 3 {
		traceHeight = 3
	}
	if m.trace.Width == 0 {
		m.trace = viewport.New(m.width, traceHeight)
	} else {
		m.trace.Width = m.width
		m.trace.Height = traceHeight
	}
}

const (
	headerHeight = 3
	footerHeight = 1

	// answerPanelLines caps the inline answer panel; the full answer is
	// still printed by plain mode and history show.
	answerPanelLines = 8
)

func (m *model) answerHeight() int {
	if m.snap.Answer == "" {
		return 0
	}
	// Panel body plus its border.
	return answerPanelLines + 2
}

// refreshTrace re-renders the reconstructed trace, following the tail
// unless the user has scrolled up.
func (m *model) refreshTrace() {
	if m.trace.Width == 0 {
		return
	}
	follow := m.trace.AtBottom()
	m.trace.SetContent(renderRows(m.search.Trace()))
	if follow {
		m.trace.GotoBottom()
	}
}

func renderRows(rows []searchwire.TraceRow) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderRow(r))
	}
	return b.String()
}

func renderRow(r searchwire.TraceRow) string {
	switch r.Kind {
	case searchwire.RowHeader:
		return headerStyle.Render(r.Text)
	case searchwire.RowStatus:
		return queryStyle.Render(r.Text)
	case searchwire.RowReason:
		return "  " + reasonStyle.Render(r.Text)
	case searchwire.RowDecision:
		return "  " + decisionStyle.Render(r.Text)
	case searchwire.RowComplete:
		return "  " + completeStyle.Render(r.Text)
	case searchwire.RowError:
		return errorStyle.Render(r.Text)
	case searchwire.RowSeparator:
		return ""
	default:
		return "  " + mutedStyle.Render(r.Text)
	}
}

func (m model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("searchwire"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  collection: %s", m.collection)))
	b.WriteByte('\n')
	b.WriteString(queryStyle.Render(m.query))
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')

	b.WriteString(m.trace.View())
	b.WriteByte('\n')

	if m.snap.Answer != "" {
		b.WriteString(m.answerPanel())
		b.WriteByte('\n')
	}

	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m model) statusLine() string {
	phase := string(m.snap.Phase)
	if phase == "" {
		phase = "connecting"
	}
	status := phaseStyle(phase).Render(phase)
	if m.cancelling {
		status += mutedStyle.Render("  (cancelling)")
	}
	if !m.done {
		status = m.spinner.View() + status
	}
	return status + mutedStyle.Render(fmt.Sprintf("  %d events", m.snap.EventCount))
}

func (m model) answerPanel() string {
	lines := strings.Split(m.snap.Answer, "\n")
	if len(lines) > answerPanelLines {
		lines = append(lines[:answerPanelLines-1], mutedStyle.Render("..."))
	}
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	return answerStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m model) helpLine() string {
	if m.done {
		return "q quit • ↑/↓ scroll"
	}
	return "q cancel • ↑/↓ scroll"
}

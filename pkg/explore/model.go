package explore

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneFilters focusedPane = iota
	paneFiles
	paneDetails
)

// pagerFinishedMsg is sent when an external pager process exits.
type pagerFinishedMsg struct{ err error }

// modal is a scrollable full-screen text overlay. The help screen and the
// missing-file notice both use it, so there is exactly one scroll and render
// path for overlay content.
type modal struct {
	title  string
	lines  []string
	offset int
}

func newModal(title, content string) *modal {
	return &modal{title: title, lines: strings.Split(content, "\n")}
}

func (o *modal) scroll(delta int) {
	o.offset = max(0, min(o.offset+delta, len(o.lines)-1))
}

// handleKey scrolls the modal and reports whether it should close.
func (o *modal) handleKey(msg tea.KeyMsg, pageSize int) bool {
	switch {
	case keyMatches(msg, defaultKeys.Quit),
		keyMatches(msg, defaultKeys.ForceQuit),
		keyMatches(msg, defaultKeys.ToggleHelp),
		keyMatches(msg, defaultKeys.OpenFile):
		return true
	case keyMatches(msg, defaultKeys.Down):
		o.scroll(1)
	case keyMatches(msg, defaultKeys.Up):
		o.scroll(-1)
	case keyMatches(msg, defaultKeys.PageDown):
		o.scroll(pageSize)
	case keyMatches(msg, defaultKeys.PageUp):
		o.scroll(-pageSize)
	}
	return false
}

// window returns the lines visible at the current offset.
func (o *modal) window(height int) string {
	if height < 1 {
		height = 1
	}
	if o.offset >= len(o.lines) {
		o.offset = max(0, len(o.lines)-1)
	}
	end := min(o.offset+height, len(o.lines))
	return strings.Join(o.lines[o.offset:end], "\n")
}

// geometry is the pane arithmetic for one frame. View and the mouse handler
// both derive it from the same method, so clicks always land on what was
// drawn.
type geometry struct {
	contentHeight int
	filtersWidth  int
	dataWidth     int
	filesHeight   int
	detailsHeight int
}

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	data    *exploreData
	filters filterPane
	files   filesPane
	details detailsPane

	focus       focusedPane
	modal       *modal
	showFilters bool

	width  int
	height int
}

// New creates a new Model by loading a run from the given store. An empty
// runID selects the most recent run.
func New(dsn, runID string) (Model, error) {
	data, err := loadData(dsn, runID)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		data:        data,
		filters:     newFilterPane(buildFacets(data.files)),
		files:       newFilesPane(data.files),
		details:     newDetailsPane(),
		focus:       paneFiles,
		showFilters: true,
	}
	m.files.focused = true
	m.details.setFile(m.files.selectedFile())
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("burrow explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pagerFinishedMsg:
		// Pager exited, TUI resumes automatically
		return m, nil

	case tea.MouseMsg:
		if m.modal != nil {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.handleMouseClick(msg.X, msg.Y)
		return m, nil

	case tea.KeyMsg:
		if m.modal != nil {
			if m.modal.handleKey(msg, m.height/2) {
				m.modal = nil
			}
			return m, nil
		}

		// Global keys work regardless of focus.
		switch {
		case keyMatches(msg, defaultKeys.Quit), keyMatches(msg, defaultKeys.ForceQuit):
			return m, tea.Quit
		case keyMatches(msg, defaultKeys.ToggleHelp):
			m.modal = newModal(" Help (q to close) ", renderHelp())
			return m, nil
		case keyMatches(msg, defaultKeys.ToggleFilters):
			m.showFilters = !m.showFilters
			return m, nil
		case keyMatches(msg, defaultKeys.FocusFilters):
			m.setFocus(paneFilters)
			return m, nil
		case keyMatches(msg, defaultKeys.FocusFiles):
			m.setFocus(paneFiles)
			return m, nil
		case keyMatches(msg, defaultKeys.FocusDetails):
			m.setFocus(paneDetails)
			return m, nil
		}

		if m.focus != paneFilters && keyMatches(msg, defaultKeys.OpenFile) {
			return m, m.openFile()
		}

		switch m.focus {
		case paneFilters:
			var cmd tea.Cmd
			m.filters, cmd = m.filters.Update(msg)
			if keyMatches(msg, defaultKeys.ToggleFilter) || keyMatches(msg, defaultKeys.ResetFilter) {
				m.applyFilters()
			}
			return m, cmd
		case paneFiles:
			prev := m.files.selectedFile()
			var cmd tea.Cmd
			m.files, cmd = m.files.Update(msg)
			if cur := m.files.selectedFile(); cur != prev {
				m.details.setFile(cur)
			}
			return m, cmd
		case paneDetails:
			var cmd tea.Cmd
			m.details, cmd = m.details.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// layout splits the frame: filters on the left when visible, the file table
// over the details pane on the right, a status bar underneath.
func (m *Model) layout() geometry {
	g := geometry{contentHeight: m.height - 2}
	if m.showFilters {
		g.filtersWidth = min(m.width*30/100, 50)
	}
	g.dataWidth = m.width - g.filtersWidth
	g.filesHeight = g.contentHeight * 40 / 100
	g.detailsHeight = g.contentHeight - g.filesHeight
	return g
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.modal != nil {
		return m.renderModal()
	}

	g := m.layout()
	m.files.setSize(g.dataWidth, g.filesHeight)
	m.details.setSize(g.dataWidth, g.detailsHeight)

	column := lipgloss.JoinVertical(lipgloss.Left, m.files.View(), m.details.View())
	if m.showFilters {
		m.filters.setSize(g.filtersWidth, g.contentHeight)
		column = lipgloss.JoinHorizontal(lipgloss.Top, m.filters.View(), column)
	}

	return lipgloss.JoinVertical(lipgloss.Left, column, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	left := statusBarStyle.Render(fmt.Sprintf(" %d files | %d filtered | run %s",
		len(m.data.files), len(m.files.rows), truncateString(m.data.run.ID, 8)))

	hints := [][2]string{
		{"j/k", "nav"}, {"f/d", "focus"}, {"s", "sort"},
		{"o", "open"}, {"F7", "filters"}, {"?", "help"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, helpKeyStyle.Render(h[0])+":"+helpDescStyle.Render(h[1]))
	}
	right := strings.Join(parts, "  ")

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderModal() string {
	boxWidth := m.width * 80 / 100
	boxHeight := m.height * 80 / 100

	box := modalStyle.
		Width(boxWidth - 4).
		Height(boxHeight - 2).
		Render(m.modal.window(boxHeight - 4))
	framed := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(m.modal.title), box)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, framed)
}

func (m *Model) setFocus(p focusedPane) {
	m.filters.focused = p == paneFilters
	m.files.focused = p == paneFiles
	m.details.focused = p == paneDetails
	m.focus = p
}

func (m *Model) handleMouseClick(x, y int) {
	g := m.layout()

	switch {
	case m.showFilters && x < g.filtersWidth && y < g.contentHeight:
		m.setFocus(paneFilters)
		// Rows start below the pane title and top border.
		if idx := y - 2 + m.filters.offset; y >= 2 && idx < len(m.filters.items) {
			m.filters.cursor = idx
			m.filters.toggleCurrent()
			m.applyFilters()
		}
	case y < g.filesHeight:
		m.setFocus(paneFiles)
		// The title, border, header, and separator sit above the first row.
		if idx := y - 4 + m.files.offset; y >= 4 && idx < len(m.files.rows) {
			m.files.cursor = idx
			m.details.setFile(m.files.selectedFile())
		}
	default:
		m.setFocus(paneDetails)
	}
}

func (m *Model) applyFilters() {
	if !m.filters.facets.hasActiveFilters() {
		m.files.setFilteredRows(m.data.files)
	} else {
		var filtered []*fileRow
		for _, f := range m.data.files {
			if m.filters.facets.matchesFile(f) {
				filtered = append(filtered, f)
			}
		}
		m.files.setFilteredRows(filtered)
	}
	// Facet counts stay global so a selection never zeroes its neighbors.
	m.filters.facets.updateCounts(m.data.files)
	m.details.setFile(m.files.selectedFile())
}

// openFile opens the selected file's first on-disk path in the pager. Tracked
// paths can point at deleted originals or cleaned-up extraction dirs, so each
// one is checked before falling back to a notice.
func (m *Model) openFile() tea.Cmd {
	f := m.details.file
	if f == nil {
		return nil
	}

	for _, p := range f.Paths {
		if _, err := os.Stat(p); err == nil {
			return m.openInPager(p)
		}
	}

	var sb strings.Builder
	sb.WriteString("  None of the tracked paths exist on disk:\n\n")
	for _, p := range f.Paths {
		sb.WriteString("    " + p + "\n")
	}
	if f.Deleted {
		sb.WriteString("\n  The archive was deleted after extraction.\n")
	}

	m.modal = newModal(" File (q to close) ", sb.String())
	return nil
}

func (m *Model) openInPager(filePath string) tea.Cmd {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	c := exec.Command(pager, filePath)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return pagerFinishedMsg{err: err}
	})
}

// Close releases resources held by the model.
func (m *Model) Close() error {
	if m.data != nil {
		return m.data.close()
	}
	return nil
}

// renderHelp generates help text.
func renderHelp() string {
	return `Burrow Explore - Interactive Run Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  h/l or Left/Right Navigate warnings (details) or collapse/expand (filters)
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

FOCUS
  F1                Focus filters pane
  f                 Focus files pane
  d                 Focus details pane
  F7                Toggle filters pane visibility

FILTERS
  x or Space        Toggle filter value
  Ctrl+r            Reset all filters

VIEWS
  s                 Cycle sort column
  o                 Open file (pager when a path still exists on disk)
  ?                 Toggle this help screen

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}

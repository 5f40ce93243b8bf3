package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// sortField defines which column to sort by.
type sortField int

const (
	sortByPath sortField = iota
	sortBySize
	sortByType
	sortByWarnings
	sortByOutcome
	sortFieldCount // sentinel
)

var sortFieldNames = [sortFieldCount]string{
	"Path", "Size", "Type", "Warnings", "Outcome",
}

// filesPane is the top-right inventory table.
type filesPane struct {
	rows    []*fileRow // filtered rows
	allRows []*fileRow // all rows (unfiltered)
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	sortBy  sortField
	sortAsc bool

	// Column widths
	colDigest  int
	colType    int
	colSize    int
	colPaths   int
	colWarns   int
	colOutcome int
	colPath    int
}

func newFilesPane(rows []*fileRow) filesPane {
	fp := filesPane{
		allRows: rows,
		rows:    rows,
		sortAsc: true,
	}
	fp.sort()
	return fp
}

func (fp *filesPane) setFilteredRows(rows []*fileRow) {
	fp.rows = rows
	if fp.cursor >= len(fp.rows) {
		fp.cursor = max(0, len(fp.rows)-1)
	}
	fp.ensureVisible()
}

func (fp filesPane) selectedFile() *fileRow {
	if fp.cursor < 0 || fp.cursor >= len(fp.rows) {
		return nil
	}
	return fp.rows[fp.cursor]
}

func (fp filesPane) Update(msg tea.Msg) (filesPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if fp.cursor > 0 {
				fp.cursor--
				fp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Down):
			if fp.cursor < len(fp.rows)-1 {
				fp.cursor++
				fp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Home):
			fp.cursor = 0
			fp.offset = 0
		case keyMatches(msg, defaultKeys.End):
			fp.cursor = max(0, len(fp.rows)-1)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageDown):
			fp.cursor = min(fp.cursor+fp.visibleRows(), len(fp.rows)-1)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageUp):
			fp.cursor = max(fp.cursor-fp.visibleRows(), 0)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.SortNext):
			fp.sortBy = (fp.sortBy + 1) % sortFieldCount
			fp.sort()
		}
	}

	return fp, nil
}

func (fp *filesPane) sort() {
	switch fp.sortBy {
	case sortByPath:
		sortSlice(fp.rows, func(a, b *fileRow) bool { return a.primaryPath() < b.primaryPath() }, fp.sortAsc)
	case sortBySize:
		sortSlice(fp.rows, func(a, b *fileRow) bool { return a.Size < b.Size }, fp.sortAsc)
	case sortByType:
		sortSlice(fp.rows, func(a, b *fileRow) bool { return a.TypeLabel < b.TypeLabel }, fp.sortAsc)
	case sortByWarnings:
		sortSlice(fp.rows, func(a, b *fileRow) bool { return len(a.Warnings) < len(b.Warnings) }, fp.sortAsc)
	case sortByOutcome:
		sortSlice(fp.rows, func(a, b *fileRow) bool { return a.Outcome < b.Outcome }, fp.sortAsc)
	}
}

func sortSlice[T any](s []T, less func(a, b T) bool, asc bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0; j-- {
			if asc {
				if less(s[j], s[j-1]) {
					s[j], s[j-1] = s[j-1], s[j]
				}
			} else {
				if less(s[j-1], s[j]) {
					s[j], s[j-1] = s[j-1], s[j]
				}
			}
		}
	}
}

func (fp filesPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	// Calculate column widths
	contentWidth := fp.width - 4 // borders
	fp.colDigest = 12
	fp.colType = 12
	fp.colSize = 9
	fp.colPaths = 5
	fp.colWarns = 5
	fp.colOutcome = 9
	fp.colPath = contentWidth - fp.colDigest - fp.colType - fp.colSize - fp.colPaths - fp.colWarns - fp.colOutcome - 7 // separators
	if fp.colPath < 10 {
		fp.colPath = 10
	}

	var b strings.Builder

	// Header row
	sortIndicator := func(f sortField) string {
		if fp.sortBy == f {
			if fp.sortAsc {
				return " ^"
			}
			return " v"
		}
		return ""
	}

	header := fmt.Sprintf(" %-*s %-*s %*s %*s %*s %-*s %-*s",
		fp.colDigest, "Digest",
		fp.colType, "Type"+sortIndicator(sortByType),
		fp.colSize, "Size"+sortIndicator(sortBySize),
		fp.colPaths, "Paths",
		fp.colWarns, "Warns"+sortIndicator(sortByWarnings),
		fp.colOutcome, "Outcome"+sortIndicator(sortByOutcome),
		fp.colPath, "Path"+sortIndicator(sortByPath),
	)
	b.WriteString(headerRowStyle.Width(contentWidth).Render(truncateString(header, contentWidth)))
	b.WriteString("\n")

	// Separator
	b.WriteString(strings.Repeat("─", contentWidth))
	b.WriteString("\n")

	// Data rows
	visibleEnd := min(fp.offset+fp.visibleRows(), len(fp.rows))
	for i := fp.offset; i < visibleEnd; i++ {
		row := fp.rows[i]
		isCurrent := i == fp.cursor

		line := fmt.Sprintf(" %-*s %-*s %*s %*d %*d %-*s %-*s",
			fp.colDigest, shortDigest(row.Digest),
			fp.colType, truncateString(row.TypeLabel, fp.colType),
			fp.colSize, humanize.IBytes(uint64(row.Size)),
			fp.colPaths, len(row.Paths),
			fp.colWarns, len(row.Warnings),
			fp.colOutcome, row.Outcome,
			fp.colPath, truncateString(row.primaryPath(), fp.colPath),
		)

		if isCurrent && fp.focused {
			line = selectedRowStyle.Width(contentWidth).Render(stripAnsi(line))
		}

		b.WriteString(padRight(line, contentWidth))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}

	// Fill empty rows
	for i := visibleEnd - fp.offset; i < fp.visibleRows(); i++ {
		b.WriteString(strings.Repeat(" ", contentWidth))
		if i < fp.visibleRows()-1 {
			b.WriteString("\n")
		}
	}

	title := titleStyle.Render(fmt.Sprintf(" Files (%d/%d) [sort: %s] ", len(fp.rows), len(fp.allRows), sortFieldNames[fp.sortBy]))

	borderStyle := inactiveBorderStyle
	if fp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(fp.width - 2).
		Height(fp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

func (fp filesPane) visibleRows() int {
	return max(1, fp.height-6) // title + border + header + separator
}

func (fp *filesPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *filesPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}

// shortDigest abbreviates a digest for table display.
func shortDigest(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:12]
}

package explore

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// detailsPane shows everything recorded about the selected file.
type detailsPane struct {
	file       *fileRow
	warnCursor int
	width      int
	height     int
	offset     int // scroll offset for content
	focused    bool
}

func newDetailsPane() detailsPane {
	return detailsPane{}
}

func (dp *detailsPane) setFile(f *fileRow) {
	dp.file = f
	dp.warnCursor = 0
	dp.offset = 0
}

func (dp detailsPane) selectedWarning() *types.Warning {
	if dp.file == nil || dp.warnCursor < 0 || dp.warnCursor >= len(dp.file.Warnings) {
		return nil
	}
	return &dp.file.Warnings[dp.warnCursor]
}

func (dp detailsPane) Update(msg tea.Msg) (detailsPane, tea.Cmd) {
	if !dp.focused {
		return dp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if dp.offset > 0 {
				dp.offset--
			}
		case keyMatches(msg, defaultKeys.Down):
			dp.offset++
		case keyMatches(msg, defaultKeys.Left):
			if dp.warnCursor > 0 {
				dp.warnCursor--
			}
		case keyMatches(msg, defaultKeys.Right):
			if dp.file != nil && dp.warnCursor < len(dp.file.Warnings)-1 {
				dp.warnCursor++
			}
		case keyMatches(msg, defaultKeys.Home):
			dp.offset = 0
		case keyMatches(msg, defaultKeys.PageDown):
			dp.offset += dp.visibleRows()
		case keyMatches(msg, defaultKeys.PageUp):
			dp.offset = max(0, dp.offset-dp.visibleRows())
		}
	}

	return dp, nil
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}

	contentWidth := dp.width - 4

	var lines []string

	if dp.file == nil {
		lines = append(lines, "  No file selected")
	} else {
		lines = append(lines, renderFileDetails(dp.file, contentWidth)...)

		f := dp.file
		lines = append(lines, "")
		if len(f.Warnings) > 0 {
			lines = append(lines, fmt.Sprintf("  %s",
				headerRowStyle.Render(fmt.Sprintf("Warning %d/%d (h/l to navigate)", dp.warnCursor+1, len(f.Warnings)))))
			lines = append(lines, "  "+strings.Repeat("─", min(40, contentWidth-4)))

			if w := dp.selectedWarning(); w != nil {
				lines = append(lines, renderWarningDetails(w, contentWidth)...)
			}
		} else {
			lines = append(lines, "  No warnings")
		}
	}

	// Apply scroll offset
	if dp.offset >= len(lines) {
		dp.offset = max(0, len(lines)-1)
	}
	visibleLines := lines
	if dp.offset < len(visibleLines) {
		visibleLines = visibleLines[dp.offset:]
	}
	if len(visibleLines) > dp.visibleRows() {
		visibleLines = visibleLines[:dp.visibleRows()]
	}

	var b strings.Builder
	for i, line := range visibleLines {
		b.WriteString(padRight(truncateString(line, contentWidth), contentWidth))
		if i < len(visibleLines)-1 {
			b.WriteString("\n")
		}
	}
	// Fill empty
	for i := len(visibleLines); i < dp.visibleRows(); i++ {
		b.WriteString(strings.Repeat(" ", contentWidth))
		if i < dp.visibleRows()-1 {
			b.WriteString("\n")
		}
	}

	title := titleStyle.Render(" Details ")

	borderStyle := inactiveBorderStyle
	if dp.focused {
		borderStyle = activeBorderStyle
	}

	content := borderStyle.
		Width(dp.width - 2).
		Height(dp.height - 3).
		Render(b.String())

	return lipgloss.JoinVertical(lipgloss.Left, title, content)
}

func renderFileDetails(f *fileRow, maxWidth int) []string {
	var lines []string

	field := func(label, value string) string {
		return fmt.Sprintf("  %s %s", fieldLabelStyle.Render(label), fieldValueStyle.Render(value))
	}

	lines = append(lines, field("Digest:", f.Digest))
	lines = append(lines, field("Size:", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(f.Size)), f.Size)))
	if f.TypeLabel != "" {
		lines = append(lines, field("Type:", f.TypeLabel))
	}
	if f.MIME != "" {
		lines = append(lines, field("MIME:", f.MIME))
	}
	if f.Extension != "" {
		lines = append(lines, field("Extension:", f.Extension))
	}
	lines = append(lines, field("Class:", f.class()))

	if f.IsArchive {
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Outcome:"), renderOutcome(f.Outcome)))
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Encryption:"), renderEncryption(f.Encryption)))

		lines = append(lines, renderAnalysisDetails(f.Metadata)...)
	}
	if f.Deleted {
		lines = append(lines, field("Deleted:", "yes (removed after extraction)"))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("  %s", fieldLabelStyle.Render(fmt.Sprintf("Paths (%d):", len(f.Paths)))))
	for _, p := range f.Paths {
		lines = append(lines, "    "+mutedTextStyle.Render(truncateString(p, maxWidth-6)))
	}

	return lines
}

// renderAnalysisDetails renders what the archiver's listing reported, when
// analysis succeeded.
func renderAnalysisDetails(md map[string]any) []string {
	var lines []string

	if size, ok := md[types.MetaExtractedSize].(int64); ok {
		lines = append(lines, fmt.Sprintf("  %s %s (%d bytes)",
			fieldLabelStyle.Render("Declared size:"),
			fieldValueStyle.Render(humanize.IBytes(uint64(size))), size))
	}
	if ratio, ok := md[types.MetaCompressionRatio].(float64); ok {
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Ratio:"),
			fieldValueStyle.Render(fmt.Sprintf("%.4f", ratio))))
	}
	total, haveTotal := md[types.MetaTotalEntryCount].(int)
	encrypted, _ := md[types.MetaEncryptedCount].(int)
	if haveTotal {
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Entries:"),
			fieldValueStyle.Render(fmt.Sprintf("%d (%d encrypted)", total, encrypted))))
	}

	return lines
}

func renderWarningDetails(w *types.Warning, maxWidth int) []string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  %s %s",
		fieldLabelStyle.Render("Kind:"), renderKindBadge(w.Kind)))
	if w.Path != "" {
		lines = append(lines, fmt.Sprintf("  %s %s",
			fieldLabelStyle.Render("Path:"),
			fieldValueStyle.Render(truncateString(w.Path, maxWidth-10))))
	}
	lines = append(lines, fmt.Sprintf("  %s", fieldLabelStyle.Render("Message:")))
	for _, line := range wrapText(w.Message, maxWidth-6) {
		lines = append(lines, "    "+fieldValueStyle.Render(line))
	}

	return lines
}

// wrapText breaks s into lines no wider than width, on word boundaries where
// possible.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	lines = append(lines, current)
	return lines
}

func (dp detailsPane) visibleRows() int {
	return max(1, dp.height-4)
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}

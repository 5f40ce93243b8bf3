package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// filterPane is the left-side faceted filter tree. Facet categories can be
// collapsed independently; collapse state survives rebuilds because it lives
// here, keyed by facet, not on the flattened items.
type filterPane struct {
	facets    *facetState
	items     []filterItem
	collapsed map[facetID]bool
	cursor    int
	offset    int
	width     int
	height    int
	focused   bool
}

type filterItemKind int

const (
	filterItemCategory filterItemKind = iota
	filterItemValue
)

type filterItem struct {
	Kind     filterItemKind
	Label    string
	FacetID  facetID
	ValueIdx int // index into facets.Values[FacetID], value items only
}

func newFilterPane(facets *facetState) filterPane {
	fp := filterPane{
		facets:    facets,
		collapsed: make(map[facetID]bool),
	}
	fp.rebuildItems()
	return fp
}

// rebuildItems flattens the facet tree, hiding values under collapsed
// categories.
func (fp *filterPane) rebuildItems() {
	fp.items = fp.items[:0]
	for _, def := range facetDefs {
		values := fp.facets.Values[def.ID]
		if len(values) == 0 {
			continue
		}
		fp.items = append(fp.items, filterItem{
			Kind:    filterItemCategory,
			Label:   def.Label,
			FacetID: def.ID,
		})
		if fp.collapsed[def.ID] {
			continue
		}
		for i, v := range values {
			fp.items = append(fp.items, filterItem{
				Kind:     filterItemValue,
				Label:    v.Value,
				FacetID:  def.ID,
				ValueIdx: i,
			})
		}
	}
	if fp.cursor >= len(fp.items) {
		fp.cursor = max(0, len(fp.items)-1)
	}
}

func (fp filterPane) Update(msg tea.Msg) (filterPane, tea.Cmd) {
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
			if fp.cursor < len(fp.items)-1 {
				fp.cursor++
				fp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Home):
			fp.cursor = 0
			fp.offset = 0
		case keyMatches(msg, defaultKeys.End):
			fp.cursor = max(0, len(fp.items)-1)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageDown):
			fp.cursor = min(fp.cursor+fp.visibleRows(), len(fp.items)-1)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageUp):
			fp.cursor = max(fp.cursor-fp.visibleRows(), 0)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.Left):
			fp.collapseCurrent()
		case keyMatches(msg, defaultKeys.Right):
			fp.expandCurrent()
		case keyMatches(msg, defaultKeys.ToggleFilter):
			fp.toggleCurrent()
		case keyMatches(msg, defaultKeys.ResetFilter):
			fp.facets.resetAll()
		}
	}

	return fp, nil
}

func (fp *filterPane) current() *filterItem {
	if fp.cursor < 0 || fp.cursor >= len(fp.items) {
		return nil
	}
	return &fp.items[fp.cursor]
}

// toggleCurrent selects/deselects a value, or folds a category.
func (fp *filterPane) toggleCurrent() {
	item := fp.current()
	if item == nil {
		return
	}
	switch item.Kind {
	case filterItemCategory:
		fp.setCollapsed(item.FacetID, !fp.collapsed[item.FacetID])
	case filterItemValue:
		values := fp.facets.Values[item.FacetID]
		if item.ValueIdx < len(values) {
			values[item.ValueIdx].Selected = !values[item.ValueIdx].Selected
		}
	}
}

// collapseCurrent folds the category under the cursor. On a value row the
// cursor first jumps to the owning category, vi-style.
func (fp *filterPane) collapseCurrent() {
	item := fp.current()
	if item == nil {
		return
	}
	if item.Kind == filterItemValue {
		fp.cursorToCategory(item.FacetID)
		return
	}
	fp.setCollapsed(item.FacetID, true)
}

// expandCurrent unfolds a collapsed category, or steps into the first value
// of an already open one.
func (fp *filterPane) expandCurrent() {
	item := fp.current()
	if item == nil || item.Kind != filterItemCategory {
		return
	}
	if fp.collapsed[item.FacetID] {
		fp.setCollapsed(item.FacetID, false)
		return
	}
	if fp.cursor+1 < len(fp.items) && fp.items[fp.cursor+1].Kind == filterItemValue {
		fp.cursor++
		fp.ensureVisible()
	}
}

func (fp *filterPane) setCollapsed(id facetID, collapsed bool) {
	fp.collapsed[id] = collapsed
	fp.rebuildItems()
	fp.cursorToCategory(id)
}

func (fp *filterPane) cursorToCategory(id facetID) {
	for i, it := range fp.items {
		if it.Kind == filterItemCategory && it.FacetID == id {
			fp.cursor = i
			fp.ensureVisible()
			return
		}
	}
}

// selectedIn counts the selected values within one facet.
func (fp *filterPane) selectedIn(id facetID) int {
	n := 0
	for _, v := range fp.facets.Values[id] {
		if v.Selected {
			n++
		}
	}
	return n
}

func (fp filterPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	contentWidth := fp.width - 2
	var b strings.Builder
	visibleEnd := min(fp.offset+fp.visibleRows(), len(fp.items))

	for i := fp.offset; i < visibleEnd; i++ {
		item := fp.items[i]
		line := fp.renderItem(item, contentWidth)

		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(contentWidth).Render(stripAnsi(line))
		}

		b.WriteString(padRight(line, contentWidth))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}

	// Fill remaining lines
	for i := visibleEnd - fp.offset; i < fp.visibleRows(); i++ {
		b.WriteString(strings.Repeat(" ", contentWidth))
		if i < fp.visibleRows()-1 {
			b.WriteString("\n")
		}
	}

	titleText := " Filters "
	if n := fp.facets.activeFilterCount(); n > 0 {
		titleText = fmt.Sprintf(" Filters (%d active) ", n)
	}
	title := titleStyle.Render(titleText)

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

// renderItem renders one row. Category rows carry a fold arrow and, when any
// of their values are selected, a right-aligned badge; value rows carry the
// selection marker and a right-aligned match count.
func (fp *filterPane) renderItem(item filterItem, width int) string {
	switch item.Kind {
	case filterItemCategory:
		arrow := "▾"
		if fp.collapsed[item.FacetID] {
			arrow = "▸"
		}
		left := fmt.Sprintf(" %s %s", arrow, item.Label)
		if n := fp.selectedIn(item.FacetID); n > 0 {
			badge := fmt.Sprintf("%d set ", n)
			gap := width - len(left) - len(badge)
			if gap > 0 {
				return facetLabelStyle.Render(left) + strings.Repeat(" ", gap) + facetCountStyle.Render(badge)
			}
		}
		return facetLabelStyle.Render(left)

	case filterItemValue:
		values := fp.facets.Values[item.FacetID]
		if item.ValueIdx >= len(values) {
			return ""
		}
		v := values[item.ValueIdx]

		count := fmt.Sprintf("%d ", v.Count)
		labelWidth := width - 5 - len(count)
		label := truncateString(item.Label, labelWidth)

		marker := " "
		if v.Selected {
			marker = "x"
		}
		left := fmt.Sprintf("   %s %s", marker, label)
		gap := width - len(left) - len(count)
		if gap < 0 {
			gap = 0
		}

		rendered := left
		if v.Selected {
			rendered = "   " + facetSelectedStyle.Render(marker+" "+label)
		}
		return rendered + strings.Repeat(" ", gap) + facetCountStyle.Render(count)
	}
	return ""
}

func (fp filterPane) visibleRows() int {
	return max(1, fp.height-4) // account for title + border
}

func (fp *filterPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *filterPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}

// Helper functions

func keyMatches(msg tea.KeyMsg, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}

// stripAnsi removes ANSI escape sequences for re-styling.
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

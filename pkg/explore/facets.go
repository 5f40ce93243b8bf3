package explore

import (
	"sort"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// facetID identifies a facet category.
type facetID int

const (
	facetWarning facetID = iota
	facetClass
	facetEncryption
	facetOutcome
)

// facetDef defines a facet category.
type facetDef struct {
	ID    facetID
	Label string
}

var facetDefs = []facetDef{
	{facetWarning, "Warning"},
	{facetClass, "Class"},
	{facetEncryption, "Encryption"},
	{facetOutcome, "Outcome"},
}

// facetValue is a single selectable value within a facet.
type facetValue struct {
	FacetID  facetID
	Value    string
	Count    int
	Selected bool
}

// facetState holds the complete filter state.
type facetState struct {
	Values map[facetID][]*facetValue
}

func newFacetState() *facetState {
	return &facetState{
		Values: make(map[facetID][]*facetValue),
	}
}

// buildFacets builds facet values from the run inventory. A file counts once
// per distinct warning kind touching it; files without warnings count under
// "-".
func buildFacets(files []*fileRow) *facetState {
	fs := newFacetState()

	warnings := make(map[string]int)
	classes := make(map[string]int)
	encryptions := make(map[string]int)
	outcomes := make(map[string]int)

	for _, f := range files {
		kinds := f.warningKinds()
		if len(kinds) == 0 {
			warnings["-"]++
		}
		for _, k := range kinds {
			warnings[k]++
		}

		classes[f.class()]++
		encryptions[f.Encryption]++
		outcomes[f.Outcome]++
	}

	fs.Values[facetWarning] = warningFacetValues(warnings)
	fs.Values[facetClass] = mapToFacetValues(facetClass, classes)
	fs.Values[facetEncryption] = mapToFacetValues(facetEncryption, encryptions)
	fs.Values[facetOutcome] = mapToFacetValues(facetOutcome, outcomes)

	return fs
}

func mapToFacetValues(id facetID, counts map[string]int) []*facetValue {
	values := make([]*facetValue, 0, len(counts))
	for v, c := range counts {
		values = append(values, &facetValue{FacetID: id, Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Value < values[j].Value
	})
	return values
}

// warningFacetValues orders warning kinds the way reports list them, skip
// conditions before informational notes, with the no-warnings bucket last.
func warningFacetValues(counts map[string]int) []*facetValue {
	values := make([]*facetValue, 0, len(counts))
	for _, k := range types.WarningKinds() {
		if c, ok := counts[string(k)]; ok {
			values = append(values, &facetValue{FacetID: facetWarning, Value: string(k), Count: c})
		}
	}
	if c, ok := counts["-"]; ok {
		values = append(values, &facetValue{FacetID: facetWarning, Value: "-", Count: c})
	}
	return values
}

// selectedValues returns the set of selected values for a facet.
func (fs *facetState) selectedValues(id facetID) map[string]bool {
	selected := make(map[string]bool)
	for _, v := range fs.Values[id] {
		if v.Selected {
			selected[v.Value] = true
		}
	}
	return selected
}

// hasActiveFilters returns true if any facet has selections.
func (fs *facetState) hasActiveFilters() bool {
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				return true
			}
		}
	}
	return false
}

// activeFilterCount returns how many facet values are selected.
func (fs *facetState) activeFilterCount() int {
	n := 0
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				n++
			}
		}
	}
	return n
}

// resetAll deselects all facet values.
func (fs *facetState) resetAll() {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Selected = false
		}
	}
}

// matchesFile returns true if a file passes all active filters.
// Within a facet: OR (union). Across facets: AND (intersection).
func (fs *facetState) matchesFile(f *fileRow) bool {
	for _, def := range facetDefs {
		selected := fs.selectedValues(def.ID)
		if len(selected) == 0 {
			continue // no filter active for this facet
		}

		switch def.ID {
		case facetWarning:
			kinds := f.warningKinds()
			if len(kinds) == 0 {
				if !selected["-"] {
					return false
				}
				continue
			}
			found := false
			for _, k := range kinds {
				if selected[k] {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case facetClass:
			if !selected[f.class()] {
				return false
			}
		case facetEncryption:
			if !selected[f.Encryption] {
				return false
			}
		case facetOutcome:
			if !selected[f.Outcome] {
				return false
			}
		}
	}
	return true
}

// updateCounts recounts facet values over the files passing the current
// filters.
func (fs *facetState) updateCounts(files []*fileRow) {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Count = 0
		}
	}

	for _, f := range files {
		if !fs.matchesFile(f) {
			continue
		}

		kinds := f.warningKinds()
		for _, v := range fs.Values[facetWarning] {
			if len(kinds) == 0 {
				if v.Value == "-" {
					v.Count++
				}
				continue
			}
			for _, k := range kinds {
				if v.Value == k {
					v.Count++
					break
				}
			}
		}
		for _, v := range fs.Values[facetClass] {
			if v.Value == f.class() {
				v.Count++
			}
		}
		for _, v := range fs.Values[facetEncryption] {
			if v.Value == f.Encryption {
				v.Count++
			}
		}
		for _, v := range fs.Values[facetOutcome] {
			if v.Value == f.Outcome {
				v.Count++
			}
		}
	}
}

// fileRow is the denormalized view model for one tracked file, built from a
// tracker entry plus the warnings touching any of its paths.
type fileRow struct {
	Digest     string // hex
	Size       int64
	Paths      []string
	TypeLabel  string
	MIME       string
	Extension  string
	IsArchive  bool
	Encryption string // "none", "partial", "all", or "-" for non-archives
	Outcome    string // "extracted", "failed", "skipped", or "-" for non-archives
	Deleted    bool
	Warnings   []types.Warning
	Metadata   map[string]any
}

func (f *fileRow) primaryPath() string {
	if len(f.Paths) == 0 {
		return ""
	}
	return f.Paths[0]
}

func (f *fileRow) class() string {
	if f.IsArchive {
		return "archive"
	}
	return "plain"
}

// warningKinds returns the distinct warning kinds on this file, first-seen
// order.
func (f *fileRow) warningKinds() []string {
	var kinds []string
	seen := make(map[string]bool)
	for _, w := range f.Warnings {
		k := string(w.Kind)
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds
}

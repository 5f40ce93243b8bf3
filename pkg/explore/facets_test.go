package explore

import (
	"testing"

	"github.com/praetorian-inc/burrow/pkg/types"
)

func TestBuildFacets(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "extracted"},
		{IsArchive: true, Encryption: "all", Outcome: "skipped",
			Warnings: []types.Warning{{Kind: types.WarnPasswordProtectedSkipped}}},
		{IsArchive: false, Encryption: "-", Outcome: "-"},
	}

	fs := buildFacets(files)

	// Check warning facet: "-" for no warnings plus the skip kind
	warns := fs.Values[facetWarning]
	if len(warns) != 2 {
		t.Errorf("expected 2 warning values, got %d", len(warns))
	}

	// Check class facet
	classes := fs.Values[facetClass]
	if len(classes) != 2 { // archive, plain
		t.Errorf("expected 2 classes, got %d", len(classes))
	}

	// Check encryption facet
	encs := fs.Values[facetEncryption]
	if len(encs) != 3 { // none, all, -
		t.Errorf("expected 3 encryption values, got %d", len(encs))
	}

	// Check outcome facet
	outs := fs.Values[facetOutcome]
	if len(outs) != 3 { // extracted, skipped, -
		t.Errorf("expected 3 outcomes, got %d", len(outs))
	}
}

func TestBuildFacetsCountsWarningKindOncePerFile(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "failed",
			Warnings: []types.Warning{
				{Kind: types.WarnExtractionFailed, Path: "a"},
				{Kind: types.WarnExtractionFailed, Path: "b"},
			}},
	}

	fs := buildFacets(files)

	for _, v := range fs.Values[facetWarning] {
		if v.Value == string(types.WarnExtractionFailed) && v.Count != 1 {
			t.Errorf("expected kind counted once per file, got %d", v.Count)
		}
	}
}

func TestFacetFiltering(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "extracted"},
		{IsArchive: true, Encryption: "all", Outcome: "skipped"},
		{IsArchive: false, Encryption: "-", Outcome: "-"},
	}

	fs := buildFacets(files)

	// No filters - all match
	for i, f := range files {
		if !fs.matchesFile(f) {
			t.Errorf("expected file %d to match with no filters", i)
		}
	}

	// Select "extracted" in outcome facet
	for _, v := range fs.Values[facetOutcome] {
		if v.Value == "extracted" {
			v.Selected = true
		}
	}

	// Only the extracted archive should match
	if !fs.matchesFile(files[0]) {
		t.Error("expected extracted archive to match outcome filter")
	}
	if fs.matchesFile(files[1]) {
		t.Error("expected skipped archive to NOT match outcome filter")
	}
	if fs.matchesFile(files[2]) {
		t.Error("expected plain file to NOT match outcome filter")
	}
}

func TestFacetWarningFilterMatchesUnwarned(t *testing.T) {
	files := []*fileRow{
		{IsArchive: false, Encryption: "-", Outcome: "-"},
		{IsArchive: true, Encryption: "none", Outcome: "skipped",
			Warnings: []types.Warning{{Kind: types.WarnMaxDepth}}},
	}

	fs := buildFacets(files)

	// Select "-" (no warnings)
	for _, v := range fs.Values[facetWarning] {
		if v.Value == "-" {
			v.Selected = true
		}
	}

	if !fs.matchesFile(files[0]) {
		t.Error("expected unwarned file to match the '-' filter")
	}
	if fs.matchesFile(files[1]) {
		t.Error("expected warned file to NOT match the '-' filter")
	}
}

func TestFacetReset(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "extracted"},
	}
	fs := buildFacets(files)

	// Select a value
	fs.Values[facetClass][0].Selected = true
	if !fs.hasActiveFilters() {
		t.Error("expected active filters after selection")
	}
	if fs.activeFilterCount() != 1 {
		t.Errorf("expected 1 active filter, got %d", fs.activeFilterCount())
	}

	// Reset
	fs.resetAll()
	if fs.hasActiveFilters() {
		t.Error("expected no active filters after reset")
	}
}

func TestFacetCrossFacetFiltering(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "extracted"},
		{IsArchive: true, Encryption: "all", Outcome: "extracted"},
		{IsArchive: true, Encryption: "none", Outcome: "skipped"},
	}

	fs := buildFacets(files)

	// Select "none" encryption AND "extracted" outcome (intersection)
	for _, v := range fs.Values[facetEncryption] {
		if v.Value == "none" {
			v.Selected = true
		}
	}
	for _, v := range fs.Values[facetOutcome] {
		if v.Value == "extracted" {
			v.Selected = true
		}
	}

	// Only the first should match (none AND extracted)
	if !fs.matchesFile(files[0]) {
		t.Error("expected match (none AND extracted)")
	}
	if fs.matchesFile(files[1]) {
		t.Error("expected no match (extracted but all-encrypted)")
	}
	if fs.matchesFile(files[2]) {
		t.Error("expected no match (none but skipped)")
	}
}

func TestFacetUpdateCounts(t *testing.T) {
	files := []*fileRow{
		{IsArchive: true, Encryption: "none", Outcome: "extracted"},
		{IsArchive: true, Encryption: "none", Outcome: "skipped"},
		{IsArchive: false, Encryption: "-", Outcome: "-"},
	}

	fs := buildFacets(files)

	// Filter down to archives only
	for _, v := range fs.Values[facetClass] {
		if v.Value == "archive" {
			v.Selected = true
		}
	}
	fs.updateCounts(files)

	for _, v := range fs.Values[facetOutcome] {
		switch v.Value {
		case "extracted", "skipped":
			if v.Count != 1 {
				t.Errorf("expected count 1 for %q, got %d", v.Value, v.Count)
			}
		case "-":
			if v.Count != 0 {
				t.Errorf("expected count 0 for plain outcome, got %d", v.Count)
			}
		}
	}
}

func TestFileRowClass(t *testing.T) {
	archive := &fileRow{IsArchive: true}
	if archive.class() != "archive" {
		t.Errorf("expected archive, got %s", archive.class())
	}
	plain := &fileRow{}
	if plain.class() != "plain" {
		t.Errorf("expected plain, got %s", plain.class())
	}
}

func TestFileRowWarningKindsDistinct(t *testing.T) {
	f := &fileRow{Warnings: []types.Warning{
		{Kind: types.WarnMaxDepth, Path: "a"},
		{Kind: types.WarnNoArchiver, Path: "a"},
		{Kind: types.WarnMaxDepth, Path: "b"},
	}}

	kinds := f.warningKinds()
	if len(kinds) != 2 {
		t.Fatalf("expected 2 distinct kinds, got %d", len(kinds))
	}
	if kinds[0] != string(types.WarnMaxDepth) || kinds[1] != string(types.WarnNoArchiver) {
		t.Errorf("unexpected kind order: %v", kinds)
	}
}

package sarif

import (
	"encoding/json"
	"testing"

	"github.com/praetorian-inc/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromWarnings(t *testing.T) {
	warnings := []types.Warning{
		types.NewWarning(types.WarnMaxArchiveSizeBytes, "/in/huge.zip",
			"skipped: expected size 2000 is greater than the archive size limit 1000"),
		types.NewWarning(types.WarnPasswordProtectedDetected, "extracted/ab/inner.7z",
			"archive appears to be partially password protected"),
		types.NewWarning(types.WarnMissingArchiver, "",
			"could not find unar; some archive types may not be supported"),
	}

	report := FromWarnings(warnings, "1.2.3")

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	require.Len(t, report.Runs, 1)

	driver := report.Runs[0].Tool.Driver
	assert.Equal(t, "burrow", driver.Name)
	assert.Equal(t, "1.2.3", driver.Version)
	assert.Len(t, driver.Rules, len(types.WarningKinds()))

	results := report.Runs[0].Results
	require.Len(t, results, 3)

	assert.Equal(t, "MAX_ARCHIVE_SIZE_BYTES", results[0].RuleID)
	assert.Equal(t, "warning", results[0].Level)
	require.Len(t, results[0].Locations, 1)
	assert.Equal(t, "file:///in/huge.zip",
		results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)

	// Informational kinds report as notes, relative paths stay relative.
	assert.Equal(t, "note", results[1].Level)
	assert.Equal(t, "extracted/ab/inner.7z",
		results[1].Locations[0].PhysicalLocation.ArtifactLocation.URI)

	// A warning with no path carries no location at all.
	assert.Equal(t, "note", results[2].Level)
	assert.Empty(t, results[2].Locations)
}

func TestFromWarningsEmpty(t *testing.T) {
	report := FromWarnings(nil, "")

	require.Len(t, report.Runs, 1)
	assert.Equal(t, "dev", report.Runs[0].Tool.Driver.Version)
	assert.Empty(t, report.Runs[0].Results)
	assert.NotEmpty(t, report.Runs[0].Tool.Driver.Rules)
}

func TestRuleDescriptions(t *testing.T) {
	report := FromWarnings(nil, "dev")

	for _, rule := range report.Runs[0].Tool.Driver.Rules {
		assert.NotEmpty(t, rule.ShortDescription.Text, "rule %s has no description", rule.ID)
	}
}

func TestToJSON(t *testing.T) {
	warnings := []types.Warning{
		types.NewWarning(types.WarnArchiveCycle, "/in/self.zip",
			"archive contains a copy of itself; not descending"),
	}

	data, err := FromWarnings(warnings, "dev").ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])
	assert.Contains(t, string(data), "$schema")
	assert.Contains(t, string(data), "ARCHIVE_CYCLE")
}

func TestFormatFileURI(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "absolute path", path: "/data/in.zip", want: "file:///data/in.zip"},
		{name: "relative path", path: "extracted/ab/in.zip", want: "extracted/ab/in.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFileURI(tt.path))
		})
	}
}

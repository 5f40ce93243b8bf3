// Package sarif renders a run's warnings as a SARIF 2.1.0 report, one rule
// per warning kind, so extraction decisions land in the same dashboards as
// other static-analysis output.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// SARIF 2.1.0 constants.
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "burrow"
)

// Report is the top-level SARIF report structure.
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata.
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule documents one warning kind.
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
}

// ShortDescription contains rule description text.
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single warning.
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message contains the result message.
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies the file location.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

// ArtifactLocation identifies the file.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// FromWarnings builds a report carrying every warning from a run. The rule
// table always lists the full warning-kind set so ruleIds resolve no matter
// which kinds this particular run produced.
func FromWarnings(warnings []types.Warning, toolVersion string) *Report {
	if toolVersion == "" {
		toolVersion = "dev"
	}

	kinds := types.WarningKinds()
	rules := make([]Rule, 0, len(kinds))
	for _, kind := range kinds {
		rules = append(rules, Rule{
			ID:               string(kind),
			Name:             string(kind),
			ShortDescription: ShortDescription{Text: describeKind(kind)},
		})
	}

	results := make([]Result, 0, len(warnings))
	for _, w := range warnings {
		results = append(results, fromWarning(w))
	}

	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: toolVersion,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
}

func fromWarning(w types.Warning) Result {
	level := "warning"
	if w.Kind.Informational() {
		level = "note"
	}

	result := Result{
		RuleID:  string(w.Kind),
		Level:   level,
		Message: Message{Text: w.Message},
	}
	if w.Path != "" {
		result.Locations = []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{URI: formatFileURI(w.Path)},
				},
			},
		}
	}
	return result
}

// ToJSON serializes the report to indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func describeKind(kind types.WarningKind) string {
	switch kind {
	case types.WarnMaxDepth:
		return "Archive nesting reached the configured depth limit"
	case types.WarnNoArchiver:
		return "No located capability claims this archive type"
	case types.WarnArchiveCycle:
		return "Archive contains a bitwise copy of an enclosing archive"
	case types.WarnSizeRetrievalFailed:
		return "Archive size could not be determined before extraction"
	case types.WarnPasswordProtectedSkipped:
		return "Fully password-protected archive left unextracted"
	case types.WarnMaxArchiveSizeBytes:
		return "Expected extracted size exceeds the per-archive limit"
	case types.WarnMaxTotalSizeBytes:
		return "Expected extracted size would exceed the run-wide limit"
	case types.WarnMinArchiveRatio:
		return "Compression ratio fell below the configured floor"
	case types.WarnMinDiskFreeSpace:
		return "Extraction would leave too little free disk space"
	case types.WarnExtractionFailed:
		return "The selected capability failed to extract the archive"
	case types.WarnPasswordProtectedDetected:
		return "Archive metadata indicates password protection"
	case types.WarnMissingArchiver:
		return "An extraction tool is not installed on this host"
	case types.WarnDeleteFailed:
		return "Archive could not be deleted after extraction"
	case types.WarnSkipDeleteExtension:
		return "Archive kept after extraction: extension is on the skip list"
	case types.WarnSkipDeleteMIMEType:
		return "Archive kept after extraction: MIME type is on the skip list"
	}
	return string(kind)
}

// formatFileURI converts a file path to SARIF URI form: absolute paths get a
// file:// scheme, relative paths stay relative.
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	return filepath.ToSlash(path)
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/burrow/pkg/archiver"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show archiver tool status",
	Long:  "Display which extraction tools are installed and what formats they cover",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsFormat, "format", "table", "Output format: table, json")
}

// toolStatus is the JSON shape of one located capability.
type toolStatus struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Extensions []string `json:"extensions"`
	MIMETypes  []string `json:"mime_types"`
}

// toolsReport is the JSON shape of the full tools command output.
type toolsReport struct {
	Located               []toolStatus `json:"located"`
	Missing               []string     `json:"missing"`
	SupportedExtensions   []string     `json:"supported_extensions"`
	UnsupportedExtensions []string     `json:"unsupported_extensions"`
	SupportedMIMETypes    []string     `json:"supported_mime_types"`
	UnsupportedMIMETypes  []string     `json:"unsupported_mime_types"`
}

func runTools(cmd *cobra.Command, args []string) error {
	constructors := archiver.DefaultConstructors()
	registry := archiver.NewRegistry(constructors...)
	registry.Locate()

	report := toolsReport{
		SupportedExtensions:   registry.SupportedExtensions(),
		UnsupportedExtensions: registry.UnsupportedExtensions(),
		SupportedMIMETypes:    registry.SupportedMIMETypes(),
		UnsupportedMIMETypes:  registry.UnsupportedMIMETypes(),
	}
	located := make(map[string]bool)
	for _, c := range registry.Capabilities() {
		located[c.Name()] = true
		report.Located = append(report.Located, toolStatus{
			Name:       c.Name(),
			Path:       c.Path(),
			Extensions: c.Extensions(),
			MIMETypes:  c.MIMETypes(),
		})
	}
	for _, ctor := range constructors {
		if !located[ctor.Name] {
			report.Missing = append(report.Missing, ctor.Name)
		}
	}

	switch toolsFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "table":
		return outputToolsTable(cmd, report)
	default:
		return fmt.Errorf("unknown output format: %s", toolsFormat)
	}
}

func outputToolsTable(cmd *cobra.Command, report toolsReport) error {
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Tool\tPath\tExtensions\n")
	fmt.Fprintf(w, "----\t----\t----------\n")
	for _, t := range report.Located {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Path, summarizeList(t.Extensions, 8))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "\nMissing tools: %s\n", strings.Join(report.Missing, ", "))
	}
	if len(report.UnsupportedExtensions) > 0 {
		fmt.Fprintf(out, "\nExtensions without coverage: %s\n", strings.Join(report.UnsupportedExtensions, ", "))
	}
	if len(report.UnsupportedMIMETypes) > 0 {
		fmt.Fprintf(out, "MIME types without coverage: %s\n", strings.Join(report.UnsupportedMIMETypes, ", "))
	}

	return nil
}

// summarizeList joins up to max entries, then appends a (+N) count.
func summarizeList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s (+%d)", strings.Join(items[:max], ", "), len(items)-max)
}

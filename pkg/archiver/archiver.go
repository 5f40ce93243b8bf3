// Package archiver defines the capability contract around decompression
// backends (external tools or in-process libraries), the concrete adapters,
// and the registry that discovers which of them this host can run.
package archiver

import (
	"context"
	"errors"
	"fmt"
)

// ErrAnalyzeNotSupported is returned by capabilities that can extract but
// have no listing mode. Callers must treat it as "no safety information
// available", never as an empty archive.
var ErrAnalyzeNotSupported = errors.New("analyze not supported")

// Analysis is what a capability's listing mode reports about an archive
// without extracting it.
type Analysis struct {
	// ExtractedSize is the sum of uncompressed entry sizes as reported by
	// the backend's listing. Never inferred by extracting.
	ExtractedSize    int64 `json:"extracted_size"`
	EncryptedCount   int   `json:"encrypted_count"`
	UnencryptedCount int   `json:"unencrypted_count"`
	TotalCount       int   `json:"total_count"`
}

// Capability adapts one decompression backend. Implementations declare the
// file extensions and MIME types they claim; overlap between capabilities is
// expected and resolved by registry registration order.
type Capability interface {
	// Name identifies the capability ("7z", "unar", "pea", "native").
	Name() string
	// Path is the resolved backing executable, empty for in-process
	// capabilities.
	Path() string
	// Extensions returns the claimed extensions (lower-case, no dot).
	Extensions() []string
	// MIMETypes returns the claimed MIME type strings (lower-case).
	MIMETypes() []string
	// Claims reports whether either the MIME type or the extension is
	// covered by this capability.
	Claims(mimeType, extension string) bool
	// Extract decompresses archivePath into destDir, creating destDir.
	// Failures are *ExtractionError.
	Extract(ctx context.Context, archivePath, destDir string) error
	// Analyze queries the backend's listing mode. ErrAnalyzeNotSupported
	// when the backend has none; *AnalysisError when listing fails.
	Analyze(ctx context.Context, archivePath string) (*Analysis, error)
}

// ExtractionError wraps any extraction failure with the capability and
// archive it came from.
type ExtractionError struct {
	Capability string
	Archive    string
	Output     string // trailing tool output, if any
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed to extract %s: %v: %s", e.Capability, e.Archive, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed to extract %s: %v", e.Capability, e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AnalysisError wraps any listing failure with the capability and archive it
// came from.
type AnalysisError struct {
	Capability string
	Archive    string
	Err        error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s failed to analyze %s: %v", e.Capability, e.Archive, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// claims is the shared coverage check. Extension and MIME comparisons are
// exact after lower-casing by the caller (the engine lower-cases once).
func claims(extensions, mimeTypes []string, mimeType, extension string) bool {
	for _, m := range mimeTypes {
		if m == mimeType {
			return true
		}
	}
	for _, e := range extensions {
		if e == extension {
			return true
		}
	}
	return false
}

// copyStrings copies in so callers cannot mutate a capability's
// claim tables.
func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

package types

// WarningKind identifies why an archive was skipped, partially handled, or
// flagged during a run. The set is closed: report consumers switch on it.
type WarningKind string

const (
	// Skip conditions: the affected archive is left unexpanded and the
	// traversal continues with the rest of the tree.
	WarnMaxDepth                 WarningKind = "MAX_DEPTH"
	WarnNoArchiver               WarningKind = "NO_ARCHIVER"
	WarnArchiveCycle             WarningKind = "ARCHIVE_CYCLE"
	WarnSizeRetrievalFailed      WarningKind = "SIZE_RETRIEVAL_FAILED"
	WarnPasswordProtectedSkipped WarningKind = "PASSWORD_PROTECTED_SKIPPED"
	WarnMaxArchiveSizeBytes      WarningKind = "MAX_ARCHIVE_SIZE_BYTES"
	WarnMaxTotalSizeBytes        WarningKind = "MAX_TOTAL_SIZE_BYTES"
	WarnMinArchiveRatio          WarningKind = "MIN_ARCHIVE_RATIO"
	WarnMinDiskFreeSpace         WarningKind = "MIN_DISK_FREE_SPACE"
	WarnExtractionFailed         WarningKind = "EXTRACTION_FAILED"

	// Informational conditions: extraction is not blocked.
	WarnPasswordProtectedDetected WarningKind = "PASSWORD_PROTECTED_DETECTED"
	WarnMissingArchiver           WarningKind = "MISSING_ARCHIVER"
	WarnDeleteFailed              WarningKind = "DELETE_FAILED"
	WarnSkipDeleteExtension       WarningKind = "SKIP_DELETE_EXTENSION"
	WarnSkipDeleteMIMEType        WarningKind = "SKIP_DELETE_MIMETYPE"
)

// WarningKinds returns every kind in a stable order, skip conditions first.
func WarningKinds() []WarningKind {
	return []WarningKind{
		WarnMaxDepth,
		WarnNoArchiver,
		WarnArchiveCycle,
		WarnSizeRetrievalFailed,
		WarnPasswordProtectedSkipped,
		WarnMaxArchiveSizeBytes,
		WarnMaxTotalSizeBytes,
		WarnMinArchiveRatio,
		WarnMinDiskFreeSpace,
		WarnExtractionFailed,
		WarnPasswordProtectedDetected,
		WarnMissingArchiver,
		WarnDeleteFailed,
		WarnSkipDeleteExtension,
		WarnSkipDeleteMIMEType,
	}
}

// Informational reports whether the kind never blocks extraction.
func (k WarningKind) Informational() bool {
	switch k {
	case WarnPasswordProtectedDetected, WarnMissingArchiver, WarnDeleteFailed,
		WarnSkipDeleteExtension, WarnSkipDeleteMIMEType:
		return true
	}
	return false
}

// Warning is one structured diagnostic from a run. Warnings are appended in
// decision order and that order is preserved through persistence and reports.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
	Path    string      `json:"path,omitempty"`
}

// NewWarning creates a warning for the file at path.
func NewWarning(kind WarningKind, path, message string) Warning {
	return Warning{Kind: kind, Message: message, Path: path}
}

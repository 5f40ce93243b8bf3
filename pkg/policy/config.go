package policy

// Budget defaults. Sizes use binary multiples, matching the size-string
// syntax accepted by the CLI ("10G" is 10 * 1024^3).
const (
	DefaultMaxArchiveSize  = int64(10) << 30
	DefaultMaxTotalSize    = int64(100) << 30
	DefaultMinArchiveRatio = 0.005
	DefaultMinDiskFree     = int64(1) << 30
)

// Config is the safety budget the engine consults at every decision point.
// The zero value of a limit field disables nothing; build from
// DefaultConfig and override.
type Config struct {
	// MaxDepth bounds recursion into nested archives. 0 means unlimited.
	MaxDepth int

	// MaxArchiveSize caps the declared extracted size of any single
	// archive.
	MaxArchiveSize int64

	// MaxTotalSize caps the cumulative tracked size across the whole run.
	// The sum is dedup-aware: identical content counts once.
	MaxTotalSize int64

	// MinArchiveRatio rejects suspiciously dense archives: extracted size
	// divided by archive size below this value skips extraction. In [0, 1].
	MinArchiveRatio float64

	// MinDiskFree is the space that must remain free on the extraction
	// volume after a hypothetical extraction.
	MinDiskFree int64

	// DeleteAfterExtraction removes each archive once its contents are
	// extracted and recursed into.
	DeleteAfterExtraction bool

	// SkipDeleteExtensions and SkipDeleteMIMETypes exempt files from
	// DeleteAfterExtraction. Office documents are technically zip
	// containers; deleting them after extraction would destroy the
	// documents themselves.
	SkipDeleteExtensions []string
	SkipDeleteMIMETypes  []string
}

// DefaultSkipDeleteExtensions lists document formats that classify as
// archives but must survive cleanup.
func DefaultSkipDeleteExtensions() []string {
	return []string{
		"docx", "docm", "xlsx", "xlsm", "pptx", "pptm",
		"odt", "ods", "odp", "epub",
	}
}

// DefaultSkipDeleteMIMETypes is the MIME-keyed counterpart of
// DefaultSkipDeleteExtensions, including the OLE container type that legacy
// office files detect as.
func DefaultSkipDeleteMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.oasis.opendocument.spreadsheet",
		"application/vnd.oasis.opendocument.presentation",
		"application/epub+zip",
		"application/x-ole-storage",
	}
}

// DefaultConfig returns the stock budget: 10G per archive, 100G per run,
// ratio floor 0.005, 1G disk headroom, unlimited depth, originals retained.
func DefaultConfig() Config {
	return Config{
		MaxArchiveSize:       DefaultMaxArchiveSize,
		MaxTotalSize:         DefaultMaxTotalSize,
		MinArchiveRatio:      DefaultMinArchiveRatio,
		MinDiskFree:          DefaultMinDiskFree,
		SkipDeleteExtensions: DefaultSkipDeleteExtensions(),
		SkipDeleteMIMETypes:  DefaultSkipDeleteMIMETypes(),
	}
}

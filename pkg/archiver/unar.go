package archiver

import (
	"context"
	"os"
	"os/exec"
)

var unarExtensions = []string{
	"zip", "zipx", "rar", "r00", "7z", "s7z", "tar", "gz", "tgz", "bz2",
	"tbz2", "lzma", "xz", "txz", "z", "taz", "cab", "msi", "lha", "lhz",
	"arj", "iso", "ace", "arc", "pak", "sit", "sitx", "zoo", "cpio", "aar",
	"jar", "war", "ear", "apk", "xpi", "crx", "docx", "docm", "xlsx",
	"xlsm", "pptx", "pptm",
}

var unarMIMETypes = []string{
	"application/zip",
	"application/x-rar-compressed",
	"application/x-rar",
	"application/x-7z-compressed",
	"application/x-tar",
	"application/gzip",
	"application/x-bzip2",
	"application/x-lzma",
	"application/x-xz",
	"application/x-compress",
	"application/vnd.ms-cab-compressed",
	"application/x-ole-storage",
	"application/x-lzh",
	"application/x-arj",
	"application/x-iso9660-image",
	"application/x-ace-compressed",
	"application/x-freearc",
	"application/x-stuffit",
	"application/x-sit",
	"application/x-stuffitx",
	"application/x-sitx",
	"application/x-zoo",
	"application/x-cpio",
	"application/java-archive",
	"application/vnd.android.package-archive",
	"application/x-xpinstall",
	"application/x-chrome-extension",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Unar drives The Unarchiver's command line tool. It has no listing mode
// usable for size analysis, so Analyze reports ErrAnalyzeNotSupported and
// archives that only unar claims are skipped by the fail-closed policy.
type Unar struct {
	path string
}

// NewUnar returns an Unar backed by the executable at path.
func NewUnar(path string) *Unar {
	return &Unar{path: path}
}

func (u *Unar) Name() string { return "unar" }

func (u *Unar) Path() string { return u.path }

func (u *Unar) Extensions() []string { return copyStrings(unarExtensions) }

func (u *Unar) MIMETypes() []string { return copyStrings(unarMIMETypes) }

func (u *Unar) Claims(mimeType, extension string) bool {
	return claims(unarExtensions, unarMIMETypes, mimeType, extension)
}

func (u *Unar) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractionError{Capability: u.Name(), Archive: archivePath, Err: err}
	}

	cmd := exec.CommandContext(ctx, u.path, "-force-overwrite", "-o", destDir, archivePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ExtractionError{
			Capability: u.Name(),
			Archive:    archivePath,
			Output:     tail(out),
			Err:        err,
		}
	}
	return nil
}

func (u *Unar) Analyze(ctx context.Context, archivePath string) (*Analysis, error) {
	return nil, ErrAnalyzeNotSupported
}

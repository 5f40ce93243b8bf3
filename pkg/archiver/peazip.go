package archiver

import (
	"context"
	"os"
	"os/exec"
)

var peaExtensions = []string{
	"appinstaller", "appx", "appxbundle", "gz", "tgz", "jar", "ear", "war",
	"emsix", "emsixbundle", "msix", "msixbundle", "apk", "deb", "cab",
	"chm", "chw", "chi", "chq", "pptx", "pptm", "xlsx", "xlsm", "docx",
	"docm", "7z", "s7z", "ace", "dmg", "img", "arc", "pak", "arj", "br",
	"bz2", "tbz2", "crx", "z", "taz", "cpio", "iso", "lzma", "wim", "swm",
	"esd", "msi", "msp", "rar", "r00", "rpm", "tar", "vhd", "vhdx", "xar",
	"pkg", "xpi", "xz", "txz", "ipa", "zip", "zipx", "aar", "zst",
}

var peaMIMETypes = []string{
	"application/appinstaller",
	"application/appx",
	"application/appxbundle",
	"application/gzip",
	"application/java-archive",
	"application/msix",
	"application/msixbundle",
	"application/vnd.android.package-archive",
	"application/vnd.debian.binary-package",
	"application/vnd.ms-cab-compressed",
	"application/vnd.ms-htmlhelp",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/x-7z-compressed",
	"application/x-ace-compressed",
	"application/x-apple-diskimage",
	"application/x-arc",
	"application/x-arj",
	"application/x-brotli",
	"application/x-bzip2",
	"application/x-chrome-extension",
	"application/x-compress",
	"application/x-cpio",
	"application/x-freearc",
	"application/x-iso9660-image",
	"application/x-lzma",
	"application/x-ms-wim",
	"application/x-ole-storage",
	"application/x-rar-compressed",
	"application/x-rpm",
	"application/x-tar",
	"application/x-vhd",
	"application/x-xar",
	"application/x-xpinstall",
	"application/x-xz",
	"application/zip",
	"application/zstd",
}

// Pea drives PeaZip's pea command line tool in its unattended simple
// extraction mode. pea has no machine-readable listing output, so Analyze
// reports ErrAnalyzeNotSupported.
type Pea struct {
	path string
}

// NewPea returns a Pea backed by the executable at path.
func NewPea(path string) *Pea {
	return &Pea{path: path}
}

func (p *Pea) Name() string { return "pea" }

func (p *Pea) Path() string { return p.path }

func (p *Pea) Extensions() []string { return copyStrings(peaExtensions) }

func (p *Pea) MIMETypes() []string { return copyStrings(peaMIMETypes) }

func (p *Pea) Claims(mimeType, extension string) bool {
	return claims(peaExtensions, peaMIMETypes, mimeType, extension)
}

func (p *Pea) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractionError{Capability: p.Name(), Archive: archivePath, Err: err}
	}

	cmd := exec.CommandContext(ctx, p.path, "-ext2simple", archivePath, destDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ExtractionError{
			Capability: p.Name(),
			Archive:    archivePath,
			Output:     tail(out),
			Err:        err,
		}
	}
	return nil
}

func (p *Pea) Analyze(ctx context.Context, archivePath string) (*Analysis, error) {
	return nil, ErrAnalyzeNotSupported
}

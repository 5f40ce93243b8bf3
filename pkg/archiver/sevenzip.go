package archiver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// sevenZipExtensions is the coverage 7-Zip claims. Broad on purpose: 7z
// opens most container formats, including disk images and office documents.
var sevenZipExtensions = []string{
	"7z", "s7z", "apk", "bz2", "tbz2", "crx", "xpi", "deb", "gz", "tgz",
	"ipa", "jar", "ear", "war", "lzma", "cab", "docx", "docm", "pptx",
	"pptm", "xlsx", "xlsm", "emsix", "emsixbundle", "msix", "appinstaller",
	"appx", "appxbundle", "msixbundle", "z", "taz", "tar", "zip", "zipx",
	"appimage", "dmg", "img", "arj", "cpio", "cramfs", "raw", "alz", "ext",
	"ext2", "ext3", "ext4", "xar", "pkg", "fat", "gpt", "hfs", "hfsx",
	"iso", "lha", "lhz", "mbr", "chm", "chw", "chi", "chq", "msi", "msp",
	"vhd", "vhdx", "ntfs", "nsi", "exe", "nsis", "qcow2", "qcow", "qcow2c",
	"rpm", "rar", "r00", "sqfs", "sfs", "sqsh", "squashfs", "scap", "uefif",
	"udf", "edb", "edp", "edr", "a", "ar", "lib", "vdi", "vmdk", "wim",
	"swm", "esd", "xz", "txz", "zst",
}

var sevenZipMIMETypes = []string{
	"application/x-7z-compressed",
	"application/vnd.android.package-archive",
	"application/x-bzip2",
	"application/x-chrome-extension",
	"application/x-xpinstall",
	"application/vnd.debian.binary-package",
	"application/gzip",
	"application/java-archive",
	"application/x-lzma",
	"application/vnd.ms-cab-compressed",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/msix",
	"application/appinstaller",
	"application/appx",
	"application/appxbundle",
	"application/msixbundle",
	"application/x-compress",
	"application/x-tar",
	"application/zip",
	"application/x-apple-diskimage",
	"application/x-arj",
	"application/x-cpio",
	"application/vnd.efi.img",
	"application/x-alz-compressed",
	"application/x-xar",
	"application/x-iso9660-image",
	"application/x-lzh",
	"application/vnd.ms-htmlhelp",
	"application/x-ole-storage",
	"application/x-vhd",
	"text/x-nsis",
	"application/x-qemu-disk",
	"application/x-rpm",
	"application/x-rar-compressed",
	"application/x-rar",
	"application/vnd.squashfs",
	"application/x-archive",
	"application/x-virtualbox-vdi",
	"application/x-vmdk-disk",
	"application/x-ms-wim",
	"application/x-xz",
	"application/zstd",
}

// SevenZip drives the 7z executable. It is the only external tool with a
// listing mode, so it is registered first and carries most analysis work.
type SevenZip struct {
	path string
}

// NewSevenZip returns a SevenZip backed by the executable at path.
func NewSevenZip(path string) *SevenZip {
	return &SevenZip{path: path}
}

func (s *SevenZip) Name() string { return "7z" }

func (s *SevenZip) Path() string { return s.path }

func (s *SevenZip) Extensions() []string { return copyStrings(sevenZipExtensions) }

func (s *SevenZip) MIMETypes() []string { return copyStrings(sevenZipMIMETypes) }

func (s *SevenZip) Claims(mimeType, extension string) bool {
	return claims(sevenZipExtensions, sevenZipMIMETypes, mimeType, extension)
}

// Extract runs "7z x". -y answers prompts, bare -p supplies an empty
// password so an encrypted archive fails immediately instead of hanging on
// a password prompt.
func (s *SevenZip) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &ExtractionError{Capability: s.Name(), Archive: archivePath, Err: err}
	}

	cmd := exec.CommandContext(ctx, s.path, "x", "-y", "-p", "-o"+destDir, archivePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ExtractionError{
			Capability: s.Name(),
			Archive:    archivePath,
			Output:     tail(out),
			Err:        err,
		}
	}
	return nil
}

// Analyze runs "7z l -slt" and parses the technical listing: one block per
// entry after the "----------" separator, with "Size = " and
// "Encrypted = +/-" properties.
func (s *SevenZip) Analyze(ctx context.Context, archivePath string) (*Analysis, error) {
	cmd := exec.CommandContext(ctx, s.path, "l", "-slt", "-p", archivePath)
	out, err := cmd.Output()
	if err != nil {
		return nil, &AnalysisError{Capability: s.Name(), Archive: archivePath, Err: err}
	}

	analysis, err := parseTechnicalListing(string(out))
	if err != nil {
		return nil, &AnalysisError{Capability: s.Name(), Archive: archivePath, Err: err}
	}
	return analysis, nil
}

// parseTechnicalListing extracts sizes and encryption flags from -slt
// output. Directory entries (Folder = +) are excluded from entry counts but
// their Size lines still contribute (they are zero in practice).
func parseTechnicalListing(output string) (*Analysis, error) {
	analysis := &Analysis{}

	inEntries := false
	entrySeen := false
	entryIsDir := false
	entryEncrypted := false

	flush := func() {
		if !entrySeen {
			return
		}
		if !entryIsDir {
			analysis.TotalCount++
			if entryEncrypted {
				analysis.EncryptedCount++
			} else {
				analysis.UnencryptedCount++
			}
		}
		entrySeen = false
		entryIsDir = false
		entryEncrypted = false
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		if line == "----------" {
			inEntries = true
			continue
		}

		if strings.HasPrefix(line, "Size = ") {
			value := strings.TrimSpace(line[len("Size = "):])
			if value != "" {
				size, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("unparseable size line %q: %w", line, err)
				}
				analysis.ExtractedSize += size
			}
		}

		if !inEntries {
			continue
		}

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "Path = "):
			flush()
			entrySeen = true
		case line == "Folder = +":
			entryIsDir = true
		case line == "Encrypted = +":
			entryEncrypted = true
		}
	}
	flush()

	return analysis, nil
}

// tail returns the last few lines of tool output for error messages.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " / ")
}

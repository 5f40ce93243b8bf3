package sniff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestDetect_MagicAtOffsetZero(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		label    string
		mime     string
	}{
		{
			name:     "zip",
			filename: "a.zip",
			content:  append([]byte("PK\x03\x04"), make([]byte, 100)...),
			label:    "Zip archive data",
			mime:     "application/zip",
		},
		{
			name:     "7z",
			filename: "a.7z",
			content:  append([]byte("7z\xbc\xaf\x27\x1c"), make([]byte, 100)...),
			label:    "7-zip archive data",
			mime:     "application/x-7z-compressed",
		},
		{
			name:     "gzip",
			filename: "a.gz",
			content:  append([]byte("\x1f\x8b\x08"), make([]byte, 100)...),
			label:    "gzip compressed data",
			mime:     "application/gzip",
		},
		{
			name:     "zstd",
			filename: "a.zst",
			content:  append([]byte("\x28\xb5\x2f\xfd"), make([]byte, 100)...),
			label:    "Zstandard compressed data",
			mime:     "application/zstd",
		},
		{
			name:     "rar v5",
			filename: "a.rar",
			content:  append([]byte("Rar!\x1a\x07\x01\x00"), make([]byte, 100)...),
			label:    "RAR archive data, v5",
			mime:     "application/x-rar",
		},
		{
			name:     "pe executable",
			filename: "a.exe",
			content:  append([]byte("MZ\x90\x00"), make([]byte, 100)...),
			label:    "PE32 executable",
			mime:     "application/x-dosexec",
		},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := s.Detect(writeFixture(t, tt.filename, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.label, det.Label)
			assert.Equal(t, tt.mime, det.MIME)
		})
	}
}

func TestDetect_TarRequiresCorrectOffset(t *testing.T) {
	s := New()

	// ustar at byte 257, as a real tar header has it
	tarHeader := make([]byte, 512)
	copy(tarHeader, "somefile")
	copy(tarHeader[257:], "ustar")
	det, err := s.Detect(writeFixture(t, "real.tar", tarHeader))
	require.NoError(t, err)
	assert.Equal(t, "application/x-tar", det.MIME)

	// ustar in the middle of a text file must not classify as tar
	text := []byte("this mentions ustar in prose and is just text")
	det, err = s.Detect(writeFixture(t, "notes.txt", text))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", det.MIME)
	assert.Equal(t, "ASCII text", det.Label)
}

func TestDetect_ISOAnchor(t *testing.T) {
	s := New()

	content := make([]byte, 40*1024)
	copy(content[32769:], "CD001")
	det, err := s.Detect(writeFixture(t, "disc.iso", content))
	require.NoError(t, err)
	assert.Equal(t, "application/x-iso9660-image", det.MIME)
}

func TestDetect_ZipRefinements(t *testing.T) {
	s := New()
	zipBytes := append([]byte("PK\x03\x04"), make([]byte, 64)...)

	tests := []struct {
		filename string
		mime     string
	}{
		{filename: "report.docx", mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{filename: "sheet.xlsx", mime: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{filename: "deck.pptx", mime: "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{filename: "lib.jar", mime: "application/java-archive"},
		{filename: "plain.zip", mime: "application/zip"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			det, err := s.Detect(writeFixture(t, tt.filename, zipBytes))
			require.NoError(t, err)
			assert.Equal(t, tt.mime, det.MIME)
		})
	}
}

func TestDetect_OLERefinements(t *testing.T) {
	s := New()
	ole := append([]byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1"), make([]byte, 64)...)

	det, err := s.Detect(writeFixture(t, "old.doc", ole))
	require.NoError(t, err)
	assert.Equal(t, "application/msword", det.MIME)

	det, err = s.Detect(writeFixture(t, "legacy.bin", ole))
	require.NoError(t, err)
	assert.Equal(t, "application/x-ole-storage", det.MIME)
}

func TestDetect_DebRefinement(t *testing.T) {
	s := New()
	ar := append([]byte("!<arch>\n"), make([]byte, 64)...)

	det, err := s.Detect(writeFixture(t, "pkg.deb", ar))
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.debian.binary-package", det.MIME)
}

func TestDetect_ExtensionFallback(t *testing.T) {
	s := New()

	// Pre-POSIX tar: no ustar anchor, extension still identifies it
	det, err := s.Detect(writeFixture(t, "ancient.tar", make([]byte, 512)))
	require.NoError(t, err)
	assert.Equal(t, "application/x-tar", det.MIME)
}

func TestDetect_EmptyFile(t *testing.T) {
	s := New()
	det, err := s.Detect(writeFixture(t, "empty", nil))
	require.NoError(t, err)
	assert.Equal(t, "empty", det.Label)
	assert.Equal(t, "application/x-empty", det.MIME)
}

func TestDetect_UnknownBinary(t *testing.T) {
	s := New()
	det, err := s.Detect(writeFixture(t, "blob.qqq", []byte{0x00, 0x01, 0x02, 0x03}))
	require.NoError(t, err)
	assert.Equal(t, "data", det.Label)
	assert.Equal(t, "application/octet-stream", det.MIME)
}

func TestDetect_MissingFile(t *testing.T) {
	s := New()
	_, err := s.Detect(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

// Package sniff detects file types from content. It is the type-detection
// collaborator of the policy engine: given a path it produces a
// human-readable label and a normalized MIME string, which the engine only
// compares against archiver coverage sets.
package sniff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// headerWindow is how much of the file participates in magic matching. ISO
// 9660 anchors sit past 36 KiB, so the window must cover them.
const headerWindow = 64 * 1024

// Detection is the result of type detection for one file.
type Detection struct {
	Label string `json:"label"`
	MIME  string `json:"mime"`
}

// Detector supplies a type label and MIME string for a file path.
type Detector interface {
	Detect(path string) (Detection, error)
}

// Sniffer is the default Detector: an Aho-Corasick pass over the header
// window finds candidate signatures, then each candidate is verified at its
// required offset. Matching anywhere is not enough: "ustar" in the middle
// of a text file must not classify it as tar.
type Sniffer struct {
	matcher     *ahocorasick.Matcher
	magics      []string         // unique magic at each matcher index
	sigsByMagic map[string][]int // magic -> signature table indices
}

// New builds a Sniffer over the builtin signature table.
func New() *Sniffer {
	s := &Sniffer{sigsByMagic: make(map[string][]int)}

	// The same magic can anchor at several offsets (ISO 9660), so the
	// matcher is built over unique magics and each hit fans out to every
	// signature sharing it.
	seen := make(map[string]bool)
	for i, sig := range signatures {
		if !seen[sig.magic] {
			seen[sig.magic] = true
			s.magics = append(s.magics, sig.magic)
		}
		s.sigsByMagic[sig.magic] = append(s.sigsByMagic[sig.magic], i)
	}

	s.matcher = ahocorasick.NewStringMatcher(s.magics)
	return s
}

// Detect reads the file's header window and classifies it.
func (s *Sniffer) Detect(path string) (Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return Detection{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, headerWindow)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Detection{}, fmt.Errorf("reading %s: %w", path, err)
	}
	header = header[:n]

	if len(header) == 0 {
		return Detection{Label: "empty", MIME: "application/x-empty"}, nil
	}

	ext := normalizeExt(path)

	// Prefilter: candidate magics occurring somewhere in the window.
	// Verify each candidate signature at its required offset; the first
	// table entry that verifies wins.
	hits := s.matcher.Match(header)
	best := -1
	for _, hit := range hits {
		for _, idx := range s.sigsByMagic[s.magics[hit]] {
			if !verify(header, signatures[idx]) {
				continue
			}
			if best == -1 || idx < best {
				best = idx
			}
		}
	}

	if best >= 0 {
		det := Detection{Label: signatures[best].label, MIME: signatures[best].mime}
		return refine(det, ext), nil
	}

	if fb, ok := extensionFallback[ext]; ok {
		return fb, nil
	}
	if isText(header) {
		return Detection{Label: "ASCII text", MIME: "text/plain"}, nil
	}
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			mt = base
		}
		return Detection{Label: "data", MIME: mt}, nil
	}
	return Detection{Label: "data", MIME: "application/octet-stream"}, nil
}

func verify(header []byte, sig signature) bool {
	end := sig.offset + len(sig.magic)
	if end > len(header) {
		return false
	}
	return bytes.Equal(header[sig.offset:end], []byte(sig.magic))
}

// refine upgrades container detections that carry a more specific document
// identity (OOXML/ODF inside zip, legacy office inside OLE).
func refine(det Detection, ext string) Detection {
	switch det.MIME {
	case "application/zip":
		if r, ok := zipRefinements[ext]; ok {
			return r
		}
	case "application/x-ole-storage":
		if r, ok := oleRefinements[ext]; ok {
			return r
		}
	case "application/x-archive":
		if ext == "deb" {
			return Detection{Label: "Debian binary package", MIME: "application/vnd.debian.binary-package"}
		}
	}
	return det
}

// isText reports whether the window looks like text: no NUL bytes.
func isText(header []byte) bool {
	return !bytes.ContainsRune(header, 0)
}

func normalizeExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Package policy implements the recursive extraction engine: hash, classify,
// analyze, gate, extract, recurse. Every skip decision is recorded as a
// structured warning so a run always completes with a full account of what
// was and was not expanded.
package policy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/logging"
	"github.com/praetorian-inc/burrow/pkg/sniff"
	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// Result is what one top-level Handle call produces: the digest-indexed
// inventory and the ordered warning list for that run.
type Result struct {
	Files    []tracker.Entry `json:"files"`
	Warnings []types.Warning `json:"warnings"`
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithDetector replaces the content-type detector.
func WithDetector(d sniff.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithExtractRoot places extraction directories under dir instead of
// "extracted" in the working directory.
func WithExtractRoot(dir string) Option {
	return func(e *Engine) { e.extractRoot = dir }
}

// WithLogger attaches a logger. Logging is an optional side channel; the
// warnings in the Result are the source of truth for skip decisions.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDiskFree replaces the free-space probe used by the disk gate.
func WithDiskFree(fn func(path string) (int64, error)) Option {
	return func(e *Engine) { e.diskFree = fn }
}

// Engine expands one input file at a time, descending into archives that
// pass the configured safety budget. An Engine is single-threaded by
// contract: it owns its tracker and warning sink and mutates them only from
// its own recursive call stack.
type Engine struct {
	cfg         Config
	registry    *archiver.Registry
	detector    sniff.Detector
	extractRoot string
	logger      *log.Logger
	diskFree    func(path string) (int64, error)

	tracker  *tracker.Tracker
	warnings []types.Warning
}

// New builds an engine over a located registry.
func New(cfg Config, registry *archiver.Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, errors.New("policy: registry is required")
	}
	e := &Engine{
		cfg:         cfg,
		registry:    registry,
		detector:    sniff.New(),
		extractRoot: "extracted",
		logger:      logging.Nop(),
		diskFree:    diskFree,
		tracker:     tracker.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := os.MkdirAll(e.extractRoot, 0o755); err != nil {
		return nil, fmt.Errorf("policy: creating extraction root: %w", err)
	}
	return e, nil
}

// Handle examines one top-level input. Tracker and warning state reset per
// call, so a Result describes exactly one input's expansion. The only
// errors that cross this boundary: context cancellation, failure to read
// the root input, and tracker.ErrSizeMismatch.
func (e *Engine) Handle(ctx context.Context, path string) (*Result, error) {
	e.tracker.Reset()
	e.warnings = nil

	active := make(map[types.Digest]struct{})
	if err := e.handle(ctx, path, 1, active); err != nil {
		return nil, err
	}

	warnings := make([]types.Warning, len(e.warnings))
	copy(warnings, e.warnings)
	return &Result{Files: e.tracker.Snapshot(), Warnings: warnings}, nil
}

// warn appends to the sink and mirrors the decision to the logger.
func (e *Engine) warn(kind types.WarningKind, path, format string, args ...any) {
	w := types.NewWarning(kind, path, fmt.Sprintf(format, args...))
	e.warnings = append(e.warnings, w)
	e.logger.Warn(string(kind), "path", path, "detail", w.Message)
}

func (e *Engine) setMeta(digest types.Digest, key string, value any) {
	// The digest was tracked immediately before any setMeta call, so the
	// only failure mode is a programming error worth surfacing loudly.
	if err := e.tracker.SetMetadata(digest, key, value); err != nil {
		panic(err)
	}
}

func (e *Engine) handle(ctx context.Context, path string, depth int, active map[types.Digest]struct{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.logger.Info("examining file", "path", path, "depth", depth)

	info, err := os.Stat(path)
	if err != nil {
		if depth == 1 {
			return fmt.Errorf("policy: %w", err)
		}
		e.logger.Error("cannot stat extracted file", "path", path, "error", err)
		return nil
	}

	digest, err := types.DigestFile(path)
	if err != nil {
		if depth == 1 {
			return fmt.Errorf("policy: %w", err)
		}
		e.logger.Error("cannot hash extracted file", "path", path, "error", err)
		return nil
	}

	if err := e.tracker.Track(digest, info.Size()); err != nil {
		return err
	}
	if err := e.tracker.AddPath(digest, path); err != nil {
		return err
	}

	mimeType, extension := e.classify(digest, path)

	isArchive := e.registry.CapabilityFor(mimeType, extension) != nil
	e.setMeta(digest, types.MetaIsArchive, isArchive)
	if !isArchive {
		return nil
	}

	return e.processArchive(ctx, digest, path, mimeType, extension, depth, active)
}

// classify records type label, MIME, and extension metadata and returns the
// lower-cased values used for capability matching.
func (e *Engine) classify(digest types.Digest, path string) (mimeType, extension string) {
	detection, err := e.detector.Detect(path)
	if err != nil {
		e.logger.Error("type detection failed", "path", path, "error", err)
		detection = sniff.Detection{Label: "data", MIME: "application/octet-stream"}
	}

	mimeType = strings.ToLower(detection.MIME)
	extension = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	e.setMeta(digest, types.MetaType, detection.Label)
	e.setMeta(digest, types.MetaTypeMIME, mimeType)
	e.setMeta(digest, types.MetaExtension, extension)
	return mimeType, extension
}

func (e *Engine) processArchive(ctx context.Context, digest types.Digest, path, mimeType, extension string, depth int, active map[types.Digest]struct{}) error {
	if e.cfg.MaxDepth != 0 && depth >= e.cfg.MaxDepth {
		e.warn(types.WarnMaxDepth, path, "not extracted; max depth %d reached", e.cfg.MaxDepth)
		return nil
	}

	capability := e.registry.CapabilityFor(mimeType, extension)
	if capability == nil {
		e.warn(types.WarnNoArchiver, path, "no suitable archiver found")
		return nil
	}

	if _, ok := active[digest]; ok {
		e.warn(types.WarnArchiveCycle, path, "archive contains a copy of itself; not descending")
		return nil
	}

	analysis, err := capability.Analyze(ctx, path)
	if err != nil {
		if errors.Is(err, archiver.ErrAnalyzeNotSupported) {
			e.warn(types.WarnSizeRetrievalFailed, path, "%s cannot analyze this archive; refusing to extract blind", capability.Name())
		} else {
			e.warn(types.WarnSizeRetrievalFailed, path, "could not retrieve archive size: %v", err)
		}
		return nil
	}

	size, _ := e.tracker.Size(digest)
	ratio := 0.0
	if size > 0 {
		ratio = float64(analysis.ExtractedSize) / float64(size)
	}
	status := types.DeriveEncryptionStatus(analysis.EncryptedCount, analysis.UnencryptedCount)

	e.setMeta(digest, types.MetaExtractedSize, analysis.ExtractedSize)
	e.setMeta(digest, types.MetaCompressionRatio, ratio)
	e.setMeta(digest, types.MetaEncryptedCount, analysis.EncryptedCount)
	e.setMeta(digest, types.MetaUnencryptedCount, analysis.UnencryptedCount)
	e.setMeta(digest, types.MetaTotalEntryCount, analysis.TotalCount)
	e.setMeta(digest, types.MetaEncryptionStatus, status)

	switch status {
	case types.EncryptionAll:
		e.warn(types.WarnPasswordProtectedDetected, path, "archive appears to be fully password protected")
	case types.EncryptionPartial:
		e.warn(types.WarnPasswordProtectedDetected, path, "archive appears to be partially password protected")
	}

	// Identical content extracts to the same digest-named directory, so a
	// revisited archive needs no second extraction or descent.
	if e.alreadyExtracted(digest) {
		e.logger.Debug("archive content already extracted", "path", path, "digest", digest.Hex())
		e.cleanup(digest, path)
		return nil
	}

	if !e.shouldExtract(digest, path, analysis, ratio, status) {
		return nil
	}

	destDir := filepath.Join(e.extractRoot, digest.Hex())
	e.logger.Info("extracting archive", "path", path, "dest", destDir, "capability", capability.Name())
	if err := capability.Extract(ctx, path, destDir); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.warn(types.WarnExtractionFailed, path, "extraction failed: %v", err)
		e.setMeta(digest, types.MetaExtracted, false)
		return nil
	}
	e.setMeta(digest, types.MetaExtracted, true)

	children, err := listRegularFiles(destDir)
	if err != nil {
		e.logger.Error("cannot list extraction directory", "dir", destDir, "error", err)
		children = nil
	}

	active[digest] = struct{}{}
	for _, child := range children {
		if err := e.handle(ctx, child, depth+1, active); err != nil {
			delete(active, digest)
			return err
		}
	}
	delete(active, digest)

	e.cleanup(digest, path)
	return nil
}

// alreadyExtracted reports whether this content already expanded cleanly
// earlier in the run at another path.
func (e *Engine) alreadyExtracted(digest types.Digest) bool {
	md, err := e.tracker.Metadata(digest)
	if err != nil {
		return false
	}
	done, _ := md[types.MetaExtracted].(bool)
	return done
}

// shouldExtract runs the safety gate in fixed order; the first failing
// check wins and leaves the archive unexpanded.
func (e *Engine) shouldExtract(digest types.Digest, path string, analysis *archiver.Analysis, ratio float64, status types.EncryptionStatus) bool {
	if status == types.EncryptionAll {
		e.warn(types.WarnPasswordProtectedSkipped, path, "skipped: archive appears to be fully password protected")
		return false
	}

	if analysis.ExtractedSize > e.cfg.MaxArchiveSize {
		e.warn(types.WarnMaxArchiveSizeBytes, path,
			"skipped: expected size %d is greater than the archive size limit %d",
			analysis.ExtractedSize, e.cfg.MaxArchiveSize)
		return false
	}

	total := e.tracker.TotalTrackedSize()
	if total+analysis.ExtractedSize > e.cfg.MaxTotalSize {
		e.warn(types.WarnMaxTotalSizeBytes, path,
			"skipped: expected size %d plus tracked total %d is greater than the run size limit %d",
			analysis.ExtractedSize, total, e.cfg.MaxTotalSize)
		return false
	}

	if ratio < e.cfg.MinArchiveRatio {
		e.warn(types.WarnMinArchiveRatio, path,
			"skipped: compression ratio %.5f is less than the ratio floor %v",
			ratio, e.cfg.MinArchiveRatio)
		return false
	}

	free, err := e.diskFree(e.extractRoot)
	if err != nil {
		e.warn(types.WarnMinDiskFreeSpace, path,
			"skipped: cannot determine free space at extraction location: %v", err)
		return false
	}
	if free-analysis.ExtractedSize < e.cfg.MinDiskFree {
		e.warn(types.WarnMinDiskFreeSpace, path,
			"skipped: extraction would leave less than %d bytes free at the extraction location",
			e.cfg.MinDiskFree)
		return false
	}

	return true
}

// cleanup deletes the original archive after a successful extraction when
// configured, honoring the do-not-delete lists.
func (e *Engine) cleanup(digest types.Digest, path string) {
	if !e.cfg.DeleteAfterExtraction {
		return
	}

	md, err := e.tracker.Metadata(digest)
	if err != nil {
		return
	}
	if done, _ := md[types.MetaExtracted].(bool); !done {
		return
	}

	extension, _ := md[types.MetaExtension].(string)
	if containsFold(e.cfg.SkipDeleteExtensions, extension) {
		e.warn(types.WarnSkipDeleteExtension, path,
			"not deleted after extraction: extension %q is in the skip list", extension)
		return
	}
	mimeType, _ := md[types.MetaTypeMIME].(string)
	if containsFold(e.cfg.SkipDeleteMIMETypes, mimeType) {
		e.warn(types.WarnSkipDeleteMIMEType, path,
			"not deleted after extraction: mime type %q is in the skip list", mimeType)
		return
	}

	if err := os.Remove(path); err != nil {
		e.warn(types.WarnDeleteFailed, path, "could not delete archive after extraction: %v", err)
		return
	}
	e.setMeta(digest, types.MetaDeleted, true)
	e.logger.Info("deleted archive after extraction", "path", path)
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// listRegularFiles returns every regular file under dir, sorted by path so
// sibling processing order is deterministic.
func listRegularFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

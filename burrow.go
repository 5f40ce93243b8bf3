// Package burrow provides safe recursive archive extraction as a library.
//
// Burrow unpacks nested archives under explicit safety budgets: recursion
// depth, declared extracted size, run-wide total size, compression ratio,
// and free disk space. Every file is tracked by content digest, identical
// content is never extracted twice, and every skipped extraction is
// recorded as a warning instead of failing the run.
//
// # Basic Usage
//
// Create an exploder with a workspace and explode a file:
//
//	exp, err := burrow.New(
//	    burrow.WithMaxDepth(4),
//	    burrow.WithWorkspace("triage.ws"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	res, err := exp.Explode(ctx, "suspicious.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, f := range res.Files {
//	    fmt.Printf("%s %d %v\n", f.Digest.Hex(), f.Size, f.Paths)
//	}
//	for _, w := range res.Warnings {
//	    fmt.Printf("%s: %s\n", w.Kind, w.Message)
//	}
//
// With a workspace attached, extraction output lands inside it and each
// Explode call is persisted as a run that `burrow report` and
// `burrow explore` can read later.
//
// # Without Persistence
//
// Omit WithWorkspace for a pure in-memory policy check; extraction then
// uses the engine's default output directory and nothing is persisted:
//
//	exp, err := burrow.New(burrow.WithMaxArchiveSize(1 << 30))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	res, err := exp.Explode(ctx, "report.tar.gz")
package burrow

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/logging"
	"github.com/praetorian-inc/burrow/pkg/policy"
	"github.com/praetorian-inc/burrow/pkg/store"
	"github.com/praetorian-inc/burrow/pkg/types"
	"github.com/praetorian-inc/burrow/pkg/workspace"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/burrow" without subpackages.
type (
	// Result is what one Explode call produces: the tracked files in
	// first-seen order and the warnings in decision order.
	Result = policy.Result

	// Warning records why an archive was not fully expanded.
	Warning = types.Warning

	// WarningKind is the closed set of warning identifiers.
	WarningKind = types.WarningKind

	// Digest is the SHA-256 content digest files are tracked by.
	Digest = types.Digest

	// Config is the full safety budget. Most callers set individual
	// fields through options instead.
	Config = policy.Config
)

// DefaultConfig returns the stock safety budget.
func DefaultConfig() Config {
	return policy.DefaultConfig()
}

// Exploder runs the extraction policy engine over files, with tools located
// once at construction. Safe to reuse across calls; each Explode gets a
// fresh engine so budgets and dedup state reset per call.
type Exploder struct {
	cfg            policy.Config
	registry       *archiver.Registry
	ws             *workspace.Workspace
	logger         *log.Logger
	locateWarnings []types.Warning
}

// exploderConfig holds construction options.
type exploderConfig struct {
	policy    policy.Config
	workspace string
	storeDSN  string
	logger    *log.Logger
}

// Option configures an Exploder.
type Option func(*exploderConfig)

// WithConfig replaces the whole safety budget. Later options still override
// individual fields.
func WithConfig(cfg Config) Option {
	return func(c *exploderConfig) { c.policy = cfg }
}

// WithMaxDepth bounds recursion into nested archives. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(c *exploderConfig) { c.policy.MaxDepth = depth }
}

// WithMaxArchiveSize caps the declared extracted size of any single archive.
func WithMaxArchiveSize(bytes int64) Option {
	return func(c *exploderConfig) { c.policy.MaxArchiveSize = bytes }
}

// WithMaxTotalSize caps the cumulative tracked size across one Explode call.
func WithMaxTotalSize(bytes int64) Option {
	return func(c *exploderConfig) { c.policy.MaxTotalSize = bytes }
}

// WithMinArchiveRatio sets the compression-ratio floor below which an
// archive is treated as a probable bomb and skipped.
func WithMinArchiveRatio(ratio float64) Option {
	return func(c *exploderConfig) { c.policy.MinArchiveRatio = ratio }
}

// WithMinDiskFree sets the space that must remain free on the extraction
// volume after a hypothetical extraction.
func WithMinDiskFree(bytes int64) Option {
	return func(c *exploderConfig) { c.policy.MinDiskFree = bytes }
}

// WithDeleteAfterExtraction removes each archive once its contents are
// extracted, except for files matching the skip lists.
func WithDeleteAfterExtraction() Option {
	return func(c *exploderConfig) { c.policy.DeleteAfterExtraction = true }
}

// WithWorkspace attaches a workspace directory: extraction output lands
// inside it and every Explode call is persisted to its run store.
func WithWorkspace(path string) Option {
	return func(c *exploderConfig) { c.workspace = path }
}

// WithStore overrides the workspace's sqlite database with another DSN,
// such as a postgres:// URL. Only meaningful together with WithWorkspace.
func WithStore(dsn string) Option {
	return func(c *exploderConfig) { c.storeDSN = dsn }
}

// WithLogger attaches a logger for engine activity. The default discards
// everything: the embedding host owns observability.
func WithLogger(l *log.Logger) Option {
	return func(c *exploderConfig) { c.logger = l }
}

// New creates an Exploder with the given options.
//
// By default, the exploder:
//   - Uses the stock budget (10G per archive, 100G per call, ratio floor
//     0.005, 1G disk headroom, unlimited depth)
//   - Keeps originals after extraction
//   - Does NOT persist runs (attach a workspace with WithWorkspace)
//
// Construction locates extraction tools on PATH once; missing tools reduce
// format coverage and are reported by ToolWarnings, never as errors.
func New(opts ...Option) (*Exploder, error) {
	c := &exploderConfig{policy: policy.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}

	registry := archiver.NewRegistry(archiver.DefaultConstructors()...)
	locateWarnings := registry.Locate()

	logger := c.logger
	if logger == nil {
		logger = logging.Nop()
	}

	e := &Exploder{
		cfg:            c.policy,
		registry:       registry,
		logger:         logger,
		locateWarnings: locateWarnings,
	}

	if c.workspace != "" {
		ws, err := workspace.Open(c.workspace, workspace.Options{StoreDSN: c.storeDSN})
		if err != nil {
			return nil, fmt.Errorf("opening workspace: %w", err)
		}
		e.ws = ws
	}

	return e, nil
}

// Explode recursively extracts path under the configured budgets and returns
// the tracked files and warnings. When a workspace is attached the result is
// also persisted as a run.
//
// The engine never fails the call because an archive was skipped; skips
// surface as warnings on the result. An error means the input itself could
// not be processed or the context was cancelled.
func (e *Exploder) Explode(ctx context.Context, path string) (*Result, error) {
	opts := []policy.Option{policy.WithLogger(e.logger)}
	if e.ws != nil {
		opts = append(opts, policy.WithExtractRoot(e.ws.ExtractRoot()))
	}

	engine, err := policy.New(e.cfg, e.registry, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	result, err := engine.Handle(ctx, path)
	if err != nil {
		return nil, err
	}

	if e.ws != nil {
		run := store.NewRun(path)
		warnings := make([]types.Warning, 0, len(e.locateWarnings)+len(result.Warnings))
		warnings = append(warnings, e.locateWarnings...)
		warnings = append(warnings, result.Warnings...)
		run.Complete(result.Files, warnings)
		if err := e.ws.Store.SaveRun(run); err != nil {
			return nil, fmt.Errorf("saving run: %w", err)
		}
	}

	return result, nil
}

// ToolWarnings reports the extraction tools that could not be located at
// construction, one MISSING_ARCHIVER warning per tool.
func (e *Exploder) ToolWarnings() []Warning {
	out := make([]Warning, len(e.locateWarnings))
	copy(out, e.locateWarnings)
	return out
}

// Store exposes the attached workspace's run store, or nil when the exploder
// was built without a workspace.
func (e *Exploder) Store() store.Store {
	if e.ws == nil {
		return nil
	}
	return e.ws.Store
}

// SupportedExtensions returns the archive extensions the located tools cover.
func (e *Exploder) SupportedExtensions() []string {
	return e.registry.SupportedExtensions()
}

// Close releases the attached workspace, if any.
// Always call Close when done with the exploder.
func (e *Exploder) Close() error {
	if e.ws != nil {
		return e.ws.Close()
	}
	return nil
}

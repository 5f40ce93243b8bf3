package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/praetorian-inc/burrow/pkg/archiver"
	"github.com/praetorian-inc/burrow/pkg/logging"
	"github.com/praetorian-inc/burrow/pkg/policy"
)

// Version is the server protocol version
const Version = "1.0.0"

// Option adjusts server construction.
type Option func(*Server)

// WithExtractRoot places extraction directories under dir.
func WithExtractRoot(dir string) Option {
	return func(s *Server) { s.extractRoot = dir }
}

// WithScratch sets the directory inline content is staged under. Defaults to
// the system temp directory.
func WithScratch(dir string) Option {
	return func(s *Server) { s.scratch = dir }
}

// WithLogger attaches a logger for engine activity. The protocol stream stays
// clean; logs belong on stderr.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server runs the extraction engine behind a line-delimited JSON protocol, so
// non-Go pipelines can drive it over stdin/stdout. Requests run one at a
// time; each "explode" gets a fresh engine so per-request overrides never
// leak between callers.
type Server struct {
	cfg         policy.Config
	registry    *archiver.Registry
	extractRoot string
	scratch     string
	logger      *log.Logger
	encoder     *json.Encoder
	decoder     *json.Decoder
}

// NewServer creates a streaming server over a located registry.
func NewServer(cfg policy.Config, registry *archiver.Registry, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		logger:   logging.Nop(),
		encoder:  json.NewEncoder(out),
		decoder:  json.NewDecoder(bufio.NewReader(in)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	switch req.Type {
	case "explode":
		s.handleExplode(ctx, req.Payload)
	case "status":
		s.handleStatus()
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	data, _ := json.Marshal(ReadyData{Version: Version})
	s.encoder.Encode(Response{
		Success: true,
		Type:    "ready",
		Data:    data,
	})
}

func (s *Server) handleExplode(ctx context.Context, payload json.RawMessage) {
	var p ExplodePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("explode", err.Error())
		return
	}

	path := p.Path
	if len(p.Content) > 0 {
		staged, cleanup, err := s.stage(p.Content, p.Name)
		if err != nil {
			s.sendError("explode", err.Error())
			return
		}
		defer cleanup()
		path = staged
	}
	if path == "" {
		s.sendError("explode", "explode requires a path or content")
		return
	}

	cfg := s.cfg
	if p.MaxDepth != nil {
		cfg.MaxDepth = *p.MaxDepth
	}
	if p.DeleteAfterExtraction != nil {
		cfg.DeleteAfterExtraction = *p.DeleteAfterExtraction
	}

	opts := []policy.Option{policy.WithLogger(s.logger)}
	if s.extractRoot != "" {
		opts = append(opts, policy.WithExtractRoot(s.extractRoot))
	}
	engine, err := policy.New(cfg, s.registry, opts...)
	if err != nil {
		s.sendError("explode", err.Error())
		return
	}

	result, err := engine.Handle(ctx, path)
	if err != nil {
		s.sendError("explode", err.Error())
		return
	}

	data, _ := json.Marshal(result)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "explode",
		Data:    data,
	})
}

func (s *Server) handleStatus() {
	capabilities := s.registry.Capabilities()
	status := StatusData{
		Archivers:             make([]ArchiverStatus, 0, len(capabilities)),
		SupportedExtensions:   s.registry.SupportedExtensions(),
		SupportedMIMETypes:    s.registry.SupportedMIMETypes(),
		UnsupportedExtensions: s.registry.UnsupportedExtensions(),
		UnsupportedMIMETypes:  s.registry.UnsupportedMIMETypes(),
	}
	for _, c := range capabilities {
		status.Archivers = append(status.Archivers, ArchiverStatus{Name: c.Name(), Path: c.Path()})
	}

	data, _ := json.Marshal(status)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "status",
		Data:    data,
	})
}

// stage writes inline content into its own scratch subdirectory and returns
// the staged path plus a cleanup func. The name is flattened to its base so
// the wire cannot steer the write outside the staging directory.
func (s *Server) stage(content []byte, name string) (string, func(), error) {
	dir, err := os.MkdirTemp(s.scratch, "staged-")
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		name = "input"
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

package serve

import "encoding/json"

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "explode" | "status" | "close"
	Payload json.RawMessage `json:"payload"`
}

// ExplodePayload is the payload for "explode" requests. Inputs arrive either
// as a path the server can read or as inline content staged into the scratch
// area for the duration of the request. MaxDepth and DeleteAfterExtraction
// are pointers so an explicit zero value can override the server defaults.
type ExplodePayload struct {
	Path                  string `json:"path,omitempty"`
	Content               []byte `json:"content,omitempty"` // base64 on the wire
	Name                  string `json:"name,omitempty"`    // filename for staged content
	MaxDepth              *int   `json:"maxDepth,omitempty"`
	DeleteAfterExtraction *bool  `json:"deleteAfterExtraction,omitempty"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "explode" | "status" | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
}

// StatusData is the data field for "status" responses: which capabilities the
// host resolved and the coverage they add up to.
type StatusData struct {
	Archivers             []ArchiverStatus `json:"archivers"`
	SupportedExtensions   []string         `json:"supportedExtensions"`
	SupportedMIMETypes    []string         `json:"supportedMimeTypes"`
	UnsupportedExtensions []string         `json:"unsupportedExtensions,omitempty"`
	UnsupportedMIMETypes  []string         `json:"unsupportedMimeTypes,omitempty"`
}

// ArchiverStatus describes one located capability.
type ArchiverStatus struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"` // empty for in-process capabilities
}

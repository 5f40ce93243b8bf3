package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// encodeMetadata serializes an entry's metadata map to one JSON column.
func encodeMetadata(m map[string]any) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

// decodeMetadata restores a metadata map from its JSON column with the
// canonical Go types the engine wrote: plain Unmarshal would hand back
// float64 for every number and string for the encryption status.
func decodeMetadata(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = restoreMetadataValue(k, v)
	}
	return out, nil
}

func restoreMetadataValue(key string, v any) any {
	switch key {
	case types.MetaExtractedSize:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
	case types.MetaEncryptedCount, types.MetaUnencryptedCount, types.MetaTotalEntryCount:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
		}
	case types.MetaCompressionRatio:
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	case types.MetaEncryptionStatus:
		if s, ok := v.(string); ok {
			return types.EncryptionStatus(s)
		}
	default:
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				return i
			}
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return v
}

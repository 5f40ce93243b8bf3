package types

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Digest is a SHA-256 content hash (32 bytes). It is the dedup identity
// of a file's bytes: two paths with the same Digest hold the same content.
type Digest [32]byte

// ComputeDigest computes the SHA-256 digest of content.
func ComputeDigest(content []byte) Digest {
	return Digest(sha256.Sum256(content))
}

// DigestReader computes the digest of everything readable from r.
func DigestReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// DigestFile computes the digest of the file at path without loading it
// into memory.
func DigestFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	return DigestReader(f)
}

// Hex returns 64-character hex string.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// String implements Stringer (returns Hex()).
func (d Digest) String() string {
	return d.Hex()
}

// ParseDigest parses 64-char hex string to Digest.
func ParseDigest(hexStr string) (Digest, error) {
	if len(hexStr) != 64 {
		return Digest{}, fmt.Errorf("invalid digest length: expected 64, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var d Digest
	copy(d[:], decoded)
	return d, nil
}

// MarshalJSON implements json.Marshaler.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseDigest(hexStr)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (d Digest) Value() (driver.Value, error) {
	return d.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (d *Digest) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("cannot scan nil into Digest")
	}

	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into Digest", value)
	}

	parsed, err := ParseDigest(hexStr)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

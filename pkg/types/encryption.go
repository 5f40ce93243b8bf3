package types

// EncryptionStatus classifies an archive by how many of its entries are
// encrypted, derived from the counts an archiver's listing reports.
type EncryptionStatus string

const (
	EncryptionNone    EncryptionStatus = "NONE"
	EncryptionPartial EncryptionStatus = "PARTIAL"
	EncryptionAll     EncryptionStatus = "ALL"
)

// DeriveEncryptionStatus maps per-entry counts to a status: ALL when every
// entry is encrypted, PARTIAL when the archive mixes both, NONE otherwise.
// An empty archive is NONE.
func DeriveEncryptionStatus(encrypted, unencrypted int) EncryptionStatus {
	switch {
	case encrypted > 0 && unencrypted == 0:
		return EncryptionAll
	case encrypted > 0 && unencrypted > 0:
		return EncryptionPartial
	default:
		return EncryptionNone
	}
}

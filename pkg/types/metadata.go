package types

// Canonical metadata keys recorded against a tracked file. Values are typed:
// strings for labels, int64 for sizes/counts, float64 for ratios, bool for
// flags, EncryptionStatus for MetaEncryptionStatus.
const (
	MetaType             = "type"
	MetaTypeMIME         = "type_mime"
	MetaExtension        = "extension"
	MetaIsArchive        = "is_archive"
	MetaExtractedSize    = "extracted_size"
	MetaCompressionRatio = "overall_compression_ratio"
	MetaEncryptedCount   = "encrypted_count"
	MetaUnencryptedCount = "unencrypted_count"
	MetaTotalEntryCount  = "total_entry_count"
	MetaEncryptionStatus = "encryption_status"
	MetaExtracted        = "successful_extraction"
	MetaDeleted          = "deleted"
)

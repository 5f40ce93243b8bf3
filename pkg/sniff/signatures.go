package sniff

// signature is one magic-byte rule: magic must appear at exactly offset.
// Table order is priority order when several signatures verify against the
// same header (longer, more specific magics first among the overlapping
// families).
type signature struct {
	magic  string
	offset int
	label  string
	mime   string
}

var signatures = []signature{
	{magic: "7z\xbc\xaf\x27\x1c", offset: 0, label: "7-zip archive data", mime: "application/x-7z-compressed"},
	{magic: "Rar!\x1a\x07\x01\x00", offset: 0, label: "RAR archive data, v5", mime: "application/x-rar"},
	{magic: "Rar!\x1a\x07\x00", offset: 0, label: "RAR archive data, v4", mime: "application/x-rar"},
	{magic: "PK\x03\x04", offset: 0, label: "Zip archive data", mime: "application/zip"},
	{magic: "PK\x05\x06", offset: 0, label: "Zip archive data (empty)", mime: "application/zip"},
	{magic: "PK\x07\x08", offset: 0, label: "Zip archive data (spanned)", mime: "application/zip"},
	{magic: "\x1f\x8b", offset: 0, label: "gzip compressed data", mime: "application/gzip"},
	{magic: "BZh", offset: 0, label: "bzip2 compressed data", mime: "application/x-bzip2"},
	{magic: "\xfd7zXZ\x00", offset: 0, label: "XZ compressed data", mime: "application/x-xz"},
	{magic: "\x28\xb5\x2f\xfd", offset: 0, label: "Zstandard compressed data", mime: "application/zstd"},
	{magic: "\x04\x22\x4d\x18", offset: 0, label: "LZ4 compressed data", mime: "application/x-lz4"},
	{magic: "ustar", offset: 257, label: "POSIX tar archive", mime: "application/x-tar"},
	{magic: "MSCF", offset: 0, label: "Microsoft Cabinet archive data", mime: "application/vnd.ms-cab-compressed"},
	{magic: "MSWIM\x00\x00\x00", offset: 0, label: "Windows imaging (WIM) image", mime: "application/x-ms-wim"},
	{magic: "\xed\xab\xee\xdb", offset: 0, label: "RPM package", mime: "application/x-rpm"},
	{magic: "!<arch>\n", offset: 0, label: "current ar archive", mime: "application/x-archive"},
	{magic: "hsqs", offset: 0, label: "Squashfs filesystem", mime: "application/x-squashfs"},
	{magic: "070701", offset: 0, label: "ASCII cpio archive (SVR4)", mime: "application/x-cpio"},
	{magic: "070702", offset: 0, label: "ASCII cpio archive (SVR4 crc)", mime: "application/x-cpio"},
	{magic: "070707", offset: 0, label: "ASCII cpio archive (pre-SVR4)", mime: "application/x-cpio"},
	{magic: "\x60\xea", offset: 0, label: "ARJ archive data", mime: "application/x-arj"},
	{magic: "-lh", offset: 2, label: "LHa archive data", mime: "application/x-lzh-compressed"},
	{magic: "CD001", offset: 32769, label: "ISO 9660 CD-ROM filesystem data", mime: "application/x-iso9660-image"},
	{magic: "CD001", offset: 34817, label: "ISO 9660 CD-ROM filesystem data", mime: "application/x-iso9660-image"},
	{magic: "CD001", offset: 36865, label: "ISO 9660 CD-ROM filesystem data", mime: "application/x-iso9660-image"},
	{magic: "\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1", offset: 0, label: "Composite Document File V2 Document", mime: "application/x-ole-storage"},
	{magic: "%PDF-", offset: 0, label: "PDF document", mime: "application/pdf"},
	{magic: "\x7fELF", offset: 0, label: "ELF executable", mime: "application/x-executable"},
	{magic: "\xfe\xed\xfa\xce", offset: 0, label: "Mach-O executable", mime: "application/x-mach-binary"},
	{magic: "\xfe\xed\xfa\xcf", offset: 0, label: "Mach-O 64-bit executable", mime: "application/x-mach-binary"},
	{magic: "\xca\xfe\xba\xbe", offset: 0, label: "Mach-O universal binary", mime: "application/x-mach-binary"},
	{magic: "MZ", offset: 0, label: "PE32 executable", mime: "application/x-dosexec"},
	{magic: "\x89PNG\r\n\x1a\n", offset: 0, label: "PNG image data", mime: "image/png"},
	{magic: "\xff\xd8\xff", offset: 0, label: "JPEG image data", mime: "image/jpeg"},
	{magic: "GIF8", offset: 0, label: "GIF image data", mime: "image/gif"},
}

// Zip containers that carry a more specific document identity. Keyed by
// lower-cased extension; consulted only when the zip magic verified.
var zipRefinements = map[string]Detection{
	"docx": {Label: "Microsoft Word 2007+", MIME: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"docm": {Label: "Microsoft Word 2007+ (macro-enabled)", MIME: "application/vnd.ms-word.document.macroenabled.12"},
	"xlsx": {Label: "Microsoft Excel 2007+", MIME: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"xlsm": {Label: "Microsoft Excel 2007+ (macro-enabled)", MIME: "application/vnd.ms-excel.sheet.macroenabled.12"},
	"pptx": {Label: "Microsoft PowerPoint 2007+", MIME: "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	"pptm": {Label: "Microsoft PowerPoint 2007+ (macro-enabled)", MIME: "application/vnd.ms-powerpoint.presentation.macroenabled.12"},
	"odt":  {Label: "OpenDocument Text", MIME: "application/vnd.oasis.opendocument.text"},
	"ods":  {Label: "OpenDocument Spreadsheet", MIME: "application/vnd.oasis.opendocument.spreadsheet"},
	"odp":  {Label: "OpenDocument Presentation", MIME: "application/vnd.oasis.opendocument.presentation"},
	"jar":  {Label: "Java archive data (JAR)", MIME: "application/java-archive"},
	"apk":  {Label: "Android package (APK)", MIME: "application/vnd.android.package-archive"},
	"epub": {Label: "EPUB document", MIME: "application/epub+zip"},
}

// Legacy OLE compound files that carry a more specific identity by extension.
var oleRefinements = map[string]Detection{
	"doc": {Label: "Microsoft Word document", MIME: "application/msword"},
	"xls": {Label: "Microsoft Excel worksheet", MIME: "application/vnd.ms-excel"},
	"ppt": {Label: "Microsoft PowerPoint presentation", MIME: "application/vnd.ms-powerpoint"},
	"msi": {Label: "Microsoft Windows Installer package", MIME: "application/x-msi"},
}

// Extension fallback for recognizable archive types whose headers did not
// verify (pre-POSIX tars, truncated headers). Deterministic, unlike the
// host's mime database.
var extensionFallback = map[string]Detection{
	"tar": {Label: "tar archive", MIME: "application/x-tar"},
	"zip": {Label: "Zip archive data", MIME: "application/zip"},
	"gz":  {Label: "gzip compressed data", MIME: "application/gzip"},
	"tgz": {Label: "gzip compressed data", MIME: "application/gzip"},
	"bz2": {Label: "bzip2 compressed data", MIME: "application/x-bzip2"},
	"xz":  {Label: "XZ compressed data", MIME: "application/x-xz"},
	"zst": {Label: "Zstandard compressed data", MIME: "application/zstd"},
	"lz4": {Label: "LZ4 compressed data", MIME: "application/x-lz4"},
	"7z":  {Label: "7-zip archive data", MIME: "application/x-7z-compressed"},
	"rar": {Label: "RAR archive data", MIME: "application/x-rar"},
	"iso": {Label: "ISO 9660 CD-ROM filesystem data", MIME: "application/x-iso9660-image"},
}

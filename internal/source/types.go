package source

// FileID identifies a document within a FileSet.
type FileID uint32

// FileFlags records how a document's bytes were obtained.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // из памяти: тесты, CheckBytes, неудачная загрузка
	FileHadBOM                               // UTF-8 BOM снят при загрузке
	FileNormalizedCRLF                       // CRLF приведены к LF
)

// Has reports whether every bit of flag is set.
func (f FileFlags) Has(flag FileFlags) bool { return f&flag == flag }

// File is one loaded HIR document. Spans index into Content, which is
// already BOM-free with LF line endings.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte // sha256 of Content
	Flags   FileFlags
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"rvcheck/internal/source"
)

// knownFile reports whether span points into fs.
func knownFile(fs *source.FileSet, span source.Span) bool {
	return fs != nil && int(span.File) < fs.Len()
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	default:
		return f.FormatPath(mode.mode(), "")
	}
}

// lineText returns line (1-based) without its trailing newline.
func lineText(f *source.File, line uint32) string {
	start := lineStartOffset(f, line)
	end := lineEndOffsetInclusive(f, line)
	if end > start && f.Content[end-1] == '\n' {
		end--
	}
	if end < start {
		return ""
	}
	return strings.TrimRight(string(f.Content[start:end]), "\r")
}

func lineStartOffset(f *source.File, line uint32) uint32 {
	if line <= 1 {
		return 0
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

func lineEndOffsetInclusive(f *source.File, line uint32) uint32 {
	if line == 0 {
		return 0
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1
	}
	return contentLen(f)
}

func contentLen(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}

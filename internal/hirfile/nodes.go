package hirfile

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/source"
)

// span converts a YAML position into a source span covering the scalar text
// (or a single byte for collections).
func (l *loader) span(n *yaml.Node) source.Span {
	if n == nil {
		return source.Span{File: l.file}
	}
	line, err := safecast.Conv[uint32](n.Line)
	if err != nil {
		line = 0
	}
	col, err := safecast.Conv[uint32](n.Column)
	if err != nil {
		col = 0
	}
	start := l.fs.Offset(l.file, source.LineCol{Line: line, Col: col})
	width := uint32(1)
	if n.Kind == yaml.ScalarNode && n.Value != "" {
		switch n.Style {
		case 0, yaml.FlowStyle:
			width = scalarWidth(n.Value)
		case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
			start++
			width = scalarWidth(n.Value)
		}
	}
	return source.Span{File: l.file, Start: start, End: start + width}
}

func scalarWidth(s string) uint32 {
	w, err := safecast.Conv[uint32](len(s))
	if err != nil || w == 0 {
		return 1
	}
	return w
}

func (l *loader) errorf(n *yaml.Node, code diag.Code, format string, args ...any) {
	l.errors++
	diag.ReportError(l.r, code, l.span(n), fmt.Sprintf(format, args...)).Emit()
}

// mapGet returns the value stored under key in a mapping node.
func mapGet(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// mapPairs iterates key/value pairs of a mapping in document order.
func mapPairs(n *yaml.Node, fn func(key, value *yaml.Node)) {
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(n.Content[i], n.Content[i+1])
	}
}

// seqItems returns the elements of a sequence; a nil or null node is empty.
func seqItems(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func isScalar(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode
}

// scalarString returns the scalar text of n, or "" for non-scalars.
func scalarString(n *yaml.Node) string {
	if !isScalar(n) {
		return ""
	}
	return n.Value
}

// ident normalises an identifier to NFC and trims surrounding blanks.
func ident(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func boolValue(n *yaml.Node) bool {
	if !isScalar(n) {
		return false
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false
	}
	return v
}

// kindKey finds the first key of a mapping that names an expression,
// statement or pattern kind.
func kindKey(n *yaml.Node, known map[string]bool) (string, *yaml.Node) {
	if n == nil || n.Kind != yaml.MappingNode {
		return "", nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; known[k] {
			return k, n.Content[i+1]
		}
	}
	return "", nil
}

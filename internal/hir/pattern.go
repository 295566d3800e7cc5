package hir

import (
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// PatternKind enumerates pattern shapes.
type PatternKind uint8

const (
	PatWild PatternKind = iota
	PatBinding
	PatTuple
	PatStruct
	PatLiteral
	PatRef
)

func (k PatternKind) String() string {
	switch k {
	case PatWild:
		return "Wild"
	case PatBinding:
		return "Binding"
	case PatTuple:
		return "Tuple"
	case PatStruct:
		return "Struct"
	case PatLiteral:
		return "Literal"
	case PatRef:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Pattern is a typed HIR pattern. Type is the type of the matched value.
type Pattern struct {
	ID   NodeID
	Kind PatternKind
	Type types.TypeID
	Span source.Span
	Data PatternData
}

// PatternData is the interface for pattern-specific data.
type PatternData interface {
	patternData()
}

// WildData holds data for PatWild.
type WildData struct{}

func (WildData) patternData() {}

// BindingData holds data for PatBinding (`x`, `mut x`, `ref x`, `x @ p`).
type BindingData struct {
	Name    string
	ByRef   bool
	Mutable bool
	Sub     *Pattern
}

func (BindingData) patternData() {}

// TuplePatData holds data for PatTuple.
type TuplePatData struct {
	Elems []*Pattern
}

func (TuplePatData) patternData() {}

// FieldPat is one field of a struct pattern.
type FieldPat struct {
	Name string
	Pat  *Pattern
}

// StructPatData holds data for PatStruct.
type StructPatData struct {
	Name   string
	Fields []FieldPat
}

func (StructPatData) patternData() {}

// LiteralPatData holds data for PatLiteral.
type LiteralPatData struct {
	Text string
}

func (LiteralPatData) patternData() {}

// RefPatData holds data for PatRef (`&p`).
type RefPatData struct {
	Mutable bool
	Inner   *Pattern
}

func (RefPatData) patternData() {}

// Bindings lists the names bound by p in source order.
func (p *Pattern) Bindings() []*Pattern {
	var out []*Pattern
	p.walk(func(q *Pattern) {
		if q.Kind == PatBinding {
			out = append(out, q)
		}
	})
	return out
}

func (p *Pattern) walk(fn func(*Pattern)) {
	if p == nil {
		return
	}
	fn(p)
	switch data := p.Data.(type) {
	case BindingData:
		data.Sub.walk(fn)
	case TuplePatData:
		for _, e := range data.Elems {
			e.walk(fn)
		}
	case StructPatData:
		for _, f := range data.Fields {
			f.Pat.walk(fn)
		}
	case RefPatData:
		data.Inner.walk(fn)
	}
}

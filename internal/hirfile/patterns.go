package hirfile

import (
	"strings"

	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/types"
)

var patternKinds = map[string]bool{
	"tuple": true, "struct": true, "ref": true, "ref_mut": true, "lit": true, "bind": true,
}

// pattern lowers n as a pattern matching a value of type ty.
func (l *loader) pattern(n *yaml.Node, ty types.TypeID, scope *typeScope) *hir.Pattern {
	pat := &hir.Pattern{ID: l.prog.NewNodeID(), Type: ty, Span: l.span(n), Kind: hir.PatWild, Data: hir.WildData{}}
	if n == nil {
		return pat
	}
	if n.Kind == yaml.ScalarNode {
		if n.ShortTag() != "!!str" {
			pat.Kind, pat.Data = hir.PatLiteral, hir.LiteralPatData{Text: n.Value}
			return pat
		}
		if ident(n.Value) == "_" {
			return pat
		}
		// кавычки нужны YAML для "ref x" внутри flow-последовательностей;
		// строковые литералы пишутся через lit:
		data, ok := parseBinding(n.Value)
		if !ok {
			if n.Style == yaml.DoubleQuotedStyle || n.Style == yaml.SingleQuotedStyle {
				pat.Kind, pat.Data = hir.PatLiteral, hir.LiteralPatData{Text: n.Value}
				return pat
			}
			l.errorf(n, diag.SynBadPattern, "invalid binding %q", n.Value)
			return pat
		}
		pat.Kind, pat.Data = hir.PatBinding, data
		return pat
	}

	key, val := kindKey(n, patternKinds)
	switch key {
	case "tuple":
		items := seqItems(val)
		elemTys := l.in.TupleElems(ty)
		if tt, ok := l.in.Lookup(ty); ok && tt.Kind == types.KindTuple && len(elemTys) != len(items) {
			l.errorf(n, diag.SynBadPattern, "tuple pattern has %d elements, value has %d", len(items), len(elemTys))
			elemTys = nil
		}
		data := hir.TuplePatData{Elems: make([]*hir.Pattern, 0, len(items))}
		for i, item := range items {
			elemTy := l.freshVar()
			if i < len(elemTys) {
				elemTy = elemTys[i]
			}
			data.Elems = append(data.Elems, l.pattern(item, elemTy, scope))
		}
		pat.Kind, pat.Data = hir.PatTuple, data
	case "struct":
		name := ident(scalarString(val))
		if _, ok := l.structs[name]; !ok {
			l.errorf(val, diag.SynUnknownType, "unknown struct %q", name)
		}
		data := hir.StructPatData{Name: name}
		mapPairs(mapGet(n, "fields"), func(k, v *yaml.Node) {
			fname := ident(k.Value)
			fieldTy := l.freshVar()
			if _, fty, ok := l.in.FieldIndex(ty, fname); ok {
				fieldTy = fty
			} else if _, _, isStruct := l.in.StructOf(ty); isStruct {
				l.errorf(k, diag.SynUnknownField, "struct %s has no field %q", name, fname)
			}
			data.Fields = append(data.Fields, hir.FieldPat{Name: fname, Pat: l.pattern(v, fieldTy, scope)})
		})
		pat.Kind, pat.Data = hir.PatStruct, data
	case "ref", "ref_mut":
		inner := l.freshVar()
		if tt, ok := l.in.Lookup(ty); ok && (tt.Kind == types.KindReference || tt.Kind == types.KindPointer) {
			inner = tt.Elem
		}
		pat.Kind, pat.Data = hir.PatRef, hir.RefPatData{Mutable: key == "ref_mut", Inner: l.pattern(val, inner, scope)}
	case "lit":
		pat.Kind, pat.Data = hir.PatLiteral, hir.LiteralPatData{Text: scalarString(val)}
	case "bind":
		data, ok := parseBinding(scalarString(val))
		if !ok {
			l.errorf(val, diag.SynBadPattern, "invalid binding %q", scalarString(val))
			return pat
		}
		if at := mapGet(n, "at"); !isNull(at) {
			data.Sub = l.pattern(at, ty, scope)
		}
		pat.Kind, pat.Data = hir.PatBinding, data
	default:
		l.errorf(n, diag.SynBadPattern, "unknown pattern form")
	}
	return pat
}

// parseBinding reads `x`, `mut x`, `ref x` and `ref mut x`.
func parseBinding(s string) (hir.BindingData, bool) {
	fields := strings.Fields(s)
	var data hir.BindingData
	if len(fields) > 0 && fields[0] == "ref" {
		data.ByRef = true
		fields = fields[1:]
	}
	if len(fields) > 0 && fields[0] == "mut" {
		data.Mutable = true
		fields = fields[1:]
	}
	if len(fields) != 1 || !isIdent(fields[0]) {
		return hir.BindingData{}, false
	}
	data.Name = ident(fields[0])
	return data, true
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 0x7f:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// bindingType is the type a binding introduces into scope.
func (l *loader) bindingType(p *hir.Pattern) types.TypeID {
	data, ok := p.Data.(hir.BindingData)
	if !ok || !data.ByRef {
		return p.Type
	}
	return l.in.Intern(types.MakeReference(p.Type, data.Mutable))
}

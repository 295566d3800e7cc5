package hirfile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"rvcheck/internal/types"
)

// typeScope resolves generic parameter names; levels chain outwards.
type typeScope struct {
	parent *typeScope
	names  map[string]types.TypeID
	self   types.TypeID
}

func newTypeScope(parent *typeScope) *typeScope {
	s := &typeScope{parent: parent, names: make(map[string]types.TypeID)}
	if parent != nil {
		s.self = parent.self
	}
	return s
}

func (s *typeScope) lookup(name string) (types.TypeID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.names[name]; ok {
			return id, true
		}
	}
	return types.NoTypeID, false
}

// typeParser is a recursive-descent parser for type expressions such as
// `&mut [u8]`, `Box<dyn Tr>`, `<T as Tr>::A` or `fn(i32) -> bool`.
type typeParser struct {
	l     *loader
	scope *typeScope
	src   string
	toks  []string
	pos   int
}

func (l *loader) parseType(src string, scope *typeScope) (types.TypeID, error) {
	toks, err := tokenizeType(src)
	if err != nil {
		return types.NoTypeID, err
	}
	p := &typeParser{l: l, scope: scope, src: src, toks: toks}
	id, err := p.parse()
	if err != nil {
		return types.NoTypeID, err
	}
	if p.pos != len(p.toks) {
		return types.NoTypeID, fmt.Errorf("unexpected %q after type", p.toks[p.pos])
	}
	return id, nil
}

func tokenizeType(src string) ([]string, error) {
	var toks []string
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for j < len(runes) && (runes[j] == '_' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			toks = append(toks, ident(string(runes[i:j])))
			i = j
		case r == '-' && i+1 < len(runes) && runes[i+1] == '>':
			toks = append(toks, "->")
			i += 2
		case r == ':' && i+1 < len(runes) && runes[i+1] == ':':
			toks = append(toks, "::")
			i += 2
		case strings.ContainsRune("&*()[]<>,;?!", r):
			toks = append(toks, string(r))
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q in type", r)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty type")
	}
	return toks, nil
}

func (p *typeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *typeParser) next() string {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *typeParser) expect(tok string) error {
	if got := p.next(); got != tok {
		if got == "" {
			return fmt.Errorf("expected %q, found end of type", tok)
		}
		return fmt.Errorf("expected %q, found %q", tok, got)
	}
	return nil
}

func (p *typeParser) parse() (types.TypeID, error) {
	in := p.l.in
	switch tok := p.next(); tok {
	case "":
		return types.NoTypeID, fmt.Errorf("unexpected end of type")
	case "&":
		mutable := false
		if p.peek() == "mut" {
			p.next()
			mutable = true
		}
		elem, err := p.parse()
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeReference(elem, mutable)), nil
	case "*":
		var mutable bool
		switch p.next() {
		case "const":
		case "mut":
			mutable = true
		default:
			return types.NoTypeID, fmt.Errorf("raw pointer needs const or mut")
		}
		elem, err := p.parse()
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakePointer(elem, mutable)), nil
	case "[":
		elem, err := p.parse()
		if err != nil {
			return types.NoTypeID, err
		}
		if p.peek() == ";" {
			p.next()
			n, err := strconv.ParseUint(p.next(), 10, 32)
			if err != nil {
				return types.NoTypeID, fmt.Errorf("bad array length: %w", err)
			}
			if err := p.expect("]"); err != nil {
				return types.NoTypeID, err
			}
			return in.Intern(types.MakeArray(elem, uint32(n))), nil
		}
		if err := p.expect("]"); err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeSlice(elem)), nil
	case "(":
		elems, trailingComma, err := p.list(")")
		if err != nil {
			return types.NoTypeID, err
		}
		if len(elems) == 1 && !trailingComma {
			return elems[0], nil
		}
		return in.Tuple(elems), nil
	case "!":
		return in.Builtins().Never, nil
	case "?":
		n, err := strconv.ParseUint(p.next(), 10, 32)
		if err != nil {
			return types.NoTypeID, fmt.Errorf("bad inference variable: %w", err)
		}
		return in.Intern(types.MakeInfer(uint32(n))), nil
	case "fn":
		if err := p.expect("("); err != nil {
			return types.NoTypeID, err
		}
		params, _, err := p.list(")")
		if err != nil {
			return types.NoTypeID, err
		}
		result := in.Builtins().Unit
		if p.peek() == "->" {
			p.next()
			if result, err = p.parse(); err != nil {
				return types.NoTypeID, err
			}
		}
		return in.Fn(params, result), nil
	case "dyn":
		name := p.next()
		trait, ok := in.FindTrait(name)
		if !ok {
			return types.NoTypeID, fmt.Errorf("unknown trait %q", name)
		}
		return in.Intern(types.MakeDyn(trait)), nil
	case "<":
		self, err := p.parse()
		if err != nil {
			return types.NoTypeID, err
		}
		if err := p.expect("as"); err != nil {
			return types.NoTypeID, err
		}
		traitName := p.next()
		trait, ok := in.FindTrait(traitName)
		if !ok {
			return types.NoTypeID, fmt.Errorf("unknown trait %q", traitName)
		}
		if err := p.expect(">"); err != nil {
			return types.NoTypeID, err
		}
		if err := p.expect("::"); err != nil {
			return types.NoTypeID, err
		}
		assocName := p.next()
		assoc, ok := in.AssocIndex(trait, assocName)
		if !ok {
			return types.NoTypeID, fmt.Errorf("trait %s has no associated type %q", traitName, assocName)
		}
		return in.Intern(types.MakeProjection(self, trait, assoc)), nil
	default:
		return p.named(tok)
	}
}

// list parses `a, b, c` up to close and reports a trailing comma.
func (p *typeParser) list(closing string) ([]types.TypeID, bool, error) {
	var out []types.TypeID
	trailing := false
	for p.peek() != closing {
		if p.peek() == "" {
			return nil, false, fmt.Errorf("expected %q, found end of type", closing)
		}
		id, err := p.parse()
		if err != nil {
			return nil, false, err
		}
		out = append(out, id)
		trailing = false
		if p.peek() == "," {
			p.next()
			trailing = true
		}
	}
	p.next()
	return out, trailing, nil
}

func (p *typeParser) named(name string) (types.TypeID, error) {
	in := p.l.in
	var args []types.TypeID
	if p.peek() == "<" {
		p.next()
		var err error
		if args, _, err = p.list(">"); err != nil {
			return types.NoTypeID, err
		}
	}
	if prim, ok := primitive(in, name); ok {
		if len(args) > 0 {
			return types.NoTypeID, fmt.Errorf("%s takes no type arguments", name)
		}
		return prim, nil
	}
	switch name {
	case "Box":
		if len(args) != 1 {
			return types.NoTypeID, fmt.Errorf("Box takes exactly one type argument")
		}
		return in.Intern(types.MakeBox(args[0])), nil
	case "Self":
		if p.scope == nil || p.scope.self == types.NoTypeID {
			return types.NoTypeID, fmt.Errorf("Self outside of an impl or trait")
		}
		return p.scope.self, nil
	}
	if p.scope != nil {
		if id, ok := p.scope.lookup(name); ok {
			if len(args) > 0 {
				return types.NoTypeID, fmt.Errorf("generic parameter %s takes no type arguments", name)
			}
			return id, nil
		}
	}
	if def, ok := p.l.structs[name]; ok {
		info, _ := in.StructDef(def)
		if len(args) != len(info.Params) {
			return types.NoTypeID, &arityError{name: name, want: len(info.Params), got: len(args)}
		}
		return in.StructInstance(def, args), nil
	}
	if id, ok := p.l.foreign[name]; ok {
		return id, nil
	}
	return types.NoTypeID, &unknownTypeError{name: name}
}

type unknownTypeError struct{ name string }

func (e *unknownTypeError) Error() string { return fmt.Sprintf("unknown type %q", e.name) }

type arityError struct {
	name      string
	want, got int
}

func (e *arityError) Error() string {
	return fmt.Sprintf("%s expects %d type argument(s), got %d", e.name, e.want, e.got)
}

func primitive(in *types.Interner, name string) (types.TypeID, bool) {
	b := in.Builtins()
	switch name {
	case "bool":
		return b.Bool, true
	case "char":
		return b.Char, true
	case "str":
		return b.Str, true
	case "isize":
		return in.Intern(types.MakeInt(types.WidthSize)), true
	case "usize":
		return b.Usize, true
	case "f32":
		return in.Intern(types.MakeFloat(types.Width32)), true
	case "f64":
		return b.F64, true
	}
	if len(name) < 2 || (name[0] != 'i' && name[0] != 'u') {
		return types.NoTypeID, false
	}
	var width types.Width
	switch name[1:] {
	case "8":
		width = types.Width8
	case "16":
		width = types.Width16
	case "32":
		width = types.Width32
	case "64":
		width = types.Width64
	case "128":
		width = types.Width128
	default:
		return types.NoTypeID, false
	}
	if name[0] == 'i' {
		return in.Intern(types.MakeInt(width)), true
	}
	return in.Intern(types.MakeUint(width)), true
}

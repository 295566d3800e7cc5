package hirfile

import (
	"strconv"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

func (l *loader) declareTraits(items []*yaml.Node) {
	for _, n := range items {
		name := ident(scalarString(mapGet(n, "name")))
		if name == "" {
			l.errorf(n, diag.SynMalformedDocument, "trait without a name")
			continue
		}
		if _, dup := l.in.FindTrait(name); dup {
			l.errorf(mapGet(n, "name"), diag.SynDuplicateItem, "trait %s is declared twice", name)
			continue
		}
		trait := l.in.RegisterTrait(name, l.span(n))
		for _, a := range seqItems(mapGet(n, "assoc")) {
			assocName := ident(scalarString(a))
			maybeUnsized := false
			if a.Kind == yaml.MappingNode {
				assocName = ident(scalarString(mapGet(a, "name")))
				maybeUnsized = boolValue(mapGet(a, "maybe_unsized"))
			}
			if assocName == "" {
				l.errorf(a, diag.SynMalformedDocument, "associated type without a name in trait %s", name)
				continue
			}
			l.in.AddAssocType(trait, assocName, maybeUnsized)
		}
	}
}

// defineTraits declares default method bodies. Inside a trait, Self is a
// parameter bounded by the trait itself and not assumed Sized.
func (l *loader) defineTraits(items []*yaml.Node) {
	for _, n := range items {
		trait, ok := l.in.FindTrait(ident(scalarString(mapGet(n, "name"))))
		if !ok {
			continue
		}
		methods := seqItems(mapGet(n, "methods"))
		if len(methods) == 0 {
			continue
		}
		owner := l.nextOwner()
		self := l.in.RegisterTypeParam("Self", owner, 0, l.span(n))
		gen := &hir.Generics{Params: []hir.GenericParam{{
			Name:         "Self",
			Type:         self,
			Bounds:       []types.TraitID{trait},
			MaybeUnsized: true,
			Span:         l.span(n),
		}}}
		scope := newTypeScope(nil)
		scope.self = self
		scope.names["Self"] = self
		for _, m := range methods {
			l.declareMethod(m, hir.FuncTraitMethod, gen, scope, self, []types.TypeID{self})
		}
	}
}

func (l *loader) declareStructs(items []*yaml.Node) {
	for _, n := range items {
		name := ident(scalarString(mapGet(n, "name")))
		if name == "" {
			l.errorf(n, diag.SynMalformedDocument, "struct without a name")
			continue
		}
		if _, dup := l.structs[name]; dup {
			l.errorf(mapGet(n, "name"), diag.SynDuplicateItem, "struct %s is declared twice", name)
			continue
		}
		owner := l.nextOwner()
		var params []types.TypeID
		for i, p := range seqItems(mapGet(mapGet(n, "generics"), "params")) {
			pname := ident(scalarString(p))
			if p.Kind == yaml.MappingNode {
				pname = ident(scalarString(mapGet(p, "name")))
			}
			idx, err := safecast.Conv[uint32](i)
			if err != nil {
				l.errorf(p, diag.SynMalformedDocument, "too many generic parameters")
				break
			}
			params = append(params, l.in.RegisterTypeParam(pname, owner, idx, l.span(p)))
		}
		l.structs[name] = l.in.RegisterStruct(name, l.span(n), params)
	}
}

func (l *loader) defineStructs(items []*yaml.Node) {
	for _, n := range items {
		name := ident(scalarString(mapGet(n, "name")))
		def, ok := l.structs[name]
		if !ok {
			continue
		}
		info, _ := l.in.StructDef(def)
		scope := newTypeScope(nil)
		for _, p := range info.Params {
			if pi, ok := l.in.TypeParamInfo(p); ok {
				scope.names[l.in.Strings.MustLookup(pi.Name)] = p
			}
		}
		scope.self = l.in.StructInstance(def, info.Params)
		var fields []types.StructField
		seen := make(map[string]bool)
		for _, f := range seqItems(mapGet(n, "fields")) {
			fname := ident(scalarString(mapGet(f, "name")))
			if fname == "" {
				l.errorf(f, diag.SynMalformedDocument, "field without a name in struct %s", name)
				continue
			}
			if seen[fname] {
				l.errorf(mapGet(f, "name"), diag.SynDuplicateItem, "field %s is declared twice in struct %s", fname, name)
				continue
			}
			seen[fname] = true
			ty, ok := l.typeAt(mapGet(f, "type"), scope)
			if !ok {
				ty = l.in.Builtins().Invalid
			}
			fields = append(fields, types.StructField{Name: l.in.Strings.Intern(fname), Type: ty})
		}
		l.in.SetStructFields(def, fields, boolValue(mapGet(n, "copy")))
	}
}

func (l *loader) declareForeign(items []*yaml.Node) {
	for _, n := range items {
		name := ident(scalarString(n))
		if n.Kind == yaml.MappingNode {
			name = ident(scalarString(mapGet(n, "name")))
		}
		if name == "" {
			l.errorf(n, diag.SynMalformedDocument, "foreign type without a name")
			continue
		}
		if _, dup := l.foreign[name]; dup {
			l.errorf(n, diag.SynDuplicateItem, "foreign type %s is declared twice", name)
			continue
		}
		l.foreign[name] = l.in.Foreign(name, l.span(n))
	}
}

func (l *loader) declareImpls(items []*yaml.Node) {
	for _, n := range items {
		gen, scope := l.generics(mapGet(n, "generics"), nil, nil)
		selfTy, ok := l.typeAt(mapGet(n, "for"), scope)
		if !ok {
			continue
		}
		scope.self = selfTy
		params := make([]types.TypeID, 0, len(gen.Params))
		for _, p := range gen.Params {
			params = append(params, p.Type)
		}

		if traitNode := mapGet(n, "trait"); !isNull(traitNode) {
			traitName := ident(scalarString(traitNode))
			trait, ok := l.in.FindTrait(traitName)
			if !ok {
				l.errorf(traitNode, diag.SynUnknownTrait, "unknown trait %q", traitName)
				continue
			}
			info, _ := l.in.TraitInfo(trait)
			impl := traits.Impl{
				Trait:  trait,
				Params: params,
				SelfTy: selfTy,
				Assoc:  make([]types.TypeID, len(info.Assoc)),
				Span:   l.span(n),
			}
			mapPairs(mapGet(n, "assoc"), func(k, v *yaml.Node) {
				idx, ok := l.in.AssocIndex(trait, ident(k.Value))
				if !ok {
					l.errorf(k, diag.SynUnknownName, "trait %s has no associated type %q", traitName, k.Value)
					return
				}
				if ty, ok := l.typeAt(v, scope); ok {
					impl.Assoc[idx] = ty
				}
			})
			l.table.AddImpl(impl)
		}

		for _, m := range seqItems(mapGet(n, "methods")) {
			l.declareMethod(m, hir.FuncMethod, gen, scope, selfTy, params)
		}
	}
}

func (l *loader) declareFunctions(items []*yaml.Node) {
	for _, n := range items {
		fn, scope, ok := l.declareFunc(n, hir.FuncFree, nil, nil)
		if !ok {
			continue
		}
		if _, dup := l.funcs[fn.Name]; dup {
			l.errorf(mapGet(n, "name"), diag.SynDuplicateItem, "function %s is declared twice", fn.Name)
			continue
		}
		l.funcs[fn.Name] = fn
		l.addItem(fn, n, scope)
	}
}

func (l *loader) declareMethod(n *yaml.Node, kind hir.FuncKind, parent *hir.Generics, outer *typeScope, selfTy types.TypeID, implParams []types.TypeID) {
	fn, scope, ok := l.declareFunc(n, kind, parent, outer)
	if !ok {
		return
	}
	sig := &methodSig{fn: fn, selfTy: selfTy, params: implParams}
	if recv := mapGet(n, "self"); !isNull(recv) {
		sig.hasSelf = true
		sig.mode, _ = receiverMode(scalarString(recv))
	}
	l.methods[fn.Name] = append(l.methods[fn.Name], sig)
	l.addItem(fn, n, scope)
}

func (l *loader) addItem(fn *hir.Func, n *yaml.Node, scope *typeScope) {
	l.prog.AddFunc(fn)
	if body := mapGet(n, "body"); !isNull(body) {
		l.pending = append(l.pending, pendingBody{fn: fn, node: body, scope: scope})
	}
}

func receiverMode(s string) (hir.ReceiverMode, bool) {
	switch s {
	case "value", "self":
		return hir.RecvByValue, true
	case "ref", "&self":
		return hir.RecvRef, true
	case "ref_mut", "&mut self":
		return hir.RecvRefMut, true
	default:
		return hir.RecvByValue, false
	}
}

// declareFunc builds the signature of a function-like item. The body is
// lowered later, once every item is known.
func (l *loader) declareFunc(n *yaml.Node, kind hir.FuncKind, parent *hir.Generics, outer *typeScope) (*hir.Func, *typeScope, bool) {
	if n == nil || n.Kind != yaml.MappingNode {
		l.errorf(n, diag.SynMalformedDocument, "expected a function mapping")
		return nil, nil, false
	}
	name := ident(scalarString(mapGet(n, "name")))
	if name == "" {
		l.errorf(n, diag.SynMalformedDocument, "function without a name")
		return nil, nil, false
	}
	gen, scope := l.generics(mapGet(n, "generics"), parent, outer)
	fn := &hir.Func{
		ID:       l.prog.NewFuncID(),
		Name:     name,
		Kind:     kind,
		Span:     l.span(mapGet(n, "name")),
		Generics: gen,
		Typeck:   hir.NewTypeck(),
	}

	if recv := mapGet(n, "self"); !isNull(recv) {
		mode, ok := receiverMode(scalarString(recv))
		if !ok {
			l.errorf(recv, diag.SynMalformedDocument, "receiver must be value, ref or ref_mut, got %q", scalarString(recv))
		}
		if scope.self == types.NoTypeID {
			l.errorf(recv, diag.SynUnknownType, "self parameter outside of an impl or trait")
		} else {
			ty := scope.self
			switch mode {
			case hir.RecvRef:
				ty = l.in.Intern(types.MakeReference(scope.self, false))
			case hir.RecvRefMut:
				ty = l.in.Intern(types.MakeReference(scope.self, true))
			}
			pat := &hir.Pattern{
				ID:   l.prog.NewNodeID(),
				Kind: hir.PatBinding,
				Type: ty,
				Span: l.span(recv),
				Data: hir.BindingData{Name: "self"},
			}
			fn.Params = append(fn.Params, hir.Param{Pat: pat, Type: ty, Span: pat.Span})
		}
	}
	for _, p := range seqItems(mapGet(n, "params")) {
		if param, ok := l.param(p, scope); ok {
			fn.Params = append(fn.Params, param)
		}
	}
	fn.Result = l.typeOr(mapGet(n, "result"), scope, l.in.Builtins().Unit)
	l.inferTable(mapGet(n, "infer"), scope, fn.Typeck)
	return fn, scope, true
}

func (l *loader) param(n *yaml.Node, scope *typeScope) (hir.Param, bool) {
	ty, ok := l.typeAt(mapGet(n, "type"), scope)
	if !ok {
		return hir.Param{}, false
	}
	patNode := mapGet(n, "pat")
	if isNull(patNode) {
		patNode = mapGet(n, "name")
	}
	if isNull(patNode) {
		l.errorf(n, diag.SynBadPattern, "parameter needs a name or a pattern")
		return hir.Param{}, false
	}
	pat := l.pattern(patNode, ty, scope)
	return hir.Param{Pat: pat, Type: ty, Span: l.span(n)}, true
}

// inferTable records the solved inference variables of an item.
func (l *loader) inferTable(n *yaml.Node, scope *typeScope, tc *hir.Typeck) {
	mapPairs(n, func(k, v *yaml.Node) {
		idx, err := strconv.ParseUint(k.Value, 10, 32)
		if err != nil {
			l.errorf(k, diag.SynMalformedDocument, "inference variable index %q: %v", k.Value, err)
			return
		}
		if ty, ok := l.typeAt(v, scope); ok {
			tc.Vars[uint32(idx)] = ty
		}
	})
}

// generics parses `{params: [...], where: [...]}` and returns the new level
// together with a scope that sees its parameters.
func (l *loader) generics(n *yaml.Node, parent *hir.Generics, outer *typeScope) (*hir.Generics, *typeScope) {
	gen := &hir.Generics{Parent: parent}
	scope := newTypeScope(outer)
	owner := l.nextOwner()
	for i, p := range seqItems(mapGet(n, "params")) {
		gp := hir.GenericParam{Span: l.span(p)}
		var bounds *yaml.Node
		if p.Kind == yaml.MappingNode {
			gp.Name = ident(scalarString(mapGet(p, "name")))
			gp.MaybeUnsized = boolValue(mapGet(p, "maybe_unsized"))
			bounds = mapGet(p, "bounds")
		} else {
			gp.Name = ident(scalarString(p))
		}
		if gp.Name == "" {
			l.errorf(p, diag.SynMalformedDocument, "generic parameter without a name")
			continue
		}
		if _, dup := scope.names[gp.Name]; dup {
			l.errorf(p, diag.SynDuplicateItem, "generic parameter %s is declared twice", gp.Name)
			continue
		}
		idx, err := safecast.Conv[uint32](i)
		if err != nil {
			l.errorf(p, diag.SynMalformedDocument, "too many generic parameters")
			break
		}
		gp.Type = l.in.RegisterTypeParam(gp.Name, owner, idx, gp.Span)
		var relaxed bool
		gp.Bounds, relaxed = l.bounds(bounds)
		gp.MaybeUnsized = gp.MaybeUnsized || relaxed
		scope.names[gp.Name] = gp.Type
		gen.Params = append(gen.Params, gp)
	}
	for _, w := range seqItems(mapGet(n, "where")) {
		ty, ok := l.typeAt(mapGet(w, "type"), scope)
		if !ok {
			continue
		}
		if eq := mapGet(w, "eq"); !isNull(eq) {
			tt, _ := l.in.Lookup(ty)
			if tt.Kind != types.KindProjection {
				l.errorf(mapGet(w, "type"), diag.SynBadTypeExpr, "equality predicates need a projection on the left")
				continue
			}
			eqTy, ok := l.typeAt(eq, scope)
			if !ok {
				continue
			}
			gen.Where = append(gen.Where, hir.WherePredicate{Kind: hir.WhereEq, Type: ty, Eq: eqTy, Span: l.span(w)})
			continue
		}
		bounds, relaxed := l.bounds(mapGet(w, "bounds"))
		gen.Where = append(gen.Where, hir.WherePredicate{
			Kind:         hir.WhereBound,
			Type:         ty,
			Bounds:       bounds,
			MaybeUnsized: relaxed,
			Span:         l.span(w),
		})
	}
	return gen, scope
}

// bounds resolves trait names; `?Sized` is reported separately.
func (l *loader) bounds(n *yaml.Node) ([]types.TraitID, bool) {
	var out []types.TraitID
	relaxed := false
	for _, b := range seqItems(n) {
		name := ident(scalarString(b))
		if name == "?Sized" {
			relaxed = true
			continue
		}
		trait, ok := l.in.FindTrait(name)
		if !ok {
			l.errorf(b, diag.SynUnknownTrait, "unknown trait %q", name)
			continue
		}
		out = append(out, trait)
	}
	return out, relaxed
}

func (l *loader) nextOwner() uint32 {
	l.owners++
	return l.owners
}

package types

// Folder may replace a type before the fold descends into it.
// Returning false means "keep descending".
type Folder func(id TypeID) (TypeID, bool)

// Fold rebuilds id bottom-up, giving f a chance to replace every node.
func (in *Interner) Fold(id TypeID, f Folder) TypeID {
	if id == NoTypeID {
		return id
	}
	if repl, ok := f(id); ok {
		return repl
	}
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindArray, KindPointer, KindReference, KindBox, KindProjection:
		elem := in.Fold(tt.Elem, f)
		if elem == tt.Elem {
			return id
		}
		tt.Elem = elem
		return in.Intern(tt)
	case KindTuple:
		elems, changed := in.foldList(in.list(tt.Payload), f)
		if !changed {
			return id
		}
		return in.Tuple(elems)
	case KindStruct:
		args, changed := in.foldList(in.list(tt.Payload), f)
		if !changed {
			return id
		}
		return in.StructInstance(StructDefID(tt.Count), args)
	case KindFn:
		params, changed := in.foldList(in.list(tt.Payload), f)
		result := in.Fold(tt.Elem, f)
		if !changed && result == tt.Elem {
			return id
		}
		return in.Fn(params, result)
	default:
		return id
	}
}

func (in *Interner) foldList(ids []TypeID, f Folder) ([]TypeID, bool) {
	changed := false
	out := make([]TypeID, len(ids))
	for i, id := range ids {
		out[i] = in.Fold(id, f)
		if out[i] != id {
			changed = true
		}
	}
	return out, changed
}

// Subst replaces generic parameters with the positionally matching args.
func (in *Interner) Subst(id TypeID, params, args []TypeID) TypeID {
	if len(params) == 0 || len(args) == 0 {
		return id
	}
	mapping := make(map[TypeID]TypeID, len(params))
	for i, p := range params {
		if i < len(args) {
			mapping[p] = args[i]
		}
	}
	return in.SubstMap(id, mapping)
}

// SubstMap replaces every key of mapping with its value.
func (in *Interner) SubstMap(id TypeID, mapping map[TypeID]TypeID) TypeID {
	if len(mapping) == 0 {
		return id
	}
	return in.Fold(id, func(t TypeID) (TypeID, bool) {
		repl, ok := mapping[t]
		return repl, ok
	})
}

// Children lists the direct component types of id.
func (in *Interner) Children(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return nil
	}
	switch tt.Kind {
	case KindArray, KindPointer, KindReference, KindBox, KindProjection:
		return []TypeID{tt.Elem}
	case KindTuple, KindStruct:
		return in.list(tt.Payload)
	case KindFn:
		return append(in.list(tt.Payload), tt.Elem)
	default:
		return nil
	}
}

// Any reports whether pred holds for id or any type nested in it.
func (in *Interner) Any(id TypeID, pred func(TypeID, Type) bool) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	if pred(id, tt) {
		return true
	}
	for _, child := range in.Children(id) {
		if in.Any(child, pred) {
			return true
		}
	}
	return false
}

// HasInfer reports whether id mentions an inference variable.
func (in *Interner) HasInfer(id TypeID) bool {
	return in.Any(id, func(_ TypeID, tt Type) bool { return tt.Kind == KindInfer })
}

// HasParams reports whether id mentions a generic parameter.
func (in *Interner) HasParams(id TypeID) bool {
	return in.Any(id, func(_ TypeID, tt Type) bool { return tt.Kind == KindGenericParam })
}

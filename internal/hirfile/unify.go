package hirfile

import (
	"maps"
	"slices"

	"rvcheck/internal/hir"
	"rvcheck/internal/types"
)

// unify binds the generic parameters in params by matching pattern against
// actual. Mismatches are ignored; the loader only needs a best guess.
func (l *loader) unify(pattern, actual types.TypeID, params map[types.TypeID]bool, bind map[types.TypeID]types.TypeID) {
	if pattern == types.NoTypeID || actual == types.NoTypeID {
		return
	}
	if params[pattern] {
		if _, done := bind[pattern]; !done {
			bind[pattern] = actual
		}
		return
	}
	if pattern == actual {
		return
	}
	pt, ok1 := l.in.Lookup(pattern)
	at, ok2 := l.in.Lookup(actual)
	if !ok1 || !ok2 || pt.Kind != at.Kind {
		return
	}
	switch pt.Kind {
	case types.KindStruct, types.KindArray:
		if pt.Count != at.Count {
			return
		}
	case types.KindProjection:
		if pt.Payload != at.Payload || pt.Count != at.Count {
			return
		}
	}
	pc, ac := l.in.Children(pattern), l.in.Children(actual)
	if len(pc) != len(ac) {
		return
	}
	for i := range pc {
		l.unify(pc[i], ac[i], params, bind)
	}
}

// instantiate substitutes bind into ty; parameters left unbound become
// fresh inference variables.
func (l *loader) instantiate(ty types.TypeID, params map[types.TypeID]bool, bind map[types.TypeID]types.TypeID) types.TypeID {
	for _, p := range slices.Sorted(maps.Keys(params)) {
		if _, ok := bind[p]; !ok && l.in.Any(ty, func(id types.TypeID, _ types.Type) bool { return id == p }) {
			bind[p] = l.freshVar()
		}
	}
	return l.in.SubstMap(ty, bind)
}

// genericSet collects the parameters declared on every level of g.
func genericSet(g *hir.Generics, extra ...types.TypeID) map[types.TypeID]bool {
	out := make(map[types.TypeID]bool)
	for ; g != nil; g = g.Parent {
		for _, p := range g.Params {
			out[p.Type] = true
		}
	}
	for _, p := range extra {
		out[p] = true
	}
	return out
}

// autoDeref strips references, raw pointers and boxes.
func (l *loader) autoDeref(ty types.TypeID) types.TypeID {
	for range 64 {
		tt, ok := l.in.Lookup(ty)
		if !ok {
			return ty
		}
		switch tt.Kind {
		case types.KindReference, types.KindPointer, types.KindBox:
			ty = tt.Elem
		default:
			return ty
		}
	}
	return ty
}

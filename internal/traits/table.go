package traits

import (
	"errors"
	"fmt"
	"sync"

	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// ErrAmbiguous is returned when a projection cannot be normalised to a
// single answer.
var ErrAmbiguous = errors.New("ambiguous trait selection")

// Impl is `impl<Params> Trait for SelfTy { type Assoc[i] = ... }`.
type Impl struct {
	Trait  types.TraitID
	Params []types.TypeID
	SelfTy types.TypeID
	// Assoc is indexed by the trait's associated type index; NoTypeID when
	// the impl leaves a slot undefined.
	Assoc []types.TypeID
	Span  source.Span
}

// Table stores every impl of the program, grouped by trait.
type Table struct {
	mu      sync.RWMutex
	types   *types.Interner
	impls   []Impl
	byTrait map[types.TraitID][]int
}

func NewTable(in *types.Interner) *Table {
	return &Table{
		types:   in,
		byTrait: make(map[types.TraitID][]int),
	}
}

// AddImpl registers impl and returns its index.
func (t *Table) AddImpl(impl Impl) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := len(t.impls)
	t.impls = append(t.impls, impl)
	t.byTrait[impl.Trait] = append(t.byTrait[impl.Trait], idx)
	return idx
}

// Impls returns the impls of trait in declaration order.
func (t *Table) Impls(trait types.TraitID) []Impl {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idxs := t.byTrait[trait]
	out := make([]Impl, len(idxs))
	for i, idx := range idxs {
		out[i] = t.impls[idx]
	}
	return out
}

// Len counts registered impls.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.impls)
}

type candidate struct {
	impl     Impl
	bindings map[types.TypeID]types.TypeID
}

// selectImpl finds the impls of trait whose self type unifies with ty.
func (t *Table) selectImpl(ty types.TypeID, trait types.TraitID) []candidate {
	var out []candidate
	for _, impl := range t.Impls(trait) {
		bindings := make(map[types.TypeID]types.TypeID, len(impl.Params))
		if t.match(impl.SelfTy, ty, impl.Params, bindings) {
			out = append(out, candidate{impl: impl, bindings: bindings})
		}
	}
	return out
}

// match unifies an impl pattern with a concrete type, binding the impl's
// own parameters.
func (t *Table) match(pattern, ty types.TypeID, params []types.TypeID, bindings map[types.TypeID]types.TypeID) bool {
	if pattern == ty {
		return true
	}
	if isParamOf(pattern, params) {
		if bound, ok := bindings[pattern]; ok {
			return bound == ty
		}
		bindings[pattern] = ty
		return true
	}
	pt, ok1 := t.types.Lookup(pattern)
	tt, ok2 := t.types.Lookup(ty)
	if !ok1 || !ok2 || pt.Kind != tt.Kind {
		return false
	}
	switch pt.Kind {
	case types.KindArray, types.KindPointer, types.KindReference, types.KindBox:
		if pt.Count != tt.Count || pt.Mutable != tt.Mutable {
			return false
		}
		return t.match(pt.Elem, tt.Elem, params, bindings)
	case types.KindStruct, types.KindTuple, types.KindFn:
		if pt.Kind == types.KindStruct && pt.Count != tt.Count {
			return false
		}
		pc := t.types.Children(pattern)
		tc := t.types.Children(ty)
		if len(pc) != len(tc) {
			return false
		}
		for i := range pc {
			if !t.match(pc[i], tc[i], params, bindings) {
				return false
			}
		}
		return true
	default:
		// скаляры интернированы, равенство ID проверено выше
		return false
	}
}

func isParamOf(id types.TypeID, params []types.TypeID) bool {
	for _, p := range params {
		if p == id {
			return true
		}
	}
	return false
}

// Normalize resolves <self as trait>::assoc under env.
//
// Environment equalities win. A self type that is a generic parameter, a
// projection, a trait object or a foreign type keeps the projection rigid.
// Otherwise exactly one impl must match; zero matches leave the projection
// rigid and several matches (or an inference variable in self) are ambiguous.
func (t *Table) Normalize(env *ParamEnv, proj types.TypeID) (types.TypeID, error) {
	pt, ok := t.types.Lookup(proj)
	if !ok || pt.Kind != types.KindProjection {
		return proj, nil
	}
	self := pt.Elem
	trait := types.TraitID(pt.Payload)
	if eq, ok := env.ProjectionEq(self, trait, pt.Count); ok {
		return eq, nil
	}
	st, ok := t.types.Lookup(self)
	if !ok {
		return proj, nil
	}
	switch st.Kind {
	case types.KindGenericParam, types.KindProjection, types.KindDynTrait, types.KindForeign:
		return proj, nil
	}
	if t.types.HasInfer(self) {
		return types.NoTypeID, fmt.Errorf("%w: %s", ErrAmbiguous, types.Label(t.types, proj))
	}
	cands := t.selectImpl(self, trait)
	switch len(cands) {
	case 0:
		return proj, nil
	case 1:
		c := cands[0]
		if int(pt.Count) >= len(c.impl.Assoc) || c.impl.Assoc[pt.Count] == types.NoTypeID {
			return proj, nil
		}
		return t.types.SubstMap(c.impl.Assoc[pt.Count], c.bindings), nil
	default:
		return types.NoTypeID, fmt.Errorf("%w: %d impls match %s", ErrAmbiguous, len(cands), types.Label(t.types, proj))
	}
}

// Implements reports whether ty: trait holds under env.
func (t *Table) Implements(env *ParamEnv, ty types.TypeID, trait types.TraitID) (bool, error) {
	if env.HasTraitBound(ty, trait) {
		return true, nil
	}
	tt, ok := t.types.Lookup(ty)
	if !ok {
		return false, nil
	}
	switch tt.Kind {
	case types.KindGenericParam, types.KindProjection:
		return false, nil
	case types.KindInfer:
		return false, fmt.Errorf("%w: %s: %s", ErrAmbiguous, types.Label(t.types, ty), t.types.TraitName(trait))
	}
	return len(t.selectImpl(ty, trait)) > 0, nil
}

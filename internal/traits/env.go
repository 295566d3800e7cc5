package traits

import (

	"rvcheck/internal/types"
)

// PredKind distinguishes trait bounds from projection equalities.
type PredKind uint8

const (
	// PredTrait is `Self: Trait`.
	PredTrait PredKind = iota
	// PredProjection is `<Self as Trait>::Assoc == Ty`.
	PredProjection
)

// Predicate is one clause of a parameter environment.
type Predicate struct {
	Kind  PredKind
	Self  types.TypeID
	Trait types.TraitID
	Assoc uint32
	Ty    types.TypeID
}

// ParamEnv lists the generic parameters in scope for an item together with
// every predicate assumed to hold inside its body. It is never mutated after
// construction.
type ParamEnv struct {
	Params     []types.TypeID
	Predicates []Predicate
}

// Empty is the environment of a non-generic item.
func Empty() *ParamEnv {
	return &ParamEnv{}
}

// HasTraitBound reports whether `self: trait` is assumed.
func (e *ParamEnv) HasTraitBound(self types.TypeID, trait types.TraitID) bool {
	if e == nil {
		return false
	}
	for _, p := range e.Predicates {
		if p.Kind == PredTrait && p.Self == self && p.Trait == trait {
			return true
		}
	}
	return false
}

// ProjectionEq returns the type assumed equal to <self as trait>::assoc.
func (e *ParamEnv) ProjectionEq(self types.TypeID, trait types.TraitID, assoc uint32) (types.TypeID, bool) {
	if e == nil {
		return types.NoTypeID, false
	}
	for _, p := range e.Predicates {
		if p.Kind == PredProjection && p.Self == self && p.Trait == trait && p.Assoc == assoc {
			return p.Ty, true
		}
	}
	return types.NoTypeID, false
}

package hir

import (
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// FuncKind classifies function-like items.
type FuncKind uint8

const (
	FuncFree FuncKind = iota
	FuncMethod
	// FuncTraitMethod is a default method body declared inside a trait.
	FuncTraitMethod
	FuncClosure
)

func (k FuncKind) String() string {
	switch k {
	case FuncFree:
		return "fn"
	case FuncMethod:
		return "method"
	case FuncTraitMethod:
		return "trait method"
	case FuncClosure:
		return "closure"
	default:
		return "?"
	}
}

// GenericParam represents a generic type parameter.
type GenericParam struct {
	Name   string
	Type   types.TypeID    // KindGenericParam
	Bounds []types.TraitID // explicit bounds, may include Sized
	// MaybeUnsized is set by an inline `?Sized`.
	MaybeUnsized bool
	Span         source.Span
}

// WhereKind distinguishes where-clause shapes.
type WhereKind uint8

const (
	// WhereBound is `Type: Bounds`.
	WhereBound WhereKind = iota
	// WhereEq is `<T as Tr>::A == Eq`.
	WhereEq
)

// WherePredicate is one where-clause entry.
type WherePredicate struct {
	Kind         WhereKind
	Type         types.TypeID
	Bounds       []types.TraitID
	MaybeUnsized bool
	Eq           types.TypeID
	Span         source.Span
}

// Generics holds the generics declared at one level. Parent links a method's
// generics to its impl or trait.
type Generics struct {
	Parent *Generics
	Params []GenericParam
	Where  []WherePredicate
}

// Len counts own parameters.
func (g *Generics) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Params)
}

// Param represents a function parameter.
type Param struct {
	Pat  *Pattern
	Type types.TypeID
	Span source.Span
}

// Typeck holds the solved inference variables of an item. Closures share
// their enclosing item's table.
type Typeck struct {
	Vars map[uint32]types.TypeID
}

// NewTypeck creates an empty writeback table.
func NewTypeck() *Typeck {
	return &Typeck{Vars: make(map[uint32]types.TypeID)}
}

// Func represents a function-like HIR item.
type Func struct {
	ID       FuncID
	Name     string
	Kind     FuncKind
	Span     source.Span
	Generics *Generics
	Params   []Param
	Result   types.TypeID
	Body     *Block // nil for declaration-only signatures
	Typeck   *Typeck
	// Parent is the enclosing item of a closure.
	Parent *Func
}

// HasBody returns true if this function has a body.
func (f *Func) HasBody() bool {
	return f != nil && f.Body != nil
}

// IsGeneric returns true if this item or any enclosing level declares generics.
func (f *Func) IsGeneric() bool {
	for g := f.Generics; g != nil; g = g.Parent {
		if len(g.Params) > 0 {
			return true
		}
	}
	return false
}

// Root returns the outermost enclosing item (f itself unless f is a closure).
func (f *Func) Root() *Func {
	for f.Parent != nil {
		f = f.Parent
	}
	return f
}

// Package paramenv derives the parameter environment of a function-like
// item from its declared generics.
package paramenv

import (
	"slices"

	"rvcheck/internal/hir"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

// ForItem returns the predicates assumed inside item's body. Enclosing
// impl or trait generics come first, then the item's own. Every parameter
// is Sized unless relaxed with ?Sized inline or in a where clause. Closures
// see the environment of the item they are nested in.
func ForItem(prog *hir.Program, item *hir.Func) *traits.ParamEnv {
	if item == nil {
		return traits.Empty()
	}
	levels := chain(item.Root().Generics)
	if len(levels) == 0 {
		return traits.Empty()
	}
	b := builder{env: &traits.ParamEnv{}, seen: make(map[traits.Predicate]bool)}
	sized := prog.Types.Builtins().Sized

	relaxed := make(map[types.TypeID]bool)
	for _, g := range levels {
		for _, w := range g.Where {
			if w.Kind == hir.WhereBound && w.MaybeUnsized {
				relaxed[w.Type] = true
			}
		}
	}

	for _, g := range levels {
		for _, p := range g.Params {
			b.env.Params = append(b.env.Params, p.Type)
			for _, tr := range p.Bounds {
				b.add(traits.Predicate{Kind: traits.PredTrait, Self: p.Type, Trait: tr})
			}
			if !p.MaybeUnsized && !relaxed[p.Type] {
				b.add(traits.Predicate{Kind: traits.PredTrait, Self: p.Type, Trait: sized})
			}
		}
		for _, w := range g.Where {
			switch w.Kind {
			case hir.WhereBound:
				for _, tr := range w.Bounds {
					b.add(traits.Predicate{Kind: traits.PredTrait, Self: w.Type, Trait: tr})
				}
			case hir.WhereEq:
				tt, ok := prog.Types.Lookup(w.Type)
				if !ok || tt.Kind != types.KindProjection {
					continue
				}
				b.add(traits.Predicate{
					Kind:  traits.PredProjection,
					Self:  tt.Elem,
					Trait: types.TraitID(tt.Payload),
					Assoc: tt.Count,
					Ty:    w.Eq,
				})
			}
		}
	}
	return b.env
}

type builder struct {
	env  *traits.ParamEnv
	seen map[traits.Predicate]bool
}

func (b *builder) add(p traits.Predicate) {
	if b.seen[p] {
		return
	}
	b.seen[p] = true
	b.env.Predicates = append(b.env.Predicates, p)
}

// chain lists generics levels outermost first.
func chain(g *hir.Generics) []*hir.Generics {
	var out []*hir.Generics
	for ; g != nil; g = g.Parent {
		out = append(out, g)
	}
	slices.Reverse(out)
	return out
}

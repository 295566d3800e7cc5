// Package infer provides the scoped resolution context used while one
// function-like item is analysed.
//
// A Ctxt only exists inside the callback handed to Enter. It resolves the
// item's inference variables, normalises projections under the item's
// parameter environment and owns per-item caches. Using a Ctxt after its
// callback returned panics with ErrClosed.
package infer

import (
	"errors"
	"fmt"

	"rvcheck/internal/hir"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

var (
	// ErrUnresolved reports a type that still mentions an inference variable
	// after writeback.
	ErrUnresolved = errors.New("unresolved inference variable")
	// ErrClosed is the panic value for queries against a closed context.
	ErrClosed = errors.New("resolution context used after exit")
)

// maxResolveDepth bounds chains of variables solved to other variables.
const maxResolveDepth = 64

// Tcx is the program-wide type context. It is shared by every item and never
// mutated by the pass (the interner only grows).
type Tcx struct {
	Types  *types.Interner
	Traits *traits.Table
}

// Ctxt is the per-item resolution context.
type Ctxt struct {
	tcx    Tcx
	env    *traits.ParamEnv
	vars   map[uint32]types.TypeID
	sized  map[types.TypeID]bool
	copies map[types.TypeID]bool
	closed bool
}

// Enter opens a resolution context for one item, runs fn and tears the
// context down on every exit path, panics included.
func Enter(tcx Tcx, env *traits.ParamEnv, typeck *hir.Typeck, fn func(cx *Ctxt) error) error {
	if env == nil {
		env = traits.Empty()
	}
	cx := &Ctxt{
		tcx:    tcx,
		env:    env,
		sized:  make(map[types.TypeID]bool),
		copies: make(map[types.TypeID]bool),
	}
	if typeck != nil {
		cx.vars = typeck.Vars
	}
	defer cx.close()
	return fn(cx)
}

func (cx *Ctxt) close() {
	cx.closed = true
	cx.sized = nil
	cx.copies = nil
	cx.vars = nil
}

func (cx *Ctxt) check() {
	if cx.closed {
		panic(ErrClosed)
	}
}

// Types returns the shared interner.
func (cx *Ctxt) Types() *types.Interner {
	cx.check()
	return cx.tcx.Types
}

// Env returns the item's parameter environment.
func (cx *Ctxt) Env() *traits.ParamEnv {
	cx.check()
	return cx.env
}

// ResolveVars substitutes every solved inference variable in ty.
// Unsolved variables are left in place.
func (cx *Ctxt) ResolveVars(ty types.TypeID) types.TypeID {
	cx.check()
	return cx.resolve(ty, 0)
}

func (cx *Ctxt) resolve(ty types.TypeID, depth int) types.TypeID {
	in := cx.tcx.Types
	if len(cx.vars) == 0 || !in.HasInfer(ty) || depth > maxResolveDepth {
		return ty
	}
	return in.Fold(ty, func(id types.TypeID) (types.TypeID, bool) {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != types.KindInfer {
			return id, false
		}
		sol, ok := cx.vars[tt.Count]
		if !ok || sol == id {
			return id, true
		}
		return cx.resolve(sol, depth+1), true
	})
}

// Lift moves ty out of the inference context: every variable must be
// solved. Failure is an invariant violation, never "assume sized".
func (cx *Ctxt) Lift(ty types.TypeID) (types.TypeID, error) {
	cx.check()
	resolved := cx.resolve(ty, 0)
	if cx.tcx.Types.HasInfer(resolved) {
		return types.NoTypeID, fmt.Errorf("%w in %s", ErrUnresolved, types.Label(cx.tcx.Types, resolved))
	}
	return resolved, nil
}

// Normalize replaces every projection in ty that the trait table can
// resolve. Rigid projections stay.
func (cx *Ctxt) Normalize(ty types.TypeID) (types.TypeID, error) {
	cx.check()
	in := cx.tcx.Types
	var firstErr error
	out := in.Fold(ty, func(id types.TypeID) (types.TypeID, bool) {
		if firstErr != nil {
			return id, true
		}
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != types.KindProjection {
			return id, false
		}
		self, err := cx.Normalize(tt.Elem)
		if err != nil {
			firstErr = err
			return id, true
		}
		proj := in.Intern(types.MakeProjection(self, types.TraitID(tt.Payload), tt.Count))
		norm, err := cx.tcx.Traits.Normalize(cx.env, proj)
		if err != nil {
			firstErr = err
			return id, true
		}
		if norm != proj {
			// результат impl-а может сам содержать проекции
			norm, err = cx.Normalize(norm)
			if err != nil {
				firstErr = err
				return id, true
			}
		}
		return norm, true
	})
	if firstErr != nil {
		return types.NoTypeID, firstErr
	}
	return out, nil
}

// CachedSized returns a memoised sizedness answer.
func (cx *Ctxt) CachedSized(ty types.TypeID) (sized, ok bool) {
	cx.check()
	sized, ok = cx.sized[ty]
	return sized, ok
}

// RememberSized memoises a sizedness answer for the lifetime of the context.
func (cx *Ctxt) RememberSized(ty types.TypeID, sized bool) {
	cx.check()
	cx.sized[ty] = sized
}

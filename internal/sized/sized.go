// Package sized answers whether a type has a statically known size.
//
// The oracle never guesses: an inference variable, an ambiguous projection
// or a cycle through trailing fields is returned as an error.
package sized

import (
	"errors"
	"fmt"
	"strings"

	"rvcheck/internal/infer"
	"rvcheck/internal/types"
)

// ErrRecursive marks a cycle through trailing fields.
var ErrRecursive = errors.New("recursive trailing field")

// CycleError reports the chain of types that led back to itself.
type CycleError struct {
	Type  types.TypeID
	Cycle []types.TypeID
	label func(types.TypeID) string
}

func (e *CycleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Cycle))
	for _, id := range e.Cycle {
		parts = append(parts, e.label(id))
	}
	return fmt.Sprintf("%v (cycle: %s)", ErrRecursive, strings.Join(parts, " -> "))
}

// Is lets errors.Is match ErrRecursive.
func (e *CycleError) Is(target error) bool {
	return target == ErrRecursive
}

// maxTrailDepth stops polymorphic recursion that never repeats a type.
const maxTrailDepth = 256

type queryState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

// IsSized reports whether ty is Sized inside the item described by cx.
// Answers are memoised in cx for the lifetime of the resolution context.
func IsSized(cx *infer.Ctxt, ty types.TypeID) (bool, error) {
	state := &queryState{index: make(map[types.TypeID]int, 8)}
	return isSized(cx, ty, state)
}

func isSized(cx *infer.Ctxt, ty types.TypeID, state *queryState) (bool, error) {
	if cached, ok := cx.CachedSized(ty); ok {
		return cached, nil
	}
	in := cx.Types()
	idx, seen := state.index[ty]
	if !seen && len(state.stack) >= maxTrailDepth {
		seen = true
	}
	if seen {
		cycle := append([]types.TypeID(nil), state.stack[idx:]...)
		cycle = append(cycle, ty)
		return false, &CycleError{
			Type:  ty,
			Cycle: cycle,
			label: func(id types.TypeID) string { return types.Label(in, id) },
		}
	}

	state.index[ty] = len(state.stack)
	state.stack = append(state.stack, ty)
	answer, err := compute(cx, ty, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, ty)

	if err != nil {
		return false, err
	}
	cx.RememberSized(ty, answer)
	return answer, nil
}

func compute(cx *infer.Ctxt, ty types.TypeID, state *queryState) (bool, error) {
	in := cx.Types()
	tt, ok := in.Lookup(ty)
	if !ok {
		return false, fmt.Errorf("sized: unknown type #%d", ty)
	}
	sizedTrait := in.Builtins().Sized
	switch tt.Kind {
	case types.KindUnit, types.KindNever, types.KindBool, types.KindChar,
		types.KindInt, types.KindUint, types.KindFloat,
		types.KindReference, types.KindPointer, types.KindBox, types.KindFn:
		return true, nil
	case types.KindArray:
		return !tt.IsSlice(), nil
	case types.KindStr, types.KindDynTrait, types.KindForeign:
		return false, nil
	case types.KindGenericParam:
		return cx.Env().HasTraitBound(ty, sizedTrait), nil
	case types.KindTuple:
		elems := in.TupleElems(ty)
		if len(elems) == 0 {
			return true, nil
		}
		return isSized(cx, elems[len(elems)-1], state)
	case types.KindStruct:
		fields := in.StructFields(ty)
		if len(fields) == 0 {
			return true, nil
		}
		return isSized(cx, fields[len(fields)-1].Type, state)
	case types.KindProjection:
		norm, err := cx.Normalize(ty)
		if err != nil {
			return false, err
		}
		if norm != ty {
			return isSized(cx, norm, state)
		}
		if cx.Env().HasTraitBound(ty, sizedTrait) {
			return true, nil
		}
		info, ok := in.TraitInfo(types.TraitID(tt.Payload))
		if !ok || int(tt.Count) >= len(info.Assoc) {
			return false, fmt.Errorf("sized: unknown associated type in %s", types.Label(in, ty))
		}
		return !info.Assoc[tt.Count].MaybeUnsized, nil
	case types.KindInfer:
		return false, fmt.Errorf("%w: %s", infer.ErrUnresolved, types.Label(in, ty))
	default:
		return false, fmt.Errorf("sized: unexpected %s type", tt.Kind)
	}
}

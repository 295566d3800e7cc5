package infer

import (
	"fmt"

	"rvcheck/internal/types"
)

// IsCopy reports whether a use of a value of type ty copies instead of
// moving. The type must already be resolved.
func (cx *Ctxt) IsCopy(ty types.TypeID) (bool, error) {
	cx.check()
	if v, ok := cx.copies[ty]; ok {
		return v, nil
	}
	// предварительный ответ на случай рекурсивных структур
	cx.copies[ty] = false
	v, err := cx.isCopy(ty)
	if err != nil {
		delete(cx.copies, ty)
		return false, err
	}
	cx.copies[ty] = v
	return v, nil
}

func (cx *Ctxt) isCopy(ty types.TypeID) (bool, error) {
	in := cx.tcx.Types
	tt, ok := in.Lookup(ty)
	if !ok {
		return false, nil
	}
	copyTrait := in.Builtins().Copy
	switch tt.Kind {
	case types.KindUnit, types.KindNever, types.KindBool, types.KindChar,
		types.KindInt, types.KindUint, types.KindFloat, types.KindPointer, types.KindFn:
		return true, nil
	case types.KindReference:
		return !tt.Mutable, nil
	case types.KindBox, types.KindStr, types.KindDynTrait, types.KindForeign:
		return false, nil
	case types.KindArray:
		if tt.IsSlice() {
			return false, nil
		}
		return cx.IsCopy(tt.Elem)
	case types.KindTuple:
		for _, elem := range in.TupleElems(ty) {
			ok, err := cx.IsCopy(elem)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case types.KindStruct:
		def, _, _ := in.StructOf(ty)
		info, _ := in.StructDef(def)
		if !info.Copy {
			return cx.tcx.Traits.Implements(cx.env, ty, copyTrait)
		}
		for _, f := range in.StructFields(ty) {
			ok, err := cx.IsCopy(f.Type)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case types.KindGenericParam:
		return cx.env.HasTraitBound(ty, copyTrait), nil
	case types.KindProjection:
		norm, err := cx.Normalize(ty)
		if err != nil {
			return false, err
		}
		if norm != ty {
			return cx.IsCopy(norm)
		}
		return cx.env.HasTraitBound(ty, copyTrait), nil
	case types.KindInfer:
		return false, fmt.Errorf("%w: %s", ErrUnresolved, types.Label(in, ty))
	default:
		return false, nil
	}
}

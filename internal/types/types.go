package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindNever
	KindBool
	KindChar
	KindInt
	KindUint
	KindFloat
	KindStr
	KindArray
	KindPointer
	KindReference
	KindBox
	KindTuple
	KindStruct
	KindFn
	KindDynTrait
	KindForeign
	KindGenericParam
	KindProjection
	KindInfer
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	case KindReference:
		return "reference"
	case KindBox:
		return "box"
	case KindTuple:
		return "tuple"
	case KindStruct:
		return "struct"
	case KindFn:
		return "fn"
	case KindDynTrait:
		return "dyn"
	case KindForeign:
		return "foreign"
	case KindGenericParam:
		return "param"
	case KindProjection:
		return "projection"
	case KindInfer:
		return "infer"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats.
type Width uint8

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
	// WidthSize is the pointer-sized width of isize/usize.
	WidthSize Width = 255
)

// ArrayDynamicLength marks slices with unknown compile-time length.
const ArrayDynamicLength = ^uint32(0)

// Type is a compact descriptor for any supported type.
//
// Field usage per kind:
//
//	Array       Elem, Count (ArrayDynamicLength for [T])
//	Pointer     Elem, Mutable
//	Reference   Elem, Mutable
//	Box         Elem
//	Tuple       Payload = element list
//	Struct      Count = struct definition, Payload = type argument list
//	Fn          Elem = result, Payload = parameter list
//	DynTrait    Payload = TraitID
//	Foreign     Payload = foreign slot
//	GenericParam Payload = parameter slot
//	Projection  Elem = self type, Payload = TraitID, Count = associated type index
//	Infer       Count = variable index
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Mutable bool
	Payload uint32
}

// Descriptor helpers ---------------------------------------------------------

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes an array of element type. Use ArrayDynamicLength
// for slices ([T]).
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeSlice describes [T].
func MakeSlice(elem TypeID) Type {
	return MakeArray(elem, ArrayDynamicLength)
}

// MakePointer describes *const T or *mut T.
func MakePointer(elem TypeID, mutable bool) Type {
	return Type{Kind: KindPointer, Elem: elem, Mutable: mutable}
}

// MakeReference describes &T or &mut T depending on the mutable flag.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}

// MakeBox describes Box<T>.
func MakeBox(elem TypeID) Type {
	return Type{Kind: KindBox, Elem: elem}
}

// MakeDyn describes dyn Trait.
func MakeDyn(trait TraitID) Type {
	return Type{Kind: KindDynTrait, Payload: uint32(trait)}
}

// MakeProjection describes <self as Trait>::Assoc[assoc].
func MakeProjection(self TypeID, trait TraitID, assoc uint32) Type {
	return Type{Kind: KindProjection, Elem: self, Payload: uint32(trait), Count: assoc}
}

// MakeInfer describes the inference variable ?index.
func MakeInfer(index uint32) Type {
	return Type{Kind: KindInfer, Count: index}
}

// IsSlice reports whether tt is [T].
func (tt Type) IsSlice() bool {
	return tt.Kind == KindArray && tt.Count == ArrayDynamicLength
}

package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"rvcheck/internal/source"
)

// Builtins stores TypeIDs for common primitive types and the lang traits.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Never   TypeID
	Bool    TypeID
	Char    TypeID
	Str     TypeID
	I32     TypeID
	Usize   TypeID
	F64     TypeID

	Sized TraitID
	Copy  TraitID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is append-only and safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins

	lists     [][]TypeID
	listIndex map[string]uint32
	structs   []StructDef
	params    []TypeParamInfo
	traits    []TraitInfo
	foreign   []ForeignInfo

	Strings *source.Interner
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:     make(map[typeKey]TypeID, 64),
		listIndex: make(map[string]uint32, 16),
		Strings:   source.NewInterner(),
	}
	// слот 0 везде зарезервирован как невалидный
	in.lists = append(in.lists, nil)
	in.listIndex[""] = 0
	in.structs = append(in.structs, StructDef{})
	in.params = append(in.params, TypeParamInfo{})
	in.traits = append(in.traits, TraitInfo{})
	in.foreign = append(in.foreign, ForeignInfo{})

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Char = in.Intern(Type{Kind: KindChar})
	in.builtins.Str = in.Intern(Type{Kind: KindStr})
	in.builtins.I32 = in.Intern(MakeInt(Width32))
	in.builtins.Usize = in.Intern(MakeUint(WidthSize))
	in.builtins.F64 = in.Intern(MakeFloat(Width64))
	in.builtins.Sized = in.RegisterTrait("Sized", source.Span{})
	in.builtins.Copy = in.RegisterTrait("Copy", source.Span{})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internLocked(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len counts interned types including the invalid sentinel.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32
	Width   Width
	Mutable bool
	Payload uint32
}

func nextSlot(n int, what string) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s overflow: %w", what, err))
	}
	return slot
}

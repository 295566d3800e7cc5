package types

import (
	"encoding/binary"
	"slices"
)

// internList returns a stable slot for an ordered list of types.
// Slot 0 is the empty list.
func (in *Interner) internList(ids []TypeID) uint32 {
	if len(ids) == 0 {
		return 0
	}
	key := listKey(ids)
	in.mu.RLock()
	slot, ok := in.listIndex[key]
	in.mu.RUnlock()
	if ok {
		return slot
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if slot, ok := in.listIndex[key]; ok {
		return slot
	}
	slot = nextSlot(len(in.lists), "type list")
	in.lists = append(in.lists, slices.Clone(ids))
	in.listIndex[key] = slot
	return slot
}

func (in *Interner) list(slot uint32) []TypeID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if slot == 0 || int(slot) >= len(in.lists) {
		return nil
	}
	return slices.Clone(in.lists[slot])
}

func listKey(ids []TypeID) string {
	buf := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(id))
	}
	return string(buf)
}

// Tuple creates or finds the tuple type with the given elements.
// An empty element list yields the unit type.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	if len(elems) == 0 {
		return in.builtins.Unit
	}
	return in.Intern(Type{Kind: KindTuple, Payload: in.internList(elems)})
}

// TupleElems returns the element types of a tuple.
func (in *Interner) TupleElems(id TypeID) []TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil
	}
	return in.list(tt.Payload)
}

// FnInfo stores metadata for function pointer types.
type FnInfo struct {
	Params []TypeID // Parameter types (in order)
	Result TypeID   // Return type
}

// Fn creates or finds a function pointer type.
func (in *Interner) Fn(params []TypeID, result TypeID) TypeID {
	if result == NoTypeID {
		result = in.builtins.Unit
	}
	return in.Intern(Type{Kind: KindFn, Elem: result, Payload: in.internList(params)})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return FnInfo{}, false
	}
	return FnInfo{Params: in.list(tt.Payload), Result: tt.Elem}, true
}

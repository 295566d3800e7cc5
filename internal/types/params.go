package types

import (
	"rvcheck/internal/source"
)

// TypeParamInfo stores metadata about a generic type parameter.
type TypeParamInfo struct {
	Name  source.StringID
	Owner uint32
	Index uint32
	Decl  source.Span
}

// RegisterTypeParam allocates a new generic parameter. Every call yields a
// distinct type even for equal names.
func (in *Interner) RegisterTypeParam(name string, owner, index uint32, decl source.Span) TypeID {
	nameID := in.Strings.Intern(name)
	in.mu.Lock()
	slot := nextSlot(len(in.params), "type param index")
	in.params = append(in.params, TypeParamInfo{
		Name:  nameID,
		Owner: owner,
		Index: index,
		Decl:  decl,
	})
	in.mu.Unlock()
	return in.Intern(Type{Kind: KindGenericParam, Payload: slot})
}

// TypeParamInfo returns metadata for the provided generic parameter.
func (in *Interner) TypeParamInfo(id TypeID) (TypeParamInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindGenericParam {
		return TypeParamInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return TypeParamInfo{}, false
	}
	return in.params[tt.Payload], true
}

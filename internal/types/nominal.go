package types

import (
	"slices"

	"rvcheck/internal/source"
)

// StructDefID identifies a struct definition (not an instance).
type StructDefID uint32

// StructField describes a single field inside a struct definition.
// Field types may mention the definition's generic parameters.
type StructField struct {
	Name source.StringID
	Type TypeID
}

// StructDef stores metadata for a struct definition.
type StructDef struct {
	Name   source.StringID
	Decl   source.Span
	Params []TypeID
	Fields []StructField
	Copy   bool
}

// RegisterStruct allocates a struct definition slot. Fields are set later so
// that recursive definitions can refer to themselves.
func (in *Interner) RegisterStruct(name string, decl source.Span, params []TypeID) StructDefID {
	nameID := in.Strings.Intern(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nextSlot(len(in.structs), "struct info")
	in.structs = append(in.structs, StructDef{
		Name:   nameID,
		Decl:   decl,
		Params: slices.Clone(params),
	})
	return StructDefID(slot)
}

// SetStructFields stores the resolved field descriptors for the definition.
func (in *Interner) SetStructFields(def StructDefID, fields []StructField, isCopy bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if def == 0 || int(def) >= len(in.structs) {
		return
	}
	in.structs[def].Fields = slices.Clone(fields)
	in.structs[def].Copy = isCopy
}

// StructDef returns the definition metadata.
func (in *Interner) StructDef(def StructDefID) (StructDef, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if def == 0 || int(def) >= len(in.structs) {
		return StructDef{}, false
	}
	info := in.structs[def]
	info.Params = slices.Clone(info.Params)
	info.Fields = slices.Clone(info.Fields)
	return info, true
}

// StructInstance returns the TypeID of def applied to args.
func (in *Interner) StructInstance(def StructDefID, args []TypeID) TypeID {
	return in.Intern(Type{Kind: KindStruct, Count: uint32(def), Payload: in.internList(args)})
}

// StructOf splits a struct instance into its definition and type arguments.
func (in *Interner) StructOf(id TypeID) (StructDefID, []TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return 0, nil, false
	}
	return StructDefID(tt.Count), in.list(tt.Payload), true
}

// StructFields returns the fields of a struct instance with the instance's
// type arguments substituted.
func (in *Interner) StructFields(id TypeID) []StructField {
	def, args, ok := in.StructOf(id)
	if !ok {
		return nil
	}
	info, ok := in.StructDef(def)
	if !ok || len(info.Fields) == 0 {
		return nil
	}
	out := make([]StructField, len(info.Fields))
	for i, f := range info.Fields {
		out[i] = StructField{Name: f.Name, Type: in.Subst(f.Type, info.Params, args)}
	}
	return out
}

// FieldIndex finds a field by name in a struct instance.
func (in *Interner) FieldIndex(id TypeID, name string) (int, TypeID, bool) {
	nameID := in.Strings.Intern(name)
	for i, f := range in.StructFields(id) {
		if f.Name == nameID {
			return i, f.Type, true
		}
	}
	return -1, NoTypeID, false
}

// FindStruct looks a definition up by name.
func (in *Interner) FindStruct(name string) (StructDefID, bool) {
	nameID := in.Strings.Intern(name)
	in.mu.RLock()
	defer in.mu.RUnlock()
	for i := 1; i < len(in.structs); i++ {
		if in.structs[i].Name == nameID {
			return StructDefID(nextSlot(i, "struct info")), true
		}
	}
	return 0, false
}

// ForeignInfo describes an opaque extern type.
type ForeignInfo struct {
	Name source.StringID
	Decl source.Span
}

// Foreign allocates an opaque foreign type.
func (in *Interner) Foreign(name string, decl source.Span) TypeID {
	nameID := in.Strings.Intern(name)
	in.mu.Lock()
	slot := nextSlot(len(in.foreign), "foreign info")
	in.foreign = append(in.foreign, ForeignInfo{Name: nameID, Decl: decl})
	in.mu.Unlock()
	return in.Intern(Type{Kind: KindForeign, Payload: slot})
}

// ForeignInfo returns metadata for a foreign type.
func (in *Interner) ForeignInfo(id TypeID) (ForeignInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindForeign {
		return ForeignInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(tt.Payload) >= len(in.foreign) {
		return ForeignInfo{}, false
	}
	return in.foreign[tt.Payload], true
}

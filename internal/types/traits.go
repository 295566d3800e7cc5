package types

import (
	"slices"

	"rvcheck/internal/source"
)

// TraitID identifies a trait declaration.
type TraitID uint32

// NoTraitID marks the absence of a trait.
const NoTraitID TraitID = 0

// AssocType declares an associated type of a trait.
type AssocType struct {
	Name source.StringID
	// MaybeUnsized is set for `type A: ?Sized`.
	MaybeUnsized bool
}

// TraitInfo stores metadata for a trait declaration.
type TraitInfo struct {
	Name  source.StringID
	Decl  source.Span
	Assoc []AssocType
}

// RegisterTrait declares a trait without associated types.
func (in *Interner) RegisterTrait(name string, decl source.Span) TraitID {
	nameID := in.Strings.Intern(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := nextSlot(len(in.traits), "trait info")
	in.traits = append(in.traits, TraitInfo{Name: nameID, Decl: decl})
	return TraitID(slot)
}

// AddAssocType appends an associated type and returns its index.
func (in *Interner) AddAssocType(trait TraitID, name string, maybeUnsized bool) uint32 {
	nameID := in.Strings.Intern(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	if trait == NoTraitID || int(trait) >= len(in.traits) {
		panic("types: invalid TraitID")
	}
	info := &in.traits[trait]
	info.Assoc = append(info.Assoc, AssocType{Name: nameID, MaybeUnsized: maybeUnsized})
	return nextSlot(len(info.Assoc)-1, "assoc index")
}

// TraitInfo returns metadata for the trait.
func (in *Interner) TraitInfo(trait TraitID) (TraitInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if trait == NoTraitID || int(trait) >= len(in.traits) {
		return TraitInfo{}, false
	}
	info := in.traits[trait]
	info.Assoc = slices.Clone(info.Assoc)
	return info, true
}

// FindTrait looks a trait up by name.
func (in *Interner) FindTrait(name string) (TraitID, bool) {
	nameID := in.Strings.Intern(name)
	in.mu.RLock()
	defer in.mu.RUnlock()
	for i := 1; i < len(in.traits); i++ {
		if in.traits[i].Name == nameID {
			return TraitID(nextSlot(i, "trait info")), true
		}
	}
	return NoTraitID, false
}

// AssocIndex finds an associated type by name.
func (in *Interner) AssocIndex(trait TraitID, name string) (uint32, bool) {
	info, ok := in.TraitInfo(trait)
	if !ok {
		return 0, false
	}
	nameID := in.Strings.Intern(name)
	for i, a := range info.Assoc {
		if a.Name == nameID {
			return nextSlot(i, "assoc index"), true
		}
	}
	return 0, false
}

// TraitName returns the declared name of trait.
func (in *Interner) TraitName(trait TraitID) string {
	info, ok := in.TraitInfo(trait)
	if !ok {
		return "?"
	}
	return lookupNameFallback(in.Strings, info.Name)
}

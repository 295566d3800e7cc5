// Package hir provides the typed High-level Intermediate Representation that
// the unsized-move pass walks.
//
// Every expression and pattern carries a types.TypeID. Types may still mention
// function-local inference variables; their solutions live in the owning
// item's Typeck table and are substituted by infer.Ctxt.ResolveVars.
//
// Function-like items are free functions, impl methods, trait default methods
// and closures. Closures are nested in the bodies of their enclosing items
// and are visited as items of their own (see Items).
package hir

// FuncID identifies a function-like item within a program.
type FuncID uint32

// NodeID is a generic HIR node identifier.
type NodeID uint32

// Invalid ID constants (zero is sentinel).
const (
	NoFuncID FuncID = 0
	NoNodeID NodeID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id FuncID) IsValid() bool { return id != NoFuncID }
func (id NodeID) IsValid() bool { return id != NoNodeID }

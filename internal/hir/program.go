package hir

import (
	"rvcheck/internal/source"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

// Program is a fully type-checked compilation unit.
type Program struct {
	Name   string
	File   source.FileID
	Funcs  []*Func // free functions, impl methods and trait default methods
	Types  *types.Interner
	Traits *traits.Table

	nextNode NodeID
	nextFunc FuncID
}

// NewProgram creates an empty program over the given type context.
func NewProgram(name string, in *types.Interner, table *traits.Table) *Program {
	return &Program{Name: name, Types: in, Traits: table}
}

// NewNodeID allocates a fresh node id.
func (p *Program) NewNodeID() NodeID {
	p.nextNode++
	return p.nextNode
}

// NewFuncID allocates a fresh item id.
func (p *Program) NewFuncID() FuncID {
	p.nextFunc++
	return p.nextFunc
}

// AddFunc appends a top-level item.
func (p *Program) AddFunc(fn *Func) {
	if !fn.ID.IsValid() {
		fn.ID = p.NewFuncID()
	}
	p.Funcs = append(p.Funcs, fn)
}

package hir

import (
	"rvcheck/internal/source"
)

// Block represents a sequence of statements with an optional tail value.
type Block struct {
	Stmts []Stmt
	Tail  *Expr // nil when the block evaluates to ()
	Span  source.Span
}

// IsEmpty returns true if the block has no statements and no tail.
func (b *Block) IsEmpty() bool {
	return len(b.Stmts) == 0 && b.Tail == nil
}

package hir

import (
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// StmtKind enumerates HIR statement kinds.
type StmtKind uint8

const (
	// StmtLet represents `let pat: T = init;` (init optional).
	StmtLet StmtKind = iota
	// StmtExpr represents an expression statement.
	StmtExpr
	// StmtAssign represents plain and compound assignment.
	StmtAssign
	// StmtReturn represents return statement.
	StmtReturn
	// StmtBreak represents break statement, optionally with a value.
	StmtBreak
	// StmtContinue represents continue statement.
	StmtContinue
	// StmtWhile represents while loop.
	StmtWhile
	// StmtLoop represents an unconditional loop.
	StmtLoop
	// StmtFor represents `for pat in iter { ... }`.
	StmtFor
	// StmtBlock represents a nested block.
	StmtBlock
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "Let"
	case StmtExpr:
		return "Expr"
	case StmtAssign:
		return "Assign"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtWhile:
		return "While"
	case StmtLoop:
		return "Loop"
	case StmtFor:
		return "For"
	case StmtBlock:
		return "Block"
	default:
		return "Unknown"
	}
}

// Stmt represents an HIR statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// LetData holds data for StmtLet.
type LetData struct {
	Pat  *Pattern
	Type types.TypeID // declared type, NoTypeID when omitted
	Init *Expr        // nil for `let p;`
}

func (LetData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// AssignData holds data for StmtAssign. Op is empty for `=`, otherwise the
// binary operator of a compound assignment ("+", "-", ...).
type AssignData struct {
	Op     string
	Target *Expr
	Value  *Expr
}

func (AssignData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct {
	Value *Expr
}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct{}

func (ContinueData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

// LoopData holds data for StmtLoop.
type LoopData struct {
	Body *Block
}

func (LoopData) stmtData() {}

// ForData holds data for StmtFor.
type ForData struct {
	Pat  *Pattern
	Iter *Expr
	Body *Block
}

func (ForData) stmtData() {}

// BlockStmtData holds data for StmtBlock.
type BlockStmtData struct {
	Block *Block
}

func (BlockStmtData) stmtData() {}

package hir

import (
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// ExprKind enumerates HIR expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, float, bool, char, string).
	ExprLiteral ExprKind = iota
	// ExprVar represents a local variable reference.
	ExprVar
	// ExprPath represents a reference to a function item.
	ExprPath
	// ExprDeref represents `*e`.
	ExprDeref
	// ExprRef represents `&e` and `&mut e`.
	ExprRef
	// ExprUnary represents `-e` and `!e`.
	ExprUnary
	// ExprBinary represents binary operators.
	ExprBinary
	// ExprCall represents `callee(args)`.
	ExprCall
	// ExprMethodCall represents `recv.name(args)`.
	ExprMethodCall
	// ExprField represents `e.f` and `e.0`.
	ExprField
	// ExprIndex represents `e[i]`.
	ExprIndex
	// ExprStruct represents `S { f: e, ..base }`.
	ExprStruct
	// ExprTuple represents `(a, b)`.
	ExprTuple
	// ExprArray represents `[a, b]`.
	ExprArray
	// ExprRepeat represents `[e; N]`.
	ExprRepeat
	// ExprCast represents `e as T`.
	ExprCast
	// ExprIf represents `if c { .. } else ..`.
	ExprIf
	// ExprMatch represents `match e { arms }`.
	ExprMatch
	// ExprBlock represents a block expression.
	ExprBlock
	// ExprClosure represents a closure literal.
	ExprClosure
	// ExprBox represents `Box::new(e)`.
	ExprBox
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVar:
		return "Var"
	case ExprPath:
		return "Path"
	case ExprDeref:
		return "Deref"
	case ExprRef:
		return "Ref"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprMethodCall:
		return "MethodCall"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprStruct:
		return "Struct"
	case ExprTuple:
		return "Tuple"
	case ExprArray:
		return "Array"
	case ExprRepeat:
		return "Repeat"
	case ExprCast:
		return "Cast"
	case ExprIf:
		return "If"
	case ExprMatch:
		return "Match"
	case ExprBlock:
		return "Block"
	case ExprClosure:
		return "Closure"
	case ExprBox:
		return "Box"
	default:
		return "Unknown"
	}
}

// Expr represents an HIR expression with type information.
type Expr struct {
	ID   NodeID
	Kind ExprKind
	Type types.TypeID // may contain inference variables
	Span source.Span
	Data ExprData // Kind-specific payload
}

// IsPlace reports whether the expression denotes a memory location.
func (e *Expr) IsPlace() bool {
	switch e.Kind {
	case ExprVar, ExprDeref, ExprField, ExprIndex:
		return true
	default:
		return false
	}
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralChar
	LiteralString
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind LiteralKind
	Text string
}

func (LiteralData) exprData() {}

// VarData holds data for ExprVar.
type VarData struct {
	Name string
}

func (VarData) exprData() {}

// PathData holds data for ExprPath.
type PathData struct {
	Name string
}

func (PathData) exprData() {}

// DerefData holds data for ExprDeref.
type DerefData struct {
	Operand *Expr
}

func (DerefData) exprData() {}

// RefData holds data for ExprRef.
type RefData struct {
	Mutable bool
	Operand *Expr
}

func (RefData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      string // "-" or "!"
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    string
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func (CallData) exprData() {}

// ReceiverMode describes how a method receiver is passed.
type ReceiverMode uint8

const (
	// RecvByValue moves or copies the receiver (`self`).
	RecvByValue ReceiverMode = iota
	// RecvRef auto-borrows the receiver (`&self`).
	RecvRef
	// RecvRefMut auto-borrows mutably (`&mut self`).
	RecvRefMut
)

func (m ReceiverMode) String() string {
	switch m {
	case RecvByValue:
		return "self"
	case RecvRef:
		return "&self"
	case RecvRefMut:
		return "&mut self"
	default:
		return "?"
	}
}

// MethodCallData holds data for ExprMethodCall.
type MethodCallData struct {
	Receiver *Expr
	Method   string
	Mode     ReceiverMode
	Args     []*Expr
}

func (MethodCallData) exprData() {}

// FieldData holds data for ExprField.
type FieldData struct {
	Base  *Expr
	Name  string
	Index int // -1 if unknown
}

func (FieldData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Base  *Expr
	Index *Expr
}

func (IndexData) exprData() {}

// FieldInit represents a field initializer in a struct literal.
type FieldInit struct {
	Name  string
	Value *Expr
	Span  source.Span
}

// StructData holds data for ExprStruct. Base is the functional update source.
type StructData struct {
	Name   string
	Fields []FieldInit
	Base   *Expr
}

func (StructData) exprData() {}

// ListData holds data for ExprTuple and ExprArray.
type ListData struct {
	Elems []*Expr
}

func (ListData) exprData() {}

// RepeatData holds data for ExprRepeat.
type RepeatData struct {
	Elem  *Expr
	Count uint32
}

func (RepeatData) exprData() {}

// CastData holds data for ExprCast.
type CastData struct {
	Value  *Expr
	Target types.TypeID
}

func (CastData) exprData() {}

// IfData holds data for ExprIf.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Expr // nil if no else branch
}

func (IfData) exprData() {}

// Arm is one match arm.
type Arm struct {
	Pat   *Pattern
	Guard *Expr
	Body  *Expr
	Span  source.Span
}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Scrutinee *Expr
	Arms      []Arm
}

func (MatchData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Block *Block
}

func (BlockData) exprData() {}

// Capture is a local captured by a closure.
type Capture struct {
	Name  string
	ByRef bool
	// Mutable is only meaningful for by-ref captures.
	Mutable bool
	Type    types.TypeID // type of the captured local
	Span    source.Span
}

// ClosureData holds data for ExprClosure.
type ClosureData struct {
	Func     *Func
	Captures []Capture
}

func (ClosureData) exprData() {}

// BoxData holds data for ExprBox.
type BoxData struct {
	Value *Expr
}

func (BoxData) exprData() {}

package hir

import (
	"fmt"
	"io"
	"strings"

	"rvcheck/internal/types"
)

// Printer is used to dump HIR to text format.
type Printer struct {
	w        io.Writer
	interner *types.Interner
	indent   int
	err      error
}

// NewPrinter creates a new HIR printer.
func NewPrinter(w io.Writer, interner *types.Interner) *Printer {
	return &Printer{w: w, interner: interner}
}

// Dump writes every item of the program, closures included, to w.
func Dump(w io.Writer, prog *Program, interner *types.Interner) error {
	p := NewPrinter(w, interner)
	return p.PrintProgram(prog)
}

// PrintProgram prints a complete program.
func (p *Printer) PrintProgram(prog *Program) error {
	p.printf("program %s\n", prog.Name)
	for _, fn := range Items(prog) {
		p.printf("\n")
		p.PrintFunc(fn)
	}
	return p.err
}

// PrintFunc prints one item header and body.
func (p *Printer) PrintFunc(fn *Func) {
	p.printf("%s %s#%d", fn.Kind, fn.Name, fn.ID)
	p.printGenerics(fn.Generics)
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = p.patStr(param.Pat) + ": " + p.typeStr(param.Type)
	}
	p.printf("(%s) -> %s", strings.Join(params, ", "), p.typeStr(fn.Result))
	if fn.Parent != nil {
		p.printf(" in %s#%d", fn.Parent.Name, fn.Parent.ID)
	}
	if !fn.HasBody() {
		p.printf(";\n")
		return
	}
	p.printf(" ")
	p.printBlock(fn.Body)
	p.printf("\n")
}

func (p *Printer) printGenerics(g *Generics) {
	if g == nil {
		return
	}
	var parts []string
	for level := g; level != nil; level = level.Parent {
		own := make([]string, 0, len(level.Params))
		for _, gp := range level.Params {
			own = append(own, p.boundsStr(gp.Name, gp.Bounds, gp.MaybeUnsized))
		}
		parts = append(own, parts...)
	}
	if len(parts) > 0 {
		p.printf("<%s>", strings.Join(parts, ", "))
	}
	for _, wp := range g.Where {
		switch wp.Kind {
		case WhereEq:
			p.printf(" where %s == %s", p.typeStr(wp.Type), p.typeStr(wp.Eq))
		default:
			p.printf(" where %s", p.boundsStr(p.typeStr(wp.Type), wp.Bounds, wp.MaybeUnsized))
		}
	}
}

func (p *Printer) boundsStr(name string, bounds []types.TraitID, maybeUnsized bool) string {
	names := make([]string, 0, len(bounds)+1)
	if maybeUnsized {
		names = append(names, "?Sized")
	}
	for _, b := range bounds {
		names = append(names, p.interner.TraitName(b))
	}
	if len(names) == 0 {
		return name
	}
	return name + ": " + strings.Join(names, " + ")
}

func (p *Printer) printBlock(b *Block) {
	p.printf("{\n")
	p.indent++
	for i := range b.Stmts {
		p.printIndent()
		p.printStmt(&b.Stmts[i])
		p.printf("\n")
	}
	if b.Tail != nil {
		p.printIndent()
		p.printExpr(b.Tail)
		p.printf("\n")
	}
	p.indent--
	p.printIndent()
	p.printf("}")
}

func (p *Printer) printStmt(s *Stmt) {
	switch data := s.Data.(type) {
	case LetData:
		p.printf("let %s", p.patStr(data.Pat))
		if data.Type != types.NoTypeID {
			p.printf(": %s", p.typeStr(data.Type))
		}
		if data.Init != nil {
			p.printf(" = ")
			p.printExpr(data.Init)
		}
		p.printf(";")
	case ExprStmtData:
		p.printExpr(data.Expr)
		p.printf(";")
	case AssignData:
		p.printExpr(data.Target)
		p.printf(" %s= ", data.Op)
		p.printExpr(data.Value)
		p.printf(";")
	case ReturnData:
		p.printf("return")
		if data.Value != nil {
			p.printf(" ")
			p.printExpr(data.Value)
		}
		p.printf(";")
	case BreakData:
		p.printf("break")
		if data.Value != nil {
			p.printf(" ")
			p.printExpr(data.Value)
		}
		p.printf(";")
	case ContinueData:
		p.printf("continue;")
	case WhileData:
		p.printf("while ")
		p.printExpr(data.Cond)
		p.printf(" ")
		p.printBlock(data.Body)
	case LoopData:
		p.printf("loop ")
		p.printBlock(data.Body)
	case ForData:
		p.printf("for %s in ", p.patStr(data.Pat))
		p.printExpr(data.Iter)
		p.printf(" ")
		p.printBlock(data.Body)
	case BlockStmtData:
		p.printBlock(data.Block)
	default:
		p.printf("<%s>", s.Kind)
	}
}

func (p *Printer) printExpr(e *Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}
	switch data := e.Data.(type) {
	case LiteralData:
		p.printf("%s", data.Text)
	case VarData:
		p.printf("%s", data.Name)
	case PathData:
		p.printf("%s", data.Name)
	case DerefData:
		p.printf("*")
		p.printExpr(data.Operand)
	case RefData:
		if data.Mutable {
			p.printf("&mut ")
		} else {
			p.printf("&")
		}
		p.printExpr(data.Operand)
	case UnaryData:
		p.printf("%s", data.Op)
		p.printExpr(data.Operand)
	case BinaryData:
		p.printf("(")
		p.printExpr(data.Left)
		p.printf(" %s ", data.Op)
		p.printExpr(data.Right)
		p.printf(")")
	case CallData:
		p.printExpr(data.Callee)
		p.printArgs(data.Args)
	case MethodCallData:
		p.printExpr(data.Receiver)
		p.printf(".%s", data.Method)
		p.printArgs(data.Args)
	case FieldData:
		p.printExpr(data.Base)
		p.printf(".%s", data.Name)
	case IndexData:
		p.printExpr(data.Base)
		p.printf("[")
		p.printExpr(data.Index)
		p.printf("]")
	case StructData:
		p.printf("%s { ", data.Name)
		for i, f := range data.Fields {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: ", f.Name)
			p.printExpr(f.Value)
		}
		if data.Base != nil {
			if len(data.Fields) > 0 {
				p.printf(", ")
			}
			p.printf("..")
			p.printExpr(data.Base)
		}
		p.printf(" }")
	case ListData:
		open, closing := "[", "]"
		if e.Kind == ExprTuple {
			open, closing = "(", ")"
		}
		p.printf("%s", open)
		for i, el := range data.Elems {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(el)
		}
		p.printf("%s", closing)
	case RepeatData:
		p.printf("[")
		p.printExpr(data.Elem)
		p.printf("; %d]", data.Count)
	case CastData:
		p.printExpr(data.Value)
		p.printf(" as %s", p.typeStr(data.Target))
	case IfData:
		p.printf("if ")
		p.printExpr(data.Cond)
		p.printf(" ")
		p.printBlock(data.Then)
		if data.Else != nil {
			p.printf(" else ")
			p.printExpr(data.Else)
		}
	case MatchData:
		p.printf("match ")
		p.printExpr(data.Scrutinee)
		p.printf(" {\n")
		p.indent++
		for _, arm := range data.Arms {
			p.printIndent()
			p.printf("%s", p.patStr(arm.Pat))
			if arm.Guard != nil {
				p.printf(" if ")
				p.printExpr(arm.Guard)
			}
			p.printf(" => ")
			p.printExpr(arm.Body)
			p.printf(",\n")
		}
		p.indent--
		p.printIndent()
		p.printf("}")
	case BlockData:
		p.printBlock(data.Block)
	case ClosureData:
		caps := make([]string, len(data.Captures))
		for i, c := range data.Captures {
			switch {
			case c.ByRef && c.Mutable:
				caps[i] = "&mut " + c.Name
			case c.ByRef:
				caps[i] = "&" + c.Name
			default:
				caps[i] = c.Name
			}
		}
		id := FuncID(0)
		if data.Func != nil {
			id = data.Func.ID
		}
		p.printf("closure#%d[%s]", id, strings.Join(caps, ", "))
	case BoxData:
		p.printf("Box::new(")
		p.printExpr(data.Value)
		p.printf(")")
	default:
		p.printf("<%s>", e.Kind)
	}
	p.printf(" /*%s*/", p.typeStr(e.Type))
}

func (p *Printer) printArgs(args []*Expr) {
	p.printf("(")
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(a)
	}
	p.printf(")")
}

func (p *Printer) patStr(pat *Pattern) string {
	if pat == nil {
		return "_"
	}
	switch data := pat.Data.(type) {
	case BindingData:
		s := data.Name
		if data.Mutable {
			s = "mut " + s
		}
		if data.ByRef {
			s = "ref " + s
		}
		if data.Sub != nil {
			s += " @ " + p.patStr(data.Sub)
		}
		return s
	case TuplePatData:
		parts := make([]string, len(data.Elems))
		for i, el := range data.Elems {
			parts[i] = p.patStr(el)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case StructPatData:
		parts := make([]string, len(data.Fields))
		for i, f := range data.Fields {
			parts[i] = f.Name + ": " + p.patStr(f.Pat)
		}
		return data.Name + " { " + strings.Join(parts, ", ") + " }"
	case LiteralPatData:
		return data.Text
	case RefPatData:
		if data.Mutable {
			return "&mut " + p.patStr(data.Inner)
		}
		return "&" + p.patStr(data.Inner)
	default:
		return "_"
	}
}

func (p *Printer) typeStr(id types.TypeID) string {
	if id == types.NoTypeID {
		return "()"
	}
	return types.Label(p.interner, id)
}

func (p *Printer) printIndent() {
	p.printf("%s", strings.Repeat("  ", p.indent))
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

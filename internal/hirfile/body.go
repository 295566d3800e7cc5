package hirfile

import (
	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/types"
)

// locals is a lexical scope of local variable types.
type locals struct {
	parent *locals
	vars   map[string]types.TypeID
}

func newLocals(parent *locals) *locals {
	return &locals{parent: parent, vars: make(map[string]types.TypeID)}
}

func (s *locals) lookup(name string) (types.TypeID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if ty, ok := sc.vars[name]; ok {
			return ty, true
		}
	}
	return types.NoTypeID, false
}

// bodyCtx is the lowering state of one function body.
type bodyCtx struct {
	fn     *hir.Func
	scope  *typeScope
	locals *locals
}

func (cx *bodyCtx) nested() *bodyCtx {
	return &bodyCtx{fn: cx.fn, scope: cx.scope, locals: newLocals(cx.locals)}
}

func (l *loader) bind(p *hir.Pattern, cx *bodyCtx) {
	if p == nil {
		return
	}
	for _, b := range p.Bindings() {
		if data, ok := b.Data.(hir.BindingData); ok {
			cx.locals.vars[data.Name] = l.bindingType(b)
		}
	}
}

func (l *loader) lowerBody(pb pendingBody) {
	cx := &bodyCtx{fn: pb.fn, scope: pb.scope, locals: newLocals(nil)}
	for _, p := range pb.fn.Params {
		l.bind(p.Pat, cx)
	}
	pb.fn.Body = l.block(pb.node, cx)
}

var stmtKinds = map[string]bool{
	"let": true, "expr": true, "assign": true, "return": true, "break": true,
	"continue": true, "while": true, "loop": true, "for": true, "block": true, "tail": true,
}

// block lowers a statement sequence. Any other node is a block whose tail
// is that expression.
func (l *loader) block(n *yaml.Node, outer *bodyCtx) *hir.Block {
	cx := outer.nested()
	b := &hir.Block{Span: l.span(n)}
	if n == nil || n.Kind != yaml.SequenceNode {
		if !isNull(n) {
			b.Tail = l.expr(n, cx)
		}
		return b
	}
	for i, item := range n.Content {
		key, val := kindKey(item, stmtKinds)
		if key == "tail" {
			if i != len(n.Content)-1 {
				l.errorf(item, diag.SynBadStmt, "tail expression must be the last entry of a block")
			}
			b.Tail = l.expr(val, cx)
			continue
		}
		if st, ok := l.stmt(item, key, val, cx); ok {
			b.Stmts = append(b.Stmts, st)
		}
	}
	return b
}

func (l *loader) blockType(b *hir.Block) types.TypeID {
	if b == nil || b.Tail == nil {
		return l.in.Builtins().Unit
	}
	return b.Tail.Type
}

func (l *loader) stmt(n *yaml.Node, key string, val *yaml.Node, cx *bodyCtx) (hir.Stmt, bool) {
	st := hir.Stmt{Span: l.span(n)}
	switch key {
	case "let":
		var init *hir.Expr
		if in := mapGet(n, "init"); !isNull(in) {
			init = l.expr(in, cx)
		}
		declared := types.NoTypeID
		if tn := mapGet(n, "type"); !isNull(tn) {
			declared = l.typeOr(tn, cx.scope, l.in.Builtins().Invalid)
		}
		ty := declared
		switch {
		case ty != types.NoTypeID:
		case init != nil:
			ty = init.Type
		default:
			ty = l.freshVar()
		}
		pat := l.pattern(val, ty, cx.scope)
		l.bind(pat, cx)
		st.Kind, st.Data = hir.StmtLet, hir.LetData{Pat: pat, Type: declared, Init: init}
	case "expr":
		st.Kind, st.Data = hir.StmtExpr, hir.ExprStmtData{Expr: l.expr(val, cx)}
	case "assign":
		st.Kind, st.Data = hir.StmtAssign, hir.AssignData{
			Op:     scalarString(mapGet(n, "op")),
			Target: l.expr(val, cx),
			Value:  l.expr(mapGet(n, "value"), cx),
		}
	case "return":
		data := hir.ReturnData{}
		if !isNull(val) {
			data.Value = l.expr(val, cx)
		}
		st.Kind, st.Data = hir.StmtReturn, data
	case "break":
		data := hir.BreakData{}
		if !isNull(val) {
			data.Value = l.expr(val, cx)
		}
		st.Kind, st.Data = hir.StmtBreak, data
	case "continue":
		st.Kind, st.Data = hir.StmtContinue, hir.ContinueData{}
	case "while":
		st.Kind, st.Data = hir.StmtWhile, hir.WhileData{
			Cond: l.expr(val, cx),
			Body: l.block(mapGet(n, "body"), cx),
		}
	case "loop":
		st.Kind, st.Data = hir.StmtLoop, hir.LoopData{Body: l.block(val, cx)}
	case "for":
		iter := l.expr(mapGet(n, "in"), cx)
		inner := cx.nested()
		itemTy := l.typeOr(mapGet(n, "type"), cx.scope, l.iterItem(iter.Type))
		pat := l.pattern(val, itemTy, cx.scope)
		l.bind(pat, inner)
		st.Kind, st.Data = hir.StmtFor, hir.ForData{Pat: pat, Iter: iter, Body: l.block(mapGet(n, "body"), inner)}
	case "block":
		st.Kind, st.Data = hir.StmtBlock, hir.BlockStmtData{Block: l.block(val, cx)}
	default:
		if n == nil {
			return st, false
		}
		st.Kind, st.Data = hir.StmtExpr, hir.ExprStmtData{Expr: l.expr(n, cx)}
	}
	return st, true
}

// iterItem guesses the item type of a for loop over ty.
func (l *loader) iterItem(ty types.TypeID) types.TypeID {
	tt, ok := l.in.Lookup(ty)
	if !ok {
		return l.freshVar()
	}
	switch tt.Kind {
	case types.KindArray:
		return tt.Elem
	case types.KindReference:
		if inner, ok := l.in.Lookup(tt.Elem); ok && inner.Kind == types.KindArray {
			return l.in.Intern(types.MakeReference(inner.Elem, tt.Mutable))
		}
	}
	return l.freshVar()
}

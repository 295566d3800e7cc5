package euv

import (
	"rvcheck/internal/hir"
	"rvcheck/internal/infer"
	"rvcheck/internal/types"
)

// Walk classifies every use in item's body and reports it to d. Items
// without a body produce no events. Closures nested in the body are not
// entered; only their captures are classified here.
func Walk(item *hir.Func, cx *infer.Ctxt, d Delegate) error {
	if !item.HasBody() {
		return nil
	}
	w := &walker{cx: cx, d: d}
	for _, p := range item.Params {
		w.walkPat(p.Pat)
	}
	w.walkBlock(item.Body)
	return w.err
}

type walker struct {
	cx  *infer.Ctxt
	d   Delegate
	err error
}

func (w *walker) emit(ev Event) {
	if w.err != nil {
		return
	}
	w.err = w.d.Use(ev)
}

func (w *walker) copyOrMove(ty types.TypeID) ConsumeMode {
	isCopy, err := w.cx.IsCopy(w.cx.ResolveVars(ty))
	if err != nil || !isCopy {
		return Move
	}
	return Copy
}

func (w *walker) delegateConsume(node hir.NodeID, e *hir.Expr, ty types.TypeID) {
	w.emit(Event{Mode: UseConsume, Node: node, Span: e.Span, Type: ty, Consume: w.copyOrMove(ty)})
}

func (w *walker) consumeExpr(e *hir.Expr) {
	if e == nil || w.err != nil {
		return
	}
	w.delegateConsume(e.ID, e, e.Type)
	w.walkExpr(e)
}

func (w *walker) consumeExprs(es []*hir.Expr) {
	for _, e := range es {
		w.consumeExpr(e)
	}
}

func (w *walker) borrowExpr(e *hir.Expr, kind BorrowKind, cause LoanCause) {
	if e == nil || w.err != nil {
		return
	}
	w.emit(Event{Mode: UseBorrow, Node: e.ID, Span: e.Span, Type: e.Type, Borrow: kind, Cause: cause})
	w.walkExpr(e)
}

func (w *walker) mutateExpr(e *hir.Expr, mode MutateMode) {
	if e == nil || w.err != nil {
		return
	}
	w.emit(Event{Mode: UseMutate, Node: e.ID, Span: e.Span, Type: e.Type, Mutate: mode})
	w.walkExpr(e)
}

func (w *walker) walkBlock(b *hir.Block) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		if w.err != nil {
			return
		}
		w.walkStmt(&b.Stmts[i])
	}
	w.consumeExpr(b.Tail)
}

func (w *walker) walkStmt(s *hir.Stmt) {
	switch data := s.Data.(type) {
	case hir.LetData:
		if data.Init == nil {
			w.declWithoutInit(data.Pat)
			return
		}
		w.walkExpr(data.Init)
		w.walkPat(data.Pat)
	case hir.ExprStmtData:
		w.consumeExpr(data.Expr)
	case hir.AssignData:
		mode := JustWrite
		if data.Op != "" {
			mode = WriteAndRead
		}
		w.mutateExpr(data.Target, mode)
		w.consumeExpr(data.Value)
	case hir.ReturnData:
		w.consumeExpr(data.Value)
	case hir.BreakData:
		w.consumeExpr(data.Value)
	case hir.ContinueData:
	case hir.WhileData:
		w.consumeExpr(data.Cond)
		w.walkBlock(data.Body)
	case hir.LoopData:
		w.walkBlock(data.Body)
	case hir.ForData:
		w.consumeExpr(data.Iter)
		w.walkPat(data.Pat)
		w.walkBlock(data.Body)
	case hir.BlockStmtData:
		w.walkBlock(data.Block)
	}
}

func (w *walker) declWithoutInit(pat *hir.Pattern) {
	if pat == nil {
		return
	}
	for _, b := range pat.Bindings() {
		name := ""
		if data, ok := b.Data.(hir.BindingData); ok {
			name = data.Name
		}
		w.emit(Event{Mode: UseDeclNoInit, Node: b.ID, Span: b.Span, Type: b.Type, Name: name})
	}
}

func (w *walker) walkExpr(e *hir.Expr) {
	if e == nil || w.err != nil {
		return
	}
	switch data := e.Data.(type) {
	case hir.LiteralData, hir.VarData, hir.PathData:
	case hir.DerefData:
		w.walkExpr(data.Operand)
	case hir.FieldData:
		w.walkExpr(data.Base)
	case hir.IndexData:
		w.walkExpr(data.Base)
		w.consumeExpr(data.Index)
	case hir.RefData:
		kind := BorrowShared
		if data.Mutable {
			kind = BorrowMut
		}
		w.borrowExpr(data.Operand, kind, LoanAddrOf)
	case hir.UnaryData:
		w.consumeExpr(data.Operand)
	case hir.BinaryData:
		w.consumeExpr(data.Left)
		w.consumeExpr(data.Right)
	case hir.CastData:
		w.consumeExpr(data.Value)
	case hir.CallData:
		w.walkCallee(data.Callee)
		w.consumeExprs(data.Args)
	case hir.MethodCallData:
		switch data.Mode {
		case hir.RecvRef:
			w.borrowExpr(data.Receiver, BorrowShared, LoanAutoRef)
		case hir.RecvRefMut:
			w.borrowExpr(data.Receiver, BorrowMut, LoanAutoRef)
		default:
			w.consumeExpr(data.Receiver)
		}
		w.consumeExprs(data.Args)
	case hir.StructData:
		for _, f := range data.Fields {
			w.consumeExpr(f.Value)
		}
		w.walkStructBase(e, data)
	case hir.ListData:
		w.consumeExprs(data.Elems)
	case hir.RepeatData:
		w.consumeExpr(data.Elem)
	case hir.BoxData:
		w.consumeExpr(data.Value)
	case hir.IfData:
		w.consumeExpr(data.Cond)
		w.walkBlock(data.Then)
		w.consumeExpr(data.Else)
	case hir.MatchData:
		w.borrowExpr(data.Scrutinee, BorrowShared, LoanMatchDiscriminant)
		for _, arm := range data.Arms {
			w.walkPat(arm.Pat)
			w.consumeExpr(arm.Guard)
			w.consumeExpr(arm.Body)
		}
	case hir.BlockData:
		w.walkBlock(data.Block)
	case hir.ClosureData:
		w.walkCaptures(e, data)
	}
}

// walkCallee consumes fn items and fn pointers; anything else is a closure
// invoked through a borrow.
func (w *walker) walkCallee(callee *hir.Expr) {
	if callee == nil {
		return
	}
	ty := w.cx.ResolveVars(callee.Type)
	if tt, ok := w.cx.Types().Lookup(ty); ok && tt.Kind != types.KindFn && tt.Kind != types.KindInfer {
		w.borrowExpr(callee, BorrowShared, LoanClosureInvocation)
		return
	}
	w.consumeExpr(callee)
}

// walkStructBase consumes, field by field, whatever a functional update
// takes from its base expression.
func (w *walker) walkStructBase(lit *hir.Expr, data hir.StructData) {
	base := data.Base
	if base == nil {
		return
	}
	w.walkExpr(base)
	listed := make(map[string]struct{}, len(data.Fields))
	for _, f := range data.Fields {
		listed[f.Name] = struct{}{}
	}
	in := w.cx.Types()
	for _, f := range in.StructFields(w.cx.ResolveVars(lit.Type)) {
		name, _ := in.Strings.Lookup(f.Name)
		if _, ok := listed[name]; ok {
			continue
		}
		w.delegateConsume(base.ID, base, f.Type)
	}
}

func (w *walker) walkCaptures(closure *hir.Expr, data hir.ClosureData) {
	for _, c := range data.Captures {
		if c.ByRef {
			kind := BorrowShared
			if c.Mutable {
				kind = BorrowMut
			}
			w.emit(Event{Mode: UseBorrow, Node: closure.ID, Span: closure.Span, Type: c.Type, Name: c.Name, Borrow: kind, Cause: LoanClosureCapture})
			continue
		}
		w.emit(Event{Mode: UseConsume, Node: closure.ID, Span: closure.Span, Type: c.Type, Name: c.Name, Consume: w.copyOrMove(c.Type)})
	}
}

func (w *walker) walkPat(pat *hir.Pattern) {
	if pat == nil || w.err != nil {
		return
	}
	switch data := pat.Data.(type) {
	case hir.WildData:
	case hir.BindingData:
		if data.ByRef {
			kind := BorrowShared
			if data.Mutable {
				kind = BorrowMut
			}
			w.emit(Event{Mode: UseBorrow, Node: pat.ID, Span: pat.Span, Type: pat.Type, Name: data.Name, Borrow: kind, Cause: LoanRefBinding})
		} else {
			mode := MatchMoving
			if w.copyOrMove(pat.Type) == Copy {
				mode = MatchCopying
			}
			w.emit(Event{Mode: UseMatch, Node: pat.ID, Span: pat.Span, Type: pat.Type, Name: data.Name, Match: mode})
		}
		w.walkPat(data.Sub)
	case hir.TuplePatData:
		w.matchNonBinding(pat)
		for _, el := range data.Elems {
			w.walkPat(el)
		}
	case hir.StructPatData:
		w.matchNonBinding(pat)
		for _, f := range data.Fields {
			w.walkPat(f.Pat)
		}
	case hir.RefPatData:
		w.matchNonBinding(pat)
		w.walkPat(data.Inner)
	case hir.LiteralPatData:
		w.matchNonBinding(pat)
	}
}

func (w *walker) matchNonBinding(pat *hir.Pattern) {
	w.emit(Event{Mode: UseMatch, Node: pat.ID, Span: pat.Span, Type: pat.Type, Match: MatchNonBinding})
}

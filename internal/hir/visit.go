package hir

// Items returns every function-like item of prog exactly once: top-level
// items in declaration order, each followed by the closures nested in it
// (pre-order).
func Items(prog *Program) []*Func {
	if prog == nil {
		return nil
	}
	out := make([]*Func, 0, len(prog.Funcs))
	var visit func(fn *Func)
	visit = func(fn *Func) {
		out = append(out, fn)
		for _, c := range Closures(fn) {
			visit(c)
		}
	}
	for _, fn := range prog.Funcs {
		visit(fn)
	}
	return out
}

// Closures lists the closures directly nested in fn's body.
func Closures(fn *Func) []*Func {
	if !fn.HasBody() {
		return nil
	}
	var out []*Func
	InspectBlock(fn.Body, func(e *Expr) bool {
		if e.Kind == ExprClosure {
			if data, ok := e.Data.(ClosureData); ok && data.Func != nil {
				out = append(out, data.Func)
			}
		}
		return true
	})
	return out
}

// InspectBlock calls fn for every expression in b in evaluation order.
// Closure bodies belong to their own item and are not entered. Returning
// false from fn skips the children of that expression.
func InspectBlock(b *Block, fn func(*Expr) bool) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		inspectStmt(&b.Stmts[i], fn)
	}
	InspectExpr(b.Tail, fn)
}

func inspectStmt(s *Stmt, fn func(*Expr) bool) {
	switch data := s.Data.(type) {
	case LetData:
		InspectExpr(data.Init, fn)
	case ExprStmtData:
		InspectExpr(data.Expr, fn)
	case AssignData:
		InspectExpr(data.Target, fn)
		InspectExpr(data.Value, fn)
	case ReturnData:
		InspectExpr(data.Value, fn)
	case BreakData:
		InspectExpr(data.Value, fn)
	case WhileData:
		InspectExpr(data.Cond, fn)
		InspectBlock(data.Body, fn)
	case LoopData:
		InspectBlock(data.Body, fn)
	case ForData:
		InspectExpr(data.Iter, fn)
		InspectBlock(data.Body, fn)
	case BlockStmtData:
		InspectBlock(data.Block, fn)
	}
}

// InspectExpr is InspectBlock for a single expression tree.
func InspectExpr(e *Expr, fn func(*Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch data := e.Data.(type) {
	case DerefData:
		InspectExpr(data.Operand, fn)
	case RefData:
		InspectExpr(data.Operand, fn)
	case UnaryData:
		InspectExpr(data.Operand, fn)
	case BinaryData:
		InspectExpr(data.Left, fn)
		InspectExpr(data.Right, fn)
	case CallData:
		InspectExpr(data.Callee, fn)
		for _, a := range data.Args {
			InspectExpr(a, fn)
		}
	case MethodCallData:
		InspectExpr(data.Receiver, fn)
		for _, a := range data.Args {
			InspectExpr(a, fn)
		}
	case FieldData:
		InspectExpr(data.Base, fn)
	case IndexData:
		InspectExpr(data.Base, fn)
		InspectExpr(data.Index, fn)
	case StructData:
		for _, f := range data.Fields {
			InspectExpr(f.Value, fn)
		}
		InspectExpr(data.Base, fn)
	case ListData:
		for _, el := range data.Elems {
			InspectExpr(el, fn)
		}
	case RepeatData:
		InspectExpr(data.Elem, fn)
	case CastData:
		InspectExpr(data.Value, fn)
	case IfData:
		InspectExpr(data.Cond, fn)
		InspectBlock(data.Then, fn)
		InspectExpr(data.Else, fn)
	case MatchData:
		InspectExpr(data.Scrutinee, fn)
		for _, arm := range data.Arms {
			InspectExpr(arm.Guard, fn)
			InspectExpr(arm.Body, fn)
		}
	case BlockData:
		InspectBlock(data.Block, fn)
	case BoxData:
		InspectExpr(data.Value, fn)
	}
}

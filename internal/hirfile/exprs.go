package hirfile

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/types"
)

var exprKinds = map[string]bool{
	"var": true, "lit": true, "path": true, "deref": true, "ref": true, "ref_mut": true,
	"neg": true, "not": true, "binary": true, "call": true, "method": true, "field": true,
	"index": true, "struct": true, "tuple": true, "array": true, "repeat": true, "cast": true,
	"if": true, "match": true, "block": true, "closure": true, "box": true,
}

func (l *loader) newExpr(n *yaml.Node, kind hir.ExprKind, ty types.TypeID, data hir.ExprData) *hir.Expr {
	return &hir.Expr{ID: l.prog.NewNodeID(), Kind: kind, Type: ty, Span: l.span(n), Data: data}
}

func (l *loader) invalidExpr(n *yaml.Node) *hir.Expr {
	return l.newExpr(n, hir.ExprLiteral, l.in.Builtins().Invalid, hir.LiteralData{})
}

// expr lowers an expression node. An explicit `type:` entry overrides the
// computed type.
func (l *loader) expr(n *yaml.Node, cx *bodyCtx) *hir.Expr {
	if n == nil {
		l.errorf(n, diag.SynBadExpr, "missing expression")
		return l.invalidExpr(n)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return l.scalarExpr(n, cx)
	case yaml.MappingNode:
	default:
		l.errorf(n, diag.SynBadExpr, "expected an expression")
		return l.invalidExpr(n)
	}
	key, val := kindKey(n, exprKinds)
	if key == "" {
		l.errorf(n, diag.SynBadExpr, "unknown expression form")
		return l.invalidExpr(n)
	}
	e := l.exprOf(n, key, val, cx)
	if key != "cast" {
		if tn := mapGet(n, "type"); !isNull(tn) {
			if ty, ok := l.typeAt(tn, cx.scope); ok {
				e.Type = ty
			}
		}
	}
	return e
}

func (l *loader) scalarExpr(n *yaml.Node, cx *bodyCtx) *hir.Expr {
	b := l.in.Builtins()
	switch n.ShortTag() {
	case "!!int":
		return l.newExpr(n, hir.ExprLiteral, b.I32, hir.LiteralData{Kind: hir.LiteralInt, Text: n.Value})
	case "!!float":
		return l.newExpr(n, hir.ExprLiteral, b.F64, hir.LiteralData{Kind: hir.LiteralFloat, Text: n.Value})
	case "!!bool":
		return l.newExpr(n, hir.ExprLiteral, b.Bool, hir.LiteralData{Kind: hir.LiteralBool, Text: n.Value})
	case "!!null":
		return l.newExpr(n, hir.ExprTuple, b.Unit, hir.ListData{})
	}
	if n.Style == yaml.DoubleQuotedStyle || n.Style == yaml.SingleQuotedStyle {
		return l.stringLit(n)
	}
	name := ident(n.Value)
	if ty, ok := cx.locals.lookup(name); ok {
		return l.newExpr(n, hir.ExprVar, ty, hir.VarData{Name: name})
	}
	if fn, ok := l.funcs[name]; ok {
		return l.newExpr(n, hir.ExprPath, l.fnType(fn), hir.PathData{Name: name})
	}
	l.errorf(n, diag.SynUnknownName, "unknown name %q", name)
	return l.invalidExpr(n)
}

func (l *loader) stringLit(n *yaml.Node) *hir.Expr {
	ty := l.in.Intern(types.MakeReference(l.in.Builtins().Str, false))
	return l.newExpr(n, hir.ExprLiteral, ty, hir.LiteralData{Kind: hir.LiteralString, Text: n.Value})
}

func (l *loader) fnType(fn *hir.Func) types.TypeID {
	params := make([]types.TypeID, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Type)
	}
	return l.in.Fn(params, fn.Result)
}

func (l *loader) exprs(items []*yaml.Node, cx *bodyCtx) []*hir.Expr {
	out := make([]*hir.Expr, 0, len(items))
	for _, item := range items {
		out = append(out, l.expr(item, cx))
	}
	return out
}

//nolint:gocyclo // one case per expression form
func (l *loader) exprOf(n *yaml.Node, key string, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	b := l.in.Builtins()
	switch key {
	case "var":
		name := ident(scalarString(val))
		ty, ok := cx.locals.lookup(name)
		if !ok {
			l.errorf(val, diag.SynUnknownName, "unknown local %q", name)
			ty = b.Invalid
		}
		return l.newExpr(n, hir.ExprVar, ty, hir.VarData{Name: name})
	case "lit":
		return l.literal(n, val)
	case "path":
		name := ident(scalarString(val))
		fn, ok := l.funcs[name]
		if !ok {
			l.errorf(val, diag.SynUnknownName, "unknown function %q", name)
			return l.newExpr(n, hir.ExprPath, b.Invalid, hir.PathData{Name: name})
		}
		return l.newExpr(n, hir.ExprPath, l.fnType(fn), hir.PathData{Name: name})
	case "deref":
		operand := l.expr(val, cx)
		ty := l.freshVar()
		if tt, ok := l.in.Lookup(operand.Type); ok {
			switch tt.Kind {
			case types.KindReference, types.KindPointer, types.KindBox:
				ty = tt.Elem
			}
		}
		return l.newExpr(n, hir.ExprDeref, ty, hir.DerefData{Operand: operand})
	case "ref", "ref_mut":
		operand := l.expr(val, cx)
		mutable := key == "ref_mut"
		ty := l.in.Intern(types.MakeReference(operand.Type, mutable))
		return l.newExpr(n, hir.ExprRef, ty, hir.RefData{Mutable: mutable, Operand: operand})
	case "neg", "not":
		operand := l.expr(val, cx)
		op := "-"
		if key == "not" {
			op = "!"
		}
		return l.newExpr(n, hir.ExprUnary, operand.Type, hir.UnaryData{Op: op, Operand: operand})
	case "binary":
		op := scalarString(val)
		lhs := l.expr(mapGet(n, "lhs"), cx)
		rhs := l.expr(mapGet(n, "rhs"), cx)
		ty := lhs.Type
		switch op {
		case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
			ty = b.Bool
		case "":
			l.errorf(n, diag.SynBadExpr, "binary expression without an operator")
		}
		return l.newExpr(n, hir.ExprBinary, ty, hir.BinaryData{Op: op, Left: lhs, Right: rhs})
	case "call":
		return l.call(n, val, cx)
	case "method":
		return l.methodCall(n, val, cx)
	case "field":
		return l.field(n, val, cx)
	case "index":
		base := l.expr(val, cx)
		idx := l.expr(mapGet(n, "at"), cx)
		ty := l.freshVar()
		if tt, ok := l.in.Lookup(l.autoDeref(base.Type)); ok && tt.Kind == types.KindArray {
			ty = tt.Elem
		}
		return l.newExpr(n, hir.ExprIndex, ty, hir.IndexData{Base: base, Index: idx})
	case "struct":
		return l.structLit(n, val, cx)
	case "tuple":
		elems := l.exprs(seqItems(val), cx)
		tys := make([]types.TypeID, len(elems))
		for i, e := range elems {
			tys[i] = e.Type
		}
		return l.newExpr(n, hir.ExprTuple, l.in.Tuple(tys), hir.ListData{Elems: elems})
	case "array":
		elems := l.exprs(seqItems(val), cx)
		var elemTy types.TypeID
		if len(elems) > 0 {
			elemTy = elems[0].Type
		} else {
			elemTy = l.freshVar()
		}
		ty := l.in.Intern(types.MakeArray(elemTy, l.count(len(elems), n)))
		return l.newExpr(n, hir.ExprArray, ty, hir.ListData{Elems: elems})
	case "repeat":
		elem := l.expr(val, cx)
		cnt, err := strconv.ParseUint(scalarString(mapGet(n, "count")), 10, 32)
		if err != nil {
			l.errorf(mapGet(n, "count"), diag.SynBadExpr, "repeat count: %v", err)
		}
		ty := l.in.Intern(types.MakeArray(elem.Type, uint32(cnt)))
		return l.newExpr(n, hir.ExprRepeat, ty, hir.RepeatData{Elem: elem, Count: uint32(cnt)})
	case "cast":
		value := l.expr(val, cx)
		target, ok := l.typeAt(mapGet(n, "to"), cx.scope)
		if !ok {
			target = b.Invalid
		}
		return l.newExpr(n, hir.ExprCast, target, hir.CastData{Value: value, Target: target})
	case "if":
		return l.ifExpr(n, val, cx)
	case "match":
		return l.matchExpr(n, val, cx)
	case "block":
		blk := l.block(val, cx)
		return l.newExpr(n, hir.ExprBlock, l.blockType(blk), hir.BlockData{Block: blk})
	case "closure":
		return l.closure(n, val, cx)
	case "box":
		value := l.expr(val, cx)
		return l.newExpr(n, hir.ExprBox, l.in.Intern(types.MakeBox(value.Type)), hir.BoxData{Value: value})
	}
	l.errorf(n, diag.SynBadExpr, "unsupported expression %q", key)
	return l.invalidExpr(n)
}

func (l *loader) count(n int, at *yaml.Node) uint32 {
	c, err := safecast.Conv[uint32](n)
	if err != nil {
		l.errorf(at, diag.SynBadExpr, "too many elements")
	}
	return c
}

func (l *loader) literal(n, val *yaml.Node) *hir.Expr {
	b := l.in.Builtins()
	if !isScalar(val) {
		l.errorf(val, diag.SynBadExpr, "literal must be a scalar")
		return l.invalidExpr(n)
	}
	switch val.ShortTag() {
	case "!!int":
		return l.newExpr(n, hir.ExprLiteral, b.I32, hir.LiteralData{Kind: hir.LiteralInt, Text: val.Value})
	case "!!float":
		return l.newExpr(n, hir.ExprLiteral, b.F64, hir.LiteralData{Kind: hir.LiteralFloat, Text: val.Value})
	case "!!bool":
		return l.newExpr(n, hir.ExprLiteral, b.Bool, hir.LiteralData{Kind: hir.LiteralBool, Text: val.Value})
	}
	if r := []rune(val.Value); len(r) == 3 && r[0] == '\'' && r[2] == '\'' {
		return l.newExpr(n, hir.ExprLiteral, b.Char, hir.LiteralData{Kind: hir.LiteralChar, Text: val.Value})
	}
	e := l.stringLit(val)
	e.Span = l.span(n)
	return e
}

func (l *loader) call(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	callee := l.expr(val, cx)
	args := l.exprs(seqItems(mapGet(n, "args")), cx)
	result := l.freshVar()
	if callee.Kind == hir.ExprPath {
		if fn, ok := l.funcs[callee.Data.(hir.PathData).Name]; ok {
			params := genericSet(fn.Generics)
			bind := make(map[types.TypeID]types.TypeID)
			for i, a := range args {
				if i < len(fn.Params) {
					l.unify(fn.Params[i].Type, a.Type, params, bind)
				}
			}
			callee.Type = l.instantiate(l.fnType(fn), params, bind)
		}
	}
	if info, ok := l.in.FnInfo(callee.Type); ok {
		if len(info.Params) != len(args) {
			l.errorf(n, diag.SynBadExpr, "call passes %d argument(s), callee takes %d", len(args), len(info.Params))
		}
		result = info.Result
	}
	return l.newExpr(n, hir.ExprCall, result, hir.CallData{Callee: callee, Args: args})
}

// lookupMethod finds a method named name whose self type matches the
// receiver type or one of its auto-deref steps.
func (l *loader) lookupMethod(name string, recv types.TypeID) (*methodSig, map[types.TypeID]types.TypeID) {
	sigs := l.methods[name]
	for ty, depth := recv, 0; depth < 8; depth++ {
		for _, sig := range sigs {
			params := genericSet(sig.fn.Generics, sig.params...)
			bind := make(map[types.TypeID]types.TypeID)
			l.unify(sig.selfTy, ty, params, bind)
			if l.in.SubstMap(sig.selfTy, bind) == ty {
				return sig, bind
			}
		}
		tt, ok := l.in.Lookup(ty)
		if !ok {
			break
		}
		switch tt.Kind {
		case types.KindReference, types.KindPointer, types.KindBox:
			ty = tt.Elem
		default:
			return nil, nil
		}
	}
	return nil, nil
}

func (l *loader) methodCall(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	name := ident(scalarString(val))
	recv := l.expr(mapGet(n, "recv"), cx)
	args := l.exprs(seqItems(mapGet(n, "args")), cx)
	data := hir.MethodCallData{Receiver: recv, Method: name, Mode: hir.RecvRef, Args: args}
	result := l.freshVar()

	if sig, bind := l.lookupMethod(name, recv.Type); sig != nil {
		data.Mode = sig.mode
		params := genericSet(sig.fn.Generics, sig.params...)
		declared := sig.fn.Params
		if sig.hasSelf && len(declared) > 0 {
			declared = declared[1:]
		}
		for i, a := range args {
			if i < len(declared) {
				l.unify(declared[i].Type, a.Type, params, bind)
			}
		}
		result = l.instantiate(sig.fn.Result, params, bind)
	}
	if mn := mapGet(n, "mode"); !isNull(mn) {
		mode, ok := receiverMode(scalarString(mn))
		if !ok {
			l.errorf(mn, diag.SynBadExpr, "receiver mode must be value, ref or ref_mut")
		}
		data.Mode = mode
	}
	return l.newExpr(n, hir.ExprMethodCall, result, data)
}

func (l *loader) field(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	base := l.expr(val, cx)
	name := ident(scalarString(mapGet(n, "name")))
	data := hir.FieldData{Base: base, Name: name, Index: -1}
	ty := l.freshVar()
	owner := l.autoDeref(base.Type)
	tt, _ := l.in.Lookup(owner)
	switch tt.Kind {
	case types.KindStruct:
		idx, fty, ok := l.in.FieldIndex(owner, name)
		if !ok {
			l.errorf(mapGet(n, "name"), diag.SynUnknownField, "%s has no field %q", types.Label(l.in, owner), name)
			break
		}
		data.Index, ty = idx, fty
	case types.KindTuple:
		elems := l.in.TupleElems(owner)
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= len(elems) {
			l.errorf(mapGet(n, "name"), diag.SynUnknownField, "%s has no field %q", types.Label(l.in, owner), name)
			break
		}
		data.Index, ty = idx, elems[idx]
	}
	return l.newExpr(n, hir.ExprField, ty, data)
}

func (l *loader) structLit(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	name := ident(scalarString(val))
	def, ok := l.structs[name]
	if !ok {
		l.errorf(val, diag.SynUnknownType, "unknown struct %q", name)
		return l.invalidExpr(n)
	}
	info, _ := l.in.StructDef(def)
	data := hir.StructData{Name: name}
	mapPairs(mapGet(n, "fields"), func(k, v *yaml.Node) {
		data.Fields = append(data.Fields, hir.FieldInit{Name: ident(k.Value), Value: l.expr(v, cx), Span: l.span(k)})
	})
	if bn := mapGet(n, "base"); !isNull(bn) {
		data.Base = l.expr(bn, cx)
	}

	params := make(map[types.TypeID]bool, len(info.Params))
	for _, p := range info.Params {
		params[p] = true
	}
	bind := make(map[types.TypeID]types.TypeID)
	generic := l.in.StructInstance(def, info.Params)
	for _, f := range data.Fields {
		_, fty, ok := l.in.FieldIndex(generic, f.Name)
		if !ok {
			l.errorf(n, diag.SynUnknownField, "struct %s has no field %q", name, f.Name)
			continue
		}
		l.unify(fty, f.Value.Type, params, bind)
	}
	if data.Base != nil {
		l.unify(generic, data.Base.Type, params, bind)
	}
	args := make([]types.TypeID, len(info.Params))
	for i, p := range info.Params {
		if ty, ok := bind[p]; ok {
			args[i] = ty
		} else {
			args[i] = l.freshVar()
		}
	}
	return l.newExpr(n, hir.ExprStruct, l.in.StructInstance(def, args), data)
}

func (l *loader) ifExpr(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	data := hir.IfData{Cond: l.expr(val, cx), Then: l.block(mapGet(n, "then"), cx)}
	if en := mapGet(n, "else"); !isNull(en) {
		if key, _ := kindKey(en, exprKinds); key == "if" {
			data.Else = l.expr(en, cx)
		} else {
			blk := l.block(en, cx)
			data.Else = l.newExpr(en, hir.ExprBlock, l.blockType(blk), hir.BlockData{Block: blk})
		}
	}
	ty := l.blockType(data.Then)
	if data.Else == nil {
		ty = l.in.Builtins().Unit
	}
	return l.newExpr(n, hir.ExprIf, ty, data)
}

func (l *loader) matchExpr(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	data := hir.MatchData{Scrutinee: l.expr(val, cx)}
	ty := l.in.Builtins().Never
	for i, an := range seqItems(mapGet(n, "arms")) {
		inner := cx.nested()
		pat := l.pattern(mapGet(an, "pat"), data.Scrutinee.Type, cx.scope)
		l.bind(pat, inner)
		arm := hir.Arm{Pat: pat, Span: l.span(an)}
		if g := mapGet(an, "guard"); !isNull(g) {
			arm.Guard = l.expr(g, inner)
		}
		body := mapGet(an, "body")
		if body != nil && body.Kind == yaml.SequenceNode {
			blk := l.block(body, inner)
			arm.Body = l.newExpr(body, hir.ExprBlock, l.blockType(blk), hir.BlockData{Block: blk})
		} else {
			arm.Body = l.expr(body, inner)
		}
		if i == 0 {
			ty = arm.Body.Type
		}
		data.Arms = append(data.Arms, arm)
	}
	return l.newExpr(n, hir.ExprMatch, ty, data)
}

// closure lowers `{closure: {params, body, captures, result}}`. The closure
// becomes its own item sharing the enclosing writeback table.
func (l *loader) closure(n, val *yaml.Node, cx *bodyCtx) *hir.Expr {
	fn := &hir.Func{
		ID:     l.prog.NewFuncID(),
		Name:   fmt.Sprintf("%s::{closure#%d}", cx.fn.Name, l.closures[cx.fn.Root()]),
		Kind:   hir.FuncClosure,
		Span:   l.span(n),
		Typeck: cx.fn.Typeck,
		Parent: cx.fn,
	}
	l.closures[cx.fn.Root()]++

	var captures []hir.Capture
	for _, c := range seqItems(mapGet(val, "captures")) {
		name, by := ident(scalarString(c)), "value"
		if c.Kind == yaml.MappingNode {
			name = ident(scalarString(mapGet(c, "name")))
			if bn := mapGet(c, "by"); !isNull(bn) {
				by = scalarString(bn)
			}
		}
		ty, ok := cx.locals.lookup(name)
		if !ok {
			l.errorf(c, diag.SynUnknownName, "closure captures unknown local %q", name)
			continue
		}
		capture := hir.Capture{Name: name, Type: ty, Span: l.span(c)}
		switch by {
		case "value":
		case "ref":
			capture.ByRef = true
		case "ref_mut":
			capture.ByRef, capture.Mutable = true, true
		default:
			l.errorf(c, diag.SynBadExpr, "capture mode must be value, ref or ref_mut")
		}
		captures = append(captures, capture)
	}

	inner := cx.nested()
	inner.fn = fn
	paramTys := make([]types.TypeID, 0)
	for _, p := range seqItems(mapGet(val, "params")) {
		param, ok := l.param(p, cx.scope)
		if !ok {
			continue
		}
		fn.Params = append(fn.Params, param)
		paramTys = append(paramTys, param.Type)
		l.bind(param.Pat, inner)
	}
	fn.Body = l.block(mapGet(val, "body"), inner)
	fn.Result = l.typeOr(mapGet(val, "result"), cx.scope, l.blockType(fn.Body))

	return l.newExpr(n, hir.ExprClosure, l.in.Fn(paramTys, fn.Result), hir.ClosureData{Func: fn, Captures: captures})
}

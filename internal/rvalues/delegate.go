package rvalues

import (
	"context"
	"errors"

	"rvcheck/internal/diag"
	"rvcheck/internal/euv"
	"rvcheck/internal/hir"
	"rvcheck/internal/infer"
	"rvcheck/internal/sized"
	"rvcheck/internal/trace"
	"rvcheck/internal/types"
)

// delegate reacts to classified uses of one item. Only consumes matter.
type delegate struct {
	ctx  context.Context
	item *hir.Func
	cx   *infer.Ctxt
	r    diag.Reporter

	consumes int
	reported int
}

func (d *delegate) Use(ev euv.Event) error {
	switch ev.Mode {
	case euv.UseConsume:
		return d.consume(ev)
	case euv.UseBorrow:
	case euv.UseMutate:
	case euv.UseMatch:
	case euv.UseDeclNoInit:
	}
	return nil
}

func (d *delegate) consume(ev euv.Event) error {
	d.consumes++
	in := d.cx.Types()
	ty, err := d.cx.Lift(ev.Type)
	if err != nil {
		return d.invariant(ev, ev.Type, err)
	}
	ok, err := sized.IsSized(d.cx, ty)
	if err != nil {
		return d.invariant(ev, ty, err)
	}
	if ok {
		return nil
	}
	// проекции в сообщении показываются уже нормализованными
	if norm, err := d.cx.Normalize(ty); err == nil {
		ty = norm
	}
	label := types.Label(in, ty)
	trace.Point(d.ctx, trace.ScopeNode, "unsized-move", label)
	d.reported++
	reportUnsizedMove(d.r, ev.Span, label)
	return nil
}

func (d *delegate) invariant(ev euv.Event, ty types.TypeID, err error) error {
	ie := &InvariantError{Func: d.item, Span: ev.Span, Type: ty, Err: err}
	if !errors.Is(err, infer.ErrUnresolved) {
		ie.label = types.Label(d.cx.Types(), ty)
	}
	return ie
}

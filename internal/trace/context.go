package trace

import (
	"context"
	"time"
)

type ctxKey struct{}

// FromContext extracts the Tracer from context, Nop when absent.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext is what nested spans inherit: the enclosing span and the
// worker lane the work runs on.
type SpanContext struct {
	SpanID uint64
	// Lane is 1 + the index of the file or item in a parallel check, 0 on
	// the main goroutine.
	Lane int
}

type spanCtxKey struct{}

// CurrentSpan retrieves the active span context, zero if none.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches span context.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	if ctx == nil {
		return nil
	}
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// WithLane marks ctx as running the index-th (0-based) job of a parallel check.
func WithLane(ctx context.Context, index int) context.Context {
	if !FromContext(ctx).Enabled() {
		return ctx
	}
	sc := CurrentSpan(ctx)
	sc.Lane = index + 1
	return WithSpanContext(ctx, sc)
}

// Start begins a span under the span recorded in ctx and returns a context
// carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (*Span, context.Context) {
	sc := CurrentSpan(ctx)
	span := Begin(FromContext(ctx), scope, name, sc.SpanID, sc.Lane)
	if span.ID() == 0 {
		return span, ctx
	}
	return span, WithSpanContext(ctx, SpanContext{SpanID: span.ID(), Lane: sc.Lane})
}

// Point emits an instant event under the span recorded in ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	t := FromContext(ctx)
	if !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	sc := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: sc.SpanID,
		Lane:     sc.Lane,
		Name:     name,
		Detail:   detail,
	})
}

package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
	// открытые спаны и имя последнего закрытого, для heartbeat
	openSpans atomic.Int64
	lastEnded atomic.Value
)

// NextSeq returns a monotonically increasing sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a unique span ID.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// OpenSpans reports how many spans have begun but not ended yet.
func OpenSpans() int64 { return openSpans.Load() }

// LastEnded returns the name of the most recently ended span.
func LastEnded() string {
	if s, ok := lastEnded.Load().(string); ok {
		return s
	}
	return ""
}

// Span is one traced operation: a file check, a pass or an item.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	lane    int
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

var disabledSpan = &Span{tracer: Nop}

// Begin opens a span below parent (0 for a root) on the given worker lane.
// Spans filtered out by the tracer level are shared no-op values.
func Begin(t Tracer, scope Scope, name string, parent uint64, lane int) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return disabledSpan
	}
	s := &Span{
		tracer:  t,
		id:      NextSpanID(),
		parent:  parent,
		lane:    lane,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	openSpans.Add(1)
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	ev := &Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Lane:     s.lane,
		Name:     s.name,
		Detail:   detail,
	}
	if kind == KindSpanEnd {
		ev.Extra = s.extra
	}
	return ev
}

// End closes the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.id == 0 {
		return 0
	}
	now := time.Now()
	openSpans.Add(-1)
	lastEnded.Store(s.name)
	s.tracer.Emit(s.event(KindSpanEnd, now, detail))
	return now.Sub(s.started)
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.id == 0 {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for disabled spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

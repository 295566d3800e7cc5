// Package trace records what the checker is doing: driver phases, passes,
// and per-item work.
//
// # Usage
//
//	rvcheck check --trace=- --trace-level=detail demo.hir.yaml
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer dumped on crash
//   - MultiTracer: fan-out
//
// # Levels and scopes
//
// LevelPhase emits ScopeDriver and ScopePass spans, LevelDetail adds
// ScopeItem spans (one per checked function), LevelDebug adds ScopeNode
// points for individual uses.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span, ctx := trace.Start(ctx, trace.ScopePass, "rvalues")
//	defer span.End("")
package trace

package rvalues

import (
	"fmt"
	"strings"

	"rvcheck/internal/hir"
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// InvariantError reports a consumed type that could not be decided because
// an earlier phase left it incomplete: an unresolved inference variable, an
// ambiguous projection or a recursive trailing field. It aborts the
// containing item only.
type InvariantError struct {
	Func *hir.Func
	Span source.Span
	Type types.TypeID
	// label is the rendered type, captured while the interner is at hand.
	label string
	Err   error
}

func (e *InvariantError) Error() string {
	name := "<nil>"
	if e.Func != nil {
		name = e.Func.Name
	}
	if e.label != "" {
		return fmt.Sprintf("%s: consumed value of type %s: %v", name, e.label, e.Err)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Failure lists every item aborted by an InvariantError during one Check.
type Failure struct {
	Items []*InvariantError
}

func (f *Failure) Error() string {
	if len(f.Items) == 1 {
		return "rvalues: internal error in " + f.Items[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "rvalues: internal errors in %d items", len(f.Items))
	for _, it := range f.Items {
		b.WriteString("\n  ")
		b.WriteString(it.Error())
	}
	return b.String()
}

// Unwrap exposes the per-item errors to errors.Is and errors.As.
func (f *Failure) Unwrap() []error {
	out := make([]error, len(f.Items))
	for i, it := range f.Items {
		out[i] = it
	}
	return out
}

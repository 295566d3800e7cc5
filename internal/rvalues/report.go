package rvalues

import (
	"fmt"

	"rvcheck/internal/diag"
	"rvcheck/internal/source"
)

// reportUnsizedMove emits SEM3161 for a by-value use of an unsized type.
func reportUnsizedMove(r diag.Reporter, span source.Span, label string) {
	msg := fmt.Sprintf("cannot move a value of type %[1]s: the size of %[1]s cannot be statically determined", label)
	diag.ReportError(r, diag.SemaMoveUnsized, span, msg).Emit()
}

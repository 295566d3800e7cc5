// Package diag defines the diagnostic model shared by the loader, the
// unsized-move pass and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//     SEM3161 is the unsized-move error; SEM3162 marks an internal failure.
//   - Message: short human oriented text.
//   - Primary: the source.Span pointing at the offending expression.
//   - Notes: optional secondary spans with extra context.
//
// # Emitting diagnostics
//
// Phases talk to a Reporter, never to storage. ReportError/ReportWarning build
// a ReportBuilder; chain WithNote and finish with Emit. BagReporter collects
// into a Bag, which is optionally limited, concurrency-safe on Add, and can be
// merged and sorted once producers are done. Identical diagnostics are kept.
//
// Rendering lives in internal/diagfmt; FormatGoldenDiagnostics here is the
// stable one-line form used by tests and the "short" CLI format.
package diag

// Package rvalues checks that every value moved out of a place or a
// temporary has a statically known size.
//
// Unsized types (`dyn Trait`, `[T]`, `str`, foreign types, and aggregates
// whose last field is unsized) may live behind references, raw pointers
// and boxes, but a by-value use of one is reported as SEM3161:
//
//	cannot move a value of type dyn Tr: the size of dyn Tr cannot be statically determined
//
// The checker visits every function-like item (closures included) once.
// Each item gets its own parameter environment and resolution context, so
// items never observe each other's state and may be checked in parallel.
package rvalues

// Package euv classifies how every expression of a function body is used
// and reports each use to a Delegate.
//
// A use is one of five modes: consumed (moved or copied out), borrowed,
// mutated, matched by a pattern, or declared without an initializer. The
// classification follows the ownership rules of the source language:
// operands, arguments and initializers of aggregates are consumed, the
// operands of & and auto-ref receivers are borrowed, assignment targets
// are mutated, and pattern bindings are matched. Place expressions (*e,
// e.f, e[i]) do not consume their base.
package euv

import (
	"rvcheck/internal/hir"
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

// UseMode tags an Event.
type UseMode uint8

const (
	UseConsume UseMode = iota
	UseBorrow
	UseMutate
	UseMatch
	UseDeclNoInit
)

func (m UseMode) String() string {
	switch m {
	case UseConsume:
		return "consume"
	case UseBorrow:
		return "borrow"
	case UseMutate:
		return "mutate"
	case UseMatch:
		return "match"
	case UseDeclNoInit:
		return "decl"
	default:
		return "?"
	}
}

// ConsumeMode says whether a consumed value is copied or moved.
type ConsumeMode uint8

const (
	Copy ConsumeMode = iota
	Move
)

func (m ConsumeMode) String() string {
	if m == Copy {
		return "copy"
	}
	return "move"
}

// BorrowKind is the mutability of a borrow.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowMut
)

// LoanCause explains where a borrow comes from.
type LoanCause uint8

const (
	LoanAddrOf LoanCause = iota
	LoanAutoRef
	LoanRefBinding
	LoanMatchDiscriminant
	LoanClosureCapture
	LoanClosureInvocation
)

func (c LoanCause) String() string {
	switch c {
	case LoanAddrOf:
		return "addr-of"
	case LoanAutoRef:
		return "auto-ref"
	case LoanRefBinding:
		return "ref-binding"
	case LoanMatchDiscriminant:
		return "match-discriminant"
	case LoanClosureCapture:
		return "closure-capture"
	case LoanClosureInvocation:
		return "closure-invocation"
	default:
		return "?"
	}
}

// MutateMode distinguishes plain from compound assignment.
type MutateMode uint8

const (
	JustWrite MutateMode = iota
	WriteAndRead
)

// MatchMode describes how a pattern uses the matched value.
type MatchMode uint8

const (
	MatchNonBinding MatchMode = iota
	MatchCopying
	MatchMoving
)

// Event is one classified use.
type Event struct {
	Mode UseMode
	Node hir.NodeID
	Span source.Span
	// Type may still mention inference variables; the delegate resolves it.
	Type types.TypeID
	// Name is the binding name for UseMatch and UseDeclNoInit on bindings.
	Name string

	Consume ConsumeMode
	Borrow  BorrowKind
	Cause   LoanCause
	Mutate  MutateMode
	Match   MatchMode
}

// Delegate receives classified uses. A non-nil error stops the walk.
type Delegate interface {
	Use(ev Event) error
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(ev Event) error

// Use calls f.
func (f DelegateFunc) Use(ev Event) error {
	return f(ev)
}

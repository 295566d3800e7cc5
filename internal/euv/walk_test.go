package euv

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/hirfile"
	"rvcheck/internal/infer"
	"rvcheck/internal/paramenv"
	"rvcheck/internal/source"
	"rvcheck/internal/types"
)

var matchNames = [...]string{"nonbinding", "copying", "moving"}

func describe(cx *infer.Ctxt, ev Event) string {
	label := types.Label(cx.Types(), cx.ResolveVars(ev.Type))
	parts := []string{ev.Mode.String()}
	switch ev.Mode {
	case UseConsume:
		parts = append(parts, ev.Consume.String())
	case UseBorrow:
		kind := "shared"
		if ev.Borrow == BorrowMut {
			kind = "mut"
		}
		parts = append(parts, kind, ev.Cause.String())
	case UseMutate:
		if ev.Mutate == WriteAndRead {
			parts = append(parts, "write+read")
		} else {
			parts = append(parts, "write")
		}
	case UseMatch:
		parts = append(parts, matchNames[ev.Match])
	}
	if ev.Name != "" && ev.Mode != UseConsume && ev.Mode != UseBorrow {
		parts = append(parts, ev.Name)
	}
	return strings.Join(append(parts, label), " ")
}

func load(t *testing.T, doc string) *hir.Program {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(100)
	prog, err := hirfile.LoadBytes(fs, "t.hir.yaml", []byte(doc), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("load diagnostics:\n%s", diag.FormatGoldenDiagnostics(bag.Items(), fs, false))
	}
	return prog
}

func findFunc(t *testing.T, prog *hir.Program, name string) *hir.Func {
	t.Helper()
	for _, fn := range prog.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

// walk returns the described events of item name together with the raw ones.
func walk(t *testing.T, prog *hir.Program, name string) ([]string, []Event) {
	t.Helper()
	fn := findFunc(t, prog, name)
	var got []string
	var raw []Event
	tcx := infer.Tcx{Types: prog.Types, Traits: prog.Traits}
	err := infer.Enter(tcx, paramenv.ForItem(prog, fn), fn.Typeck, func(cx *infer.Ctxt) error {
		return Walk(fn, cx, DelegateFunc(func(ev Event) error {
			got = append(got, describe(cx, ev))
			raw = append(raw, ev)
			return nil
		}))
	})
	if err != nil {
		t.Fatalf("walk %s: %v", name, err)
	}
	return got, raw
}

func expectEvents(t *testing.T, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("events mismatch\n got: %s\nwant: %s", strings.Join(got, "\n      "), strings.Join(want, "\n      "))
	}
}

func TestWalkStatements(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: f
    params: [{name: b, type: "Box<i32>"}, {name: n, type: i32}]
    body:
      - let: mut y
        type: i32
      - assign: y
        value: n
      - assign: y
        op: "+="
        value: 1
      - let: r
        init: {ref: b}
      - tail: {deref: b}
`)
	got, _ := walk(t, prog, "f")
	expectEvents(t, got, []string{
		"match moving b Box<i32>",
		"match copying n i32",
		"decl y i32",
		"mutate write i32",
		"consume copy i32",
		"mutate write+read i32",
		"consume copy i32",
		"borrow shared addr-of Box<i32>",
		"match copying r &Box<i32>",
		"consume copy i32",
	})
}

func TestWalkMatchBorrowsScrutinee(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: h
    params: [{name: n, type: i32}]
    result: i32
    body:
      - tail:
          match: n
          arms:
            - pat: 0
              body: 1
            - pat: v
              guard: {binary: ">", lhs: v, rhs: 0}
              body: v
`)
	got, _ := walk(t, prog, "h")
	expectEvents(t, got, []string{
		"match copying n i32",
		"consume copy i32",
		"borrow shared match-discriminant i32",
		"match nonbinding i32",
		"consume copy i32",
		"match copying v i32",
		"consume copy bool",
		"consume copy i32",
		"consume copy i32",
		"consume copy i32",
	})
}

func TestWalkPlaceExpressionsDoNotConsumeBase(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: take
    generics: {params: [{name: T, maybe_unsized: true}]}
    params: [{name: v, type: T}]
  - name: f
    params: [{name: x, type: "Box<[i32]>"}]
    body:
      - expr: {call: take, args: [{deref: x}]}
`)
	got, raw := walk(t, prog, "f")
	if slices.Contains(got, "consume move Box<[i32]>") {
		t.Fatalf("deref must not consume its operand: %v", got)
	}
	if !slices.Contains(got, "consume move [i32]") {
		t.Fatalf("argument must be consumed: %v", got)
	}
	for _, ev := range raw {
		if ev.Mode == UseConsume && ev.Consume == Move && ev.Type == types.NoTypeID {
			t.Fatalf("consume without a type: %+v", ev)
		}
	}
}

func TestWalkClosureCapturesUseClosureSpan(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: g
    params: [{name: s, type: "Box<i32>"}, {name: t, type: "&str"}]
    body:
      - let: c
        init:
          closure:
            captures: [s, {name: t, by: ref}]
            body:
              - tail: 1
      - expr: {call: c, args: []}
`)
	got, raw := walk(t, prog, "g")
	if !slices.Contains(got, "consume move Box<i32>") {
		t.Fatalf("by-value capture must be consumed: %v", got)
	}
	if !slices.Contains(got, "borrow shared closure-capture &str") {
		t.Fatalf("by-ref capture must be borrowed: %v", got)
	}

	fn := findFunc(t, prog, "g")
	closure := fn.Body.Stmts[0].Data.(hir.LetData).Init
	captures := 0
	for _, ev := range raw {
		if ev.Name == "s" || ev.Name == "t" {
			if ev.Mode == UseMatch {
				continue
			}
			captures++
			if ev.Span != closure.Span || ev.Node != closure.ID {
				t.Fatalf("capture %s reported at %+v, want closure span %+v", ev.Name, ev.Span, closure.Span)
			}
		}
	}
	if captures != 2 {
		t.Fatalf("expected 2 capture events, got %d", captures)
	}
}

func TestWalkStructBaseConsumesRemainingFields(t *testing.T) {
	prog := load(t, `version: "1.0"
structs:
  - name: Pair
    fields: [{name: a, type: i32}, {name: b, type: "Box<i32>"}]
functions:
  - name: f
    params: [{name: p, type: Pair}]
    result: Pair
    body:
      - tail: {struct: Pair, fields: {a: 1}, base: p}
`)
	got, raw := walk(t, prog, "f")
	expectEvents(t, got, []string{
		"match moving p Pair",
		"consume move Pair",
		"consume copy i32",
		"consume move Box<i32>",
	})
	base := raw[len(raw)-1]
	data := findFunc(t, prog, "f").Body.Tail.Data.(hir.StructData)
	if base.Node != data.Base.ID {
		t.Fatalf("field taken from the base must be attributed to the base expression")
	}
}

func TestWalkMethodReceiverModes(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: f
    params: [{name: b, type: "Box<i32>"}]
    body:
      - expr: {method: touch, recv: b, mode: ref_mut, type: "()"}
      - expr: {method: eat, recv: b, mode: value, type: "()"}
`)
	got, _ := walk(t, prog, "f")
	if !slices.Contains(got, "borrow mut auto-ref Box<i32>") {
		t.Fatalf("ref_mut receiver must be borrowed mutably: %v", got)
	}
	if !slices.Contains(got, "consume move Box<i32>") {
		t.Fatalf("by-value receiver must be consumed: %v", got)
	}
}

func TestWalkStopsOnDelegateError(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: f
    params: [{name: a, type: i32}, {name: b, type: i32}]
    body:
      - tail: {binary: "+", lhs: a, rhs: b}
`)
	fn := findFunc(t, prog, "f")
	stop := errors.New("stop")
	calls := 0
	tcx := infer.Tcx{Types: prog.Types, Traits: prog.Traits}
	err := infer.Enter(tcx, paramenv.ForItem(prog, fn), fn.Typeck, func(cx *infer.Ctxt) error {
		return Walk(fn, cx, DelegateFunc(func(Event) error {
			calls++
			return stop
		}))
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected delegate error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("walk continued after error: %d calls", calls)
	}
}

func TestWalkItemWithoutBody(t *testing.T) {
	prog := load(t, `version: "1.0"
functions:
  - name: decl
    params: [{name: v, type: i32}]
`)
	got, _ := walk(t, prog, "decl")
	if len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
}

func TestUseModeStrings(t *testing.T) {
	for _, tc := range []struct {
		got, want string
	}{
		{UseConsume.String(), "consume"},
		{UseDeclNoInit.String(), "decl"},
		{Move.String(), "move"},
		{LoanClosureInvocation.String(), "closure-invocation"},
		{fmt.Sprint(UseMode(42)), "?"},
	} {
		if tc.got != tc.want {
			t.Fatalf("got %q, want %q", tc.got, tc.want)
		}
	}
}

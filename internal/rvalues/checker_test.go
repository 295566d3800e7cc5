package rvalues

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/hirfile"
	"rvcheck/internal/infer"
	"rvcheck/internal/source"
)

const prelude = `version: "1.0"
traits:
  - name: Trait
structs:
  - name: Holder
    generics: {params: [{name: T, maybe_unsized: true}]}
    fields: [{name: n, type: i32}, {name: data, type: T}]
foreign: [Opaque]
`

// helpers shared by every scenario: take<T: ?Sized>(v: T), take_ref<T: ?Sized>(v: &T)
const helpers = `  - name: take
    generics: {params: [{name: T, maybe_unsized: true}]}
    params: [{name: v, type: T}]
  - name: take_ref
    generics: {params: [{name: T, bounds: ["?Sized"]}]}
    params: [{name: v, type: "&T"}]
`

type result struct {
	prog  *hir.Program
	fs    *source.FileSet
	diags []diag.Diagnostic
	err   error
}

func runCheck(t *testing.T, functions string, jobs int) result {
	t.Helper()
	return runDoc(t, prelude+"functions:\n"+helpers+functions, jobs)
}

func runDoc(t *testing.T, doc string, jobs int) result {
	t.Helper()
	fs := source.NewFileSet()
	loadBag := diag.NewBag(100)
	prog, err := hirfile.LoadBytes(fs, "t.hir.yaml", []byte(doc), diag.BagReporter{Bag: loadBag})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loadBag.HasErrors() {
		t.Fatalf("load diagnostics:\n%s", diag.FormatGoldenDiagnostics(loadBag.Items(), fs, false))
	}
	bag := diag.NewBag(100)
	err = New(Config{Jobs: jobs}).Check(context.Background(), prog, diag.BagReporter{Bag: bag})
	return result{prog: prog, fs: fs, diags: bag.Items(), err: err}
}

func (r result) golden() string {
	return diag.FormatGoldenDiagnostics(r.diags, r.fs, false)
}

// position returns the 1-based line and column of needle in the checked document.
func (r result) position(t *testing.T, needle string) (uint32, uint32) {
	t.Helper()
	content := string(r.fs.Get(r.prog.File).Content)
	idx := strings.Index(content, needle)
	if idx < 0 {
		t.Fatalf("needle %q not in document", needle)
	}
	line := uint32(strings.Count(content[:idx], "\n") + 1)
	col := uint32(idx - strings.LastIndex(content[:idx], "\n"))
	return line, col
}

func (r result) requireAt(t *testing.T, d diag.Diagnostic, needle string) {
	t.Helper()
	wantLine, wantCol := r.position(t, needle)
	start, _ := r.fs.Resolve(d.Primary)
	if start.Line != wantLine || start.Col != wantCol {
		t.Fatalf("diagnostic at %d:%d, want %d:%d (%q)", start.Line, start.Col, wantLine, wantCol, needle)
	}
}

func requireCount(t *testing.T, r result, want int) {
	t.Helper()
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if len(r.diags) != want {
		t.Fatalf("want %d diagnostics, got %d:\n%s", want, len(r.diags), r.golden())
	}
}

func TestMovingBoxedTraitObjectContents(t *testing.T) {
	r := runCheck(t, `  - name: f
    params: [{name: x, type: "Box<dyn Trait>"}]
    body:
      - expr: {call: take, args: [{deref: x}]}
`, 1)
	requireCount(t, r, 1)
	d := r.diags[0]
	if d.Code != diag.SemaMoveUnsized || d.Severity != diag.SevError {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	want := "cannot move a value of type dyn Trait: the size of dyn Trait cannot be statically determined"
	if d.Message != want {
		t.Fatalf("message:\n got %q\nwant %q", d.Message, want)
	}
	r.requireAt(t, d, "{deref: x}")
}

func TestTraitObjectLocalPassedByValue(t *testing.T) {
	r := runCheck(t, `  - name: f
    params: [{name: x, type: "dyn Trait"}]
    body:
      - expr: {call: take, args: [x]}
`, 1)
	requireCount(t, r, 1)
	r.requireAt(t, r.diags[0], "x]}")
	if !strings.Contains(r.diags[0].Message, "dyn Trait") {
		t.Fatalf("diagnostic must name the trait object: %q", r.diags[0].Message)
	}
}

func TestTwoMovesAreTwoDiagnostics(t *testing.T) {
	r := runCheck(t, `  - name: f
    params: [{name: s, type: "[u8]"}]
    body:
      - expr: {call: take, args: [s]}
      - {call: take, args: [s]}
`, 1)
	requireCount(t, r, 2)
	first, _ := r.fs.Resolve(r.diags[0].Primary)
	second, _ := r.fs.Resolve(r.diags[1].Primary)
	if first.Line == second.Line {
		t.Fatalf("diagnostics must point at distinct sites:\n%s", r.golden())
	}
	for _, d := range r.diags {
		if !strings.HasPrefix(d.Message, "cannot move a value of type [u8]:") {
			t.Fatalf("unexpected message %q", d.Message)
		}
	}
}

func TestSizedGenericParameterMoves(t *testing.T) {
	r := runCheck(t, `  - name: g
    generics: {params: [T]}
    params: [{name: x, type: T}]
    body:
      - expr: {call: take, args: [x]}
`, 1)
	requireCount(t, r, 0)
}

func TestMaybeUnsizedParameterBehindReference(t *testing.T) {
	r := runCheck(t, `  - name: h
    generics: {params: [{name: T, bounds: ["?Sized"]}]}
    params: [{name: x, type: "&T"}]
    body:
      - expr: {call: take_ref, args: [{ref: {deref: x}}]}
      - expr: {call: take_ref, args: [x]}
`, 1)
	requireCount(t, r, 0)

	r = runCheck(t, `  - name: h
    generics: {params: [{name: T, bounds: ["?Sized"]}]}
    params: [{name: x, type: "&T"}]
    body:
      - expr: {call: take, args: [{deref: x}]}
`, 1)
	requireCount(t, r, 1)
	if !strings.Contains(r.diags[0].Message, "type T:") {
		t.Fatalf("unexpected message %q", r.diags[0].Message)
	}
}

func TestBorrowMutateAndMatchByRefAreSilent(t *testing.T) {
	r := runCheck(t, `  - name: f
    params:
      - {name: s, type: "dyn Trait"}
      - {name: buf, type: "&mut [u8]"}
      - {name: o, type: "&Opaque"}
    body:
      - expr: {ref: s}
      - assign: {index: {deref: buf}, at: 0}
        value: {lit: 1, type: u8}
      - assign: {index: {deref: buf}, at: 1}
        op: "+"
        value: {lit: 2, type: u8}
      - expr:
          match: s
          arms:
            - {pat: "ref v", body: {call: take_ref, args: [v]}}
      - let: "ref r"
        init: {deref: o}
      - expr: {call: take_ref, args: [{ref: {deref: o}}]}
`, 1)
	requireCount(t, r, 0)
}

func TestForeignAndTrailingFieldAggregates(t *testing.T) {
	r := runCheck(t, `  - name: f
    params:
      - {name: o, type: "&Opaque"}
      - {name: h, type: "&Holder<str>"}
      - {name: p, type: "&(i32, [u8])"}
      - {name: ok, type: "&Holder<i32>"}
    body:
      - expr: {call: take, args: [{deref: o}]}
      - expr: {call: take, args: [{deref: h}]}
      - expr: {call: take, args: [{deref: p}]}
      - expr: {call: take, args: [{deref: ok}]}
`, 1)
	requireCount(t, r, 3)
	got := r.golden()
	for _, label := range []string{"type Opaque:", "type Holder<str>:", "type (i32, [u8]):"} {
		if !strings.Contains(got, label) {
			t.Fatalf("missing %q in:\n%s", label, got)
		}
	}
}

func TestFunctionalUpdateConsumesRemainingFields(t *testing.T) {
	r := runCheck(t, `  - name: f
    params: [{name: b, type: "&Holder<[u8]>"}]
    body:
      - let: h
        init: {struct: Holder, fields: {n: 1}, base: {deref: b}}
`, 1)
	requireCount(t, r, 1)
	if !strings.HasPrefix(r.diags[0].Message, "cannot move a value of type [u8]:") {
		t.Fatalf("unexpected message %q", r.diags[0].Message)
	}
	r.requireAt(t, r.diags[0], "{deref: b}")
}

func TestClosuresAreCheckedAsItems(t *testing.T) {
	r := runCheck(t, `  - name: outer
    params: [{name: s, type: "dyn Trait"}, {name: moved, type: "dyn Trait"}]
    body:
      - let: by_ref
        init:
          closure:
            captures: [{name: s, by: ref}]
            body: [{tail: 1}]
      - let: by_value
        init:
          closure:
            captures: [moved]
            body: [{tail: 2}]
      - let: moves_param
        init:
          closure:
            params: [{name: bytes, type: "[u8]"}]
            body:
              - expr: {call: take, args: [bytes]}
`, 1)
	requireCount(t, r, 2)
	got := r.golden()
	if !strings.Contains(got, "type dyn Trait:") || !strings.Contains(got, "type [u8]:") {
		t.Fatalf("unexpected diagnostics:\n%s", got)
	}
	// captures are reported at the closure expression
	capLine, _ := r.position(t, "captures: [moved]")
	start, _ := r.fs.Resolve(r.diags[0].Primary)
	if start.Line != capLine-1 {
		t.Fatalf("capture reported on line %d, want %d", start.Line, capLine-1)
	}
}

func TestTraitDefaultMethodSelfMayBeUnsized(t *testing.T) {
	doc := `version: "1.0"
traits:
  - name: Show
    methods:
      - name: by_value
        self: value
        body:
          - expr: {call: take, args: [self]}
      - name: by_ref
        self: ref
        body:
          - expr: {call: take_ref, args: [self]}
          - expr: {call: take_ref, args: [{ref: {deref: self}}]}
  - name: Sized2
    methods:
      - name: sized_self
        generics: {params: [X]}
        params: [{name: x, type: X}]
        body:
          - expr: {call: take, args: [x]}
functions:
` + helpers
	r := runDoc(t, doc, 1)
	requireCount(t, r, 1)
	if !strings.Contains(r.diags[0].Message, "type Self:") {
		t.Fatalf("unexpected message %q", r.diags[0].Message)
	}
	r.requireAt(t, r.diags[0], "self]}")
}

func TestItemsWithoutBodiesAreSkipped(t *testing.T) {
	r := runCheck(t, `  - name: decl
    params: [{name: x, type: "dyn Trait"}]
`, 1)
	requireCount(t, r, 0)
	for _, fn := range r.prog.Funcs {
		if fn.Name == "decl" && fn.HasBody() {
			t.Fatalf("decl must not have a body")
		}
	}
}

func TestUnresolvedInferenceAbortsOnlyThatItem(t *testing.T) {
	r := runCheck(t, `  - name: broken
    body:
      - expr: {call: take_ref, args: [{lit: 1, type: "&?7"}]}
      - expr: {call: take, args: [{lit: "x", type: "str"}]}
  - name: solved
    infer: {7: "[u8]"}
    params: [{name: b, type: "&?7"}]
    body:
      - expr: {call: take, args: [{deref: b}]}
`, 1)
	if r.err == nil {
		t.Fatalf("expected a failure")
	}
	var failure *Failure
	if !errors.As(r.err, &failure) || len(failure.Items) != 1 {
		t.Fatalf("want one failed item, got %v", r.err)
	}
	if failure.Items[0].Func.Name != "broken" {
		t.Fatalf("wrong item failed: %s", failure.Items[0].Func.Name)
	}
	if !errors.Is(r.err, infer.ErrUnresolved) {
		t.Fatalf("failure must wrap ErrUnresolved: %v", r.err)
	}
	// broken stops at its first invariant violation; solved is still checked
	if len(r.diags) != 1 {
		t.Fatalf("want 1 diagnostic, got %d:\n%s", len(r.diags), r.golden())
	}
	if !strings.Contains(r.golden(), "type [u8]:") {
		t.Fatalf("solved variable must be reported as [u8]:\n%s", r.golden())
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	var b strings.Builder
	for i := range 12 {
		name := string(rune('a' + i))
		b.WriteString("  - name: f" + name + "\n")
		b.WriteString("    params: [{name: x, type: \"Box<[u8]>\"}, {name: y, type: \"&str\"}]\n")
		b.WriteString("    body:\n")
		b.WriteString("      - expr: {call: take, args: [{deref: x}]}\n")
		b.WriteString("      - expr: {call: take, args: [{deref: y}]}\n")
		b.WriteString("      - expr: {call: take, args: [y]}\n")
	}
	seq := runCheck(t, b.String(), 1)
	par := runCheck(t, b.String(), 4)
	requireCount(t, seq, 24)
	requireCount(t, par, 24)
	for i := range seq.diags {
		if seq.diags[i].Message != par.diags[i].Message || seq.diags[i].Primary != par.diags[i].Primary {
			t.Fatalf("diagnostic %d differs:\n seq %+v\n par %+v", i, seq.diags[i], par.diags[i])
		}
	}
}

func TestCancelledContextStops(t *testing.T) {
	doc := prelude + "functions:\n" + helpers
	fs := source.NewFileSet()
	prog, err := hirfile.LoadBytes(fs, "t.hir.yaml", []byte(doc), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = New(Config{}).Check(ctx, prog, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestDelegateIgnoresNonConsumingUses(t *testing.T) {
	r := runCheck(t, `  - name: f
    params: [{name: s, type: "dyn Trait"}]
    body:
      - let: later
        type: "&dyn Trait"
      - let: {ref: inner}
        init: {ref: s}
`, 1)
	requireCount(t, r, 0)
}

func TestMessageNamesNormalizedProjection(t *testing.T) {
	doc := `version: "1.0"
traits:
  - name: Tr
    assoc: [{name: A, maybe_unsized: true}]
impls:
  - trait: Tr
    for: i32
    assoc: {A: "[u8]"}
functions:
` + helpers + `  - name: f
    params: [{name: p, type: "&<i32 as Tr>::A"}]
    body:
      - expr: {call: take, args: [{deref: p}]}
`
	r := runDoc(t, doc, 1)
	if r.err != nil {
		t.Fatalf("check: %v", r.err)
	}
	requireCount(t, r, 1)
	want := "cannot move a value of type [u8]: the size of [u8] cannot be statically determined"
	if r.diags[0].Message != want {
		t.Fatalf("message = %q, want %q", r.diags[0].Message, want)
	}
}

package hirfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/source"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

const demoDoc = `version: "1.0"
name: demo
traits:
  - name: Tr
    assoc:
      - {name: A, maybe_unsized: true}
      - B
structs:
  - name: Wrapper
    generics: {params: [{name: T, maybe_unsized: true}]}
    fields:
      - {name: len, type: usize}
      - {name: data, type: T}
foreign: [Opaque]
impls:
  - trait: Tr
    for: i32
    assoc: {A: "[u8]", B: u8}
  - for: "Wrapper<T>"
    generics: {params: [T]}
    methods:
      - name: size
        self: ref
        result: usize
        body:
          - tail: {field: self, name: len}
functions:
  - name: g
    generics: {params: [T]}
    params: [{name: x, type: T}]
    result: T
    body:
      - tail: x
  - name: f
    generics:
      params: [{name: U, bounds: [Tr, "?Sized"]}]
      where: [{type: "<U as Tr>::A", bounds: [Sized]}]
    params:
      - {name: b, type: "Box<dyn Tr>"}
      - {name: w, type: "&Wrapper<str>"}
    body:
      - let: res
        init: {call: g, args: [1]}
      - expr: {method: size, recv: w}
      - tail: {deref: b}
  - name: decl
    params: [{name: o, type: "&Opaque"}]
`

func loadString(t *testing.T, doc string) (*hir.Program, *diag.Bag, *source.FileSet, error) {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(100)
	prog, err := LoadBytes(fs, "test.hir.yaml", []byte(doc), diag.BagReporter{Bag: bag})
	return prog, bag, fs, err
}

func findFunc(t *testing.T, prog *hir.Program, name string) *hir.Func {
	t.Helper()
	for _, fn := range hir.Items(prog) {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestLoadDemoDocument(t *testing.T) {
	prog, bag, fs, err := loadString(t, demoDoc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), diag.FormatGoldenDiagnostics(bag.Items(), fs, false))
	require.Equal(t, "demo", prog.Name)
	require.Len(t, prog.Funcs, 4)

	in := prog.Types
	f := findFunc(t, prog, "f")
	require.Len(t, f.Params, 2)
	require.Equal(t, "Box<dyn Tr>", types.Label(in, f.Params[0].Type))
	require.Equal(t, "&Wrapper<str>", types.Label(in, f.Params[1].Type))
	require.True(t, f.Generics.Params[0].MaybeUnsized)
	require.Len(t, f.Generics.Where, 1)

	require.NotNil(t, f.Body)
	require.Len(t, f.Body.Stmts, 2)
	let := f.Body.Stmts[0].Data.(hir.LetData)
	require.Equal(t, "i32", types.Label(in, let.Init.Type), "generic call result is instantiated")

	call := f.Body.Stmts[1].Data.(hir.ExprStmtData).Expr
	require.Equal(t, hir.ExprMethodCall, call.Kind)
	require.Equal(t, hir.RecvRef, call.Data.(hir.MethodCallData).Mode)
	require.Equal(t, "usize", types.Label(in, call.Type))

	require.Equal(t, hir.ExprDeref, f.Body.Tail.Kind)
	require.Equal(t, "dyn Tr", types.Label(in, f.Body.Tail.Type))

	decl := findFunc(t, prog, "decl")
	require.False(t, decl.HasBody())
}

func TestLoadRegistersImpls(t *testing.T) {
	prog, _, _, err := loadString(t, demoDoc)
	require.NoError(t, err)
	in := prog.Types
	tr, ok := in.FindTrait("Tr")
	require.True(t, ok)
	require.Len(t, prog.Traits.Impls(tr), 1)

	assocA, ok := in.AssocIndex(tr, "A")
	require.True(t, ok)
	proj := in.Intern(types.MakeProjection(in.Builtins().I32, tr, assocA))
	norm, err := prog.Traits.Normalize(traits.Empty(), proj)
	require.NoError(t, err)
	require.Equal(t, "[u8]", types.Label(in, norm))
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, bag, _, err := loadString(t, "version: \"2.1\"\nname: x\n")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrVersion))
	require.Equal(t, 1, bag.Len())
	require.Equal(t, diag.SynUnsupportedVer, bag.Items()[0].Code)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, bag, _, err := loadString(t, "version: [1.0\n")
	require.ErrorIs(t, err, ErrMalformed)
	require.True(t, bag.HasErrors())

	_, _, _, err = loadString(t, "- just\n- a list\n")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestLoadReportsUnknownTypeAtPosition(t *testing.T) {
	doc := `version: "1.0"
functions:
  - name: f
    params: [{name: x, type: Missing}]
`
	_, bag, fs, err := loadString(t, doc)
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
	got := diag.FormatGoldenDiagnostics(bag.Items(), fs, false)
	require.True(t, strings.HasPrefix(got, "error SYN2004 test.hir.yaml:4:30"), got)
	require.Contains(t, got, `unknown type "Missing"`)
}

func TestLoadReportsGenericArity(t *testing.T) {
	doc := `version: "1.0"
structs:
  - name: P
    generics: {params: [A, B]}
    fields: [{name: a, type: A}]
functions:
  - name: f
    params: [{name: x, type: "P<i32>"}]
`
	_, bag, _, err := loadString(t, doc)
	require.NoError(t, err)
	require.Equal(t, 1, bag.Len())
	require.Equal(t, diag.SynGenericArity, bag.Items()[0].Code)
}

func TestLoadClosuresBecomeNestedItems(t *testing.T) {
	doc := `version: "1.0"
functions:
  - name: outer
    params: [{name: s, type: "&str"}]
    body:
      - let: c
        init:
          closure:
            params: [{name: num, type: i32}]
            captures: [{name: s, by: ref}]
            body:
              - tail: num
      - expr: {call: c, args: [2]}
`
	prog, bag, _, err := loadString(t, doc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors())

	items := hir.Items(prog)
	require.Len(t, items, 2)
	closure := items[1]
	require.Equal(t, hir.FuncClosure, closure.Kind)
	require.Same(t, items[0], closure.Parent)
	require.Same(t, items[0].Typeck, closure.Typeck)
	require.Equal(t, "i32", types.Label(prog.Types, closure.Result))

	let := items[0].Body.Stmts[0].Data.(hir.LetData)
	data := let.Init.Data.(hir.ClosureData)
	require.Len(t, data.Captures, 1)
	require.True(t, data.Captures[0].ByRef)
	require.Equal(t, "&str", types.Label(prog.Types, data.Captures[0].Type))

	call := items[0].Body.Stmts[1].Data.(hir.ExprStmtData).Expr
	require.Equal(t, "i32", types.Label(prog.Types, call.Type))
}

func TestLoadInferTableAndOverrides(t *testing.T) {
	doc := `version: "1.0"
functions:
  - name: f
    infer: {0: "[u8]", 3: i64}
    body:
      - expr: {call: f, args: [], type: "?0"}
`
	prog, bag, _, err := loadString(t, doc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors())
	fn := findFunc(t, prog, "f")
	require.Len(t, fn.Typeck.Vars, 2)
	require.Equal(t, "[u8]", types.Label(prog.Types, fn.Typeck.Vars[0]))
	e := fn.Body.Stmts[0].Data.(hir.ExprStmtData).Expr
	require.Equal(t, "?0", types.Label(prog.Types, e.Type))
}

func TestLoadTraitDefaultMethodSelf(t *testing.T) {
	doc := `version: "1.0"
traits:
  - name: Show
    methods:
      - name: show
        self: ref
        body:
          - expr: {deref: self}
`
	prog, bag, _, err := loadString(t, doc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors())
	fn := findFunc(t, prog, "show")
	require.Equal(t, hir.FuncTraitMethod, fn.Kind)
	require.NotNil(t, fn.Generics.Parent)
	self := fn.Generics.Parent.Params[0]
	require.Equal(t, "Self", self.Name)
	require.True(t, self.MaybeUnsized)
	require.Equal(t, "&Self", types.Label(prog.Types, fn.Params[0].Type))
}

func TestLoadPatterns(t *testing.T) {
	doc := `version: "1.0"
structs:
  - name: Pair
    fields: [{name: a, type: i32}, {name: b, type: "&str"}]
functions:
  - name: f
    params:
      - pat: {tuple: ["ref x", "mut y", _]}
        type: "(i32, u8, bool)"
      - pat: {struct: Pair, fields: {a: num, b: {ref: s}}}
        type: Pair
    body:
      - tail: {binary: "+", lhs: {deref: x}, rhs: num}
`
	prog, bag, fs, err := loadString(t, doc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), diag.FormatGoldenDiagnostics(bag.Items(), fs, false))
	fn := findFunc(t, prog, "f")

	binds := fn.Params[0].Pat.Bindings()
	require.Len(t, binds, 2)
	x := binds[0].Data.(hir.BindingData)
	require.True(t, x.ByRef)
	require.Equal(t, "i32", types.Label(prog.Types, binds[0].Type))

	sp := fn.Params[1].Pat.Data.(hir.StructPatData)
	require.Len(t, sp.Fields, 2)
	require.Equal(t, hir.PatRef, sp.Fields[1].Pat.Kind)
	require.Equal(t, "str", types.Label(prog.Types, sp.Fields[1].Pat.Data.(hir.RefPatData).Inner.Type))

	require.Equal(t, "i32", types.Label(prog.Types, fn.Body.Tail.Type))
}

func TestLoadQuotedPatternScalars(t *testing.T) {
	doc := `version: "1.0"
functions:
  - name: f
    params: [{name: s, type: "&str"}]
    body:
      - tail:
          match: s
          arms:
            - {pat: 'two words', body: 0}
            - {pat: {lit: plain}, body: 1}
            - {pat: "ref mut v", body: 2}
`
	prog, bag, fs, err := loadString(t, doc)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), diag.FormatGoldenDiagnostics(bag.Items(), fs, false))
	fn := findFunc(t, prog, "f")
	arms := fn.Body.Tail.Data.(hir.MatchData).Arms
	require.Len(t, arms, 3)

	require.Equal(t, hir.PatLiteral, arms[0].Pat.Kind)
	require.Equal(t, "two words", arms[0].Pat.Data.(hir.LiteralPatData).Text)
	require.Equal(t, hir.PatLiteral, arms[1].Pat.Kind)

	require.Equal(t, hir.PatBinding, arms[2].Pat.Kind)
	v := arms[2].Pat.Data.(hir.BindingData)
	require.Equal(t, "v", v.Name)
	require.True(t, v.ByRef)
	require.True(t, v.Mutable)
}

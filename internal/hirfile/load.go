// Package hirfile loads typed HIR programs from YAML interchange documents
// (*.hir.yaml).
//
// The loader keeps YAML line/column information so every HIR node carries a
// real source.Span. Problems are reported as SYN diagnostics and loading
// continues where it can; only a document that cannot be read at all is a
// hard error.
package hirfile

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/source"
	"rvcheck/internal/traits"
	"rvcheck/internal/types"
)

// SupportedVersions is the range of document versions this loader reads.
const SupportedVersions = "^1.0"

var (
	// ErrMalformed is returned when the document is not valid YAML or has
	// no top-level mapping.
	ErrMalformed = errors.New("malformed HIR document")
	// ErrVersion is returned for documents outside SupportedVersions.
	ErrVersion = errors.New("unsupported HIR document version")
)

// freshVarBase is the first index handed out for loader-invented inference
// variables, far away from the indices documents use.
const freshVarBase = 1 << 20

type loader struct {
	fs    *source.FileSet
	file  source.FileID
	r     diag.Reporter
	prog  *hir.Program
	in    *types.Interner
	table *traits.Table

	structs  map[string]types.StructDefID
	foreign  map[string]types.TypeID
	funcs    map[string]*hir.Func
	methods  map[string][]*methodSig
	pending  []pendingBody
	closures map[*hir.Func]int // closure counter per enclosing item

	nextVar uint32
	owners  uint32
	errors  int
}

// methodSig records where a method was declared so calls can find it.
type methodSig struct {
	fn      *hir.Func
	selfTy  types.TypeID   // impl self type (or trait Self)
	params  []types.TypeID // impl-level generic params
	mode    hir.ReceiverMode
	hasSelf bool
}

// pendingBody is a body whose lowering waits until every signature exists.
type pendingBody struct {
	fn    *hir.Func
	node  *yaml.Node
	scope *typeScope
}

// Load decodes the document stored in fs under file. Diagnostics go to r.
// The returned program is usable when err is nil, even if r received
// SYN errors; callers decide whether to run passes over it.
func Load(fs *source.FileSet, file source.FileID, r diag.Reporter) (*hir.Program, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	in := types.NewInterner()
	l := &loader{
		fs:       fs,
		file:     file,
		r:        r,
		in:       in,
		table:    traits.NewTable(in),
		structs:  make(map[string]types.StructDefID),
		foreign:  make(map[string]types.TypeID),
		funcs:    make(map[string]*hir.Func),
		methods:  make(map[string][]*methodSig),
		closures: make(map[*hir.Func]int),
		nextVar:  freshVarBase,
	}
	f := fs.Get(file)

	var doc yaml.Node
	if err := yaml.Unmarshal(f.Content, &doc); err != nil {
		diag.ReportError(r, diag.SynMalformedDocument, source.Span{File: file}, err.Error()).Emit()
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, f.Path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		diag.ReportError(r, diag.SynMalformedDocument, source.Span{File: file}, "top level of a HIR document must be a mapping").Emit()
		return nil, fmt.Errorf("%w: %s: top level is not a mapping", ErrMalformed, f.Path)
	}
	root := doc.Content[0]
	if err := l.checkVersion(root); err != nil {
		return nil, err
	}

	name := ident(scalarString(mapGet(root, "name")))
	if name == "" {
		name = f.Path
	}
	l.prog = hir.NewProgram(name, in, l.table)
	l.prog.File = file

	l.declareTraits(seqItems(mapGet(root, "traits")))
	l.declareStructs(seqItems(mapGet(root, "structs")))
	l.declareForeign(seqItems(mapGet(root, "foreign")))
	l.defineTraits(seqItems(mapGet(root, "traits")))
	l.defineStructs(seqItems(mapGet(root, "structs")))
	l.declareImpls(seqItems(mapGet(root, "impls")))
	l.declareFunctions(seqItems(mapGet(root, "functions")))
	for _, pb := range l.pending {
		l.lowerBody(pb)
	}
	return l.prog, nil
}

// LoadBytes registers data as a virtual file and loads it.
func LoadBytes(fs *source.FileSet, name string, data []byte, r diag.Reporter) (*hir.Program, error) {
	id := fs.AddVirtual(name, data)
	return Load(fs, id, r)
}

func (l *loader) checkVersion(root *yaml.Node) error {
	node := mapGet(root, "version")
	raw := scalarString(node)
	if raw == "" {
		diag.ReportError(l.r, diag.SynUnsupportedVer, l.span(root), "missing document version").Emit()
		return fmt.Errorf("%w: missing version", ErrVersion)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		diag.ReportError(l.r, diag.SynUnsupportedVer, l.span(node), fmt.Sprintf("invalid version %q: %v", raw, err)).Emit()
		return fmt.Errorf("%w: %q: %w", ErrVersion, raw, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("version constraint: %w", err)
	}
	if !c.Check(v) {
		diag.ReportError(l.r, diag.SynUnsupportedVer, l.span(node),
			fmt.Sprintf("document version %s is not supported (want %s)", v, SupportedVersions)).Emit()
		return fmt.Errorf("%w: %s", ErrVersion, v)
	}
	return nil
}

func (l *loader) freshVar() types.TypeID {
	id := l.in.Intern(types.MakeInfer(l.nextVar))
	l.nextVar++
	return id
}

// typeAt parses the type expression stored in n, reporting failures.
func (l *loader) typeAt(n *yaml.Node, scope *typeScope) (types.TypeID, bool) {
	src := scalarString(n)
	if src == "" {
		l.errorf(n, diag.SynBadTypeExpr, "expected a type expression")
		return types.NoTypeID, false
	}
	id, err := l.parseType(src, scope)
	if err != nil {
		var unknown *unknownTypeError
		var arity *arityError
		switch {
		case errors.As(err, &unknown):
			l.errorf(n, diag.SynUnknownType, "%v", err)
		case errors.As(err, &arity):
			l.errorf(n, diag.SynGenericArity, "%v", err)
		default:
			l.errorf(n, diag.SynBadTypeExpr, "invalid type %q: %v", src, err)
		}
		return types.NoTypeID, false
	}
	return id, true
}

// typeOr parses n if present, returning fallback otherwise.
func (l *loader) typeOr(n *yaml.Node, scope *typeScope, fallback types.TypeID) types.TypeID {
	if isNull(n) {
		return fallback
	}
	if id, ok := l.typeAt(n, scope); ok {
		return id
	}
	return fallback
}

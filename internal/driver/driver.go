// Package driver wires the HIR loader and the rvalues pass into a single
// file or directory check.
package driver

import (
	"context"
	"errors"
	"fmt"

	"rvcheck/internal/diag"
	"rvcheck/internal/hir"
	"rvcheck/internal/hirfile"
	"rvcheck/internal/observ"
	"rvcheck/internal/rvalues"
	"rvcheck/internal/source"
	"rvcheck/internal/trace"
)

// Options controls a check run.
type Options struct {
	// Jobs bounds parallelism: files in CheckDir, items inside the pass.
	// Zero or negative means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps diagnostics per file; zero or negative means no cap.
	MaxDiagnostics int
	// Cache, when set, serves repeated checks of unchanged documents.
	Cache *DiskCache
	// Timings appends an OBS6001 timing diagnostic to every result.
	Timings bool
}

// Result is the outcome of checking one document.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    source.FileID
	Bag     *diag.Bag
	// Program is nil when the document failed to load or came from the cache.
	Program *hir.Program
	Timing  observ.Report
	Cached  bool
}

// Check loads path, runs the pass and returns the diagnostics.
// The returned error is reserved for cancellation and cache I/O; problems
// with the document itself are reported in Result.Bag.
func Check(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	res := &Result{Path: path, FileSet: fs, Bag: diag.NewBag(limitOf(opts.MaxDiagnostics))}
	id, err := fs.Load(path)
	if err != nil {
		res.File = fs.AddVirtual(path, nil)
		res.Bag.Add(loadError(res.File, path, err))
		return res, nil
	}
	res.File = id
	return res, checkLoaded(ctx, res, opts)
}

// CheckBytes checks an in-memory document registered under name.
func CheckBytes(ctx context.Context, name string, data []byte, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	res := &Result{
		Path:    name,
		FileSet: fs,
		File:    fs.AddVirtual(name, data),
		Bag:     diag.NewBag(limitOf(opts.MaxDiagnostics)),
	}
	return res, checkLoaded(ctx, res, opts)
}

func checkLoaded(ctx context.Context, res *Result, opts Options) error {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "check")
	span.WithExtra("path", res.Path)
	defer span.End("")

	timer := observ.NewTimer()
	defer func() {
		res.Timing = timer.Report()
		if opts.Timings {
			appendTimingDiagnostic(res.Bag, res.File, timingPayload{Kind: "file", Path: res.Path, Report: res.Timing})
		}
	}()

	file := res.FileSet.Get(res.File)
	key := cacheKey(file.Content, opts.MaxDiagnostics)
	if opts.Cache != nil {
		done := timer.Track("cache")
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			done("error")
			return fmt.Errorf("disk cache: %w", err)
		}
		if hit && payload.Schema == diskCacheSchemaVersion {
			done("hit")
			restoreDiagnostics(res.Bag, res.File, payload.Diagnostics)
			res.Cached = true
			trace.Point(ctx, trace.ScopeDriver, "cache-hit", res.Path)
			return nil
		}
		done("miss")
	}

	done := timer.Track("load")
	prog, err := hirfile.Load(res.FileSet, res.File, diag.BagReporter{Bag: res.Bag})
	done("")
	if err == nil && !res.Bag.HasErrors() {
		res.Program = prog
		done = timer.Track("rvalues")
		err = runPass(ctx, prog, res.Bag, opts.Jobs)
		done(fmt.Sprintf("%d diagnostics", res.Bag.Len()))
		if err != nil {
			return err
		}
	} else if err == nil {
		// SYN errors leave a partial program; the pass is not run on it.
		res.Program = prog
	}
	res.Bag.Sort()

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &DiskPayload{
			Schema:      diskCacheSchemaVersion,
			Path:        file.Path,
			Diagnostics: captureDiagnostics(res.Bag),
		}); err != nil {
			return fmt.Errorf("disk cache: %w", err)
		}
	}
	return nil
}

// runPass turns per-item internal failures into SEM3162 diagnostics and
// returns any other error.
func runPass(ctx context.Context, prog *hir.Program, bag *diag.Bag, jobs int) error {
	if jobs <= 0 {
		jobs = -1
	}
	r := diag.BagReporter{Bag: bag}
	err := rvalues.New(rvalues.Config{Jobs: jobs}).Check(ctx, prog, r)
	var failure *rvalues.Failure
	if errors.As(err, &failure) {
		for _, it := range failure.Items {
			diag.ReportError(r, diag.SemaInternal, it.Span, "internal: "+it.Error()).Emit()
		}
		return nil
	}
	return err
}

// loadError is anchored on an empty placeholder file so every diagnostic
// resolves to a path.
func loadError(file source.FileID, path string, err error) diag.Diagnostic {
	return diag.NewError(diag.IOLoadFileError, source.Span{File: file}, fmt.Sprintf("failed to load %s: %v", path, err))
}

func limitOf(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

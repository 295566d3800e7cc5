package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"rvcheck/internal/diag"
	"rvcheck/internal/source"
	"rvcheck/internal/trace"
)

// HIRSuffix marks interchange documents picked up by CheckDir.
const HIRSuffix = ".hir.yaml"

// DirResult holds the per-file results of CheckDir in path order.
type DirResult struct {
	Dir     string
	FileSet *source.FileSet
	Files   []*Result
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *DirResult) HasErrors() bool {
	for _, f := range r.Files {
		if f.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Diagnostics returns every file's diagnostics, files in path order.
func (r *DirResult) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, f := range r.Files {
		out = append(out, f.Bag.Items()...)
	}
	return out
}

// listHIRFiles возвращает отсортированный список всех *.hir.yaml файлов в директории
func listHIRFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, HIRSuffix) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// CheckDir checks every *.hir.yaml file under dir. Files are checked in
// parallel; items inside one file are checked sequentially.
func CheckDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := listHIRFiles(dir)
	if err != nil {
		return nil, err
	}

	span, ctx := trace.Start(ctx, trace.ScopeDriver, "check-dir")
	span.WithExtra("dir", dir)
	defer span.End("")

	// Создаём FileSet и предзагружаем все файлы; дальше он только читается
	fileSet := source.NewFileSet()
	out := &DirResult{Dir: dir, FileSet: fileSet, Files: make([]*Result, len(files))}
	loaded := make([]bool, len(files))
	for i, path := range files {
		res := &Result{Path: path, FileSet: fileSet, Bag: diag.NewBag(limitOf(opts.MaxDiagnostics))}
		fileID, err := fileSet.Load(path)
		if err != nil {
			res.File = fileSet.AddVirtual(path, nil)
			res.Bag.Add(loadError(res.File, path, err))
		} else {
			res.File = fileID
			loaded[i] = true
		}
		out.Files[i] = res
	}
	if len(files) == 0 {
		return out, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	perFile := opts
	perFile.Jobs = 1

	// Результаты пишутся по уникальному индексу, мьютекс не нужен
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i := range files {
		if !loaded[i] {
			continue
		}
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			return checkLoaded(trace.WithLane(gctx, i), out.Files[i], perFile)
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

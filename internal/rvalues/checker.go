package rvalues

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"rvcheck/internal/diag"
	"rvcheck/internal/euv"
	"rvcheck/internal/hir"
	"rvcheck/internal/infer"
	"rvcheck/internal/paramenv"
	"rvcheck/internal/trace"
)

// Config configures a Checker.
type Config struct {
	// Tcx is the program-wide type context. A zero value means "use the
	// program's own interner and trait table".
	Tcx infer.Tcx
	// Jobs bounds item-level parallelism. Values below 2 check items
	// sequentially; a negative value uses GOMAXPROCS.
	Jobs int
}

// Checker runs the unsized-move check over programs.
type Checker struct {
	cfg Config
}

// New creates a Checker.
func New(cfg Config) *Checker {
	if cfg.Jobs < 0 {
		cfg.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Checker{cfg: cfg}
}

// Check visits every function-like item of prog once and reports each
// by-value use of an unsized type to r. Internal failures abort only the
// item they occur in; they are returned together as a *Failure after every
// other item has been checked. A cancelled ctx stops between items.
func (c *Checker) Check(ctx context.Context, prog *hir.Program, r diag.Reporter) error {
	if prog == nil {
		return nil
	}
	if r == nil {
		r = diag.NopReporter{}
	}
	tcx := c.cfg.Tcx
	if tcx.Types == nil {
		tcx = infer.Tcx{Types: prog.Types, Traits: prog.Traits}
	}

	span, ctx := trace.Start(ctx, trace.ScopePass, "rvalues")
	items := hir.Items(prog)
	span.WithExtra("items", strconv.Itoa(len(items)))

	var (
		failed []*InvariantError
		err    error
	)
	if c.cfg.Jobs > 1 && len(items) > 1 {
		failed, err = c.checkParallel(ctx, prog, tcx, items, r)
	} else {
		failed, err = c.checkSequential(ctx, prog, tcx, items, r)
	}
	span.End(fmt.Sprintf("%d internal errors", len(failed)))
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return &Failure{Items: failed}
	}
	return nil
}

func (c *Checker) checkSequential(ctx context.Context, prog *hir.Program, tcx infer.Tcx, items []*hir.Func, r diag.Reporter) ([]*InvariantError, error) {
	var failed []*InvariantError
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		ie, err := c.checkItem(ctx, prog, tcx, item, r)
		if err != nil {
			return failed, err
		}
		if ie != nil {
			failed = append(failed, ie)
		}
	}
	return failed, nil
}

// checkParallel checks items on an errgroup. Every item writes into its own
// bag; bags are replayed into r in item order so output matches a
// sequential run.
func (c *Checker) checkParallel(ctx context.Context, prog *hir.Program, tcx infer.Tcx, items []*hir.Func, r diag.Reporter) ([]*InvariantError, error) {
	bags := make([]*diag.Bag, len(items))
	errs := make([]*InvariantError, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Jobs)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bag := diag.NewBag(-1)
			ie, err := c.checkItem(trace.WithLane(gctx, i), prog, tcx, item, diag.BagReporter{Bag: bag})
			if err != nil {
				return err
			}
			bags[i], errs[i] = bag, ie
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failed []*InvariantError
	for i := range items {
		for _, d := range bags[i].Items() {
			r.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
		if errs[i] != nil {
			failed = append(failed, errs[i])
		}
	}
	return failed, nil
}

// checkItem runs the walk over one item inside its own resolution context.
// An InvariantError is returned as a value; the error result is reserved
// for failures that must stop the whole check.
func (c *Checker) checkItem(ctx context.Context, prog *hir.Program, tcx infer.Tcx, item *hir.Func, r diag.Reporter) (*InvariantError, error) {
	if !item.HasBody() {
		return nil, nil
	}
	span, ctx := trace.Start(ctx, trace.ScopeItem, "item:"+item.Name)
	env := paramenv.ForItem(prog, item)
	d := &delegate{ctx: ctx, item: item, r: r}
	err := infer.Enter(tcx, env, item.Typeck, func(cx *infer.Ctxt) error {
		d.cx = cx
		return euv.Walk(item, cx, d)
	})
	span.WithExtra("func", item.Name).
		WithExtra("consumes", strconv.Itoa(d.consumes)).
		WithExtra("errors", strconv.Itoa(d.reported)).
		End("")

	var ie *InvariantError
	switch {
	case err == nil:
		return nil, nil
	case errors.As(err, &ie):
		return ie, nil
	default:
		return nil, fmt.Errorf("rvalues: %s: %w", item.Name, err)
	}
}

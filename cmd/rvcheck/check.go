package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rvcheck/internal/diag"
	"rvcheck/internal/diagfmt"
	"rvcheck/internal/driver"
	"rvcheck/internal/hir"
	"rvcheck/internal/source"
	"rvcheck/internal/trace"
)

type checkOptions struct {
	target         string
	format         string
	jobs           int
	maxDiagnostics int
	withNotes      bool
	fullPath       bool
	diskCache      bool
	clearCache     bool
	emitHIR        bool
	watch          bool
	timings        bool
	quiet          bool
	color          bool
}

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file.hir.yaml|directory>",
		Short: "Report moves of values whose size is not statically known",
		Long:  `Check a HIR interchange document, or every *.hir.yaml file within a directory, and report each consumed value of an unsized type`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCheckOptions(cmd, a.manifest, args[0])
			if err != nil {
				return err
			}
			if opts.clearCache {
				if err := clearDiskCache(); err != nil {
					return err
				}
			}
			if opts.watch {
				return watchAndCheck(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
			}
			failed, err := checkOnce(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
			if err != nil {
				return err
			}
			if failed {
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("disk-cache", false, "reuse results of unchanged documents from the user cache directory")
	cmd.Flags().Bool("clear-cache", false, "drop cached results before checking")
	cmd.Flags().Bool("emit-hir", false, "print the decoded HIR after the diagnostics")
	cmd.Flags().Bool("watch", false, "re-check whenever the input changes")
	return cmd
}

// readCheckOptions merges flags with the [check] section of rvcheck.toml;
// flags given explicitly win.
func readCheckOptions(cmd *cobra.Command, manifest *projectManifest, target string) (checkOptions, error) {
	opts := checkOptions{target: target}
	flags := cmd.Flags()
	var err error
	if opts.format, err = flags.GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if opts.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return opts, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if opts.diskCache, err = flags.GetBool("disk-cache"); err != nil {
		return opts, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	if opts.clearCache, err = flags.GetBool("clear-cache"); err != nil {
		return opts, fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	if opts.emitHIR, err = flags.GetBool("emit-hir"); err != nil {
		return opts, fmt.Errorf("failed to get emit-hir flag: %w", err)
	}
	if opts.watch, err = flags.GetBool("watch"); err != nil {
		return opts, fmt.Errorf("failed to get watch flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}

	if manifest != nil {
		cc := manifest.Config.Check
		if cc.Format != nil && !flags.Changed("format") {
			opts.format = *cc.Format
		}
		if cc.Jobs != nil && !flags.Changed("jobs") {
			opts.jobs = *cc.Jobs
		}
		if cc.MaxDiagnostics != nil && !flags.Changed("max-diagnostics") {
			opts.maxDiagnostics = *cc.MaxDiagnostics
		}
		if cc.DiskCache != nil && !flags.Changed("disk-cache") {
			opts.diskCache = *cc.DiskCache
		}
		if cc.WithNotes != nil && !flags.Changed("with-notes") {
			opts.withNotes = *cc.WithNotes
		}
	}

	if !validFormat(opts.format) {
		return opts, fmt.Errorf("unknown format: %s", opts.format)
	}
	switch colorFlag {
	case "on":
		opts.color = true
	case "off":
	case "auto":
		f, ok := cmd.OutOrStdout().(*os.File)
		opts.color = ok && isTerminal(f)
	default:
		return opts, fmt.Errorf("invalid color mode %q (expected auto|on|off)", colorFlag)
	}
	return opts, nil
}

func clearDiskCache() error {
	cache, err := driver.OpenDiskCache("rvcheck")
	if err != nil {
		return fmt.Errorf("failed to open disk cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear disk cache: %w", err)
	}
	return nil
}

// checkOnce runs one check of opts.target and renders it to out. It reports
// whether any error diagnostic was produced.
func checkOnce(ctx context.Context, out, errOut io.Writer, opts checkOptions) (bool, error) {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "rvcheck check")
	defer span.End("")

	dOpts := driver.Options{
		Jobs:           opts.jobs,
		MaxDiagnostics: opts.maxDiagnostics,
		Timings:        opts.timings,
	}
	if opts.diskCache {
		cache, err := driver.OpenDiskCache("rvcheck")
		if err != nil {
			return false, fmt.Errorf("failed to open disk cache: %w", err)
		}
		dOpts.Cache = cache
	}

	var files []*driver.Result
	var fs *source.FileSet
	if st, err := os.Stat(opts.target); err == nil && st.IsDir() {
		res, err := driver.CheckDir(ctx, opts.target, dOpts)
		if err != nil {
			return false, fmt.Errorf("check failed: %w", err)
		}
		files, fs = res.Files, res.FileSet
		if err := renderDir(out, res, opts); err != nil {
			return false, err
		}
	} else {
		res, err := driver.Check(ctx, opts.target, dOpts)
		if err != nil {
			return false, fmt.Errorf("check failed: %w", err)
		}
		files, fs = []*driver.Result{res}, res.FileSet
		if err := renderFile(out, res, opts); err != nil {
			return false, err
		}
	}

	if opts.emitHIR {
		for _, r := range files {
			if r.Program == nil {
				continue
			}
			if len(files) > 1 {
				fmt.Fprintf(out, "== HIR %s ==\n", displayPath(fs, r, opts))
			}
			if err := hir.Dump(out, r.Program, r.Program.Types); err != nil {
				return false, fmt.Errorf("failed to emit HIR: %w", err)
			}
		}
	}

	failed := false
	errCount := 0
	for _, r := range files {
		if r.Bag.HasErrors() {
			failed = true
		}
		for _, d := range r.Bag.Items() {
			if d.Severity == diag.SevError {
				errCount++
			}
		}
	}
	if !opts.quiet && opts.format == "pretty" {
		fmt.Fprintf(errOut, "checked %d file(s): %d error(s)\n", len(files), errCount)
	}
	return failed, nil
}

func pathMode(opts checkOptions) diagfmt.PathMode {
	if opts.fullPath {
		return diagfmt.PathModeAbsolute
	}
	return diagfmt.PathModeAuto
}

func prettyOpts(opts checkOptions) diagfmt.PrettyOpts {
	return diagfmt.PrettyOpts{
		Color:     opts.color,
		Context:   2,
		PathMode:  pathMode(opts),
		ShowNotes: opts.withNotes,
	}
}

func jsonOpts(opts checkOptions) diagfmt.JSONOpts {
	return diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode(opts),
		IncludeNotes:     opts.withNotes,
	}
}

func renderFile(out io.Writer, res *driver.Result, opts checkOptions) error {
	switch opts.format {
	case "pretty":
		diagfmt.Pretty(out, res.Bag, res.FileSet, prettyOpts(opts))
	case "short":
		if s := diag.FormatGoldenDiagnostics(res.Bag.Items(), res.FileSet, opts.withNotes); s != "" {
			fmt.Fprintln(out, s)
		}
	case "json":
		if err := diagfmt.JSON(out, res.Bag, res.FileSet, jsonOpts(opts)); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
	return nil
}

func renderDir(out io.Writer, res *driver.DirResult, opts checkOptions) error {
	switch opts.format {
	case "short":
		if s := diag.FormatGoldenDiagnostics(res.Diagnostics(), res.FileSet, opts.withNotes); s != "" {
			fmt.Fprintln(out, s)
		}
	case "pretty":
		first := true
		for _, r := range res.Files {
			if r.Bag.Len() == 0 {
				continue
			}
			if !first {
				fmt.Fprintln(out)
			}
			first = false
			fmt.Fprintf(out, "== %s ==\n", displayPath(res.FileSet, r, opts))
			diagfmt.Pretty(out, r.Bag, res.FileSet, prettyOpts(opts))
		}
	case "json":
		output := make(map[string]diagfmt.DiagnosticsOutput, len(res.Files))
		for _, r := range res.Files {
			output[displayPath(res.FileSet, r, opts)] = diagfmt.BuildDiagnosticsOutput(r.Bag, res.FileSet, jsonOpts(opts))
		}
		if err := diagfmt.JSONFiles(out, output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
	return nil
}

func displayPath(fs *source.FileSet, r *driver.Result, opts checkOptions) string {
	mode := "auto"
	if opts.fullPath {
		mode = "absolute"
	}
	return fs.Get(r.File).FormatPath(mode, fs.BaseDir())
}

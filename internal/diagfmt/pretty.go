package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rvcheck/internal/diag"
	"rvcheck/internal/source"
)

const tabWidth = 4

type palette struct {
	enabled bool
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	note    *color.Color
	gutter  *color.Color
	caret   *color.Color
	bold    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		enabled: enabled,
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		note:    color.New(color.FgCyan),
		gutter:  color.New(color.FgBlue, color.Bold),
		caret:   color.New(color.FgRed, color.Bold),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		// NoColor определяется по stdout процесса; решение принимает вызывающий
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным форматом.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	sev := p.severity(d.Severity)
	header := fmt.Sprintf("%s %s:", sev.Sprint(d.Severity.String()), sev.Sprint(d.Code.ID()))
	if loc := location(fs, d.Primary, opts.PathMode); loc != "" {
		header = p.bold.Sprint(loc+":") + " " + header
	}
	fmt.Fprintf(w, "%s %s\n", header, d.Message)

	if d.Code != diag.ObsTimings && knownFile(fs, d.Primary) {
		snippet(w, fs, d.Primary, opts, p)
	}

	if !opts.ShowNotes && d.Code != diag.ObsTimings {
		return
	}
	for _, n := range d.Notes {
		prefix := p.note.Sprint("note:")
		if loc := location(fs, n.Span, opts.PathMode); loc != "" && d.Code != diag.ObsTimings {
			fmt.Fprintf(w, "  %s %s: %s\n", prefix, loc, n.Msg)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", prefix, n.Msg)
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	if !knownFile(fs, span) {
		return ""
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, span.File, mode), start.Line, start.Col)
}

// snippet prints the context lines, the primary line and the caret line.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette) {
	f := fs.Get(span.File)
	if len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)
	first := start.Line
	if opts.Context > 0 {
		if back := uint32(opts.Context); back < first {
			first -= back
		} else {
			first = 1
		}
	}
	numWidth := len(strconv.FormatUint(uint64(start.Line), 10))
	pad := strings.Repeat(" ", numWidth)

	fmt.Fprintf(w, "%s %s\n", pad, p.gutter.Sprint("|"))
	for line := first; line <= start.Line; line++ {
		text := expandTabs(lineText(f, line))
		if opts.Width > 0 {
			text = truncate(text, int(opts.Width))
		}
		fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprintf("%*d", numWidth, line), p.gutter.Sprint("|"), text)
	}

	raw := lineText(f, start.Line)
	col := int(start.Col) - 1
	col = min(max(col, 0), len(raw))
	lead := runewidth.StringWidth(expandTabs(raw[:col]))

	// подчёркиваем только первую строку многострочного span
	stop := len(raw)
	if end.Line == start.Line {
		stop = min(max(int(end.Col)-1, col), len(raw))
	}
	width := runewidth.StringWidth(expandTabs(raw[col:stop]))
	if width < 1 {
		width = 1
	}
	if opts.Width > 0 && lead+width > int(opts.Width) {
		width = max(int(opts.Width)-lead, 1)
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"), strings.Repeat(" ", lead), p.caret.Sprint(marker))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

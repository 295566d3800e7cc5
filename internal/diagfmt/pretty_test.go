package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"rvcheck/internal/diag"
	"rvcheck/internal/source"
)

const sampleDoc = "functions:\n  - name: f\n    body:\n      - expr: {call: take, args: [{deref: x}]}\n"

func sampleBag(t *testing.T, path string) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(path, []byte(sampleDoc))
	start := uint32(strings.Index(sampleDoc, "{deref: x}"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.SemaMoveUnsized,
		source.Span{File: fileID, Start: start, End: start + uint32(len("{deref: x}"))},
		"cannot move a value of type dyn Trait: the size of dyn Trait cannot be statically determined")
	d = d.WithNote(source.Span{File: fileID, Start: 15, End: 16}, "in this function")
	bag.Add(d)
	return fs, bag
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs, bag := sampleBag(t, "/home/user/project/src/test.hir.yaml")
	fs.SetBaseDir("/home/user/project")

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "Absolute path", mode: PathModeAbsolute, contains: "/home/user/project/src/test.hir.yaml:4:35"},
		{name: "Relative path", mode: PathModeRelative, contains: "src/test.hir.yaml:4:35"},
		{name: "Basename only", mode: PathModeBasename, contains: "test.hir.yaml:4:35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR SEM3161:") {
				t.Errorf("Expected severity and code in output, got:\n%s", output)
			}
			if !strings.Contains(output, "cannot move a value of type dyn Trait") {
				t.Error("Expected error message in output")
			}
		})
	}
}

func TestPrettySnippetAndCaret(t *testing.T) {
	fs, bag := sampleBag(t, "t.hir.yaml")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})

	want := strings.Join([]string{
		"t.hir.yaml:4:35: ERROR SEM3161: cannot move a value of type dyn Trait: the size of dyn Trait cannot be statically determined",
		"  |",
		"3 |     body:",
		"4 |       - expr: {call: take, args: [{deref: x}]}",
		"  |                                   ^~~~~~~~~~",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("pretty output mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyNotes(t *testing.T) {
	fs, bag := sampleBag(t, "t.hir.yaml")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	if !strings.Contains(buf.String(), "note: t.hir.yaml:2:5: in this function") {
		t.Fatalf("expected note with location, got:\n%s", buf.String())
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes must be hidden by default, got:\n%s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	fs, bag := sampleBag(t, "t.hir.yaml")
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	Pretty(&colored, bag, fs, PrettyOpts{PathMode: PathModeBasename, Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escape codes:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escape codes:\n%q", colored.String())
	}
}

func TestPrettyWidthTruncates(t *testing.T) {
	fs, bag := sampleBag(t, "t.hir.yaml")
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Width: 20})
	if !strings.Contains(buf.String(), "4 |       - expr: {ca...\n") {
		t.Fatalf("expected truncated source line, got:\n%s", buf.String())
	}
}

func TestPrettyWideRunesShiftCaret(t *testing.T) {
	fs := source.NewFileSet()
	content := "name: 名前\nbody: [x]\n"
	fileID := fs.AddVirtual("w.hir.yaml", []byte(content))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SynUnknownName, source.Span{File: fileID, Start: 6, End: uint32(len("name: 名前"))}, "unknown"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.Contains(buf.String(), "\n  |       ^~~~\n") {
		t.Fatalf("caret must span the display width of the name, got:\n%s", buf.String())
	}
}

func TestPrettyWithoutSource(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("missing.hir.yaml", nil)
	bag := diag.NewBag(2)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: fileID}, "failed to load missing.hir.yaml"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	want := "missing.hir.yaml:1:1: ERROR IO4001: failed to load missing.hir.yaml\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

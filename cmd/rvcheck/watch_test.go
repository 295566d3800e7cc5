package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevantChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "demo.hir.yaml")
	cases := []struct {
		name  string
		ev    fsnotify.Event
		isDir bool
		want  bool
	}{
		{"file write", fsnotify.Event{Name: target, Op: fsnotify.Write}, false, true},
		{"file rename", fsnotify.Event{Name: target, Op: fsnotify.Rename}, false, true},
		{"sibling write", fsnotify.Event{Name: filepath.Join(dir, "other.hir.yaml"), Op: fsnotify.Write}, false, false},
		{"chmod only", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false, false},
		{"dir document", fsnotify.Event{Name: filepath.Join(dir, "x", "b.hir.yaml"), Op: fsnotify.Create}, true, true},
		{"dir other file", fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, true, false},
	}
	for _, tc := range cases {
		root := target
		if tc.isDir {
			root = dir
		}
		if got := relevantChange(tc.ev, root, tc.isDir); got != tc.want {
			t.Fatalf("%s: relevantChange = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSortedPaths(t *testing.T) {
	got := sortedPaths(map[string]struct{}{"b": {}, "a": {}, "c": {}})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("sortedPaths = %v", got)
	}
}

func TestWatchRechecksOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.hir.yaml")
	writeFile(t, path, cleanDoc)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	time.AfterFunc(300*time.Millisecond, func() {
		_ = os.WriteFile(path, []byte(unsizedDoc), 0o600)
	})

	var out, errOut bytes.Buffer
	opts := checkOptions{target: path, format: "short", maxDiagnostics: 100}
	if err := watchAndCheck(ctx, &out, &errOut, opts); err != nil {
		t.Fatalf("watchAndCheck: %v", err)
	}
	if !strings.Contains(errOut.String(), "--- changed: ") {
		t.Fatalf("no re-check reported: %q", errOut.String())
	}
	if !strings.Contains(out.String(), "error SEM3161") {
		t.Fatalf("re-check output missing diagnostic:\n%s", out.String())
	}
}

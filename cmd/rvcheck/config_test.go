package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), "[check]\njobs = 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := findConfig(nested)
	if err != nil {
		t.Fatalf("findConfig: %v", err)
	}
	if !ok {
		t.Fatalf("expected %s to be found", configFileName)
	}
	if path != filepath.Join(root, configFileName) {
		t.Fatalf("path = %q", path)
	}
}

func TestLoadManifestFromFileTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, configFileName), `[check]
jobs = 3
max_diagnostics = 7
format = "json"
disk_cache = true
with_notes = true

[trace]
level = "phase"
output = "trace.ndjson"
`)
	doc := filepath.Join(root, "src", "demo.hir.yaml")
	writeFile(t, doc, cleanDoc)

	m, err := loadManifest(doc)
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m == nil {
		t.Fatalf("manifest not found")
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	cc := m.Config.Check
	if *cc.Jobs != 3 || *cc.MaxDiagnostics != 7 || *cc.Format != "json" || !*cc.DiskCache || !*cc.WithNotes {
		t.Fatalf("unexpected [check]: %+v", cc)
	}
	if *m.Config.Trace.Level != "phase" || *m.Config.Trace.Output != "trace.ndjson" {
		t.Fatalf("unexpected [trace]: %+v", m.Config.Trace)
	}
}

func TestLoadManifestRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[check]\nparallel = 4\n", "unknown keys: check.parallel"},
		{"bad format", "[check]\nformat = \"xml\"\n", "[check].format"},
		{"negative jobs", "[check]\njobs = -1\n", "must not be negative"},
		{"syntax", "[check\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, configFileName), tc.body)
			_, err := loadManifest(root)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) || !strings.HasPrefix(err.Error(), "PRJ5001") {
				t.Fatalf("error = %q, want %q", err, tc.want)
			}
		})
	}
}

func TestLoadManifestMissingIsNil(t *testing.T) {
	m, err := loadManifest(filepath.Join(t.TempDir(), "nothing.hir.yaml"))
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m != nil {
		t.Fatalf("expected no manifest, got %+v", m)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"rvcheck/internal/diag"
)

const configFileName = "rvcheck.toml"

// projectConfig mirrors rvcheck.toml. Pointer fields distinguish "unset"
// from zero values so that flags only override what the file leaves open.
type projectConfig struct {
	Check checkConfig `toml:"check"`
	Trace traceConfig `toml:"trace"`
}

type checkConfig struct {
	Jobs           *int    `toml:"jobs"`
	MaxDiagnostics *int    `toml:"max_diagnostics"`
	Format         *string `toml:"format"`
	DiskCache      *bool   `toml:"disk_cache"`
	WithNotes      *bool   `toml:"with_notes"`
}

type traceConfig struct {
	Level  *string `toml:"level"`
	Output *string `toml:"output"`
}

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

// findConfig walks up from startDir looking for rvcheck.toml.
func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadManifest finds and decodes the config governing target. A missing
// file is not an error.
func loadManifest(target string) (*projectManifest, error) {
	startDir := target
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		startDir = filepath.Dir(target)
	}
	path, ok, err := findConfig(startDir)
	if err != nil || !ok {
		return nil, err
	}
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return nil, err
	}
	return &projectManifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, manifestError(path, fmt.Errorf("failed to parse TOML: %w", err))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return projectConfig{}, manifestError(path, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	if f := cfg.Check.Format; f != nil && !validFormat(*f) {
		return projectConfig{}, manifestError(path, fmt.Errorf("[check].format must be pretty, short or json, got %q", *f))
	}
	if j := cfg.Check.Jobs; j != nil && *j < 0 {
		return projectConfig{}, manifestError(path, fmt.Errorf("[check].jobs must not be negative"))
	}
	return cfg, nil
}

func manifestError(path string, err error) error {
	return fmt.Errorf("%s %s: %w", diag.ProjBadManifest.ID(), path, err)
}

func validFormat(f string) bool {
	switch f {
	case "pretty", "short", "json":
		return true
	}
	return false
}

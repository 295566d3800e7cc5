package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestPrettyKeepsComponents(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3-rc.1"
	if got := Pretty(); got != "1.2.3-rc.1" {
		t.Fatalf("Pretty() = %q", got)
	}
	Version = "custom-build"
	if got := Pretty(); got != "custom-build" {
		t.Fatalf("unparsable version must pass through, got %q", got)
	}
}

func TestCacheKeyChangesWithCommit(t *testing.T) {
	orig := GitCommit
	t.Cleanup(func() { GitCommit = orig })

	GitCommit = "aaa"
	a := CacheKey()
	GitCommit = "bbb"
	if b := CacheKey(); a == b || !strings.HasPrefix(b, "rvcheck/") {
		t.Fatalf("cache keys %q and %q", a, b)
	}
}

package source

import (
	"fmt"
	"sync"
	"testing"
)

func TestInternerBasic(t *testing.T) {
	interner := NewInterner()

	if s, ok := interner.Lookup(NoStringID); !ok || s != "" {
		t.Errorf("NoStringID must map to the empty string, got %q ok=%v", s, ok)
	}
	id1 := interner.Intern("Display")
	if id1 == NoStringID {
		t.Fatal("Intern returned NoStringID for a non-empty string")
	}
	if id2 := interner.Intern("Display"); id1 != id2 {
		t.Errorf("same string interned twice: %d != %d", id1, id2)
	}
	if got := interner.MustLookup(id1); got != "Display" {
		t.Errorf("MustLookup = %q", got)
	}
	if _, ok := interner.Lookup(StringID(99)); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestInternerConcurrent(t *testing.T) {
	interner := NewInterner()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				interner.Intern(fmt.Sprintf("name%d", i))
			}
		}()
	}
	wg.Wait()
	if got := interner.Len(); got != 101 {
		t.Fatalf("expected 101 strings, got %d", got)
	}
}

package types

import (
	"sync"
	"testing"

	"rvcheck/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Unit == NoTypeID || b.Bool == NoTypeID || b.Str == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	unit, _ := in.Lookup(b.Unit)
	if unit.Kind != KindUnit {
		t.Fatalf("expected unit kind, got %v", unit.Kind)
	}
	if name := in.TraitName(b.Sized); name != "Sized" {
		t.Fatalf("expected Sized lang trait, got %q", name)
	}
	if id, ok := in.FindTrait("Copy"); !ok || id != b.Copy {
		t.Fatalf("expected Copy to be registered, got %d ok=%v", id, ok)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Str
	ref1 := in.Intern(MakeReference(elem, false))
	ref2 := in.Intern(MakeReference(elem, false))
	if ref1 != ref2 {
		t.Fatalf("reference types should be deduplicated")
	}
	i32 := in.Builtins().I32
	t1 := in.Tuple([]TypeID{i32, elem})
	t2 := in.Tuple([]TypeID{i32, elem})
	if t1 != t2 {
		t.Fatalf("tuple types should be deduplicated")
	}
	if in.Tuple(nil) != in.Builtins().Unit {
		t.Fatalf("empty tuple must be unit")
	}
}

func TestReferenceMutabilityAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().I32
	mut := in.Intern(MakeReference(elem, true))
	imm := in.Intern(MakeReference(elem, false))
	if mut == imm {
		t.Fatalf("mutable and immutable references must differ")
	}
}

func TestTypeParamsAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterTypeParam("T", 1, 0, source.Span{})
	b := in.RegisterTypeParam("T", 2, 0, source.Span{})
	if a == b {
		t.Fatalf("generic params of different owners must differ")
	}
	info, ok := in.TypeParamInfo(b)
	if !ok || info.Owner != 2 {
		t.Fatalf("unexpected param info: %+v ok=%v", info, ok)
	}
}

func TestStructFieldsAreSubstituted(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tp := in.RegisterTypeParam("T", 1, 0, source.Span{})
	def := in.RegisterStruct("Wrapper", source.Span{}, []TypeID{tp})
	in.SetStructFields(def, []StructField{
		{Name: in.Strings.Intern("len"), Type: b.Usize},
		{Name: in.Strings.Intern("data"), Type: tp},
	}, false)

	inst := in.StructInstance(def, []TypeID{b.Str})
	fields := in.StructFields(inst)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[1].Type != b.Str {
		t.Fatalf("expected data: str, got %s", Label(in, fields[1].Type))
	}
	if idx, ty, ok := in.FieldIndex(inst, "len"); !ok || idx != 0 || ty != b.Usize {
		t.Fatalf("FieldIndex(len) = %d %s %v", idx, Label(in, ty), ok)
	}
}

func TestHasInferAndFold(t *testing.T) {
	in := NewInterner()
	v := in.Intern(MakeInfer(3))
	box := in.Intern(MakeBox(in.Tuple([]TypeID{v, in.Builtins().Bool})))
	if !in.HasInfer(box) {
		t.Fatal("expected inference variable to be found")
	}
	resolved := in.SubstMap(box, map[TypeID]TypeID{v: in.Builtins().Char})
	if in.HasInfer(resolved) {
		t.Fatal("fold left an inference variable behind")
	}
	if got := Label(in, resolved); got != "Box<(char, bool)>" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestInternerConcurrentIntern(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	ids := make([]TypeID, 16)
	for g := range ids {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids[g] = in.Intern(MakeSlice(in.Intern(MakeReference(in.Builtins().I32, false))))
		}(g)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent interning produced different ids: %v", ids)
		}
	}
}

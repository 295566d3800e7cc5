package types

import (
	"testing"

	"rvcheck/internal/source"
)

func TestLabel(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	tr := in.RegisterTrait("Trait", source.Span{})
	assoc := in.AddAssocType(tr, "A", true)
	tp := in.RegisterTypeParam("T", 1, 0, source.Span{})
	def := in.RegisterStruct("Pair", source.Span{}, []TypeID{tp})
	opaque := in.Foreign("Opaque", source.Span{})

	tests := []struct {
		name string
		id   TypeID
		want string
	}{
		{"dyn", in.Intern(MakeDyn(tr)), "dyn Trait"},
		{"box dyn", in.Intern(MakeBox(in.Intern(MakeDyn(tr)))), "Box<dyn Trait>"},
		{"slice", in.Intern(MakeSlice(b.I32)), "[i32]"},
		{"array", in.Intern(MakeArray(b.I32, 4)), "[i32; 4]"},
		{"shared ref", in.Intern(MakeReference(b.Str, false)), "&str"},
		{"mut ref", in.Intern(MakeReference(tp, true)), "&mut T"},
		{"const ptr", in.Intern(MakePointer(b.Usize, false)), "*const usize"},
		{"mut ptr", in.Intern(MakePointer(b.Usize, true)), "*mut usize"},
		{"projection", in.Intern(MakeProjection(tp, tr, assoc)), "<T as Trait>::A"},
		{"infer", in.Intern(MakeInfer(7)), "?7"},
		{"struct", in.StructInstance(def, []TypeID{b.Bool}), "Pair<bool>"},
		{"one-tuple", in.Tuple([]TypeID{b.Char}), "(char,)"},
		{"fn", in.Fn([]TypeID{b.I32}, b.Bool), "fn(i32) -> bool"},
		{"fn unit", in.Fn(nil, b.Unit), "fn()"},
		{"never", b.Never, "!"},
		{"foreign", opaque, "Opaque"},
		{"float", b.F64, "f64"},
		{"none", NoTypeID, "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(in, tt.id); got != tt.want {
				t.Fatalf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReserveIfAbsent(t *testing.T) {
	d := New()
	og := ObjGen{ID: 1}

	obj, reserved := d.ReserveIfAbsent(og)
	if !reserved {
		t.Errorf("first ReserveIfAbsent not reserved")
	}
	if _, ok := obj.(Reserved); !ok {
		t.Errorf("first ReserveIfAbsent = %T, want Reserved", obj)
	}

	// A second reservation observes the existing placeholder.
	if _, reserved := d.ReserveIfAbsent(og); !reserved {
		t.Errorf("repeat ReserveIfAbsent not reserved")
	}

	d.Replace(og, Integer(5))
	obj, reserved = d.ReserveIfAbsent(og)
	if reserved {
		t.Errorf("ReserveIfAbsent after Replace still reserved")
	}
	if obj != Integer(5) {
		t.Errorf("ReserveIfAbsent after Replace = %v, want 5", obj)
	}
}

func TestReplaceObservedThroughReferences(t *testing.T) {
	d := New()
	target := ObjGen{ID: 2}
	holder := Dict{"Kid": Reference{Number: 2}}
	d.Replace(ObjGen{ID: 1}, holder)
	d.Replace(target, Integer(1))

	d.Replace(target, Integer(99))

	obj, _ := d.Object(ObjGen{ID: 1})
	got := d.Resolve(obj.(Dict)["Kid"])
	if got != Integer(99) {
		t.Errorf("Resolve after Replace = %v, want 99", got)
	}
}

func TestResolve(t *testing.T) {
	d := New()
	d.Replace(ObjGen{ID: 1}, Name("X"))
	d.ReserveIfAbsent(ObjGen{ID: 2})

	tests := []struct {
		name string
		in   Object
		want Object
	}{
		{"non-reference passes through", Integer(3), Integer(3)},
		{"defined target", Reference{Number: 1}, Name("X")},
		{"missing target", Reference{Number: 9}, Null{}},
		{"reserved target", Reference{Number: 2}, Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Resolve(tt.in); got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestObjGensOrdering(t *testing.T) {
	d := New()
	for _, og := range []ObjGen{{ID: 10}, {ID: 2, Gen: 1}, {ID: 2}, {ID: 1}} {
		d.Replace(og, Null{})
	}
	want := []ObjGen{{ID: 1}, {ID: 2}, {ID: 2, Gen: 1}, {ID: 10}}
	if diff := cmp.Diff(want, d.ObjGens()); diff != "" {
		t.Errorf("ObjGens mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxObjectID(t *testing.T) {
	d := New()
	if got := d.MaxObjectID(); got != 0 {
		t.Errorf("empty MaxObjectID() = %d, want 0", got)
	}
	d.Replace(ObjGen{ID: 3}, Null{})
	d.Replace(ObjGen{ID: 12, Gen: 4}, Null{})
	if got := d.MaxObjectID(); got != 12 {
		t.Errorf("MaxObjectID() = %d, want 12", got)
	}
}

func TestDescriptions(t *testing.T) {
	d := New()
	og := ObjGen{ID: 1}
	d.SetDescription(og, "input.json, obj:1 0 R at offset 40")
	if got := d.Description(og); got != "input.json, obj:1 0 R at offset 40" {
		t.Errorf("Description = %q", got)
	}
	if got := d.Description(ObjGen{ID: 2}); got != "" {
		t.Errorf("Description of unknown object = %q, want empty", got)
	}
	d.SetTrailerDescription("input.json, trailer at offset 90")
	if got := d.TrailerDescription(); got != "input.json, trailer at offset 90" {
		t.Errorf("TrailerDescription = %q", got)
	}
}

func TestDictAccessors(t *testing.T) {
	d := Dict{
		"Type":  Name("Page"),
		"Count": Integer(3),
		"Res":   Dict{"F": Name("X")},
		"Kids":  Array{Reference{Number: 1}},
	}

	if got := d.GetName("Type"); got != "Page" {
		t.Errorf("GetName(Type) = %q", got)
	}
	if got := d.GetName("Count"); got != "" {
		t.Errorf("GetName of non-name = %q, want empty", got)
	}
	if n, ok := d.GetInt("Count"); !ok || n != 3 {
		t.Errorf("GetInt(Count) = %d, %v", n, ok)
	}
	if _, ok := d.GetInt("Type"); ok {
		t.Errorf("GetInt of non-integer succeeded")
	}
	if sub := d.GetDict("Res"); sub == nil || sub.GetName("F") != "X" {
		t.Errorf("GetDict(Res) = %v", sub)
	}
	if arr := d.GetArray("Kids"); len(arr) != 1 {
		t.Errorf("GetArray(Kids) = %v", arr)
	}
	if d.GetDict("Missing") != nil || d.GetArray("Missing") != nil {
		t.Errorf("missing key lookups not nil")
	}

	want := []Name{"Count", "Kids", "Res", "Type"}
	if diff := cmp.Diff(want, d.SortedKeys()); diff != "" {
		t.Errorf("SortedKeys mismatch (-want +got):\n%s", diff)
	}
}

func TestObjGenString(t *testing.T) {
	if got := (ObjGen{ID: 10, Gen: 2}).String(); got != "10 2 R" {
		t.Errorf("String() = %q, want %q", got, "10 2 R")
	}
	if got := (Reference{Number: 3}).String(); got != "3 0 R" {
		t.Errorf("Reference.String() = %q, want %q", got, "3 0 R")
	}
	if og := (Reference{Number: 3, Generation: 1}).ObjGen(); og != (ObjGen{ID: 3, Gen: 1}) {
		t.Errorf("Reference.ObjGen() = %v", og)
	}
}

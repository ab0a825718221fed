package document

import "sort"

// Document is the object graph table: the single owner of all indirect
// objects, keyed by ObjGen, plus the trailer dictionary and the PDF
// version string.
//
// A Document is not safe for concurrent mutation. An import mutates it
// in place; an export assumes it is quiescent.
type Document struct {
	version      string
	objects      map[ObjGen]Object
	descriptions map[ObjGen]string
	trailer      Dict
	trailerDesc  string
}

// New creates an empty document.
func New() *Document {
	return &Document{
		objects:      make(map[ObjGen]Object),
		descriptions: make(map[ObjGen]string),
	}
}

// Version returns the PDF version string (e.g. "1.7"), or empty if not set.
func (d *Document) Version() string { return d.version }

// SetVersion sets the PDF version string.
func (d *Document) SetVersion(v string) { d.version = v }

// Trailer returns the trailer dictionary, or nil if not set.
func (d *Document) Trailer() Dict { return d.trailer }

// SetTrailer replaces the trailer dictionary.
func (d *Document) SetTrailer(t Dict) { d.trailer = t }

// Object looks up the object stored under og.
func (d *Document) Object(og ObjGen) (Object, bool) {
	obj, ok := d.objects[og]
	return obj, ok
}

// ReserveIfAbsent creates a Reserved placeholder under og if nothing is
// stored there yet. It returns the stored object and whether that
// object is (still) a Reserved placeholder.
func (d *Document) ReserveIfAbsent(og ObjGen) (Object, bool) {
	if obj, ok := d.objects[og]; ok {
		_, reserved := obj.(Reserved)
		return obj, reserved
	}
	d.objects[og] = Reserved{}
	return Reserved{}, true
}

// Replace atomically replaces the object stored under og. Holders refer
// to objects by ObjGen, so the replacement is observed everywhere
// without revisiting the graph.
func (d *Document) Replace(og ObjGen, obj Object) {
	d.objects[og] = obj
}

// ReserveStream installs a fresh empty stream under og and returns it.
func (d *Document) ReserveStream(og ObjGen) *Stream {
	s := NewStream()
	d.objects[og] = s
	return s
}

// SetDescription attaches a human-readable description to the object
// stored under og, for diagnostics.
func (d *Document) SetDescription(og ObjGen, desc string) {
	d.descriptions[og] = desc
}

// Description returns the description attached to og, if any.
func (d *Document) Description(og ObjGen) string {
	return d.descriptions[og]
}

// SetTrailerDescription attaches a description to the trailer.
func (d *Document) SetTrailerDescription(desc string) { d.trailerDesc = desc }

// TrailerDescription returns the description attached to the trailer.
func (d *Document) TrailerDescription() string { return d.trailerDesc }

// ObjGens returns the keys of all stored objects in ascending
// (id, generation) order.
func (d *Document) ObjGens() []ObjGen {
	ogs := make([]ObjGen, 0, len(d.objects))
	for og := range d.objects {
		ogs = append(ogs, og)
	}
	sort.Slice(ogs, func(i, j int) bool { return ogs[i].Less(ogs[j]) })
	return ogs
}

// MaxObjectID returns the largest object id present in the table, or 0
// for an empty document.
func (d *Document) MaxObjectID() int {
	max := 0
	for og := range d.objects {
		if og.ID > max {
			max = og.ID
		}
	}
	return max
}

// Resolve follows an object through the table: a Reference is looked up
// (a missing or still-reserved target resolves to Null); anything else
// is returned as-is.
func (d *Document) Resolve(obj Object) Object {
	ref, ok := obj.(Reference)
	if !ok {
		return obj
	}
	target, ok := d.objects[ref.ObjGen()]
	if !ok {
		return Null{}
	}
	if _, reserved := target.(Reserved); reserved {
		return Null{}
	}
	return target
}

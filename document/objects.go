// Package document holds the in-memory object graph of a PDF-style
// document: indirect objects keyed by (id, generation), the trailer
// dictionary, deferred stream payloads, and the stream decode pipeline.
//
// The graph is an arena: containers never own other indirect objects,
// they refer to them by Reference, and the Document table is the single
// owner. Replacing a table entry is therefore observed by every holder
// without rewriting the graph, and cyclic references are safe.
package document

import (
	"fmt"
	"sort"
)

// Object is the interface satisfied by all graph node types.
// The unexported method prevents external types from implementing it.
type Object interface {
	pdfObject()
	String() string
}

// Null represents the null object.
type Null struct{}

func (Null) pdfObject()     {}
func (Null) String() string { return "null" }

// Boolean represents a boolean value.
type Boolean bool

func (Boolean) pdfObject() {}
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents an integer value.
type Integer int64

func (Integer) pdfObject()       {}
func (i Integer) String() string { return fmt.Sprintf("%d", int64(i)) }

// Real represents a real number. The original textual form is kept so
// that precision survives a round trip instead of being collapsed to a
// binary float.
type Real string

func (Real) pdfObject()       {}
func (r Real) String() string { return string(r) }

// Name represents a name object (e.g., /Type, /Pages). The value does
// not include the leading slash.
type Name string

func (Name) pdfObject()       {}
func (n Name) String() string { return "/" + string(n) }

// String represents a string object as raw bytes. Text strings are
// stored either as ASCII or as UTF-16BE with a byte order mark.
type String struct {
	Value []byte
}

func (String) pdfObject()       {}
func (s String) String() string { return fmt.Sprintf("(%s)", s.Value) }

// Array represents an array of objects.
type Array []Object

func (Array) pdfObject()       {}
func (a Array) String() string { return fmt.Sprintf("[array len=%d]", len(a)) }

// Dict represents a dictionary mapping names to objects.
type Dict map[Name]Object

func (Dict) pdfObject()       {}
func (d Dict) String() string { return fmt.Sprintf("<<dict len=%d>>", len(d)) }

// GetName returns the value of a name entry, or empty string if not found.
func (d Dict) GetName(key Name) Name {
	if v, ok := d[key]; ok {
		if n, ok := v.(Name); ok {
			return n
		}
	}
	return ""
}

// GetInt returns the value of an integer entry, or 0 if not found.
func (d Dict) GetInt(key Name) (int64, bool) {
	if v, ok := d[key]; ok {
		if n, ok := v.(Integer); ok {
			return int64(n), true
		}
	}
	return 0, false
}

// GetDict returns a sub-dictionary, or nil if not found.
func (d Dict) GetDict(key Name) Dict {
	if v, ok := d[key]; ok {
		if sub, ok := v.(Dict); ok {
			return sub
		}
	}
	return nil
}

// GetArray returns an array entry, or nil if not found.
func (d Dict) GetArray(key Name) Array {
	if v, ok := d[key]; ok {
		if arr, ok := v.(Array); ok {
			return arr
		}
	}
	return nil
}

// SortedKeys returns the dictionary keys in ascending order.
func (d Dict) SortedKeys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reference represents an indirect object reference (e.g., "10 0 R").
// Holders keep references, never direct links; the target lives in the
// Document table.
type Reference struct {
	Number     int
	Generation int
}

func (Reference) pdfObject() {}
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// ObjGen returns the table key for the referenced object.
func (r Reference) ObjGen() ObjGen {
	return ObjGen{ID: r.Number, Gen: r.Generation}
}

// Stream represents a stream object: a dictionary plus a deferred
// payload. The payload supplies the raw (still-encoded) stream bytes
// and is only pulled when the stream is written out.
type Stream struct {
	Dict    Dict
	payload Payload
}

func (*Stream) pdfObject() {}
func (s *Stream) String() string {
	return fmt.Sprintf("<<stream dict len=%d>>", len(s.Dict))
}

// NewStream creates an empty stream with no payload.
func NewStream() *Stream {
	return &Stream{Dict: make(Dict)}
}

// SetPayload replaces the stream's deferred payload.
func (s *Stream) SetPayload(p Payload) { s.payload = p }

// Payload returns the stream's deferred payload, or nil if none has
// been attached.
func (s *Stream) Payload() Payload { return s.payload }

// Reserved is a placeholder for an object that has been referenced but
// not yet defined. It carries no data and must never survive past the
// end of an import.
type Reserved struct{}

func (Reserved) pdfObject()     {}
func (Reserved) String() string { return "reserved" }

// ObjGen identifies one indirect object by id and generation.
type ObjGen struct {
	ID  int
	Gen int
}

// String returns the reference form, e.g. "10 0 R".
func (og ObjGen) String() string { return fmt.Sprintf("%d %d R", og.ID, og.Gen) }

// Less orders ObjGens by id, then generation.
func (og ObjGen) Less(other ObjGen) bool {
	if og.ID != other.ID {
		return og.ID < other.ID
	}
	return og.Gen < other.Gen
}

// Package jsondoc converts between a textual document-exchange
// representation and the in-memory object graph of a PDF-style
// document.
//
// The textual schema is a JSON dictionary:
//
//	{ "document": {
//	    "pdfversion": "1.7",
//	    "objects": {
//	      "obj:1 0 R": { "value": ... },
//	      "obj:4 0 R": { "stream": { "dict": {...}, "data": "<base64>" } },
//	      "trailer": { "value": {...} }
//	} } }
//
// Create and Update import such a document (full vs. partial
// completeness); Export walks an object graph and re-emits the same
// schema, streaming stream payloads without buffering them.
package jsondoc

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindDict
)

// String returns the schema-facing name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDict:
		return "dictionary"
	}
	return "invalid"
}

// Value is one parsed scalar or container produced by the tokenizer.
// Containers are delivered as shells: kind and start offset before
// their contents, the full span at container end. Every value carries
// its byte span in the source for error reporting; a string's span
// includes the surrounding quotes.
type Value struct {
	Kind  Kind
	Bool  bool   // valid when Kind == KindBool
	Str   string // string contents, or a number's textual form
	Start int64  // offset of the first byte of the token
	End   int64  // offset one past the last byte; 0 on container shells
}

// IsDict reports whether the value is a dictionary.
func (v Value) IsDict() bool { return v.Kind == KindDict }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.Kind == KindString }

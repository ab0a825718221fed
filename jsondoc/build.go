package jsondoc

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/lvillar/pdfjson/document"
)

// Compiled recognizers for the schema's key and string sub-encodings.
// Immutable, initialized once at startup.
var (
	pdfVersionRe = regexp.MustCompile(`^\d+\.\d+$`)
	objKeyRe     = regexp.MustCompile(`^obj:(\d+) (\d+) R$`)
	indirectRe   = regexp.MustCompile(`^(\d+) (\d+) R$`)
	binaryRe     = regexp.MustCompile(`^b:((?:[0-9a-fA-F]{2})*)$`)
)

// utf16Text encodes non-ASCII text strings as UTF-16BE with a byte
// order mark, the form PDF text strings use.
var utf16Text = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// parseObjGen converts the two digit groups of an object key or
// indirect reference. The groups are regex-validated digits.
func parseObjGen(id, gen string) document.ObjGen {
	o, _ := strconv.Atoi(id)
	g, _ := strconv.Atoi(gen)
	return document.ObjGen{ID: o, Gen: g}
}

// dictKeyName converts a schema dictionary key ("/Type") to a name.
func dictKeyName(key string) document.Name {
	return document.Name(strings.TrimPrefix(key, "/"))
}

// makeScalar converts one scalar Value into a graph node.
//
// Numbers keep their textual form: they become Integer when they parse
// as a 64-bit signed integer, Real otherwise. Strings are classified,
// in order, as indirect reference ("n g R"), Unicode text ("u:..."),
// binary from hex ("b:..."), or name ("/..."); anything else is a
// recoverable error yielding the null object.
func (r *reactor) makeScalar(v Value) (document.Object, error) {
	switch v.Kind {
	case KindNull:
		return document.Null{}, nil
	case KindBool:
		return document.Boolean(v.Bool), nil
	case KindNumber:
		if i, err := strconv.ParseInt(v.Str, 10, 64); err == nil {
			return document.Integer(i), nil
		}
		return document.Real(v.Str), nil
	case KindString:
		return r.makeString(v), nil
	}
	return nil, fmt.Errorf("jsondoc: internal error: uninitialized node at offset %d", v.Start)
}

// makeString classifies a string scalar by its sub-encoding.
func (r *reactor) makeString(v Value) document.Object {
	s := v.Str
	if m := indirectRe.FindStringSubmatch(s); m != nil {
		return r.reserveObject(parseObjGen(m[1], m[2]))
	}
	if text, ok := strings.CutPrefix(s, "u:"); ok {
		return makeTextString(text)
	}
	if m := binaryRe.FindStringSubmatch(s); m != nil {
		raw, err := hex.DecodeString(m[1])
		if err == nil {
			return document.String{Value: raw}
		}
		// The pattern guarantees even-length hex; fall through to the
		// unrecognized case only if decoding still fails.
	}
	if strings.HasPrefix(s, "/") {
		return document.Name(s[1:])
	}
	r.error(v.Start, "unrecognized string value")
	return document.Null{}
}

// makeTextString stores ASCII text verbatim and everything else as
// UTF-16BE with a byte order mark.
func makeTextString(text string) document.Object {
	if isASCII(text) {
		return document.String{Value: []byte(text)}
	}
	encoded, err := utf16Text.NewEncoder().Bytes([]byte(text))
	if err != nil {
		// UTF-16 can represent all of Unicode; keep the UTF-8 bytes if
		// encoding fails anyway.
		return document.String{Value: []byte(text)}
	}
	return document.String{Value: encoded}
}

// isASCII reports whether s contains only 7-bit characters.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

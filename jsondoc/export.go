package jsondoc

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lvillar/pdfjson/document"
)

// SchemaVersion is the only supported export schema version.
const SchemaVersion = 2

// StreamDataMode selects how stream payloads appear in exported output.
type StreamDataMode int

const (
	// StreamDataInline base64-encodes payloads into the output.
	StreamDataInline StreamDataMode = iota
	// StreamDataFile writes each payload to a sibling file named by
	// object id under the configured prefix.
	StreamDataFile
)

// Options configures an export.
type Options struct {
	// Version is the schema version. It must be SchemaVersion.
	Version int
	// DecodeLevel selects how much filtering is undone before stream
	// payloads are emitted.
	DecodeLevel document.DecodeLevel
	// StreamData selects inline base64 or external files for payloads.
	StreamData StreamDataMode
	// FilePrefix names external payload files: "<prefix>-<id>".
	// Required when StreamData is StreamDataFile.
	FilePrefix string
	// WantedObjects restricts output to the listed entries, keyed the
	// same way as on import ("obj:<id> <gen> R", "trailer"). Empty
	// means all objects.
	WantedObjects map[string]bool
}

// Export walks doc's object graph in ascending object-number order and
// writes the textual schema to w. Stream payloads are pulled through
// the document's decode pipeline at the configured level and streamed
// out without buffering.
func Export(doc *document.Document, w io.Writer, opts Options) error {
	if opts.Version != SchemaVersion {
		return fmt.Errorf("jsondoc: export version %d: %w", opts.Version, ErrUnsupportedVersion)
	}
	if opts.StreamData == StreamDataFile && opts.FilePrefix == "" {
		return fmt.Errorf("jsondoc: external stream data requires a file prefix")
	}
	e := &exporter{doc: doc, w: newWriter(w), opts: opts}
	return e.run()
}

type exporter struct {
	doc  *document.Document
	w    *writer
	opts Options
}

func (e *exporter) wanted(key string) bool {
	return len(e.opts.WantedObjects) == 0 || e.opts.WantedObjects[key]
}

func (e *exporter) run() error {
	w := e.w
	first := true
	w.raw("{")
	w.key(&first, 1, "document")
	w.raw("{")

	firstDoc := true
	w.key(&firstDoc, 2, "pdfversion")
	w.quoted(e.doc.Version())
	w.key(&firstDoc, 2, "maxobjectid")
	w.raw(strconv.Itoa(e.doc.MaxObjectID()))
	w.key(&firstDoc, 2, "objects")
	w.raw("{")

	firstObj := true
	for _, og := range e.doc.ObjGens() {
		key := "obj:" + og.String()
		if !e.wanted(key) {
			continue
		}
		obj, _ := e.doc.Object(og)
		if s, ok := obj.(*document.Stream); ok {
			if err := e.writeStreamEntry(&firstObj, key, og, s); err != nil {
				return err
			}
		} else {
			e.writeValueEntry(&firstObj, key, obj)
		}
	}
	if trailer := e.doc.Trailer(); trailer != nil && e.wanted("trailer") {
		e.writeValueEntry(&firstObj, "trailer", trailer)
	}

	w.closeContainer(firstObj, 2, "}")
	w.closeContainer(false, 1, "}")
	w.closeContainer(false, 0, "}")
	w.raw("\n")
	return w.flush()
}

// writeValueEntry emits one non-stream entry: {"value": ...}.
func (e *exporter) writeValueEntry(first *bool, key string, obj document.Object) {
	w := e.w
	w.key(first, 3, key)
	w.raw("{")
	inner := true
	w.key(&inner, 4, "value")
	e.writeValue(obj, 4)
	w.closeContainer(false, 3, "}")
}

// writeStreamEntry emits one stream entry, streaming the payload
// either inline as base64 or into an external file.
func (e *exporter) writeStreamEntry(first *bool, key string, og document.ObjGen, s *document.Stream) error {
	w := e.w
	w.key(first, 3, key)
	w.raw("{")
	entry := true
	w.key(&entry, 4, "stream")
	w.raw("{")

	rc, removed, err := e.openPayload(s)
	if err != nil {
		return fmt.Errorf("jsondoc: stream %s: %w", og, err)
	}
	defer rc.Close()

	inner := true
	w.key(&inner, 5, "dict")
	e.writeValue(exportStreamDict(s.Dict, removed), 5)

	if e.opts.StreamData == StreamDataFile {
		filename := e.opts.FilePrefix + "-" + strconv.Itoa(og.ID)
		if err := writePayloadFile(filename, rc); err != nil {
			return fmt.Errorf("jsondoc: stream %s: %w", og, err)
		}
		w.key(&inner, 5, "datafile")
		w.quoted(filename)
	} else {
		w.key(&inner, 5, "data")
		w.raw(`"`)
		enc := base64.NewEncoder(base64.StdEncoding, w)
		if err := copyChunked(enc, rc); err != nil {
			return fmt.Errorf("jsondoc: stream %s: %w", og, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("jsondoc: stream %s: %w", og, err)
		}
		w.raw(`"`)
	}

	w.closeContainer(false, 4, "}")
	w.closeContainer(false, 3, "}")
	return w.err
}

// openPayload opens the stream's bytes at the configured decode level.
// A stream with no payload attached yields empty data.
func (e *exporter) openPayload(s *document.Stream) (io.ReadCloser, bool, error) {
	if s.Payload() == nil {
		return io.NopCloser(bytes.NewReader(nil)), false, nil
	}
	return s.DecodedReader(e.opts.DecodeLevel)
}

// exportStreamDict prepares a stream dictionary for emission: /Length
// is derivable and always dropped; /Filter and /DecodeParms are
// dropped only when the decode pipeline removed the whole chain.
func exportStreamDict(dict document.Dict, removed bool) document.Dict {
	out := make(document.Dict, len(dict))
	for k, v := range dict {
		if k == "Length" {
			continue
		}
		if removed && (k == "Filter" || k == "DecodeParms") {
			continue
		}
		out[k] = v
	}
	return out
}

// writePayloadFile streams the payload into a newly created file.
func writePayloadFile(filename string, r io.Reader) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := copyChunked(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// copyChunked moves bytes through a fixed-size buffer so payload
// transfer never holds more than one chunk in memory.
func copyChunked(w io.Writer, r io.Reader) error {
	buf := make([]byte, 8192)
	_, err := io.CopyBuffer(w, struct{ io.Reader }{r}, buf)
	return err
}

// writeValue emits one graph node in the textual schema.
func (e *exporter) writeValue(obj document.Object, depth int) {
	w := e.w
	switch o := obj.(type) {
	case nil, document.Null, document.Reserved:
		// Reserved nodes never survive an import; emit null defensively.
		w.raw("null")
	case document.Boolean:
		w.raw(o.String())
	case document.Integer:
		w.raw(o.String())
	case document.Real:
		w.raw(normalizeNumber(string(o)))
	case document.Name:
		w.quoted("/" + string(o))
	case document.Reference:
		w.quoted(o.String())
	case document.String:
		w.quoted(stringForm(o.Value))
	case document.Array:
		w.raw("[")
		first := true
		for _, item := range o {
			w.next(&first, depth+1)
			e.writeValue(item, depth+1)
		}
		w.closeContainer(first, depth, "]")
	case document.Dict:
		w.raw("{")
		first := true
		for _, k := range o.SortedKeys() {
			w.key(&first, depth+1, "/"+string(k))
			e.writeValue(o[k], depth+1)
		}
		w.closeContainer(first, depth, "}")
	case *document.Stream:
		// Streams are always indirect; one in value position means the
		// graph was built by hand. Emit its dictionary shape only.
		e.writeValue(o.Dict, depth)
	default:
		w.raw("null")
	}
}

// stringForm renders a string node as its schema sub-encoding: "u:"
// when the bytes carry text (UTF-16BE with BOM, or valid UTF-8),
// otherwise "b:<hex>".
func stringForm(b []byte) string {
	if len(b) >= 2 && b[0] == 0xfe && b[1] == 0xff {
		if decoded, err := utf16Text.NewDecoder().Bytes(b); err == nil {
			return "u:" + string(decoded)
		}
	}
	if utf8.Valid(b) {
		return "u:" + string(b)
	}
	return "b:" + hex.EncodeToString(b)
}

// normalizeNumber makes a stored real's textual form valid in the
// output schema without changing its numeric value: ".5" gains a
// leading zero and a bare trailing "." is dropped.
func normalizeNumber(s string) string {
	neg := false
	t := s
	if strings.HasPrefix(t, "-") {
		neg = true
		t = t[1:]
	} else if strings.HasPrefix(t, "+") {
		t = t[1:]
	}
	if strings.HasPrefix(t, ".") {
		t = "0" + t
	}
	t = strings.TrimSuffix(t, ".")
	if t == "" {
		t = "0"
	}
	if neg {
		t = "-" + t
	}
	return t
}

package jsondoc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/lvillar/pdfjson/document"
)

// source is the textual input being imported. The whole input is held
// in memory for offset-addressed access; stream payloads are decoded
// lazily from ranges of it and never copied out wholesale.
type source struct {
	name string
	data []byte
}

func (s *source) readerAt() io.ReaderAt { return bytes.NewReader(s.data) }

// Create builds a new document entirely from the named file. The input
// must be complete: "pdfversion" and a trailer are mandatory.
func Create(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsondoc: opening %s: %w", path, err)
	}
	return create(&source{name: path, data: data})
}

// CreateFrom is like Create but reads the input from r, using name in
// diagnostics.
func CreateFrom(name string, r io.Reader) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("jsondoc: reading input: %w", err)
	}
	return create(&source{name: name, data: data})
}

func create(src *source) (*document.Document, error) {
	doc := document.New()
	doc.SetVersion("1.3")
	if err := importJSON(doc, src, true); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update layers the edits described by the named file onto an existing
// document. The input is partial: "pdfversion" and the trailer are
// optional, and a stream entry may omit both "data" and "datafile" to
// update its dictionary alone.
func Update(doc *document.Document, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("jsondoc: opening %s: %w", path, err)
	}
	return importJSON(doc, &source{name: path, data: data}, false)
}

// UpdateFrom is like Update but reads the input from r.
func UpdateFrom(doc *document.Document, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("jsondoc: reading input: %w", err)
	}
	return importJSON(doc, &source{name: name, data: data}, false)
}

// importJSON drives one import: tokenizer events push through a fresh
// reactor into doc. Structural failures abort immediately; accumulated
// schema errors fail the call as a whole once the input is consumed.
func importJSON(doc *document.Document, src *source, complete bool) error {
	r := newReactor(doc, src, complete)
	if err := scan(src.data, r); err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	if len(r.errs) > 0 {
		return &ImportError{Source: src.name, Errors: r.errs}
	}
	return nil
}

package jsondoc

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural (fatal) failure conditions.
var (
	ErrNotDictionary      = errors.New("jsondoc: input must be a dictionary")
	ErrUnsupportedVersion = errors.New("jsondoc: only schema version 2 is supported")
)

// SchemaError records one recoverable schema violation: the byte
// offset of the offending value, the object entry being processed when
// it occurred (if any), and a message.
type SchemaError struct {
	Object string // e.g. "obj:1 0 R" or "trailer"; empty at root level
	Offset int64
	Msg    string
}

func (e *SchemaError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("%s, offset %d: %s", e.Object, e.Offset, e.Msg)
	}
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// ImportError is returned when an import consumed the whole document
// but recorded schema errors. The object graph is not promised to be
// fully well formed; callers can inspect the accumulated list.
type ImportError struct {
	Source string // input name
	Errors []*SchemaError
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: %d schema error(s) in input", e.Source, len(e.Errors))
}

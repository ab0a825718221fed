package jsondoc

import (
	"bufio"
	"fmt"
	"io"
)

// writer emits indented JSON. Errors stick: after the first write
// failure every later call is a no-op and Err reports the failure.
type writer struct {
	bw  *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{bw: bufio.NewWriter(w)}
}

// Write implements io.Writer so encoders can stream straight into the
// output.
func (w *writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.bw.Write(p)
	w.err = err
	return n, err
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.bw.WriteString(s)
}

// quoted writes s as a JSON string literal.
func (w *writer) quoted(s string) {
	if w.err != nil {
		return
	}
	w.raw(`"`)
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"':
			w.raw(`\"`)
		case b == '\\':
			w.raw(`\\`)
		case b == '\n':
			w.raw(`\n`)
		case b == '\r':
			w.raw(`\r`)
		case b == '\t':
			w.raw(`\t`)
		case b == '\b':
			w.raw(`\b`)
		case b == '\f':
			w.raw(`\f`)
		case b < 0x20:
			w.raw(fmt.Sprintf(`\u%04x`, b))
		default:
			// Multi-byte UTF-8 passes through unescaped.
			if w.err == nil {
				w.err = w.bw.WriteByte(b)
			}
		}
	}
	w.raw(`"`)
}

func (w *writer) indent(depth int) {
	for i := 0; i < depth; i++ {
		w.raw("  ")
	}
}

// next separates dictionary/array members: a comma after the previous
// member, then a newline and indentation for the new one.
func (w *writer) next(first *bool, depth int) {
	if *first {
		*first = false
	} else {
		w.raw(",")
	}
	w.raw("\n")
	w.indent(depth)
}

// key writes a member key and its separator.
func (w *writer) key(first *bool, depth int, k string) {
	w.next(first, depth)
	w.quoted(k)
	w.raw(": ")
}

// closeContainer writes the closing delimiter, on its own line unless
// the container stayed empty.
func (w *writer) closeContainer(first bool, depth int, delim string) {
	if !first {
		w.raw("\n")
		w.indent(depth)
	}
	w.raw(delim)
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.bw.Flush()
}

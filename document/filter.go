package document

import (
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"
)

// DecodeLevel selects how much filtering is undone before a stream's
// bytes are considered "raw" for export.
type DecodeLevel int

const (
	// DecodeNone passes stream data through exactly as stored.
	DecodeNone DecodeLevel = iota
	// DecodeGeneralized undoes lossless general-purpose filters
	// (FlateDecode, ASCIIHexDecode, ASCII85Decode).
	DecodeGeneralized
	// DecodeSpecialized additionally undoes lossless special-purpose
	// filters (RunLengthDecode).
	DecodeSpecialized
	// DecodeAll undoes every filter this package knows how to undo.
	DecodeAll
)

// String returns the textual form used by the CLI.
func (l DecodeLevel) String() string {
	switch l {
	case DecodeNone:
		return "none"
	case DecodeGeneralized:
		return "generalized"
	case DecodeSpecialized:
		return "specialized"
	case DecodeAll:
		return "all"
	}
	return fmt.Sprintf("DecodeLevel(%d)", int(l))
}

// ParseDecodeLevel parses the textual form of a decode level.
func ParseDecodeLevel(s string) (DecodeLevel, error) {
	switch s {
	case "none":
		return DecodeNone, nil
	case "generalized":
		return DecodeGeneralized, nil
	case "specialized":
		return DecodeSpecialized, nil
	case "all":
		return DecodeAll, nil
	}
	return 0, fmt.Errorf("document: unknown decode level %q", s)
}

// minLevel returns the lowest decode level at which the named filter
// can be undone, or false if this package cannot undo it at all.
func minLevel(name Name) (DecodeLevel, bool) {
	switch name {
	case "FlateDecode", "ASCIIHexDecode", "ASCII85Decode":
		return DecodeGeneralized, true
	case "RunLengthDecode":
		return DecodeSpecialized, true
	}
	return 0, false
}

// filterChain extracts the filter names from a stream dictionary.
// The /Filter entry may be a single name or an array of names.
func filterChain(dict Dict) ([]Name, error) {
	filter, ok := dict["Filter"]
	if !ok {
		return nil, nil
	}
	switch f := filter.(type) {
	case Name:
		return []Name{f}, nil
	case Array:
		var names []Name
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("document: filter array contains non-name: %T", item)
			}
			names = append(names, n)
		}
		return names, nil
	}
	return nil, fmt.Errorf("document: unexpected filter type: %T", filter)
}

// DecodedReader returns a reader over the stream's payload with as much
// of the filter chain undone as the level allows. The second result
// reports whether the whole chain was removed; if any filter cannot be
// undone at the level, or /DecodeParms is present, the payload is
// passed through raw and the chain is kept.
//
// The returned reader streams; it never buffers the payload.
func (s *Stream) DecodedReader(level DecodeLevel) (io.ReadCloser, bool, error) {
	if s.payload == nil {
		return nil, false, fmt.Errorf("document: stream has no data")
	}
	rc, err := s.payload.Open()
	if err != nil {
		return nil, false, err
	}
	if level == DecodeNone {
		return rc, false, nil
	}
	filters, err := filterChain(s.Dict)
	if err != nil {
		rc.Close()
		return nil, false, err
	}
	if len(filters) == 0 {
		return rc, false, nil
	}
	if _, ok := s.Dict["DecodeParms"]; ok {
		// Predictors and other parameterized decoding are not undone.
		return rc, false, nil
	}
	for _, f := range filters {
		min, ok := minLevel(f)
		if !ok || min > level {
			return rc, false, nil
		}
	}
	r := io.Reader(rc)
	for _, f := range filters {
		r, err = applyFilter(f, r)
		if err != nil {
			rc.Close()
			return nil, false, fmt.Errorf("document: applying filter %s: %w", f, err)
		}
	}
	return &chainReader{r: r, base: rc}, true, nil
}

// chainReader reads from the head of a filter chain and closes the
// underlying payload reader.
type chainReader struct {
	r    io.Reader
	base io.ReadCloser
}

func (c *chainReader) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *chainReader) Close() error               { return c.base.Close() }

// applyFilter wraps r with a reader that undoes a single filter.
func applyFilter(name Name, r io.Reader) (io.Reader, error) {
	switch name {
	case "FlateDecode":
		return zlib.NewReader(r)
	case "ASCIIHexDecode":
		return &asciiHexReader{r: r}, nil
	case "ASCII85Decode":
		return ascii85.NewDecoder(&ascii85Trim{r: r}), nil
	case "RunLengthDecode":
		return &runLengthReader{r: r}, nil
	}
	return nil, fmt.Errorf("unsupported filter: %s", name)
}

// isStreamWhitespace reports whether b is a PDF whitespace character.
func isStreamWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

// asciiHexReader decodes ASCII hex data, skipping whitespace and
// stopping at '>'. An odd trailing nibble is padded with zero.
type asciiHexReader struct {
	r    io.Reader
	hi   int // pending high nibble, -1 if none
	done bool
	init bool
}

func (h *asciiHexReader) Read(p []byte) (int, error) {
	if !h.init {
		h.hi = -1
		h.init = true
	}
	if h.done {
		return 0, io.EOF
	}
	n := 0
	var in [payloadChunk]byte
	for n == 0 {
		rn, err := h.r.Read(in[:min(len(in), len(p))])
		for _, b := range in[:rn] {
			if b == '>' {
				if h.hi >= 0 {
					p[n] = byte(h.hi << 4)
					n++
					h.hi = -1
				}
				h.done = true
				break
			}
			if isStreamWhitespace(b) {
				continue
			}
			v := unhex(b)
			if v < 0 {
				return n, fmt.Errorf("ascii hex decode: invalid character %q", b)
			}
			if h.hi < 0 {
				h.hi = v
			} else {
				p[n] = byte(h.hi<<4 | v)
				n++
				h.hi = -1
			}
		}
		if h.done {
			break
		}
		if err == io.EOF {
			if h.hi >= 0 && n < len(p) {
				p[n] = byte(h.hi << 4)
				n++
				h.hi = -1
			}
			h.done = true
			break
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// unhex returns the numeric value of a hex digit, or -1 if not valid.
func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

// ascii85Trim terminates the input at the "~>" end marker so the
// stdlib ascii85 decoder never sees it.
type ascii85Trim struct {
	r    io.Reader
	done bool
}

func (t *ascii85Trim) Read(p []byte) (int, error) {
	if t.done {
		return 0, io.EOF
	}
	n, err := t.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == '~' {
			t.done = true
			return i, nil
		}
	}
	return n, err
}

// runLengthReader decodes RunLength-encoded data: a length byte 0-127
// means copy the next length+1 bytes literally; 129-255 means repeat
// the next byte 257-length times; 128 is end of data.
type runLengthReader struct {
	r       io.Reader
	br      io.ByteReader
	pending []byte
	done    bool
}

func (rl *runLengthReader) byteReader() io.ByteReader {
	if rl.br == nil {
		if br, ok := rl.r.(io.ByteReader); ok {
			rl.br = br
		} else {
			rl.br = &singleByteReader{r: rl.r}
		}
	}
	return rl.br
}

func (rl *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	br := rl.byteReader()
	for n < len(p) {
		if len(rl.pending) > 0 {
			c := copy(p[n:], rl.pending)
			rl.pending = rl.pending[c:]
			n += c
			continue
		}
		if rl.done {
			break
		}
		length, err := br.ReadByte()
		if err == io.EOF || (err == nil && length == 128) {
			rl.done = true
			break
		}
		if err != nil {
			return n, err
		}
		if length < 128 {
			lit := make([]byte, int(length)+1)
			if _, err := io.ReadFull(rl.r, lit); err != nil {
				return n, fmt.Errorf("run length decode: truncated literal: %w", err)
			}
			rl.pending = lit
		} else {
			b, err := br.ReadByte()
			if err != nil {
				return n, fmt.Errorf("run length decode: truncated run: %w", err)
			}
			run := make([]byte, 257-int(length))
			for i := range run {
				run[i] = b
			}
			rl.pending = run
		}
	}
	if n == 0 && rl.done {
		return 0, io.EOF
	}
	return n, nil
}

// singleByteReader adapts an io.Reader to io.ByteReader.
type singleByteReader struct {
	r io.Reader
}

func (s *singleByteReader) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(s.r, b[:])
	return b[0], err
}

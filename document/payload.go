package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

// payloadChunk is the transfer buffer size for stream payloads. Payload
// data moves through the pipeline one chunk at a time; memory use is
// bounded by this size, not by the payload.
const payloadChunk = 8192

// Payload is a deferred supplier of a stream object's raw bytes. It is
// invoked lazily, only when the stream-write path asks for data.
type Payload interface {
	// Open returns a reader over the raw (still-encoded) stream bytes.
	Open() (io.ReadCloser, error)
}

// Base64Region returns a payload that base64-decodes the byte range
// [start, end) of src. The range must exclude the delimiters of the
// textual string it came from; a negative length is an internal
// consistency failure.
func Base64Region(src io.ReaderAt, start, end int64) (Payload, error) {
	if end < start {
		return nil, fmt.Errorf("document: base64 region length %d < 0", end-start)
	}
	return &base64Region{src: src, start: start, end: end}, nil
}

type base64Region struct {
	src        io.ReaderAt
	start, end int64
}

func (p *base64Region) Open() (io.ReadCloser, error) {
	section := io.NewSectionReader(p.src, p.start, p.end-p.start)
	return io.NopCloser(base64.NewDecoder(base64.StdEncoding, section)), nil
}

// FilePayload returns a payload that streams the named file's contents
// verbatim. The file is opened when the payload is pulled, not when it
// is attached.
func FilePayload(path string) Payload {
	return filePayload(path)
}

type filePayload string

func (p filePayload) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, fmt.Errorf("document: opening stream data file: %w", err)
	}
	return f, nil
}

// BytesPayload returns a payload over in-memory bytes.
func BytesPayload(b []byte) Payload {
	return bytesPayload(b)
}

type bytesPayload []byte

func (p bytesPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p)), nil
}

// CopyPayload pulls the payload's bytes and pushes them into w through
// a fixed-size buffer.
func CopyPayload(w io.Writer, p Payload) error {
	rc, err := p.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return copyChunked(w, rc)
}

// copyChunked copies r to w in payloadChunk-sized reads. The reader is
// wrapped so io.CopyBuffer cannot bypass the buffer via WriterTo.
func copyChunked(w io.Writer, r io.Reader) error {
	buf := make([]byte, payloadChunk)
	_, err := io.CopyBuffer(w, struct{ io.Reader }{r}, buf)
	return err
}

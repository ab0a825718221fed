package document

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readPayload(t *testing.T, p Payload) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := CopyPayload(&buf, p); err != nil {
		t.Fatalf("CopyPayload: %v", err)
	}
	return buf.Bytes()
}

func TestBase64Region(t *testing.T) {
	src := strings.NewReader(`{"data": "cG90YXRv"}`)
	p, err := Base64Region(src, 10, 18)
	if err != nil {
		t.Fatalf("Base64Region: %v", err)
	}
	if got := readPayload(t, p); string(got) != "potato" {
		t.Errorf("payload = %q, want %q", got, "potato")
	}
}

func TestBase64RegionEmpty(t *testing.T) {
	p, err := Base64Region(strings.NewReader(`""`), 1, 1)
	if err != nil {
		t.Fatalf("Base64Region: %v", err)
	}
	if got := readPayload(t, p); len(got) != 0 {
		t.Errorf("payload = %q, want empty", got)
	}
}

func TestBase64RegionNegativeLength(t *testing.T) {
	if _, err := Base64Region(strings.NewReader(""), 5, 3); err == nil {
		t.Errorf("negative region accepted")
	}
}

func TestBase64RegionBadData(t *testing.T) {
	src := strings.NewReader("!!!not base64!!!")
	p, err := Base64Region(src, 0, 16)
	if err != nil {
		t.Fatalf("Base64Region: %v", err)
	}
	// The error surfaces when the payload is pulled.
	rc, err := p.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if _, err := io.ReadAll(rc); err == nil {
		t.Errorf("decoding invalid base64 succeeded")
	}
}

func TestBase64RegionRereadable(t *testing.T) {
	src := strings.NewReader("aGk=")
	p, err := Base64Region(src, 0, 4)
	if err != nil {
		t.Fatalf("Base64Region: %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := readPayload(t, p); string(got) != "hi" {
			t.Errorf("read %d = %q, want %q", i, got, "hi")
		}
	}
}

func TestFilePayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("file bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readPayload(t, FilePayload(path)); string(got) != "file bytes" {
		t.Errorf("payload = %q, want %q", got, "file bytes")
	}
}

func TestFilePayloadMissingFile(t *testing.T) {
	p := FilePayload(filepath.Join(t.TempDir(), "absent"))
	if _, err := p.Open(); err == nil {
		t.Errorf("Open of missing file succeeded")
	}
}

func TestBytesPayload(t *testing.T) {
	if got := readPayload(t, BytesPayload([]byte("abc"))); string(got) != "abc" {
		t.Errorf("payload = %q, want %q", got, "abc")
	}
}

func TestCopyPayloadLarge(t *testing.T) {
	// Larger than one transfer chunk, to cross the buffer boundary.
	data := bytes.Repeat([]byte("0123456789abcdef"), 3*1024)
	if got := readPayload(t, BytesPayload(data)); !bytes.Equal(got, data) {
		t.Errorf("payload of %d bytes corrupted (got %d bytes)", len(data), len(got))
	}
}

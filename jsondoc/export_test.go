package jsondoc

import (
	"bytes"
	"compress/zlib"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfjson/document"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	return buf.Bytes()
}

func exportString(t *testing.T, doc *document.Document, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Export(doc, &buf, opts); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.String()
}

func TestExportLayout(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	doc.Replace(document.ObjGen{ID: 1}, document.Integer(42))
	doc.SetTrailer(document.Dict{"Size": document.Integer(2)})

	got := exportString(t, doc, Options{Version: SchemaVersion})
	want := `{
  "document": {
    "pdfversion": "1.3",
    "maxobjectid": 1,
    "objects": {
      "obj:1 0 R": {
        "value": 42
      },
      "trailer": {
        "value": {
          "/Size": 2
        }
      }
    }
  }
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestExportRequiresSupportedVersion(t *testing.T) {
	err := Export(document.New(), &bytes.Buffer{}, Options{Version: 1})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Export version 1: %v, want ErrUnsupportedVersion", err)
	}
}

func TestExportObjectOrder(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	doc.Replace(document.ObjGen{ID: 10}, document.Null{})
	doc.Replace(document.ObjGen{ID: 2, Gen: 1}, document.Null{})
	doc.Replace(document.ObjGen{ID: 2}, document.Null{})
	doc.SetTrailer(document.Dict{})

	out := exportString(t, doc, Options{Version: SchemaVersion})
	var keys []int
	for _, k := range []string{`"obj:2 0 R"`, `"obj:2 1 R"`, `"obj:10 0 R"`, `"trailer"`} {
		i := strings.Index(out, k)
		if i < 0 {
			t.Fatalf("output missing %s", k)
		}
		keys = append(keys, i)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			t.Errorf("entry %d out of order in output:\n%s", i, out)
		}
	}
}

func TestExportValueForms(t *testing.T) {
	tests := []struct {
		name string
		obj  document.Object
		want string
	}{
		{"null", document.Null{}, `null`},
		{"true", document.Boolean(true), `true`},
		{"integer", document.Integer(-7), `-7`},
		{"real keeps text", document.Real("0.100"), `0.100`},
		{"real leading dot", document.Real(".5"), `0.5`},
		{"real negative leading dot", document.Real("-.5"), `-0.5`},
		{"real trailing dot", document.Real("5."), `5`},
		{"name", document.Name("Type"), `"/Type"`},
		{"reference", document.Reference{Number: 3, Generation: 1}, `"3 1 R"`},
		{"ascii string", document.String{Value: []byte("hi")}, `"u:hi"`},
		{"utf8 string", document.String{Value: []byte("π")}, `"u:π"`},
		{
			"utf16 string",
			document.String{Value: []byte{0xfe, 0xff, 0x03, 0xc0}},
			`"u:π"`,
		},
		{
			"binary string",
			document.String{Value: []byte{0xde, 0xad, 0xbe, 0xef}},
			`"b:deadbeef"`,
		},
		{"empty array", document.Array{}, `[]`},
		{"empty dict", document.Dict{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New()
			doc.SetVersion("1.3")
			doc.Replace(document.ObjGen{ID: 1}, tt.obj)
			out := exportString(t, doc, Options{Version: SchemaVersion})
			if !strings.Contains(out, `"value": `+tt.want) {
				t.Errorf("output missing %q:\n%s", `"value": `+tt.want, out)
			}
		})
	}
}

func TestExportStreamInline(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	s := doc.ReserveStream(document.ObjGen{ID: 4})
	s.Dict = document.Dict{"Length": document.Integer(6), "K": document.Boolean(true)}
	s.SetPayload(document.BytesPayload([]byte("potato")))
	doc.SetTrailer(document.Dict{})

	out := exportString(t, doc, Options{Version: SchemaVersion})
	if !strings.Contains(out, `"data": "cG90YXRv"`) {
		t.Errorf("output missing inline data:\n%s", out)
	}
	// /Length is derivable and never emitted.
	if strings.Contains(out, "Length") {
		t.Errorf("output carries /Length:\n%s", out)
	}
	if !strings.Contains(out, `"/K": true`) {
		t.Errorf("output missing stream dict entry:\n%s", out)
	}
}

func TestExportStreamNoPayload(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	doc.ReserveStream(document.ObjGen{ID: 1})
	doc.SetTrailer(document.Dict{})

	out := exportString(t, doc, Options{Version: SchemaVersion})
	if !strings.Contains(out, `"data": ""`) {
		t.Errorf("output missing empty data:\n%s", out)
	}
}

func TestExportStreamFilterHandling(t *testing.T) {
	payload := deflate(t, []byte("potato"))

	newDoc := func() (*document.Document, *document.Stream) {
		doc := document.New()
		doc.SetVersion("1.3")
		s := doc.ReserveStream(document.ObjGen{ID: 1})
		s.Dict = document.Dict{"Filter": document.Name("FlateDecode")}
		s.SetPayload(document.BytesPayload(payload))
		doc.SetTrailer(document.Dict{})
		return doc, s
	}

	t.Run("decoded drops filter", func(t *testing.T) {
		doc, _ := newDoc()
		out := exportString(t, doc, Options{Version: SchemaVersion, DecodeLevel: document.DecodeGeneralized})
		if !strings.Contains(out, `"data": "cG90YXRv"`) {
			t.Errorf("output missing decoded data:\n%s", out)
		}
		if strings.Contains(out, "Filter") {
			t.Errorf("decoded output keeps /Filter:\n%s", out)
		}
	})

	t.Run("none keeps filter and raw bytes", func(t *testing.T) {
		doc, _ := newDoc()
		out := exportString(t, doc, Options{Version: SchemaVersion, DecodeLevel: document.DecodeNone})
		if !strings.Contains(out, `"/Filter": "/FlateDecode"`) {
			t.Errorf("raw output missing /Filter:\n%s", out)
		}
		if strings.Contains(out, "cG90YXRv") {
			t.Errorf("raw output contains decoded data:\n%s", out)
		}
	})

	t.Run("decode parms keeps chain", func(t *testing.T) {
		doc, s := newDoc()
		s.Dict["DecodeParms"] = document.Dict{"Predictor": document.Integer(12)}
		out := exportString(t, doc, Options{Version: SchemaVersion, DecodeLevel: document.DecodeAll})
		if !strings.Contains(out, `"/Filter"`) || !strings.Contains(out, `"/DecodeParms"`) {
			t.Errorf("parameterized output dropped chain:\n%s", out)
		}
		if strings.Contains(out, "cG90YXRv") {
			t.Errorf("parameterized output contains decoded data:\n%s", out)
		}
	})
}

func TestExportStreamToFile(t *testing.T) {
	dir := t.TempDir()
	doc := document.New()
	doc.SetVersion("1.3")
	s := doc.ReserveStream(document.ObjGen{ID: 7})
	s.SetPayload(document.BytesPayload([]byte("potato")))
	doc.SetTrailer(document.Dict{})

	prefix := filepath.Join(dir, "out")
	out := exportString(t, doc, Options{
		Version:    SchemaVersion,
		StreamData: StreamDataFile,
		FilePrefix: prefix,
	})
	if !strings.Contains(out, `"datafile": `) {
		t.Errorf("output missing datafile entry:\n%s", out)
	}
	data, err := os.ReadFile(prefix + "-7")
	if err != nil {
		t.Fatalf("reading payload file: %v", err)
	}
	if string(data) != "potato" {
		t.Errorf("payload file = %q, want %q", data, "potato")
	}
}

func TestExportFileModeRequiresPrefix(t *testing.T) {
	err := Export(document.New(), &bytes.Buffer{}, Options{
		Version:    SchemaVersion,
		StreamData: StreamDataFile,
	})
	if err == nil {
		t.Errorf("Export without file prefix succeeded")
	}
}

func TestExportSelection(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	doc.Replace(document.ObjGen{ID: 1}, document.Integer(1))
	doc.Replace(document.ObjGen{ID: 9}, document.Integer(9))
	doc.SetTrailer(document.Dict{"Size": document.Integer(10)})

	out := exportString(t, doc, Options{
		Version:       SchemaVersion,
		WantedObjects: map[string]bool{"obj:9 0 R": true, "trailer": true},
	})
	if strings.Contains(out, `"obj:1 0 R"`) {
		t.Errorf("unselected object present:\n%s", out)
	}
	if !strings.Contains(out, `"obj:9 0 R"`) || !strings.Contains(out, `"trailer"`) {
		t.Errorf("selected entries missing:\n%s", out)
	}
	// maxobjectid always reflects the whole graph, not the selection.
	if !strings.Contains(out, `"maxobjectid": 9`) {
		t.Errorf("maxobjectid not whole-graph:\n%s", out)
	}
}

func TestExportSelectionTrailerOnly(t *testing.T) {
	doc := document.New()
	doc.SetVersion("1.3")
	doc.Replace(document.ObjGen{ID: 5}, document.Integer(5))
	doc.SetTrailer(document.Dict{})

	out := exportString(t, doc, Options{
		Version:       SchemaVersion,
		WantedObjects: map[string]bool{"trailer": true},
	})
	if strings.Contains(out, `"obj:`) {
		t.Errorf("objects present in trailer-only selection:\n%s", out)
	}
	if !strings.Contains(out, `"maxobjectid": 5`) {
		t.Errorf("maxobjectid not whole-graph:\n%s", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	input := `{
	  "document": {
	    "pdfversion": "1.7",
	    "objects": {
	      "obj:1 0 R": {"value": {"/Type": "/Catalog", "/Pages": "2 0 R"}},
	      "obj:2 0 R": {"value": {"/Kids": ["3 0 R"], "/Count": 1}},
	      "obj:3 0 R": {"value": [null, true, 2.5, "u:text", "b:00ff"]},
	      "obj:4 0 R": {"stream": {"dict": {"/S": 1}, "data": "cG90YXRv"}},
	      "trailer": {"value": {"/Size": 5, "/Root": "1 0 R"}}
	    }
	  }
	}`
	doc := mustCreate(t, input)
	first := exportString(t, doc, Options{Version: SchemaVersion})

	redoc, err := CreateFrom("roundtrip", strings.NewReader(first))
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	second := exportString(t, redoc, Options{Version: SchemaVersion})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("round trip not stable (-first +second):\n%s", diff)
	}
}

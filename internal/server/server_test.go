package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/atlas/internal/atlas"
	"github.com/woozymasta/atlas/internal/layout"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func testRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "munich")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	m := &atlas.Manifest{
		Title: "Munich",
		PDF:   "munich.pdf",
		Fit:   layout.Fit{Denominator: 25000, PagesWide: 2, PagesTall: 1},
		Pages: []atlas.ManifestPage{{Number: 4}, {Number: 5}},
	}
	if err := atlas.WriteManifest(filepath.Join(dir, atlas.ManifestName), m); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "munich.pdf"), []byte("%PDF-1.3"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("no"), 0644); err != nil {
		t.Fatal(err)
	}
	// not an atlas
	if err := os.MkdirAll(filepath.Join(root, "cache"), 0755); err != nil {
		t.Fatal(err)
	}

	return root
}

func testHandler(t *testing.T) http.Handler {
	t.Helper()

	s, err := NewServerContext(testRoot(t))
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/atlases", s.HandleAtlasList)
	mux.HandleFunc("/atlases/", s.HandleAtlasFile)
	mux.HandleFunc("/", s.HandleIndex)
	return mux
}

func get(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServerContext(t *testing.T) {
	s, err := NewServerContext(testRoot(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Atlases) != 1 || s.Atlases[0].Name != "munich" {
		t.Fatalf("atlases = %+v", s.Atlases)
	}
	if !bytes.Contains(s.IndexHTML, []byte("Munich")) {
		t.Errorf("index does not list the atlas:\n%s", s.IndexHTML)
	}

	if _, err := NewServerContext(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestHandlers(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		path   string
		status int
		ctype  string
	}{
		{"/", http.StatusOK, "text/html; charset=utf-8"},
		{"/api/atlases", http.StatusOK, "application/json"},
		{"/atlases/munich/munich.pdf", http.StatusOK, "application/pdf"},
		{"/atlases/munich/manifest.json", http.StatusOK, "application/json"},
		{"/atlases/munich/overview.webp", http.StatusNotFound, ""},
		{"/atlases/munich/secret.txt", http.StatusNotFound, ""},
		{"/atlases/cache/manifest.json", http.StatusNotFound, ""},
		{"/atlases/munich", http.StatusNotFound, ""},
		{"/favicon.ico", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(h, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.ctype != "" && rec.Header().Get("Content-Type") != tt.ctype {
				t.Errorf("content type = %q, want %q", rec.Header().Get("Content-Type"), tt.ctype)
			}
		})
	}
}

func TestAtlasList(t *testing.T) {
	rec := get(testHandler(t), "/api/atlases", nil)

	var list []Atlas
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Manifest.Title != "Munich" || len(list[0].Manifest.Pages) != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestETag(t *testing.T) {
	h := testHandler(t)

	for _, path := range []string{"/", "/atlases/munich/munich.pdf"} {
		first := get(h, path, nil)
		etag := first.Header().Get("ETag")
		if etag == "" {
			t.Fatalf("%s: no ETag", path)
		}

		second := get(h, path, http.Header{"If-None-Match": {etag}})
		if second.Code != http.StatusNotModified {
			t.Errorf("%s: status = %d, want 304", path, second.Code)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))
	get(h, "/pot", nil)

	out := buf.String()
	for _, want := range []string{`"status":418`, `"bytes":3`, `"path":"/pot"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %s", out, want)
		}
	}
}

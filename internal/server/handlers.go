// Package server serves generated atlases over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/woozymasta/atlas/internal/atlas"
)

const etagCap = 64

// HandleAtlasList serves the manifests of all atlases.
func (s *ServerContext) HandleAtlasList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Atlases)
}

// HandleIndex serves the HTML listing.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	h := fnv.New64a()
	_, _ = h.Write(s.IndexHTML)
	etag := fmt.Sprintf(`"%x"`, h.Sum64())

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleAtlasFile serves the files of one atlas.
func (s *ServerContext) HandleAtlasFile(w http.ResponseWriter, r *http.Request) {
	// Path: /atlases/{name}/{file}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}

	a, ok := s.byName[parts[1]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// allow only the files the manifest names to prevent path probing
	var contentType string
	switch parts[2] {
	case a.Manifest.PDF:
		contentType = "application/pdf"
	case atlas.ManifestName:
		contentType = "application/json"
	case atlas.OverviewWebP:
		contentType = "image/webp"
	case atlas.OverviewSVG:
		contentType = "image/svg+xml"
	default:
		http.NotFound(w, r)
		return
	}

	if !s.serveFile(w, r, filepath.Join(s.Root, a.Name, parts[2]), contentType) {
		http.NotFound(w, r)
	}
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

package server

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/woozymasta/atlas/internal/atlas"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// Atlas is one generated atlas found in the output directory.
type Atlas struct {
	Name     string          `json:"name"`
	Manifest *atlas.Manifest `json:"manifest"`
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Root      string
	Atlases   []Atlas
	IndexHTML []byte

	byName map[string]*Atlas
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Atlases</title>
  </head>
  <body>
    <h1>Atlases</h1>
    {{- range .}}
    <section>
      <h2>{{.Manifest.Title}}</h2>
      <p>
        1:{{printf "%.0f" .Manifest.Fit.Denominator}},
        {{len .Manifest.Pages}} map pages,
        {{len .Manifest.IndexPages}} index pages
      </p>
      <a href="/atlases/{{.Name}}/{{.Manifest.PDF}}">
        <img src="/atlases/{{.Name}}/overview.webp" alt="{{.Manifest.Title}}" width="512">
      </a>
    </section>
    {{- else}}
    <p>No atlas has been generated yet.</p>
    {{- end}}
  </body>
</html>
`))

// NewServerContext scans root for atlas directories, each holding a
// manifest, and renders the index page.
func NewServerContext(root string) (*ServerContext, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	s := &ServerContext{Root: root, byName: make(map[string]*Atlas)}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		path := filepath.Join(root, e.Name(), atlas.ManifestName)
		m, err := atlas.ReadManifest(path)
		if err != nil {
			log.Trace().
				Err(err).
				Str("dir", e.Name()).
				Msg("Directory skipped: no readable manifest")
			continue
		}

		log.Debug().
			Str("atlas", e.Name()).
			Str("title", m.Title).
			Int("pages", len(m.Pages)).
			Msg("Atlas found")

		s.Atlases = append(s.Atlases, Atlas{Name: e.Name(), Manifest: m})
	}

	sort.Slice(s.Atlases, func(i, j int) bool { return s.Atlases[i].Name < s.Atlases[j].Name })
	for i := range s.Atlases {
		s.byName[s.Atlases[i].Name] = &s.Atlases[i]
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, s.Atlases); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	if s.IndexHTML, err = m.Bytes("text/html", buf.Bytes()); err != nil {
		return nil, fmt.Errorf("minify index: %w", err)
	}

	log.Info().
		Str("root", root).
		Int("atlases", len(s.Atlases)).
		Msg("Server context initialized successfully")

	return s, nil
}

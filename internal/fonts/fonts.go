// Package fonts measures text with the Go fonts, the same faces the PDF
// renderer embeds.
package fonts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/woozymasta/atlas/internal/index"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Family is the name the faces are registered under in documents.
const Family = "Go"

var _ index.Measurer = (*Measurer)(nil)

// Regular returns the TrueType data of the regular face.
func Regular() []byte { return goregular.TTF }

// Bold returns the TrueType data of the bold face.
func Bold() []byte { return gobold.TTF }

type faceKey struct {
	size float64
	bold bool
}

// Measurer measures text in points at 72 DPI. Faces are created lazily and
// shared; a Measurer is safe for concurrent use.
type Measurer struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewMeasurer parses the embedded Go fonts.
func NewMeasurer() (*Measurer, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	return &Measurer{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// Face returns the face for a style. The face itself is not safe for
// concurrent use.
func (m *Measurer) Face(st index.Style) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(st)
}

func (m *Measurer) face(st index.Style) (font.Face, error) {
	key := faceKey{size: st.Size, bold: st.Bold}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}

	src := m.regular
	if st.Bold {
		src = m.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    st.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}

	m.faces[key] = f
	return f, nil
}

// with runs fn on the face of st while holding the lock.
func (m *Measurer) with(st index.Style, fn func(f font.Face)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.face(st)
	if err != nil {
		return false
	}
	fn(f)
	return true
}

// Width returns the advance of s on a single line.
func (m *Measurer) Width(s string, st index.Style) float64 {
	var w fixed.Int26_6
	m.with(st, func(f font.Face) { w = font.MeasureString(f, s) })
	return toPt(w)
}

// LineHeight returns the recommended line spacing.
func (m *Measurer) LineHeight(st index.Style) float64 {
	var h fixed.Int26_6
	if !m.with(st, func(f font.Face) { h = f.Metrics().Height }) {
		return st.Size
	}
	return toPt(h)
}

// Em returns the average advance of a lower case letter.
func (m *Measurer) Em(st index.Style) float64 {
	const sample = "abcdefghijklmnopqrstuvwxyz"
	return m.Width(sample, st) / float64(len(sample))
}

// Height returns the height of s wrapped at width. Empty text takes one line.
func (m *Measurer) Height(s string, st index.Style, width float64) float64 {
	return float64(len(m.Wrap(s, st, width))) * m.LineHeight(st)
}

// Wrap breaks s into lines no wider than width where possible. A word wider
// than width gets a line of its own.
func (m *Measurer) Wrap(s string, st index.Style, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	m.with(st, func(f font.Face) {
		line := words[0]
		for _, w := range words[1:] {
			if next := line + " " + w; toPt(font.MeasureString(f, next)) <= width {
				line = next
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	})
	if lines == nil {
		return []string{s}
	}

	return lines
}

func toPt(v fixed.Int26_6) float64 { return float64(v) / 64 }

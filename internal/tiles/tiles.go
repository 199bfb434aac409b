// Package tiles renders map imagery for a projected area from an XYZ web
// tile server.
package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // tile decoders
	_ "image/png"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/woozymasta/atlas/internal/geo"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Defaults of a Source.
const (
	DefaultTileSize    = 256
	DefaultConcurrency = 4
	DefaultMaxZoom     = 19
)

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Source fetches tiles from URL templates with {z}, {x}, {y} or {tms_y}
// placeholders.
type Source struct {
	Client      *http.Client
	URLTemplate string
	UserAgent   string
	TileSize    int
	MaxZoom     int
	Concurrency int

	// CacheDir keeps fetched tiles as WebP files between runs when set.
	CacheDir string
}

type job struct {
	Coord TileCoordinate
}

type result struct {
	Coord TileCoordinate
	Image image.Image
	Err   error
}

// Zoom returns the least detailed zoom level whose resolution is at least
// metresPerPixel.
func (s *Source) Zoom(metresPerPixel float64) int {
	world := 2 * geo.MaxMercator / float64(s.tileSize())
	z := int(math.Ceil(math.Log2(world/metresPerPixel) - 1e-9))
	return min(max(z, 0), s.maxZoom())
}

// RenderMap returns an image of width x height pixels showing area.
// Tiles the server does not have are left transparent.
func (s *Source) RenderMap(ctx context.Context, area geo.Envelope, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	z := s.Zoom(area.Width() / float64(width))
	n := 1 << z
	ts := s.tileSize()

	// Fractional tile coordinates of the area corners.
	fx := func(x float64) float64 { return (x + geo.MaxMercator) / (2 * geo.MaxMercator) * float64(n) }
	fy := func(y float64) float64 { return (geo.MaxMercator - y) / (2 * geo.MaxMercator) * float64(n) }
	left, right := fx(area.MinX), fx(area.MaxX)
	top, bottom := fy(area.MaxY), fy(area.MinY)

	clamp := func(v int) int { return min(max(v, 0), n-1) }
	x0, x1 := clamp(int(math.Floor(left))), clamp(int(math.Ceil(right))-1)
	y0, y1 := clamp(int(math.Floor(top))), clamp(int(math.Ceil(bottom))-1)

	var coords []TileCoordinate
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			coords = append(coords, TileCoordinate{Z: z, X: x, Y: y})
		}
	}

	log.Debug().
		Int("zoom", z).
		Int("tiles", len(coords)).
		Int("width", width).
		Int("height", height).
		Msg("Rendering map imagery")

	fetched, err := s.processBatch(ctx, coords)
	if err != nil {
		return nil, err
	}

	mosaic := image.NewRGBA(image.Rect(0, 0, (x1-x0+1)*ts, (y1-y0+1)*ts))
	for c, img := range fetched {
		dst := image.Rect((c.X-x0)*ts, (c.Y-y0)*ts, (c.X-x0+1)*ts, (c.Y-y0+1)*ts)
		xdraw.CatmullRom.Scale(mosaic, dst, img, img.Bounds(), draw.Src, nil)
	}

	src := image.Rect(
		int(math.Round((left-float64(x0))*float64(ts))),
		int(math.Round((top-float64(y0))*float64(ts))),
		int(math.Round((right-float64(x0))*float64(ts))),
		int(math.Round((bottom-float64(y0))*float64(ts))),
	)
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), mosaic, src, draw.Over, nil)

	return out, nil
}

// processBatch fetches tiles with a bounded worker pool. Missing tiles are
// absent from the result; other failures abort the batch.
func (s *Source) processBatch(ctx context.Context, tiles []TileCoordinate) (map[TileCoordinate]image.Image, error) {
	jobs := make(chan job, len(tiles))
	results := make(chan result, len(tiles))

	for _, t := range tiles {
		jobs <- job{Coord: t}
	}
	close(jobs)

	workers := s.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{Coord: j.Coord, Err: err}
					continue
				}
				img, err := s.fetch(ctx, j.Coord)
				results <- result{Coord: j.Coord, Image: img, Err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	out := make(map[TileCoordinate]image.Image, len(tiles))
	var firstErr error
	for res := range results {
		switch {
		case res.Err != nil:
			if firstErr == nil {
				firstErr = res.Err
			}
		case res.Image != nil:
			out[res.Coord] = res.Image
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

// fetch returns one tile from the cache or the server. A tile the server
// does not have yields a nil image and no error.
func (s *Source) fetch(ctx context.Context, c TileCoordinate) (image.Image, error) {
	cachePath := s.cachePath(c)
	if cachePath != "" {
		if img, err := readCached(cachePath); err == nil {
			return img, nil
		}
	}

	url := buildURL(s.URLTemplate, c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile %s: status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode tile")
		return nil, nil
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		return nil, nil
	}

	if cachePath != "" {
		if err := writeCached(cachePath, img); err != nil {
			log.Warn().Err(err).Str("path", cachePath).Msg("Failed to cache tile")
		}
	}

	return img, nil
}

func (s *Source) cachePath(c TileCoordinate) string {
	if s.CacheDir == "" {
		return ""
	}
	return filepath.Join(s.CacheDir, strconv.Itoa(c.Z), strconv.Itoa(c.X), strconv.Itoa(c.Y)+".webp")
}

func (s *Source) tileSize() int {
	if s.TileSize > 0 {
		return s.TileSize
	}
	return DefaultTileSize
}

func (s *Source) maxZoom() int {
	if s.MaxZoom > 0 {
		return s.MaxZoom
	}
	return DefaultMaxZoom
}

func readCached(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return webp.Decode(f)
}

func writeCached(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return webp.Encode(f, img, &webp.Options{Lossless: false, Quality: 90})
}

func buildURL(tpl string, c TileCoordinate) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(maxCoord-c.Y))
	}

	return s
}

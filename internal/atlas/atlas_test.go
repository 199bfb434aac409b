package atlas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/geo"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/streets"

	"github.com/google/go-cmp/cmp"
)

// fakeIndexer reports one street per page whose centre lies in the region.
type fakeIndexer struct {
	empty bool
	err   error
}

func (f fakeIndexer) Collect(_ context.Context, tile layout.PageTile, _ layout.LocationGrid, region streets.PointFilter) ([]index.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	lat, lon := tile.Inner.Center()
	if f.empty || (region != nil && !region.Contains(lat, lon)) {
		return nil, nil
	}

	page := *tile.PageNumber
	return []index.Category{{
		Name:     "S",
		IsStreet: true,
		Items: []*index.Item{{
			Kind:     index.KindStreet,
			Label:    fmt.Sprintf("Street %d", page),
			Location: "A1",
			Page:     &page,
		}},
	}}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Title:  "Test",
		BBox:   geo.BoundingBox{South: 48.10, West: 11.50, North: 48.12, East: 11.56},
		Scale:  config.Scale{Default: 25000},
		Output: config.Output{PDF: "test.pdf"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func testBuilder(t *testing.T, cfg *config.Config, ix Indexer) *Builder {
	t.Helper()
	m, err := fonts.NewMeasurer()
	if err != nil {
		t.Fatal(err)
	}
	return &Builder{Config: cfg, Measurer: m, Indexer: ix}
}

func TestBuild(t *testing.T) {
	res, err := testBuilder(t, testConfig(), fakeIndexer{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(layout.Fit{Denominator: 25000, PagesWide: 2, PagesTall: 1}, res.Plan.Fit); diff != "" {
		t.Errorf("fit mismatch (-want +got):\n%s", diff)
	}
	if got := res.Plan.LastPageNumber(); got != 5 {
		t.Errorf("last map page = %d, want 5", got)
	}
	if len(res.Overview.Pages) != 2 {
		t.Errorf("overview has %d pages, want 2", len(res.Overview.Pages))
	}
	// Without an area the bounding box outline is shaded around.
	if rings := res.Area.Rings(); len(rings) != 1 || len(rings[0]) != 4 {
		t.Errorf("area rings = %v, want the bounding box", rings)
	}

	if len(res.Regions) != 1 || len(res.Regions[0].Categories) != 1 {
		t.Fatalf("regions = %+v", res.Regions)
	}
	var labels []string
	for _, it := range res.Regions[0].Categories[0].Items {
		labels = append(labels, it.Label)
	}
	if diff := cmp.Diff([]string{"Street 4", "Street 5"}, labels); diff != "" {
		t.Errorf("index labels mismatch (-want +got):\n%s", diff)
	}

	if len(res.Index) != 1 || res.Index[0].Number != 6 {
		t.Fatalf("index pages = %+v, want one page numbered 6", res.Index)
	}
}

func TestBuildInsertBeforeIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Pages.InsertBeforeIndex = 2

	res, err := testBuilder(t, cfg, fakeIndexer{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Index[0].Number != 8 {
		t.Errorf("first index page = %d, want 8", res.Index[0].Number)
	}
}

func TestBuildRegions(t *testing.T) {
	cfg := testConfig()
	west := [][]float64{{11.49, 48.09}, {11.53, 48.09}, {11.53, 48.13}, {11.49, 48.13}}
	east := [][]float64{{11.53, 48.09}, {11.57, 48.09}, {11.57, 48.13}, {11.53, 48.13}}
	cfg.Regions = []config.Region{{Name: "Zentrum", Area: east}, {Name: "Altstadt", Area: west}}

	res, err := testBuilder(t, cfg, fakeIndexer{}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, r := range res.Regions {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"Altstadt", "Zentrum"}, names); diff != "" {
		t.Errorf("region order mismatch (-want +got):\n%s", diff)
	}

	if len(res.Index) != 2 {
		t.Fatalf("got %d index pages, want one per region", len(res.Index))
	}
	for i, want := range []string{"Altstadt", "Zentrum"} {
		pg := res.Index[i]
		if pg.Region != want || pg.Placements[0].Kind != index.PlaceRegion {
			t.Errorf("index page %d starts with %+v in region %q, want region header %q", pg.Number, pg.Placements[0], pg.Region, want)
		}
	}
}

func TestBuildEmptyIndex(t *testing.T) {
	res, err := testBuilder(t, testConfig(), fakeIndexer{empty: true}).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Index != nil {
		t.Errorf("index = %+v, want none", res.Index)
	}
}

func TestBuildErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := testBuilder(t, testConfig(), fakeIndexer{err: boom}).Build(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Build() = %v, want %v", err, boom)
	}

	cfg := testConfig()
	cfg.Scale = config.Scale{Default: 11000, Coarsest: 12000, MaxPages: 1, Step: 1.41}

	var budget *layout.ScaleBudgetExceededError
	if _, err := testBuilder(t, cfg, nil).Build(context.Background()); !errors.As(err, &budget) {
		t.Errorf("Build() = %v, want ScaleBudgetExceededError", err)
	}
}

func TestLoadArea(t *testing.T) {
	a, err := loadArea(nil, "")
	if err != nil || a != nil {
		t.Fatalf("loadArea() = %v, %v, want nil area", a, err)
	}

	path := filepath.Join(t.TempDir(), "area.geojson")
	body := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
		"geometry":{"type":"Polygon","coordinates":[[[11.5,48.1],[11.6,48.1],[11.6,48.2],[11.5,48.1]]]}}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	a, err = loadArea(nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Contains(48.12, 11.58) {
		t.Error("area from file does not contain an inner point")
	}

	if _, err := loadArea([][]float64{{11.5}}, ""); err == nil {
		t.Error("expected error for malformed inline area")
	}
}

func TestWrite(t *testing.T) {
	b := testBuilder(t, testConfig(), fakeIndexer{})
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := b.Write(context.Background(), res, dir); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"test.pdf", OverviewWebP, OverviewSVG, ManifestName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	m, err := ReadManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "Test" || m.OverviewPage != 3 {
		t.Errorf("manifest = %+v", m)
	}
	if diff := cmp.Diff([]int{6}, m.IndexPages); diff != "" {
		t.Errorf("index pages mismatch (-want +got):\n%s", diff)
	}

	east := 5
	want := layout.Neighbors{East: &east}
	if len(m.Pages) != 2 || m.Pages[0].Number != 4 {
		t.Fatalf("manifest pages = %+v", m.Pages)
	}
	if diff := cmp.Diff(want, m.Pages[0].Neighbors); diff != "" {
		t.Errorf("neighbours of page 4 mismatch (-want +got):\n%s", diff)
	}
}

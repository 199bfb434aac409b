package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/woozymasta/atlas/internal/atlas"
	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/index"
	"github.com/woozymasta/atlas/internal/layout"
	"github.com/woozymasta/atlas/internal/logger"
	"github.com/woozymasta/atlas/internal/streets"
	"github.com/woozymasta/atlas/internal/tiles"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	Output      string `short:"o" long:"output"      env:"OUTPUT_DIR"   description:"Output directory, overrides output.dir"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY"  description:"Concurrent tile downloads, overrides tiles.concurrency"`
	CacheDir    string `long:"cache-dir"             env:"TILE_CACHE"   description:"Tile cache directory, overrides tiles.cache_dir"`
	NoTiles     bool   `short:"n" long:"no-tiles"    description:"Skip map imagery, print frames, grids and labels only"`
	NoIndex     bool   `long:"no-index"              description:"Skip the street index"`
	PlanOnly    bool   `long:"plan-only"             description:"Plan the page grid and write the manifest only"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Output != "" {
		cfg.Output.Dir = opts.Output
	}
	if opts.Concurrency > 0 {
		cfg.Tiles.Concurrency = opts.Concurrency
	}
	if opts.CacheDir != "" {
		cfg.Tiles.CacheDir = opts.CacheDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 30 * time.Second,
	}

	measurer, err := fonts.NewMeasurer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fonts")
	}

	b := &atlas.Builder{Config: cfg, Measurer: measurer}

	if cfg.Index.Source != "" && !opts.NoIndex && !opts.PlanOnly {
		src, err := streets.Load(ctx, client, cfg.Index.Source)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load index source")
		}
		log.Info().Str("source", cfg.Index.Source).Int("features", src.Len()).Msg("Index source ready")
		b.Indexer = src
	}

	if cfg.Tiles.URL != "" && !opts.NoTiles {
		b.Maps = &tiles.Source{
			Client:      client,
			URLTemplate: cfg.Tiles.URL,
			UserAgent:   cfg.Tiles.UserAgent,
			MaxZoom:     cfg.Tiles.MaxZoom,
			Concurrency: cfg.Tiles.Concurrency,
			CacheDir:    cfg.Tiles.CacheDir,
		}
	}

	log.Info().
		Str("title", cfg.Title).
		Str("bbox", cfg.BBox.String()).
		Str("locale", cfg.Locale).
		Bool("tiles", b.Maps != nil).
		Bool("index", b.Indexer != nil).
		Msg("Starting atlas build")

	res, err := b.Build(ctx)
	if err != nil {
		logBuildError(err)
	}

	if opts.PlanOnly {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create output directory")
		}
		path := filepath.Join(cfg.Output.Dir, atlas.ManifestName)
		if err := atlas.WriteManifest(path, atlas.NewManifest(cfg, res)); err != nil {
			log.Fatal().Err(err).Msg("Failed to write manifest")
		}
		log.Info().Str("manifest", path).Msg("Plan written")
		return
	}

	if err := b.Write(ctx, res, cfg.Output.Dir); err != nil {
		log.Fatal().Err(err).Msg("Failed to write atlas")
	}

	log.Info().Msg("Atlas finished successfully")
}

// logBuildError explains the errors a configuration change can fix and exits.
func logBuildError(err error) {
	var (
		budget *layout.ScaleBudgetExceededError
		nofit  *index.LayoutDoesNotFitError
	)

	switch {
	case errors.As(err, &budget):
		log.Fatal().
			Err(err).
			Int("max_pages", budget.MaxPages).
			Float64("coarsest", budget.Coarsest).
			Msg("Area does not fit, raise scale.max_pages or scale.coarsest")
	case errors.As(err, &nofit):
		log.Fatal().
			Err(err).
			Str("entry", nofit.Entry).
			Msg("Index does not fit the page, lower index.font_size or index.columns")
	default:
		log.Fatal().Err(err).Msg("Failed to build atlas")
	}
}

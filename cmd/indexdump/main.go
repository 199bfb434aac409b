package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/atlas/internal/atlas"
	"github.com/woozymasta/atlas/internal/config"
	"github.com/woozymasta/atlas/internal/fonts"
	"github.com/woozymasta/atlas/internal/logger"
	"github.com/woozymasta/atlas/internal/streets"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Source     string `short:"i" long:"in"     description:"Index source file or URL, overrides index.source"`
	Output     string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Pages      bool   `long:"pages"            description:"Dump the paginated index pages instead of the merged categories"`
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
	if opts.Source != "" {
		cfg.Index.Source = opts.Source
	}
	if cfg.Index.Source == "" {
		log.Fatal().Msg("No index source: set index.source or --in")
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}

	src, err := streets.Load(ctx, client, cfg.Index.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load index source")
	}

	measurer, err := fonts.NewMeasurer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load fonts")
	}

	b := &atlas.Builder{Config: cfg, Measurer: measurer, Indexer: src}
	res, err := b.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build index")
	}

	var v any = res.Regions
	if opts.Pages {
		v = res.Index
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(v)
	} else {
		outputData, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal index")
	}

	if opts.Output == "" {
		fmt.Println(string(outputData))
		return
	}

	if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output file")
	}

	entries := 0
	for _, r := range res.Regions {
		for _, c := range r.Categories {
			entries += len(c.Items)
		}
	}
	log.Info().
		Int("regions", len(res.Regions)).
		Int("entries", entries).
		Int("pages", len(res.Index)).
		Str("out", opts.Output).
		Str("format", opts.Format).
		Msg("Index written")
}

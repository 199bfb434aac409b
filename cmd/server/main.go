package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/atlas/internal/logger"
	"github.com/woozymasta/atlas/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Root string `short:"r" long:"root" env:"ATLAS_ROOT"     description:"Directory holding one subdirectory per atlas" default:"out"`
	Addr string `short:"a" long:"addr" env:"LISTEN_ADDRESS" description:"Address to listen on"                         default:"0.0.0.0"`
	Port int    `short:"p" long:"port" env:"LISTEN_PORT"    description:"Port to listen on"                            default:"8080"`
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

	// Setup Logging
	opts.Logger.Setup()

	srvCtx, err := server.NewServerContext(opts.Root)
	if err != nil {
		log.Fatal().Err(err).Str("root", opts.Root).Msg("Failed to scan atlases")
	}

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/atlases", srvCtx.HandleAtlasList)
	mux.HandleFunc("/atlases/", srvCtx.HandleAtlasFile)
	mux.HandleFunc("/", srvCtx.HandleIndex)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("atlases", len(srvCtx.Atlases)).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

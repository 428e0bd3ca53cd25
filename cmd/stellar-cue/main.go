// Package main is the entry point for the Stellar Cue backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-cue/internal/config"
	"github.com/edumarques81/stellar-cue/internal/domain/session"
	"github.com/edumarques81/stellar-cue/internal/infra/cuedb"
	"github.com/edumarques81/stellar-cue/internal/infra/mpd"
	"github.com/edumarques81/stellar-cue/internal/infra/tagreader"
	"github.com/edumarques81/stellar-cue/internal/transport/socketio"
	"github.com/edumarques81/stellar-cue/internal/version"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	load := flag.String("load", "", "Audio file to open on startup (optional)")
	cueFile := flag.String("cue", "", "Cue sheet to import into the startup file (optional)")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Cue Point Editor Backend")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("mpd_host", cfg.MPDHost).
		Int("mpd_port", cfg.MPDPort).
		Str("music_dir", cfg.MusicDir).
		Str("db", cfg.DBPath).
		Dur("tick", cfg.TickInterval).
		Bool("password_set", cfg.MPDPassword != "").
		Msg("Configuration")

	// Cue database
	db := cuedb.NewDB(cfg.DBPath)
	if err := db.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open cue database")
	}
	defer db.Close()

	// Create MPD client
	mpdClient := mpd.NewClient(cfg.MPDHost, cfg.MPDPort, cfg.MPDPassword)
	if err := mpdClient.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MPD")
	}
	defer mpdClient.Close()

	if err := mpdClient.Ping(); err != nil {
		log.Fatal().Err(err).Msg("MPD ping failed")
	}
	log.Info().Msg("MPD connection verified")

	host := mpd.NewHost(mpdClient, cfg.MusicDir)
	svc := session.NewService(cfg.Session(), host,
		session.WithTagReader(tagreader.New()),
		session.WithRepository(db),
	)

	socketServer, err := socketio.NewServer(svc, socketio.Options{MaxExternal: cfg.MaxClients})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go svc.Run(ctx)
	go socketServer.Run(ctx)

	// Player events between ticks
	if err := host.Watch(ctx, svc.Poke); err != nil {
		log.Warn().Err(err).Msg("MPD watcher unavailable, relying on polling")
	}

	if *load != "" {
		if err := svc.Load(ctx, *load, false); err != nil {
			log.Error().Err(err).Str("path", *load).Msg("Failed to load startup file")
		} else if *cueFile != "" {
			if _, err := svc.ImportCueFile(ctx, *cueFile); err != nil {
				log.Error().Err(err).Str("path", *cueFile).Msg("Failed to import startup cue sheet")
			}
		}
	}

	// Setup HTTP server
	router := mux.NewRouter()
	router.PathPrefix("/socket.io/").Handler(socketServer)

	a := &api{
		session:  svc,
		projects: db,
		health:   mpdClient.Ping,
		system:   func() any { return socketServer.GetSystemInfo() },
	}
	a.routes(router)

	if cfg.StaticDir != "" {
		log.Info().Str("dir", cfg.StaticDir).Msg("Serving static files")
		router.PathPrefix("/").Handler(staticHandler(cfg.StaticDir))
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      corsMiddleware(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}

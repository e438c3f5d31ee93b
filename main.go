package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"mindwell-realtime/config"
	"mindwell-realtime/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if cfg.Env == config.EnvDev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}

	app := NewApp(cfg, logger)

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("realtime server started")
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	app.hub.Shutdown()

	logger.Info().Msg("server exited")
	return nil
}

type App struct {
	hub        *server.Hub
	notifier   *server.Notifier
	httpServer *http.Server
}

func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	hub := server.NewHub(cfg.DefaultRoom, logger)
	verifier := server.NewTokenVerifier(cfg.TokenSecret, logger)
	chatServer := server.NewChatServer(hub, verifier, cfg.AllowedOrigin, logger)
	httpServer := server.NewHTTPServer(cfg.ListenAddr, cfg.AllowedOrigin, chatServer)

	return &App{
		hub:        hub,
		notifier:   server.NewNotifier(hub),
		httpServer: httpServer,
	}
}

// Notifier exposes the broadcast hooks the REST layer calls after it
// persists a tip mutation.
func (a *App) Notifier() *server.Notifier {
	return a.notifier
}

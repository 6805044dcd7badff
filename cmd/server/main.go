package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdunham2/dunhamwordle-sub000/internal/config"
	"github.com/jdunham2/dunhamwordle-sub000/internal/logging"
	"github.com/jdunham2/dunhamwordle-sub000/internal/server"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

func main() {
	logging.Init()

	listen := flag.String("listen", "", "listen address (overrides LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.Load(config.Options{Listen: *listen})
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := signaling.NewHub()
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HealthHandler)
	mux.HandleFunc("/ws", server.ServeWs(hub))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: mux,
	}

	go func() {
		slog.Info("signaling server listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	slog.Info("signaling server stopped")
}

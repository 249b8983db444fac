package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/manpreetbhatti/codesync/internal/api"
	"github.com/manpreetbhatti/codesync/internal/config"
	"github.com/manpreetbhatti/codesync/internal/db"
	"github.com/manpreetbhatti/codesync/internal/logging"
	"github.com/manpreetbhatti/codesync/internal/room"
	"github.com/manpreetbhatti/codesync/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync relay and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// countCreatedRooms returns an OnCreate hook that bumps counter without
// blocking the connection that created the room.
func countCreatedRooms(counter db.Counter, timeout time.Duration) room.Option {
	log := logging.NewLogger("db")
	return room.OnCreate(func(r *room.Room) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := counter.Increment(ctx); err != nil {
				log.WithField("room", r.ID).WithError(err).Warn("Failed to count created room")
			}
		}()
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logging.NewLogger("server")

	counter, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer counter.Close()

	registry := room.NewRegistry(countCreatedRooms(counter, cfg.Store.Timeout))

	wsServer := ws.NewServer(registry, cfg.Server)
	defer wsServer.Close()

	handler := api.NewRouter(api.New(registry, counter, cfg.Jobs.CompilerURL), wsServer)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).
			WithField("store", cfg.Store.Driver).
			Info("codesync server starting")
		if cfg.Jobs.CompilerURL == "" {
			log.Warn("COMPILER_URL not set; job proxy routes will fail")
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

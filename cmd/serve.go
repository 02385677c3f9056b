package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/calliope-fm/calliope/internal/batch"
	"github.com/calliope-fm/calliope/internal/metadata"
	"github.com/calliope-fm/calliope/internal/repositories"
	"github.com/calliope-fm/calliope/internal/server"
	"github.com/calliope-fm/calliope/internal/tasks"
)

// Serve runs the upload API with the background maintenance sweeper until
// interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ttl := time.Duration(r.config.Batch.TTLMinutes) * time.Minute
	sweepInterval := time.Duration(r.config.Batch.SweepIntervalMinutes) * time.Minute

	store := batch.NewStore(ttl, r.logger)
	builder := batch.NewBuilder(
		metadata.NewExtractor(r.logger),
		repositories.NewArtistRepository(db),
		r.logger,
	)

	srv := server.New(db, r.config, store, builder, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := tasks.NewSweeper(store, r.config.Upload.StagingDir, ttl, sweepInterval, r.logger)
	go sweeper.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-peopleflow/internal/app"
	"go-peopleflow/internal/config"
	"go-peopleflow/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("Server stopped")
	}
}

// run loads the configuration and serves the API until ctx is done.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)
	return app.Serve(ctx, cfg, cfg.Server.Addr())
}

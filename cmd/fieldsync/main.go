package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/sitetrackr/fieldsync/internal/buildinfo"
	"github.com/sitetrackr/fieldsync/internal/client/cli"
	"github.com/sitetrackr/fieldsync/internal/client/config"
	"github.com/sitetrackr/fieldsync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}

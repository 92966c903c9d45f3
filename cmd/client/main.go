package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/homekeeper/internal/buildinfo"
	"github.com/dmitrijs2005/homekeeper/internal/client/cli"
	"github.com/dmitrijs2005/homekeeper/internal/client/config"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr, slog.LevelWarn)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}

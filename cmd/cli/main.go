package main

import (
	"context"
	"log"
	"os"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/zkvault/internal/buildinfo"
	"github.com/dmitrijs2005/zkvault/internal/client/cli"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

func main() {
	// wipe enclaves on Ctrl-C
	memguard.CatchInterrupt()
	defer memguard.Purge()

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/verdantlab/ranger/internal/buildinfo"
	"github.com/verdantlab/ranger/internal/cli"
	"github.com/verdantlab/ranger/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// Missing .env is fine, settings then come from real env and flags.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}

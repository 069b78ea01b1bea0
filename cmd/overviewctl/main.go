package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-overview-api/internal/cli"
	"github.com/noah-isme/gema-overview-api/internal/config"
	"github.com/noah-isme/gema-overview-api/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Config: cfg,
		Logger: logger,
		OpenDB: func(context.Context) (*gorm.DB, error) {
			return database.Connect(cfg.DatabaseURL)
		},
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

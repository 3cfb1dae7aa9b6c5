package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/obra-dashboard/internal/bootstrap"
	"github.com/jhoicas/obra-dashboard/internal/cli"
	"github.com/jhoicas/obra-dashboard/pkg/config"
	"github.com/jhoicas/obra-dashboard/pkg/logger"
)

func main() {
	c := cli.NewCLI(cli.Options{
		Open: func(ctx context.Context) (*bootstrap.App, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			log := logger.New(logger.Config{Env: "development", Level: cfg.Log.Level})
			return bootstrap.Build(ctx, cfg, log)
		},
		Output: os.Stdout,
	})

	if err := c.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/config"
	"github.com/sngm3741/friendlyeats/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	deps, err := server.Open(context.Background(), cfg)
	if err != nil {
		cfg.Logger.WithError(err).Fatal("failed to open backing services")
	}

	app := server.New(cfg, deps)
	if err := app.Run(); err != nil {
		cfg.Logger.WithError(err).Fatal("server stopped with error")
	}
}

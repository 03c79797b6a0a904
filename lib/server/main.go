package server

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Main is the whole shebang
func Main(ctx context.Context, cfg *Config) {
	srv, err := newServer(cfg)
	if err != nil {
		logrus.WithField("err", err).Fatal("failed to build server")
	}

	srv.Setup()

	err = srv.Run(ctx)
	if err != nil {
		srv.log.WithField("err", err).Fatal("server failed")
	}
}

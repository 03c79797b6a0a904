package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/re-pronin/reddalert/lib"
	"github.com/re-pronin/reddalert/lib/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	lib.LoadEnv(logrus.StandardLogger(), ".env")

	app := cli.NewApp()
	app.Name = "reddalert-server"
	app.Usage = "serve the latest non_chef reports"
	app.Version = lib.VersionString
	app.Flags = []cli.Flag{
		lib.AddrFlag,
		lib.RedisURLFlag,
		cli.StringFlag{
			Name:   "A, auth-token",
			Value:  "swordfish",
			EnvVar: "REDDALERT_AUTH_TOKEN",
		},
		lib.SentryDSNFlag,
		lib.DebugFlag,
	}
	app.Action = runServer

	if err := app.Run(os.Args); err != nil {
		logrus.WithField("err", err).Fatal("failed to run")
	}
}

func runServer(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Main(ctx, &server.Config{
		Addr:      c.String("addr"),
		AuthToken: c.String("auth-token"),
		Debug:     c.Bool("debug"),

		RedisURL: c.String("redis-url"),

		SentryDSN: c.String("sentry-dsn"),
	})
	return nil
}

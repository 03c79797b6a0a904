package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/re-pronin/reddalert/lib"
	"github.com/re-pronin/reddalert/lib/workers"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	lib.LoadEnv(logrus.StandardLogger(), ".env")

	app := cli.NewApp()
	app.Name = "reddalert-workers"
	app.Usage = "report running ec2 instances unknown to chef"
	app.Version = lib.VersionString
	app.Flags = []cli.Flag{
		lib.RedisURLFlag,
		lib.ConfigFileFlag,
		cli.StringFlag{
			Name: "P, process-id",
			Value: func() string {
				v := os.Getenv("DYNO")
				if v == "" {
					v = fmt.Sprintf("%d", os.Getpid())
				}
				return v
			}(),
			EnvVar: "REDDALERT_PROCESS_ID",
		},
		cli.StringFlag{
			Name:   "K, aws-key",
			EnvVar: "AWS_ACCESS_KEY_ID",
		},
		cli.StringFlag{
			Name:   "S, aws-secret",
			EnvVar: "AWS_SECRET_ACCESS_KEY",
		},
		cli.StringFlag{
			Name:   "R, aws-region",
			Value:  "us-east-1",
			EnvVar: "AWS_DEFAULT_REGION",
		},
		cli.StringFlag{
			Name:   "chef-server-url",
			EnvVar: "REDDALERT_CHEF_SERVER_URL",
		},
		cli.StringFlag{
			Name:   "chef-client-name",
			EnvVar: "REDDALERT_CHEF_CLIENT_NAME",
		},
		cli.StringFlag{
			Name:   "chef-client-key-file",
			EnvVar: "REDDALERT_CHEF_CLIENT_KEY_FILE",
		},
		cli.StringFlag{
			Name:   "chef-node-query",
			Usage:  "chef search query selecting the nodes to match against",
			EnvVar: "REDDALERT_CHEF_NODE_QUERY",
		},
		cli.StringSliceFlag{
			Name:   "x, exclude",
			Usage:  "instance id that is never reported, may be given more than once",
			EnvVar: "REDDALERT_EXCLUDED_INSTANCES",
		},
		cli.IntFlag{
			Name:   "I, mini-worker-interval",
			Value:  300,
			Usage:  "interval in seconds for the mini worker loop",
			EnvVar: "REDDALERT_MINI_WORKER_INTERVAL",
		},
		cli.IntFlag{
			Name:   "fetch-retries",
			Value:  3,
			Usage:  "retries of a pass whose upstream fetch failed",
			EnvVar: "REDDALERT_FETCH_RETRIES",
		},
		cli.StringFlag{
			Name:   "metrics-addr",
			Usage:  "address serving /metrics, disabled when empty",
			EnvVar: "REDDALERT_METRICS_ADDR",
		},
		lib.SlackHookURLFlag,
		lib.SlackUsernameFlag,
		lib.SlackIconFlag,
		lib.SlackChannelFlag,
		lib.SentryDSNFlag,
		lib.DebugFlag,
	}
	app.Action = runWorkers

	if err := app.Run(os.Args); err != nil {
		logrus.WithField("err", err).Fatal("failed to run")
	}
}

func runWorkers(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers.Main(ctx, &workers.Config{
		ProcessID: c.String("process-id"),
		Debug:     c.Bool("debug"),

		RedisURL: c.String("redis-url"),

		AWSKey:    c.String("aws-key"),
		AWSSecret: c.String("aws-secret"),
		AWSRegion: c.String("aws-region"),

		ChefConfigFile:    c.String("config"),
		ChefServerURL:     c.String("chef-server-url"),
		ChefClientName:    c.String("chef-client-name"),
		ChefClientKeyFile: c.String("chef-client-key-file"),
		ExcludedInstances: c.StringSlice("exclude"),
		NodeQuery:         c.String("chef-node-query"),

		MiniWorkerInterval: c.Int("mini-worker-interval"),
		FetchRetries:       c.Int("fetch-retries"),
		MetricsAddr:        c.String("metrics-addr"),

		SlackHookURL:  c.String("slack-hook-url"),
		SlackUsername: c.String("slack-username"),
		SlackIcon:     c.String("slack-icon"),
		SlackChannel:  c.String("slack-channel"),

		SentryDSN: c.String("sentry-dsn"),
	})
	return nil
}

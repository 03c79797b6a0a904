package lib

import (
	"os"

	"github.com/urfave/cli"
)

var (
	// AddrFlag is the flag used for the server address, checking
	// also for the presence of the PORT env var
	AddrFlag = cli.StringFlag{
		Name: "a, addr",
		Value: func() string {
			v := ":" + os.Getenv("PORT")
			if v == ":" {
				v = ":42161"
			}
			return v
		}(),
		EnvVar: "REDDALERT_ADDR",
	}
	// RedisURLFlag is the flag used to specify the redis URL, and
	// checks for REDIS_PROVIDER and REDIS_URL before defaulting to a
	// local redis addr
	RedisURLFlag = cli.StringFlag{
		Name: "r, redis-url",
		Value: func() string {
			v := ""
			if provider := os.Getenv("REDIS_PROVIDER"); provider != "" {
				v = os.Getenv(provider)
			}
			if v == "" {
				v = os.Getenv("REDIS_URL")
			}
			if v == "" {
				v = "redis://localhost:6379/0"
			}
			return v
		}(),
		EnvVar: "REDDALERT_REDIS_URL",
	}
	// ConfigFileFlag points at the non_chef yml config
	ConfigFileFlag = cli.StringFlag{
		Name:   "c, config",
		Usage:  "path to yml config with chef_server_url, client_name, client_key_file, excluded_instances",
		EnvVar: "REDDALERT_CONFIG",
	}
	// SlackHookURLFlag is the slack incoming webhook url
	SlackHookURLFlag = cli.StringFlag{
		Name:   "slack-hook-url",
		EnvVar: "REDDALERT_SLACK_HOOK_URL",
	}
	// SlackUsernameFlag is the username shown on slack messages
	SlackUsernameFlag = cli.StringFlag{
		Name:   "slack-username",
		Value:  "reddalert",
		EnvVar: "REDDALERT_SLACK_USERNAME",
	}
	// SlackIconFlag is the icon emoji shown on slack messages
	SlackIconFlag = cli.StringFlag{
		Name:   "slack-icon",
		Value:  ":rotating_light:",
		EnvVar: "REDDALERT_SLACK_ICON",
	}
	// SlackChannelFlag is the channel that receives orphan reports
	SlackChannelFlag = cli.StringFlag{
		Name:   "slack-channel",
		Value:  "#ops",
		EnvVar: "REDDALERT_SLACK_CHANNEL",
	}
	// SentryDSNFlag is the dsn string used to initialize raven
	// clients
	SentryDSNFlag = cli.StringFlag{
		Name:   "sentry-dsn",
		Value:  os.Getenv("SENTRY_DSN"),
		EnvVar: "REDDALERT_SENTRY_DSN",
	}
	// DebugFlag enables debug logging
	DebugFlag = cli.BoolFlag{
		Name:   "debug",
		EnvVar: "DEBUG",
	}
)

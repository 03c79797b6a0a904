package workers

import (
	"time"

	"github.com/re-pronin/reddalert/lib"
)

type internalConfig struct {
	ProcessID string

	RedisURL string

	AWSKey    string
	AWSSecret string
	AWSRegion string

	Chef *lib.Config

	MiniWorkerInterval time.Duration
	FetchRetries       int
	MetricsAddr        string

	SlackHookURL  string
	SlackUsername string
	SlackIcon     string
	SlackChannel  string

	SentryDSN string
}

func newInternalConfig(cfg *Config) (*internalConfig, error) {
	chef, err := lib.LoadConfigFile(cfg.ChefConfigFile)
	if err != nil {
		return nil, err
	}

	if cfg.ChefServerURL != "" {
		chef.ChefServerURL = cfg.ChefServerURL
	}
	if cfg.ChefClientName != "" {
		chef.ClientName = cfg.ChefClientName
	}
	if cfg.ChefClientKeyFile != "" {
		chef.ClientKeyFile = cfg.ChefClientKeyFile
	}
	if cfg.NodeQuery != "" {
		chef.NodeQuery = cfg.NodeQuery
	}
	chef.ExcludedInstances = append(chef.ExcludedInstances, cfg.ExcludedInstances...)

	chef.ResolveClientKey()
	err = chef.Validate()
	if err != nil {
		return nil, err
	}

	interval := time.Duration(cfg.MiniWorkerInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &internalConfig{
		ProcessID: cfg.ProcessID,

		RedisURL: cfg.RedisURL,

		AWSKey:    cfg.AWSKey,
		AWSSecret: cfg.AWSSecret,
		AWSRegion: cfg.AWSRegion,

		Chef: chef,

		MiniWorkerInterval: interval,
		FetchRetries:       cfg.FetchRetries,
		MetricsAddr:        cfg.MetricsAddr,

		SlackHookURL:  cfg.SlackHookURL,
		SlackUsername: cfg.SlackUsername,
		SlackIcon:     cfg.SlackIcon,
		SlackChannel:  cfg.SlackChannel,

		SentryDSN: cfg.SentryDSN,
	}, nil
}

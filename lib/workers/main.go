package workers

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	log *logrus.Logger
)

func init() {
	log = logrus.New()
}

// Main is the whole shebang
func Main(ctx context.Context, cfg *Config) {
	if cfg.Debug {
		log.Level = logrus.DebugLevel
	}

	icfg, err := newInternalConfig(cfg)
	if err != nil {
		log.WithField("err", err).Fatal("invalid configuration")
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"process_id":      icfg.ProcessID,
		"chef_server_url": icfg.Chef.ChefServerURL,
		"excluded":        len(icfg.Chef.ExcludedInstances),
	}).Debug("starting workers")

	err = runWorkers(ctx, icfg, log)
	if err != nil {
		log.WithField("err", err).Fatal("failed to start workers")
		os.Exit(1)
	}
}

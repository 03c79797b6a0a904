package workers

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

type miniWorkers struct {
	interval time.Duration
	log      logrus.FieldLogger
	r        *MiddlewareRaven
	w        map[string]func(context.Context) error
}

func newMiniWorkers(interval time.Duration, log logrus.FieldLogger, r *MiddlewareRaven) *miniWorkers {
	return &miniWorkers{
		interval: interval,
		log:      log,
		r:        r,
		w:        map[string]func(context.Context) error{},
	}
}

func (mw *miniWorkers) Register(name string, f func(context.Context) error) {
	mw.w[name] = f
}

// Run ticks immediately and then once per interval until ctx is done.
// Ticks never overlap.
func (mw *miniWorkers) Run(ctx context.Context) {
	mw.log.Debug("entering mini worker run loop")
	for {
		mw.runTick(ctx)

		mw.log.WithField("seconds", mw.interval.Seconds()).Info("mini workers sleeping")
		select {
		case <-ctx.Done():
			mw.log.Info("leaving mini worker run loop")
			return
		case <-time.After(mw.interval):
		}
	}
}

func (mw *miniWorkers) runTick(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			mw.log.WithField("err", err).Error("recovered from panic")
		}
	}()

	names := []string{}
	for name := range mw.w {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}

		f := mw.w[name]
		mw.log.WithField("job", name).Debug("running mini worker job")

		err := mw.r.Do(func() error { return f(ctx) })
		if err != nil {
			mw.log.WithFields(logrus.Fields{
				"err": err,
				"job": name,
			}).Error("mini worker job failed")
		}
	}
}

package workers

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/re-pronin/reddalert/lib"
	"github.com/re-pronin/reddalert/lib/db"
	"github.com/sirupsen/logrus"
)

// watermarkInventory is an inventory whose since watermark can be
// moved forward after a successful pass
type watermarkInventory interface {
	lib.Inventory
	Advance(time.Time)
}

type reconcileJob struct {
	rec     *lib.Reconciler
	inv     watermarkInventory
	cursors db.CursorFetcherStorer
	reports db.ReportFetcherStorer
	metrics *lib.Metrics

	notifier lib.Notifier
	channel  string

	executor failsafe.Executor[*lib.Pass]
	log      logrus.FieldLogger
}

const (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 30 * time.Second
)

func newPassExecutor(maxRetries int) failsafe.Executor[*lib.Pass] {
	return failsafe.With(newPassRetryPolicy(maxRetries, retryBaseDelay, retryMaxDelay))
}

func newPassRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) retrypolicy.RetryPolicy[*lib.Pass] {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return retrypolicy.NewBuilder[*lib.Pass]().
		WithMaxRetries(maxRetries).
		WithBackoff(baseDelay, maxDelay).
		WithJitterFactor(0.1).
		HandleIf(func(_ *lib.Pass, err error) bool {
			var fe *lib.FetchError
			return errors.As(err, &fe)
		}).
		ReturnLastFailure().
		Build()
}

// Run performs one pass, stores its reports and cursor, and notifies
// about instances that were not reported by the previous pass. A
// failed pass persists nothing.
func (rj *reconcileJob) Run(ctx context.Context) error {
	pass, err := rj.executor.WithContext(ctx).Get(func() (*lib.Pass, error) {
		return rj.rec.Run(ctx)
	})
	if err != nil {
		rj.metrics.ObserveFailure()
		rj.log.WithField("err", err).Error("reconciliation pass failed")
		return err
	}

	log := rj.log.WithField("pass", pass.ID)

	reports := pass.Collect()
	stats := pass.Stats()

	fresh, err := rj.reports.Store(pass.ID, reports)
	if err != nil {
		rj.metrics.ObserveFailure()
		log.WithField("err", err).Error("failed to store reports")
		return err
	}

	firstSeen := rj.rec.FirstSeen()
	err = rj.cursors.Store(lib.PluginName, &db.CursorState{
		Since:     pass.Started,
		FirstSeen: firstSeen,
	})
	if err != nil {
		rj.metrics.ObserveFailure()
		log.WithField("err", err).Error("failed to store cursor")
		return err
	}
	rj.inv.Advance(pass.Started)

	rj.metrics.ObservePass(stats, time.Since(pass.Started), len(firstSeen))

	log.WithFields(logrus.Fields{
		"instances":  stats.Instances,
		"registered": stats.Registered,
		"excluded":   stats.Excluded,
		"deferred":   stats.Deferred,
		"reported":   stats.Reported,
		"fresh":      len(fresh),
	}).Info("finished reconciliation pass")

	if len(fresh) == 0 || rj.notifier == nil {
		return nil
	}

	err = rj.notifier.Notify(rj.channel, lib.FormatReportMessage(fresh))
	if err != nil {
		log.WithField("err", err).Error("failed to notify")
		return err
	}

	return nil
}

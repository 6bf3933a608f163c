package jobs

import (
	"context"
	"sync"
	"time"

	"invest_platform/internal/metrics"

	"github.com/sirupsen/logrus"
)

// ReferralRebuilder rebuilds every referral row
type ReferralRebuilder interface {
	RebuildAll(ctx context.Context) (int, error)
}

// ReferralSyncJob periodically rebuilds the referral rows from the user table
type ReferralSyncJob struct {
	rebuilder ReferralRebuilder
	metrics   *metrics.Metrics
	interval  time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewReferralSyncJob(rebuilder ReferralRebuilder, m *metrics.Metrics, interval time.Duration) *ReferralSyncJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ReferralSyncJob{
		rebuilder: rebuilder,
		metrics:   m,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until ctx is done or Stop is called
func (j *ReferralSyncJob) Start(ctx context.Context) {
	logrus.WithField("interval", j.interval.String()).Info("Starting referral sync job")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Referral sync job stopped (context cancelled)")
			return
		case <-j.stop:
			logrus.Info("Referral sync job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *ReferralSyncJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

// RunOnce performs a single rebuild pass
func (j *ReferralSyncJob) RunOnce(ctx context.Context) {
	start := time.Now()
	n, err := j.rebuilder.RebuildAll(ctx)
	if err != nil {
		logrus.WithError(err).WithField("rebuilt", n).Error("Referral sync failed")
		return
	}
	j.metrics.ObserveReferralSync(time.Now())
	logrus.WithFields(logrus.Fields{
		"rebuilt":  n,
		"duration": time.Since(start).String(),
	}).Info("Referral sync completed")
}

package reporter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/pds-gateway/entity"
	"github.com/omni/pds-gateway/logging"
)

// PurgeJob periodically deletes reports older than Expiration.
type PurgeJob struct {
	logger     logging.Logger
	repo       entity.ReportsRepo
	Expiration time.Duration
	Interval   time.Duration
	Timeout    time.Duration
	now        func() time.Time
}

func NewPurgeJob(logger logging.Logger, repo entity.ReportsRepo, expiration, interval time.Duration) *PurgeJob {
	return &PurgeJob{
		logger:     logger,
		repo:       repo,
		Expiration: expiration,
		Interval:   interval,
		Timeout:    time.Minute,
		now:        time.Now,
	}
}

func (j *PurgeJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		j.purge(ctx)

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return
		}
	}
}

func (j *PurgeJob) purge(ctx context.Context) {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	start := time.Now()
	threshold := j.now().Add(-j.Expiration)
	n, err := j.repo.DeleteOlderThan(timeoutCtx, threshold)
	if err != nil {
		j.logger.WithError(err).Error("failed to purge expired reports")
		return
	}
	ReportsPurged.Add(float64(n))
	j.logger.WithFields(logrus.Fields{
		"count":     n,
		"threshold": threshold,
		"duration":  time.Since(start),
	}).Info("purged expired reports")
}

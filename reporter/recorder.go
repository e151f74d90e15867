package reporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/omni/pds-gateway/db"
	"github.com/omni/pds-gateway/entity"
	"github.com/omni/pds-gateway/gateway"
	"github.com/omni/pds-gateway/logging"
)

const writeTimeout = 5 * time.Second

// Recorder persists reports off the request path. Save never blocks: a full
// queue drops the report.
type Recorder struct {
	logger logging.Logger
	repo   entity.ReportsRepo
	queue  chan *entity.Report
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewRecorder(logger logging.Logger, repo entity.ReportsRepo, bufferSize int) *Recorder {
	return &Recorder{
		logger: logger,
		repo:   repo,
		queue:  make(chan *entity.Report, bufferSize),
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Start runs the background writer until Close drains the queue.
func (r *Recorder) Start() {
	go r.run()
}

func (r *Recorder) run() {
	defer close(r.done)
	for report := range r.queue {
		r.write(report)
	}
}

func (r *Recorder) write(report *entity.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Insert(ctx, report); err != nil {
		ReportsWritten.WithLabelValues("error").Inc()
		r.logger.WithError(err).WithField("report_id", report.ID).Error("can't save report")
		return
	}
	ReportsWritten.WithLabelValues("ok").Inc()
}

func (r *Recorder) Save(report *entity.Report) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		ReportsDropped.Inc()
		r.logger.WithField("report_id", report.ID).Warn("recorder is closed, dropping report")
		return
	}
	select {
	case r.queue <- report:
	default:
		ReportsDropped.Inc()
		r.logger.WithField("report_id", report.ID).Warn("report queue is full, dropping report")
	}
}

// Close stops accepting reports and waits until queued ones are written or
// ctx expires.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("can't drain report queue: %w", ctx.Err())
	}
}

func (r *Recorder) OnSuccess(_ context.Context, o *gateway.Outcome) {
	r.Save(NewReport(o, r.now()))
}

// OnFailure records failed and rejected requests. A caller that went away
// while waiting on a concurrent request leaves no report.
func (r *Recorder) OnFailure(_ context.Context, o *gateway.Outcome) {
	if o.State == gateway.StateCancelled {
		return
	}
	r.Save(NewReport(o, r.now()))
}

// Latest returns the most recent report, or nil when there is none.
func (r *Recorder) Latest(ctx context.Context) (*entity.Report, error) {
	report, err := r.repo.FindLatest(ctx)
	return nilIfNotFound(report, err)
}

// LatestFailed returns the most recent report whose verification or provider
// call did not end with 200, or nil when there is none.
func (r *Recorder) LatestFailed(ctx context.Context) (*entity.Report, error) {
	report, err := r.repo.FindLatestFailed(ctx)
	return nilIfNotFound(report, err)
}

func nilIfNotFound(report *entity.Report, err error) (*entity.Report, error) {
	if err != nil {
		return nil, db.IgnoreErrNotFound(err)
	}
	return report, nil
}

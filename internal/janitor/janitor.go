package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/ridecore/internal/logger"
	"github.com/dom/ridecore/internal/metrics"
	"github.com/robfig/cron/v3"
)

const (
	jobSweepSessions = "sweep_sessions"
	jobTimeout       = 2 * time.Minute
)

type SessionSweeper interface {
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// Janitor runs periodic storage cleanup. Expired sessions are already
// rejected by the auth gate; this only keeps the table small.
type Janitor struct {
	cron    *cron.Cron
	sweeper SessionSweeper
	metrics *metrics.Metrics
	logg    *logger.Logger
}

func New(schedule string, sweeper SessionSweeper, m *metrics.Metrics, logg *logger.Logger) (*Janitor, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	j := &Janitor{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		metrics: m,
		logg:    logg,
	}
	if _, err := j.cron.AddFunc(schedule, j.runSweep); err != nil {
		return nil, fmt.Errorf("schedule %s %q: %w", jobSweepSessions, schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop prevents new runs and waits for a running job or ctx.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (j *Janitor) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	_, _ = j.SweepSessions(ctx)
}

// SweepSessions deletes expired sessions once and records the outcome.
func (j *Janitor) SweepSessions(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := j.sweeper.SweepExpiredSessions(ctx)
	j.metrics.ObserveJob(jobSweepSessions, time.Since(start), err)

	ctx = j.logg.WithField(ctx, "job", jobSweepSessions)
	if err != nil {
		j.logg.Error(ctx, "janitor.failed", err)
		return 0, err
	}
	j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "janitor.completed")
	return deleted, nil
}

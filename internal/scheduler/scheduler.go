// Package scheduler runs the daily maintenance sweeps on wall-clock triggers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Job is a task run once a day at Hour:Minute local time.
type Job struct {
	Name   string
	Hour   int
	Minute int
	Run    func(ctx context.Context) error
}

// Metrics counts job runs by outcome.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the scheduler metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trinity_scheduler_runs_total",
			Help: "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trinity_scheduler_run_duration_seconds",
			Help:    "Duration of scheduled job runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration)
	return m
}

// Scheduler fires each job on its daily trigger until the context ends.
// A failing or panicking job is logged and counted and never stops the
// others.
type Scheduler struct {
	jobs    []Job
	metrics *Metrics
	logger  *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a scheduler. metrics may be nil.
func New(metrics *Metrics, logger *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}
}

// nextRun returns the first hour:minute strictly after now, in now's
// location.
func nextRun(now time.Time, hour, minute int) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Run blocks until ctx is cancelled, running every job on its schedule.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	for {
		now := s.now()
		next := nextRun(now, job.Hour, job.Minute)
		s.logger.Debug("job scheduled",
			slog.String("job", job.Name),
			slog.Time("next_run", next),
		)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
			_ = s.RunOnce(ctx, job)
		}
	}
}

// RunOnce runs job immediately and reports its error. Panics are recovered
// and returned as errors.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}

		result := "success"
		if err != nil {
			result = "failure"
			s.logger.ErrorContext(ctx, "scheduled job failed",
				slog.String("job", job.Name),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.InfoContext(ctx, "scheduled job finished",
				slog.String("job", job.Name),
				slog.Duration("duration", time.Since(start)),
			)
		}
		if s.metrics != nil {
			s.metrics.runs.WithLabelValues(job.Name, result).Inc()
			s.metrics.duration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		}
	}()

	return job.Run(ctx)
}

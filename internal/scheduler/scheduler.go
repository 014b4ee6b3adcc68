package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"github.com/rosterhub/workflow-engine/internal/service"
	"github.com/rosterhub/workflow-engine/internal/store"
	"github.com/rosterhub/workflow-engine/pkg/metrics"
	"go.uber.org/zap"
)

const (
	sweepAutoPublish = "auto_publish"
	sweepAutoExpire  = "auto_expire"

	autoPublishNote = "Automatically published based on scheduled date"
	autoExpireNote  = "Automatically expired: expiry date reached"
)

// SweepFailure records one posting the sweep could not transition.
type SweepFailure struct {
	PostingID uuid.UUID
	Err       error
}

// SweepReport is the outcome of one sweep run, for operator visibility.
type SweepReport struct {
	Sweep        string
	Transitioned int
	Failures     []SweepFailure
}

// Scheduler drives time-based transitions. Each tick runs both sweeps under
// a single-flight guard with a bounded deadline; each posting's
// transition is its own transaction, so a timed-out run resumes safely on
// the next tick.
type Scheduler struct {
	store    store.Store
	workflow *service.WorkflowService
	stats    *service.StatsService
	interval time.Duration
	timeout  time.Duration

	running sync.Mutex
	nowFunc func() time.Time
}

func New(store store.Store, workflow *service.WorkflowService, stats *service.StatsService, interval, timeout time.Duration) *Scheduler {
	return &Scheduler{
		store:    store,
		workflow: workflow,
		stats:    stats,
		interval: interval,
		timeout:  timeout,
		nowFunc:  time.Now,
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger := zap.S().Named("scheduler")
	logger.Infow("scheduler started", "interval", s.interval, "timeout", s.timeout)
	defer logger.Info("scheduler stopped")

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 500 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.tick(ctx)
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// skip the tick entirely while a previous run is still going
	if !s.running.TryLock() {
		zap.S().Named("scheduler").Warn("previous sweep still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.report(s.AutoPublishSweep(ctx))
	s.report(s.AutoExpireSweep(ctx))
	s.refreshGauges(ctx)
}

// refreshGauges republishes the dashboard counts after each tick so the
// metrics endpoint tracks the workflow without a request-driven surface.
func (s *Scheduler) refreshGauges(ctx context.Context) {
	stats, err := s.stats.GetWorkflowStats(ctx)
	if err != nil {
		zap.S().Named("scheduler").Errorw("stats refresh failed", "error", err)
		return
	}
	metrics.UpdateWorkflowGauges(stats.TotalPostings, stats.PendingApproval, stats.TotalEmployers)
}

// AutoPublishSweep publishes approved postings whose scheduled publish time
// has arrived. Failures are isolated per posting; the sweep continues past
// them. Running it again right away finds nothing: publishing moves the
// posting off approved.
func (s *Scheduler) AutoPublishSweep(ctx context.Context) SweepReport {
	started := s.nowFunc()
	report := SweepReport{Sweep: sweepAutoPublish}

	due, err := s.store.Posting().List(ctx, store.NewPostingQueryFilter().ByAutoPublishDue(started.UTC()))
	if err != nil {
		zap.S().Named("scheduler").Errorw("auto-publish sweep query failed", "error", err)
		return report
	}

	for _, posting := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.workflow.Transition(ctx, posting.ID, service.ActionPublish, service.SystemActor, autoPublishNote, true); err != nil {
			report.Failures = append(report.Failures, SweepFailure{PostingID: posting.ID, Err: err})
			continue
		}
		report.Transitioned++
	}

	metrics.UpdateSweepDurationMetric(sweepAutoPublish, s.nowFunc().Sub(started))
	return report
}

// AutoExpireSweep expires live postings whose expiry time has passed.
func (s *Scheduler) AutoExpireSweep(ctx context.Context) SweepReport {
	started := s.nowFunc()
	report := SweepReport{Sweep: sweepAutoExpire}

	due, err := s.store.Posting().List(ctx, store.NewPostingQueryFilter().ByExpiredBefore(started.UTC()))
	if err != nil {
		zap.S().Named("scheduler").Errorw("auto-expire sweep query failed", "error", err)
		return report
	}

	for _, posting := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.workflow.Transition(ctx, posting.ID, service.ActionExpire, service.SystemActor, autoExpireNote, true); err != nil {
			report.Failures = append(report.Failures, SweepFailure{PostingID: posting.ID, Err: err})
			continue
		}
		report.Transitioned++
	}

	metrics.UpdateSweepDurationMetric(sweepAutoExpire, s.nowFunc().Sub(started))
	return report
}

func (s *Scheduler) report(report SweepReport) {
	metrics.IncreaseSweepTransitionsTotalMetric(report.Sweep, report.Transitioned)
	metrics.IncreaseSweepFailuresTotalMetric(report.Sweep, len(report.Failures))

	logger := zap.S().Named("scheduler")
	if len(report.Failures) > 0 {
		for _, failure := range report.Failures {
			logger.Errorw("sweep transition failed",
				"sweep", report.Sweep, "posting_id", failure.PostingID, "error", failure.Err)
		}
	}
	if report.Transitioned > 0 || len(report.Failures) > 0 {
		logger.Infow("sweep finished",
			"sweep", report.Sweep, "transitioned", report.Transitioned, "failures", len(report.Failures))
	}
}

package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/edurisk/edurisk/pkg/config"
	"github.com/edurisk/edurisk/pkg/data"
	"github.com/edurisk/edurisk/pkg/risk"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

const (
	TaskRiskRefresh   = "risk_refresh"
	TaskAlertScan     = "alert_scan"
	TaskMetricCleanup = "metric_cleanup"

	// Six-field cron expressions, seconds first.
	refreshSpec = "0 0 2 * * *"
	scanSpec    = "0 */30 * * * *"
	cleanupSpec = "0 0 3 * * 0"

	taskIDPrefix = "TASK_"
)

// Scheduler runs the engine's periodic tasks: the nightly risk
// refresh, the half-hourly alert scan, and weekly metric cleanup.
// A shared semaphore caps concurrent runs; a task that cannot
// acquire a slot is skipped, never queued.
type Scheduler struct {
	cron      *cron.Cron
	predictor *risk.Predictor
	store     *data.Store
	cfg       *config.Config
	sem       *semaphore.Weighted
}

func New(predictor *risk.Predictor, store *data.Store, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		predictor: predictor,
		store:     store,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrentTasks),
	}
}

// Start registers the task schedule and begins running it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(refreshSpec, func() { s.RunRefresh() }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(scanSpec, func() { s.RunAlertScan() }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cleanupSpec, func() { s.RunCleanup() }); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("scheduler started",
		"lookback_days", s.cfg.LookbackDays,
		"max_concurrent", s.cfg.MaxConcurrentTasks)
	return nil
}

// Stop halts the schedule and waits for running tasks, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		slog.Warn("scheduler stop timeout")
		return ctx.Err()
	}
}

// RunRefresh re-scores the recent window and writes the results back.
// Returns the number of rows updated.
func (s *Scheduler) RunRefresh() int {
	taskID, start, ok := s.begin(TaskRiskRefresh)
	if !ok {
		return 0
	}
	defer s.sem.Release(1)

	updated, err := s.predictor.RefreshRecent(s.cfg.LookbackDays)
	if err != nil {
		s.finish(TaskRiskRefresh, taskID, start, data.MetricStatusFailed, "error", err)
		return 0
	}

	status := data.MetricStatusSuccess
	if updated == 0 {
		status = data.MetricStatusNoData
	}
	s.finish(TaskRiskRefresh, taskID, start, status, "updated", updated)
	return updated
}

// RunAlertScan opens alerts for rows at or above the alert threshold.
// Pairs with an alert already open are skipped. Returns the number of
// alerts created.
func (s *Scheduler) RunAlertScan() int {
	taskID, start, ok := s.begin(TaskAlertScan)
	if !ok {
		return 0
	}
	defer s.sem.Release(1)

	records, err := data.GetHighRiskRecords(s.store.DB(), s.cfg.AlertThreshold, s.cfg.AlertLimit)
	if err != nil {
		s.finish(TaskAlertScan, taskID, start, data.MetricStatusFailed, "error", err)
		return 0
	}
	if len(records) == 0 {
		s.finish(TaskAlertScan, taskID, start, data.MetricStatusNoData)
		return 0
	}

	created := 0
	for _, rec := range records {
		if rec.RiskProbability == nil {
			continue
		}
		ok, err := data.CreateAlert(s.store.DB(), &data.Alert{
			StudentID:   rec.StudentID,
			CourseID:    rec.CourseID,
			Level:       string(s.predictor.Thresholds().Classify(*rec.RiskProbability)),
			Probability: *rec.RiskProbability,
			Message:     alertMessage(rec),
		})
		if err != nil {
			slog.Warn("failed to create alert",
				"student", rec.StudentID, "course", rec.CourseID, "error", err)
			continue
		}
		if ok {
			created++
		}
	}

	s.finish(TaskAlertScan, taskID, start, data.MetricStatusSuccess,
		"scanned", len(records), "created", created)
	return created
}

// RunCleanup prunes task metrics past the retention window.
func (s *Scheduler) RunCleanup() int64 {
	taskID, start, ok := s.begin(TaskMetricCleanup)
	if !ok {
		return 0
	}
	defer s.sem.Release(1)

	removed, err := data.CleanupMetrics(s.store.DB(), s.cfg.MetricRetentionDays)
	if err != nil {
		s.finish(TaskMetricCleanup, taskID, start, data.MetricStatusFailed, "error", err)
		return 0
	}

	s.finish(TaskMetricCleanup, taskID, start, data.MetricStatusSuccess, "removed", removed)
	return removed
}

// begin acquires a run slot. A saturated semaphore skips the run.
func (s *Scheduler) begin(taskType string) (string, time.Time, bool) {
	if !s.sem.TryAcquire(1) {
		slog.Warn("task skipped, scheduler saturated", "task", taskType)
		return "", time.Time{}, false
	}
	taskID := taskIDPrefix + strings.ToUpper(uuid.NewString()[:8])
	slog.Debug("task started", "task", taskType, "id", taskID)
	return taskID, time.Now(), true
}

func (s *Scheduler) finish(taskType, taskID string, start time.Time, status string, args ...any) {
	duration := time.Since(start)
	if err := data.InsertMetric(s.store.DB(), taskType, taskID, duration, status); err != nil {
		slog.Warn("failed to record task metric", "task", taskType, "error", err)
	}

	logArgs := append([]any{
		"task", taskType, "id", taskID,
		"status", status, "duration_ms", duration.Milliseconds(),
	}, args...)
	if status == data.MetricStatusFailed {
		slog.Error("task failed", logArgs...)
		return
	}
	slog.Info("task finished", logArgs...)
}

func alertMessage(rec *risk.StudentRecord) string {
	var b strings.Builder
	b.WriteString("sustained high risk")
	if rec.StudentName != "" {
		b.WriteString(" for " + rec.StudentName)
	}
	if rec.CourseName != "" {
		b.WriteString(" in " + rec.CourseName)
	}
	return b.String()
}

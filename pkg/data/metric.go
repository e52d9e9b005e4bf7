package data

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

const (
	MetricStatusSuccess = "SUCCESS"
	MetricStatusNoData  = "NO_DATA"
	MetricStatusFailed  = "FAILED"

	insertMetricSQL = `INSERT INTO system_metric (
			task_type,
			task_id,
			duration_ms,
			status,
			created_at
		)
		VALUES (?, ?, ?, ?, ?)
	`

	cleanupMetricsSQL = `DELETE FROM system_metric WHERE created_at < ?`
)

// InsertMetric records the outcome of one scheduled task run.
func InsertMetric(db *sql.DB, taskType, taskID string, duration time.Duration, status string) error {
	if db == nil {
		return errDBNotInitialized
	}

	_, err := db.Exec(insertMetricSQL,
		taskType, taskID, duration.Milliseconds(), status,
		time.Now().UTC().Format(timeFormat))
	if err != nil {
		return errors.Wrapf(err, "failed to insert metric for task %s", taskType)
	}
	return nil
}

// CleanupMetrics deletes task records older than the retention window
// and returns the number removed.
func CleanupMetrics(db *sql.DB, retentionDays int) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(timeFormat)
	res, err := db.Exec(cleanupMetricsSQL, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "failed to cleanup metrics")
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get affected rows")
	}
	return removed, nil
}

package data

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	alertNoPrefix = "ALERT_"

	AlertStatusOpen     = "OPEN"
	AlertStatusResolved = "RESOLVED"

	countOpenAlertsSQL = `SELECT COUNT(*) FROM risk_alert
		WHERE student_id = ? AND course_id = ? AND status = ?
	`

	insertAlertSQL = `INSERT INTO risk_alert (
			alert_no,
			student_id,
			course_id,
			alert_level,
			risk_probability,
			message,
			status,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectOpenAlertsSQL = `SELECT
			id,
			alert_no,
			student_id,
			course_id,
			alert_level,
			risk_probability,
			message,
			status
		FROM risk_alert
		WHERE status = ?
		ORDER BY risk_probability DESC, id DESC
		LIMIT ?
	`

	resolveAlertSQL = `UPDATE risk_alert SET status = ? WHERE id = ? AND status = ?`
)

// Alert is one high-risk notification row.
type Alert struct {
	ID          int64   `json:"id" yaml:"id"`
	AlertNo     string  `json:"alert_no" yaml:"alertNo"`
	StudentID   int64   `json:"student_id" yaml:"studentId"`
	CourseID    int64   `json:"course_id" yaml:"courseId"`
	Level       string  `json:"level" yaml:"level"`
	Probability float64 `json:"probability" yaml:"probability"`
	Message     string  `json:"message,omitempty" yaml:"message,omitempty"`
	Status      string  `json:"status" yaml:"status"`
}

// CreateAlert inserts an alert unless the same (student, course) pair
// already has one open. Returns true when a row was created.
func CreateAlert(db *sql.DB, a *Alert) (bool, error) {
	if db == nil {
		return false, errDBNotInitialized
	}
	if a == nil {
		return false, errors.New("alert required")
	}

	var open int
	if err := db.QueryRow(countOpenAlertsSQL, a.StudentID, a.CourseID, AlertStatusOpen).Scan(&open); err != nil {
		return false, errors.Wrap(err, "failed to count open alerts")
	}
	if open > 0 {
		return false, nil
	}

	if a.AlertNo == "" {
		a.AlertNo = alertNoPrefix + strings.ToUpper(uuid.NewString()[:8])
	}

	res, err := db.Exec(insertAlertSQL,
		a.AlertNo, a.StudentID, a.CourseID, a.Level, a.Probability,
		a.Message, AlertStatusOpen, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return false, errors.Wrapf(err, "failed to insert alert for student %d", a.StudentID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, errors.Wrap(err, "failed to get alert ID")
	}
	a.ID = id
	a.Status = AlertStatusOpen
	return true, nil
}

// ListOpenAlerts returns open alerts, highest probability first.
func ListOpenAlerts(db *sql.DB, limit int) ([]*Alert, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(selectOpenAlertsSQL, AlertStatusOpen, limit)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to query open alerts")
	}
	defer rows.Close()

	alerts := make([]*Alert, 0)
	for rows.Next() {
		var a Alert
		var msg sql.NullString
		if err := rows.Scan(&a.ID, &a.AlertNo, &a.StudentID, &a.CourseID,
			&a.Level, &a.Probability, &msg, &a.Status); err != nil {
			return nil, errors.Wrap(err, "failed to scan alert row")
		}
		a.Message = msg.String
		alerts = append(alerts, &a)
	}
	return alerts, nil
}

// ResolveAlert closes one open alert.
func ResolveAlert(db *sql.DB, id int64) error {
	if db == nil {
		return errDBNotInitialized
	}

	res, err := db.Exec(resolveAlertSQL, AlertStatusResolved, id, AlertStatusOpen)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve alert %d", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.Errorf("open alert %d not found", id)
	}
	return nil
}

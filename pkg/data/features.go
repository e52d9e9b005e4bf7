package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edurisk/edurisk/pkg/risk"
)

const (
	selectFeatureColumns = `SELECT
			id,
			student_id,
			student_name,
			student_no,
			course_id,
			course_name,
			watch_time,
			completion_rate,
			submit_rate,
			avg_score,
			login_count,
			focus_score,
			consistency_score,
			interaction_score,
			risk_probability
		FROM learning_feature
	`

	selectStudentSummarySQL = selectFeatureColumns + `
		WHERE student_id = ? AND course_id = ?
		ORDER BY feature_date DESC
		LIMIT 1
	`

	selectCourseFeaturesSQL = selectFeatureColumns + `
		WHERE course_id = ?
		AND feature_date = (
			SELECT MAX(f2.feature_date) FROM learning_feature f2
			WHERE f2.student_id = learning_feature.student_id
			AND f2.course_id = learning_feature.course_id
		)
		ORDER BY student_id
	`

	selectRecentFeaturesSQL = selectFeatureColumns + `
		WHERE feature_date >= ?
		ORDER BY feature_date DESC, id DESC
	`

	selectTrainingFeaturesSQL = selectFeatureColumns + `
		WHERE risk_probability IS NOT NULL
		ORDER BY feature_date DESC
		LIMIT ?
	`

	selectHighRiskFeaturesSQL = selectFeatureColumns + `
		WHERE risk_probability >= ?
		ORDER BY risk_probability DESC
		LIMIT ?
	`

	upsertFeatureSQL = `INSERT INTO learning_feature (
			student_id,
			student_name,
			student_no,
			course_id,
			course_name,
			feature_date,
			watch_time,
			completion_rate,
			submit_rate,
			avg_score,
			login_count,
			focus_score,
			consistency_score,
			interaction_score,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id, feature_date) DO UPDATE SET
			student_name = ?,
			course_name = ?,
			watch_time = ?,
			completion_rate = ?,
			submit_rate = ?,
			avg_score = ?,
			login_count = ?,
			focus_score = ?,
			consistency_score = ?,
			interaction_score = ?,
			updated_at = ?
	`

	updateRiskInfoSQL = `UPDATE learning_feature
		SET risk_score = ?, risk_level = ?, risk_probability = ?,
		    feature_vector = ?, updated_at = ?
		WHERE id = ?
	`

	countByLevelSQL = `SELECT COUNT(*) FROM learning_feature WHERE risk_level = ?`
)

// GetStudentSummary returns the most recent behavioral row for a
// (student, course) pair, or (nil, nil) when none exists.
func GetStudentSummary(db *sql.DB, studentID, courseID int64) (*risk.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	row := db.QueryRow(selectStudentSummarySQL, studentID, courseID)
	rec, err := scanStudentRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student summary: %w", err)
	}
	return rec, nil
}

// GetCourseRecords returns the latest row per student for one course.
func GetCourseRecords(db *sql.DB, courseID int64) ([]*risk.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	return queryStudentRecords(db, selectCourseFeaturesSQL, courseID)
}

// GetRecentRecords returns all rows in the lookback window.
func GetRecentRecords(db *sql.DB, days int) ([]*risk.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format(dateFormat)
	return queryStudentRecords(db, selectRecentFeaturesSQL, since)
}

// GetTrainingRecords returns rows that already carry a stored risk
// probability, newest first. Used only by the bootstrap training path.
func GetTrainingRecords(db *sql.DB, limit int) ([]*risk.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 1000
	}
	return queryStudentRecords(db, selectTrainingFeaturesSQL, limit)
}

// GetHighRiskRecords returns rows at or above the probability cutoff.
func GetHighRiskRecords(db *sql.DB, threshold float64, limit int) ([]*risk.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	return queryStudentRecords(db, selectHighRiskFeaturesSQL, threshold, limit)
}

// UpsertFeatures inserts or replaces the aggregate row for one
// (student, course, date).
func UpsertFeatures(db *sql.DB, rec *risk.StudentRecord, featureDate string) error {
	if db == nil {
		return errDBNotInitialized
	}
	if rec == nil {
		return fmt.Errorf("record required")
	}
	if featureDate == "" {
		featureDate = time.Now().UTC().Format(dateFormat)
	}

	now := time.Now().UTC().Format(timeFormat)
	s := rec.Signals
	_, err := db.Exec(upsertFeatureSQL,
		rec.StudentID, rec.StudentName, rec.StudentNo, rec.CourseID, rec.CourseName, featureDate,
		s.WatchTime, s.CompletionRate, s.SubmitRate, s.AvgScore,
		s.LoginCount, s.Focus, s.Consistency, s.Interaction, now,
		rec.StudentName, rec.CourseName,
		s.WatchTime, s.CompletionRate, s.SubmitRate, s.AvgScore,
		s.LoginCount, s.Focus, s.Consistency, s.Interaction, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert features for student %d: %w", rec.StudentID, err)
	}
	return nil
}

// UpdateRiskInfo writes the computed risk fields back to one row.
// Each call commits on its own; batch refresh deliberately avoids a
// batch-wide transaction so earlier rows stay durable when a later
// row fails.
func UpdateRiskInfo(db *sql.DB, id int64, update risk.RiskUpdate) error {
	if db == nil {
		return errDBNotInitialized
	}

	vector, err := json.Marshal(update.FeatureVector)
	if err != nil {
		return fmt.Errorf("failed to encode feature vector: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	res, err := db.Exec(updateRiskInfoSQL,
		update.Score, string(update.Level), update.Probability, string(vector), now, id)
	if err != nil {
		return fmt.Errorf("failed to update risk info for row %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("learning feature row %d not found", id)
	}
	return nil
}

// CountByLevel counts rows currently classified at the given level.
func CountByLevel(db *sql.DB, level string) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	var count int
	if err := db.QueryRow(countByLevelSQL, level).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows by level: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudentRecord(row rowScanner) (*risk.StudentRecord, error) {
	var rec risk.StudentRecord
	var name, no, courseName sql.NullString
	var prob sql.NullFloat64

	err := row.Scan(
		&rec.ID, &rec.StudentID, &name, &no, &rec.CourseID, &courseName,
		&rec.Signals.WatchTime, &rec.Signals.CompletionRate, &rec.Signals.SubmitRate,
		&rec.Signals.AvgScore, &rec.Signals.LoginCount, &rec.Signals.Focus,
		&rec.Signals.Consistency, &rec.Signals.Interaction, &prob,
	)
	if err != nil {
		return nil, err
	}

	rec.StudentName = name.String
	rec.StudentNo = no.String
	rec.CourseName = courseName.String
	if prob.Valid {
		p := prob.Float64
		rec.RiskProbability = &p
	}
	return &rec, nil
}

func queryStudentRecords(db *sql.DB, query string, args ...any) ([]*risk.StudentRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query learning features: %w", err)
	}
	defer rows.Close()

	records := make([]*risk.StudentRecord, 0)
	for rows.Next() {
		rec, err := scanStudentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learning feature row: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

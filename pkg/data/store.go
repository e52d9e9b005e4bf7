package data

import (
	"database/sql"

	"github.com/edurisk/edurisk/pkg/risk"
)

// Store adapts the package-level query functions to the interfaces the
// risk predictor consumes.
type Store struct {
	db *sql.DB
}

// NewStore wraps an initialized database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for callers outside the predictor
// interfaces (alerts, metrics, listings).
func (s *Store) DB() *sql.DB {
	return s.db
}

// StudentSummary implements risk.FeatureSource.
func (s *Store) StudentSummary(studentID, courseID int64) (*risk.StudentRecord, error) {
	return GetStudentSummary(s.db, studentID, courseID)
}

// CourseRecords implements risk.FeatureSource.
func (s *Store) CourseRecords(courseID int64) ([]*risk.StudentRecord, error) {
	return GetCourseRecords(s.db, courseID)
}

// RecentRecords implements risk.FeatureSource.
func (s *Store) RecentRecords(days int) ([]*risk.StudentRecord, error) {
	return GetRecentRecords(s.db, days)
}

// TrainingRecords implements risk.FeatureSource.
func (s *Store) TrainingRecords(limit int) ([]*risk.StudentRecord, error) {
	return GetTrainingRecords(s.db, limit)
}

// UpdateRisk implements risk.FeatureSource.
func (s *Store) UpdateRisk(id int64, update risk.RiskUpdate) error {
	return UpdateRiskInfo(s.db, id, update)
}

// CreateVersion implements risk.ModelRegistry.
func (s *Store) CreateVersion(v *risk.ModelVersion) (int64, error) {
	return CreateModelVersion(s.db, v)
}

// GetVersion implements risk.ModelRegistry.
func (s *Store) GetVersion(id int64) (*risk.ModelVersion, error) {
	return GetModelVersion(s.db, id)
}

// ActiveVersion implements risk.ModelRegistry.
func (s *Store) ActiveVersion() (*risk.ModelVersion, error) {
	return GetActiveModelVersion(s.db)
}

// Activate implements risk.ModelRegistry.
func (s *Store) Activate(id int64) error {
	return ActivateModelVersion(s.db, id)
}

package risk

import (
	"time"

	"github.com/edurisk/edurisk/pkg/feature"
	"github.com/edurisk/edurisk/pkg/model"
)

// Source records which path produced an assessment's probability.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"

	// SourceNone marks sentinel assessments for subjects without data.
	SourceNone Source = "none"
)

// StudentRecord is one behavioral aggregate row as the orchestrator
// consumes it: identity, raw signals, and the previously stored risk
// probability (used only by the bootstrap training path).
type StudentRecord struct {
	ID          int64           `json:"id" yaml:"id"`
	StudentID   int64           `json:"student_id" yaml:"studentId"`
	StudentName string          `json:"student_name,omitempty" yaml:"studentName,omitempty"`
	StudentNo   string          `json:"student_no,omitempty" yaml:"studentNo,omitempty"`
	CourseID    int64           `json:"course_id" yaml:"courseId"`
	CourseName  string          `json:"course_name,omitempty" yaml:"courseName,omitempty"`
	Signals     feature.Signals `json:"signals" yaml:"signals"`

	RiskProbability *float64 `json:"risk_probability,omitempty" yaml:"riskProbability,omitempty"`
}

// RiskUpdate is the per-row write-back of a batch refresh.
type RiskUpdate struct {
	Score         float64     `json:"score" yaml:"score"`
	Level         model.Level `json:"level" yaml:"level"`
	Probability   float64     `json:"probability" yaml:"probability"`
	FeatureVector []float64   `json:"feature_vector" yaml:"featureVector"`
}

// FeatureSource supplies raw behavioral aggregates and accepts the
// computed risk fields. A missing subject is (nil, nil), not an error.
type FeatureSource interface {
	StudentSummary(studentID, courseID int64) (*StudentRecord, error)
	CourseRecords(courseID int64) ([]*StudentRecord, error)
	RecentRecords(days int) ([]*StudentRecord, error)
	TrainingRecords(limit int) ([]*StudentRecord, error)
	UpdateRisk(id int64, update RiskUpdate) error
}

// ModelVersion is a named, persisted snapshot of classifier parameters
// plus metadata and activation state.
type ModelVersion struct {
	ID            int64   `json:"id" yaml:"id"`
	ModelNo       string  `json:"model_no" yaml:"modelNo"`
	Version       string  `json:"version" yaml:"version"`
	Name          string  `json:"name" yaml:"name"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	AlgorithmType string  `json:"algorithm_type" yaml:"algorithmType"`
	SampleCount   int     `json:"sample_count" yaml:"sampleCount"`
	FeatureCount  int     `json:"feature_count" yaml:"featureCount"`
	Weights       string  `json:"weights" yaml:"weights"` // JSON-encoded []float64
	Bias          float64 `json:"bias" yaml:"bias"`

	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1Score   float64 `json:"f1_score" yaml:"f1Score"`
	AUC       float64 `json:"auc" yaml:"auc"`

	LowThreshold    float64 `json:"low_threshold" yaml:"lowThreshold"`
	MediumThreshold float64 `json:"medium_threshold" yaml:"mediumThreshold"`
	HighThreshold   float64 `json:"high_threshold" yaml:"highThreshold"`

	Active bool   `json:"active" yaml:"active"`
	Status string `json:"status" yaml:"status"` // TRAINING/TRAINED/DEPLOYED
}

// ModelRegistry persists versioned parameter sets. At most one version
// is active at a time; Activate deactivates all others.
type ModelRegistry interface {
	CreateVersion(v *ModelVersion) (int64, error)
	GetVersion(id int64) (*ModelVersion, error)
	ActiveVersion() (*ModelVersion, error)
	Activate(id int64) error
}

// Assessment is the per-subject output of the orchestrator. Not
// persisted here; batch refresh writes the derived fields back through
// the FeatureSource.
type Assessment struct {
	StudentID   int64       `json:"student_id" yaml:"studentId"`
	StudentName string      `json:"student_name,omitempty" yaml:"studentName,omitempty"`
	StudentNo   string      `json:"student_no,omitempty" yaml:"studentNo,omitempty"`
	CourseID    int64       `json:"course_id" yaml:"courseId"`
	CourseName  string      `json:"course_name,omitempty" yaml:"courseName,omitempty"`
	Probability float64     `json:"probability" yaml:"probability"`
	Level       model.Level `json:"level" yaml:"level"`
	Score       float64     `json:"score" yaml:"score"`
	Factors     []string    `json:"factors" yaml:"factors"`
	Suggestion  string      `json:"suggestion" yaml:"suggestion"`
	Features    []float64   `json:"features,omitempty" yaml:"features,omitempty"`
	Source      Source      `json:"source" yaml:"source"`
	AssessedAt  time.Time   `json:"assessed_at" yaml:"assessedAt"`
}

// GroupAssessment aggregates a course's per-student assessments.
type GroupAssessment struct {
	CourseID      int64                 `json:"course_id" yaml:"courseId"`
	CourseName    string                `json:"course_name,omitempty" yaml:"courseName,omitempty"`
	TotalStudents int                   `json:"total_students" yaml:"totalStudents"`
	HighCount     int                   `json:"high_count" yaml:"highCount"`
	MediumCount   int                   `json:"medium_count" yaml:"mediumCount"`
	LowCount      int                   `json:"low_count" yaml:"lowCount"`
	AvgScore      float64               `json:"avg_score" yaml:"avgScore"`
	Distribution  map[model.Level]float64 `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Students      []*Assessment         `json:"students,omitempty" yaml:"students,omitempty"`
	Suggestion    string                `json:"suggestion" yaml:"suggestion"`
	AssessedAt    time.Time             `json:"assessed_at" yaml:"assessedAt"`
}

// TrainingResult reports one training run.
type TrainingResult struct {
	Samples      int            `json:"samples" yaml:"samples"`
	FeatureCount int            `json:"feature_count" yaml:"featureCount"`
	Duration     time.Duration  `json:"duration" yaml:"duration"`
	Metrics      *model.Metrics `json:"metrics" yaml:"metrics"`
}

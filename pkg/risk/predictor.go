package risk

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/edurisk/edurisk/pkg/feature"
	"github.com/edurisk/edurisk/pkg/model"
)

const (
	refreshLookbackDaysDefault = 7

	// Bootstrap labeling: a stored probability above this counts as a
	// positive sample. See BootstrapTrain.
	bootstrapLabelCutoff = 0.6

	algorithmTypeDefault = "LOGISTIC_REGRESSION"
	versionDefault       = "1.0.0"

	// Placeholder metrics stored with a freshly saved version until a
	// real evaluation run replaces them.
	placeholderAccuracy    = 0.85
	placeholderPrecision   = 0.82
	placeholderRecall      = 0.88
	placeholderF1          = 0.85
	placeholderAUC         = 0.90
	placeholderSampleCount = 1000
)

// Predictor is the risk orchestrator: it combines the feature codec,
// the classifier, the guard and the heuristic fallback into end-to-end
// assessments, and owns batch refresh and model version save/load.
//
// Assessment paths only read classifier state via parameter snapshots;
// Train/LoadModel/SetThresholds mutate and must not run concurrently
// with anything else on the same Predictor.
type Predictor struct {
	classifier *model.Classifier
	thresholds model.Thresholds
	source     FeatureSource
	registry   ModelRegistry
}

// New creates a predictor with a fresh (untrained) classifier and
// default thresholds. Until a model is trained or loaded, every
// assessment takes the heuristic path.
func New(source FeatureSource, registry ModelRegistry) *Predictor {
	return &Predictor{
		classifier: model.New(model.FeatureCountDefault),
		thresholds: model.DefaultThresholds(),
		source:     source,
		registry:   registry,
	}
}

// Classifier exposes the live model for tuning (learning rate,
// iteration count) before training.
func (p *Predictor) Classifier() *model.Classifier {
	return p.classifier
}

func (p *Predictor) Thresholds() model.Thresholds {
	return p.thresholds
}

// SetThresholds replaces the tier cut points. Invalid ordering is
// rejected, never silently corrected.
func (p *Predictor) SetThresholds(t model.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	p.thresholds = t
	return nil
}

// AssessStudent produces a full risk assessment for one (student,
// course) pair. A subject without behavioral data yields an UNKNOWN
// sentinel assessment, not an error.
func (p *Predictor) AssessStudent(studentID, courseID int64) (*Assessment, error) {
	rec, err := p.source.StudentSummary(studentID, courseID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load summary for student %d", studentID)
	}
	if rec == nil {
		return &Assessment{
			StudentID:  studentID,
			CourseID:   courseID,
			Level:      model.LevelUnknown,
			Factors:    []string{},
			Suggestion: "assessment unavailable: no behavioral data",
			Source:     SourceNone,
			AssessedAt: time.Now().UTC(),
		}, nil
	}
	return p.assess(rec), nil
}

// AssessCourse assesses every student in a course and aggregates the
// tier counts. A course without data yields an empty group assessment.
func (p *Predictor) AssessCourse(courseID int64) (*GroupAssessment, error) {
	records, err := p.source.CourseRecords(courseID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load records for course %d", courseID)
	}

	group := &GroupAssessment{
		CourseID:   courseID,
		AssessedAt: time.Now().UTC(),
	}
	if len(records) == 0 {
		group.Suggestion = "assessment unavailable: no student data"
		return group, nil
	}

	group.CourseName = records[0].CourseName
	group.TotalStudents = len(records)

	var totalScore float64
	for _, rec := range records {
		a := p.assess(rec)
		switch a.Level {
		case model.LevelHigh:
			group.HighCount++
		case model.LevelMedium:
			group.MediumCount++
		case model.LevelLow:
			group.LowCount++
		}
		totalScore += a.Score
		group.Students = append(group.Students, a)
	}

	n := float64(len(records))
	group.AvgScore = totalScore / n
	group.Distribution = map[model.Level]float64{
		model.LevelHigh:   float64(group.HighCount) / n * 100,
		model.LevelMedium: float64(group.MediumCount) / n * 100,
		model.LevelLow:    float64(group.LowCount) / n * 100,
	}
	group.Suggestion = groupSuggestion(group.HighCount, group.MediumCount, group.TotalStudents)

	return group, nil
}

// assess scores one record through the guarded model-or-heuristic path.
func (p *Predictor) assess(rec *StudentRecord) *Assessment {
	prob, src := p.probability(&rec.Signals)
	factors := riskFactors(&rec.Signals)
	level := p.thresholds.Classify(prob)

	features, err := feature.Extract(&rec.Signals)
	if err != nil {
		features = nil
	}

	return &Assessment{
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		StudentNo:   rec.StudentNo,
		CourseID:    rec.CourseID,
		CourseName:  rec.CourseName,
		Probability: prob,
		Level:       level,
		Score:       prob * 100,
		Factors:     factors,
		Suggestion:  suggestion(level, factors),
		Features:    features,
		Source:      src,
		AssessedAt:  time.Now().UTC(),
	}
}

// probability returns the classifier output when the guard accepts it,
// otherwise the heuristic fallback. Guard rejections are recovered
// here and never surfaced to the caller.
func (p *Predictor) probability(s *feature.Signals) (float64, Source) {
	if !model.Usable(p.classifier.Parameters()) {
		return HeuristicProbability(s), SourceHeuristic
	}

	vec, err := feature.Extract(s)
	if err != nil {
		return HeuristicProbability(s), SourceHeuristic
	}

	prob, err := p.classifier.Predict(vec)
	if err != nil || !model.Discriminative(prob) {
		return HeuristicProbability(s), SourceHeuristic
	}
	return clamp01(prob), SourceModel
}

// Train fits the classifier on labeled records and evaluates it at the
// MEDIUM threshold.
func (p *Predictor) Train(records []*StudentRecord, labels []int) (*TrainingResult, error) {
	if len(records) == 0 || len(records) != len(labels) {
		return nil, errors.Errorf("training records and labels do not match: %d != %d",
			len(records), len(labels))
	}

	signals := make([]*feature.Signals, len(records))
	for i, rec := range records {
		signals[i] = &rec.Signals
	}
	vectors, err := feature.ExtractBatch(signals)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract training features")
	}

	start := time.Now()
	if err := p.classifier.Train(vectors, labels); err != nil {
		return nil, errors.Wrap(err, "training failed")
	}
	duration := time.Since(start)

	metrics, err := p.classifier.Evaluate(vectors, labels, p.thresholds.Medium)
	if err != nil {
		return nil, errors.Wrap(err, "evaluation failed")
	}

	slog.Info("model trained", "samples", len(records),
		"duration", duration, "accuracy", metrics.Accuracy)

	return &TrainingResult{
		Samples:      len(records),
		FeatureCount: p.classifier.FeatureCount(),
		Duration:     duration,
		Metrics:      metrics,
	}, nil
}

// BootstrapTrain trains on historical rows, deriving labels from the
// stored risk probability (> 0.6 counts as positive). Bootstrap only:
// those probabilities came from earlier heuristic runs, so labels can
// leak the heuristic back into the model. Replace with curated labels
// once any exist.
func (p *Predictor) BootstrapTrain(limit int) (*TrainingResult, error) {
	records, err := p.source.TrainingRecords(limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load training records")
	}
	if len(records) == 0 {
		return nil, errors.New("no historical data to train on")
	}

	labels := make([]int, len(records))
	for i, rec := range records {
		if rec.RiskProbability != nil && *rec.RiskProbability > bootstrapLabelCutoff {
			labels[i] = 1
		}
	}

	return p.Train(records, labels)
}

// RefreshRecent recomputes and writes back the risk fields for all
// rows in the lookback window. Individual row failures are logged and
// skipped; the return value is the count of rows updated.
func (p *Predictor) RefreshRecent(days int) (int, error) {
	if days <= 0 {
		days = refreshLookbackDaysDefault
	}

	records, err := p.source.RecentRecords(days)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to load records for the last %d days", days)
	}
	if len(records) == 0 {
		return 0, nil
	}

	updated := 0
	for _, rec := range records {
		prob, _ := p.probability(&rec.Signals)
		vec, err := feature.Extract(&rec.Signals)
		if err != nil {
			slog.Warn("skipping row", "id", rec.ID, "error", err)
			continue
		}

		update := RiskUpdate{
			Score:         prob * 100,
			Level:         p.thresholds.Classify(prob),
			Probability:   prob,
			FeatureVector: vec,
		}
		if err := p.source.UpdateRisk(rec.ID, update); err != nil {
			slog.Warn("failed to update risk row", "id", rec.ID, "error", err)
			continue
		}
		updated++
	}

	slog.Info("risk refresh complete", "days", days, "rows", len(records), "updated", updated)
	return updated, nil
}

// SaveModel snapshots the live parameters into a new registry version
// and activates it.
func (p *Predictor) SaveModel(name, description string) (int64, error) {
	params := p.classifier.Parameters()

	weights, err := json.Marshal(params.Weights)
	if err != nil {
		return 0, errors.Wrap(err, "failed to encode weights")
	}

	v := &ModelVersion{
		Version:       versionDefault,
		Name:          name,
		Description:   description,
		AlgorithmType: algorithmTypeDefault,
		SampleCount:   placeholderSampleCount,
		FeatureCount:  params.FeatureCount,
		Weights:       string(weights),
		Bias:          params.Bias,

		Accuracy:  placeholderAccuracy,
		Precision: placeholderPrecision,
		Recall:    placeholderRecall,
		F1Score:   placeholderF1,
		AUC:       placeholderAUC,

		LowThreshold:    p.thresholds.Low,
		MediumThreshold: p.thresholds.Medium,
		HighThreshold:   p.thresholds.High,

		Status: "TRAINED",
	}

	id, err := p.registry.CreateVersion(v)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create model version")
	}
	if err := p.registry.Activate(id); err != nil {
		return 0, errors.Wrapf(err, "failed to activate model version %d", id)
	}

	slog.Info("model version saved", "id", id, "name", name)
	return id, nil
}

// LoadModel replaces the live parameters with a stored version and
// adopts its thresholds when they are valid.
func (p *Predictor) LoadModel(id int64) error {
	v, err := p.registry.GetVersion(id)
	if err != nil {
		return errors.Wrapf(err, "failed to load model version %d", id)
	}
	if v == nil {
		return errors.Errorf("model version %d not found", id)
	}

	var weights []float64
	if err := json.Unmarshal([]byte(v.Weights), &weights); err != nil {
		return errors.Wrapf(err, "malformed weights in model version %d", id)
	}

	params := &model.Parameters{
		Weights:      weights,
		Bias:         v.Bias,
		FeatureCount: len(weights),
	}
	if err := p.classifier.Load(params); err != nil {
		return errors.Wrapf(err, "failed to load parameters from version %d", id)
	}

	t := model.Thresholds{Low: v.LowThreshold, Medium: v.MediumThreshold, High: v.HighThreshold}
	if t.Validate() == nil {
		p.thresholds = t
	}

	slog.Info("model version loaded", "id", id, "name", v.Name)
	return nil
}

// LoadActiveModel loads whichever version the registry reports active.
func (p *Predictor) LoadActiveModel() error {
	v, err := p.registry.ActiveVersion()
	if err != nil {
		return errors.Wrap(err, "failed to resolve active model version")
	}
	if v == nil {
		return errors.New("no active model version")
	}
	return p.LoadModel(v.ID)
}

package data

import (
	"database/sql"
	"strings"
	"time"

	"github.com/edurisk/edurisk/pkg/risk"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	modelNoPrefix = "MODEL_"

	insertModelVersionSQL = `INSERT INTO model_version (
			model_no,
			version,
			model_name,
			description,
			algorithm_type,
			sample_count,
			feature_count,
			weights,
			bias,
			accuracy,
			precision_score,
			recall,
			f1_score,
			auc,
			low_threshold,
			medium_threshold,
			high_threshold,
			active,
			status,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectModelVersionColumns = `SELECT
			id,
			model_no,
			version,
			model_name,
			description,
			algorithm_type,
			sample_count,
			feature_count,
			weights,
			bias,
			accuracy,
			precision_score,
			recall,
			f1_score,
			auc,
			low_threshold,
			medium_threshold,
			high_threshold,
			active,
			status
		FROM model_version
	`

	selectModelVersionSQL = selectModelVersionColumns + ` WHERE id = ?`

	selectActiveModelVersionSQL = selectModelVersionColumns + `
		WHERE active = 1
		ORDER BY id DESC
		LIMIT 1
	`

	selectModelVersionsSQL = selectModelVersionColumns + ` ORDER BY id DESC LIMIT ?`

	deactivateModelVersionsSQL = `UPDATE model_version SET active = 0 WHERE active = 1`

	activateModelVersionSQL = `UPDATE model_version
		SET active = 1, status = 'DEPLOYED'
		WHERE id = ?
	`

	selectModelActiveFlagSQL = `SELECT active FROM model_version WHERE id = ?`

	deleteModelVersionSQL = `DELETE FROM model_version WHERE id = ?`
)

// CreateModelVersion persists a new model version and returns its row
// ID. Empty identity fields are filled with generated defaults.
func CreateModelVersion(db *sql.DB, v *risk.ModelVersion) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if v == nil {
		return 0, errors.New("model version required")
	}

	if v.ModelNo == "" {
		v.ModelNo = modelNoPrefix + strings.ToUpper(uuid.NewString()[:8])
	}
	if v.Version == "" {
		v.Version = "1.0.0"
	}
	if v.Name == "" {
		v.Name = "behavioral risk model"
	}
	if v.AlgorithmType == "" {
		v.AlgorithmType = "LOGISTIC_REGRESSION"
	}
	if v.Status == "" {
		v.Status = "TRAINED"
	}

	res, err := db.Exec(insertModelVersionSQL,
		v.ModelNo, v.Version, v.Name, v.Description, v.AlgorithmType,
		v.SampleCount, v.FeatureCount, v.Weights, v.Bias,
		v.Accuracy, v.Precision, v.Recall, v.F1Score, v.AUC,
		v.LowThreshold, v.MediumThreshold, v.HighThreshold,
		boolToInt(v.Active), v.Status,
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to insert model version %s", v.ModelNo)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get model version ID")
	}
	v.ID = id
	return id, nil
}

// GetModelVersion returns one version by row ID, or (nil, nil) when it
// does not exist.
func GetModelVersion(db *sql.DB, id int64) (*risk.ModelVersion, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	v, err := scanModelVersion(db.QueryRow(selectModelVersionSQL, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query model version %d", id)
	}
	return v, nil
}

// GetActiveModelVersion returns the currently deployed version, or
// (nil, nil) when no version is active.
func GetActiveModelVersion(db *sql.DB) (*risk.ModelVersion, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	v, err := scanModelVersion(db.QueryRow(selectActiveModelVersionSQL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query active model version")
	}
	return v, nil
}

// ListModelVersions returns versions newest first.
func ListModelVersions(db *sql.DB, limit int) ([]*risk.ModelVersion, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(selectModelVersionsSQL, limit)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to query model versions")
	}
	defer rows.Close()

	versions := make([]*risk.ModelVersion, 0)
	for rows.Next() {
		v, err := scanModelVersion(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan model version row")
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// ActivateModelVersion marks one version as deployed and deactivates
// every other version in the same transaction. At most one version is
// active at any time.
func ActivateModelVersion(db *sql.DB, id int64) error {
	if db == nil {
		return errDBNotInitialized
	}

	existing, err := GetModelVersion(db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.Errorf("model version %d not found", id)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if _, err := tx.Exec(deactivateModelVersionsSQL); err != nil {
		rollbackTransaction(tx)
		return errors.Wrap(err, "failed to deactivate model versions")
	}
	if _, err := tx.Exec(activateModelVersionSQL, id); err != nil {
		rollbackTransaction(tx)
		return errors.Wrapf(err, "failed to activate model version %d", id)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit model activation")
	}
	return nil
}

// DeleteModelVersion removes one version. The active version cannot be
// deleted; deactivate it by activating a replacement first.
func DeleteModelVersion(db *sql.DB, id int64) error {
	if db == nil {
		return errDBNotInitialized
	}

	var active int
	err := db.QueryRow(selectModelActiveFlagSQL, id).Scan(&active)
	if err == sql.ErrNoRows {
		return errors.Errorf("model version %d not found", id)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to query model version %d", id)
	}
	if active != 0 {
		return errors.Errorf("model version %d is active and cannot be deleted", id)
	}

	if _, err := db.Exec(deleteModelVersionSQL, id); err != nil {
		return errors.Wrapf(err, "failed to delete model version %d", id)
	}
	return nil
}

func scanModelVersion(row rowScanner) (*risk.ModelVersion, error) {
	var v risk.ModelVersion
	var active int
	var desc sql.NullString

	err := row.Scan(
		&v.ID, &v.ModelNo, &v.Version, &v.Name, &desc, &v.AlgorithmType,
		&v.SampleCount, &v.FeatureCount, &v.Weights, &v.Bias,
		&v.Accuracy, &v.Precision, &v.Recall, &v.F1Score, &v.AUC,
		&v.LowThreshold, &v.MediumThreshold, &v.HighThreshold,
		&active, &v.Status,
	)
	if err != nil {
		return nil, err
	}

	v.Description = desc.String
	v.Active = active != 0
	return &v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

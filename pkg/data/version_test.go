package data

import (
	"strings"
	"testing"

	"github.com/edurisk/edurisk/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModelVersion() *risk.ModelVersion {
	return &risk.ModelVersion{
		SampleCount:     1000,
		FeatureCount:    8,
		Weights:         `[0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8]`,
		Bias:            -0.25,
		Accuracy:        0.85,
		Precision:       0.82,
		Recall:          0.88,
		F1Score:         0.85,
		AUC:             0.90,
		LowThreshold:    0.3,
		MediumThreshold: 0.7,
		HighThreshold:   0.9,
	}
}

func TestCreateModelVersion_FillsDefaults(t *testing.T) {
	db := setupTestDB(t)

	v := testModelVersion()
	id, err := CreateModelVersion(db, v)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.True(t, strings.HasPrefix(v.ModelNo, "MODEL_"))
	assert.NotEmpty(t, v.Version)
	assert.Equal(t, "LOGISTIC_REGRESSION", v.AlgorithmType)
	assert.Equal(t, "TRAINED", v.Status)

	got, err := GetModelVersion(db, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, v.ModelNo, got.ModelNo)
	assert.Equal(t, v.Weights, got.Weights)
	assert.InDelta(t, -0.25, got.Bias, 1e-9)
	assert.False(t, got.Active)
}

func TestGetModelVersion_Missing(t *testing.T) {
	db := setupTestDB(t)

	got, err := GetModelVersion(db, 99)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestActivateModelVersion_SingleActive(t *testing.T) {
	db := setupTestDB(t)

	first, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)
	second, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)

	require.NoError(t, ActivateModelVersion(db, first))
	require.NoError(t, ActivateModelVersion(db, second))

	active, err := GetActiveModelVersion(db)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second, active.ID)
	assert.Equal(t, "DEPLOYED", active.Status)

	old, err := GetModelVersion(db, first)
	require.NoError(t, err)
	assert.False(t, old.Active)
}

func TestActivateModelVersion_Missing(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, ActivateModelVersion(db, 42))
}

func TestGetActiveModelVersion_NoneActive(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)

	active, err := GetActiveModelVersion(db)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDeleteModelVersion_RefusesActive(t *testing.T) {
	db := setupTestDB(t)

	id, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)
	require.NoError(t, ActivateModelVersion(db, id))

	assert.Error(t, DeleteModelVersion(db, id))

	replacement, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)
	require.NoError(t, ActivateModelVersion(db, replacement))
	assert.NoError(t, DeleteModelVersion(db, id))
}

func TestListModelVersions_NewestFirst(t *testing.T) {
	db := setupTestDB(t)

	first, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)
	second, err := CreateModelVersion(db, testModelVersion())
	require.NoError(t, err)

	versions, err := ListModelVersions(db, 10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, second, versions[0].ID)
	assert.Equal(t, first, versions[1].ID)
}

package data

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAlert_DedupesOpen(t *testing.T) {
	db := setupTestDB(t)

	created, err := CreateAlert(db, &Alert{
		StudentID:   1,
		CourseID:    1,
		Level:       "HIGH",
		Probability: 0.92,
		Message:     "sustained high risk",
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = CreateAlert(db, &Alert{
		StudentID:   1,
		CourseID:    1,
		Level:       "HIGH",
		Probability: 0.95,
	})
	require.NoError(t, err)
	assert.False(t, created)

	// Same student in a different course is a separate alert.
	created, err = CreateAlert(db, &Alert{
		StudentID:   1,
		CourseID:    2,
		Level:       "HIGH",
		Probability: 0.9,
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateAlert_GeneratesAlertNo(t *testing.T) {
	db := setupTestDB(t)

	a := &Alert{StudentID: 5, CourseID: 3, Level: "HIGH", Probability: 0.88}
	created, err := CreateAlert(db, a)
	require.NoError(t, err)
	require.True(t, created)
	assert.True(t, strings.HasPrefix(a.AlertNo, "ALERT_"))
	assert.Equal(t, AlertStatusOpen, a.Status)
}

func TestListOpenAlerts_Ordering(t *testing.T) {
	db := setupTestDB(t)

	for i, p := range []float64{0.75, 0.95, 0.85} {
		_, err := CreateAlert(db, &Alert{
			StudentID:   int64(i + 1),
			CourseID:    1,
			Level:       "HIGH",
			Probability: p,
		})
		require.NoError(t, err)
	}

	alerts, err := ListOpenAlerts(db, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.InDelta(t, 0.95, alerts[0].Probability, 1e-9)
	assert.InDelta(t, 0.75, alerts[2].Probability, 1e-9)
}

func TestResolveAlert_ReopensDedupe(t *testing.T) {
	db := setupTestDB(t)

	a := &Alert{StudentID: 1, CourseID: 1, Level: "HIGH", Probability: 0.9}
	created, err := CreateAlert(db, a)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, ResolveAlert(db, a.ID))

	// Resolving clears the open slot for the pair.
	created, err = CreateAlert(db, &Alert{StudentID: 1, CourseID: 1, Level: "HIGH", Probability: 0.91})
	require.NoError(t, err)
	assert.True(t, created)

	// Resolving twice fails.
	assert.Error(t, ResolveAlert(db, a.ID))
}

func TestMetrics_InsertAndCleanup(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, InsertMetric(db, "risk_refresh", "TASK_1", 1500*time.Millisecond, MetricStatusSuccess))
	require.NoError(t, InsertMetric(db, "alert_scan", "TASK_2", 0, MetricStatusNoData))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM system_metric").Scan(&count))
	assert.Equal(t, 2, count)

	// Rows newer than the retention window stay.
	removed, err := CleanupMetrics(db, 30)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = db.Exec("UPDATE system_metric SET created_at = '2020-01-01T00:00:00Z'")
	require.NoError(t, err)

	removed, err = CleanupMetrics(db, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

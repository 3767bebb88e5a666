package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/model"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSoldVehicleRepository(t *testing.T) *SoldVehicleRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "feedback.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.SoldVehicle{}))
	return NewSoldVehicleRepository(db)
}

func seedVehicle(t *testing.T, repo *SoldVehicleRepository, v model.SoldVehicle) model.SoldVehicle {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &v))
	return v
}

func TestFindByFeedbackToken(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	seedVehicle(t, repo, model.SoldVehicle{ID: "rec-b", FeedbackToken: "dup", CreatedAt: base.Add(time.Hour)})
	seedVehicle(t, repo, model.SoldVehicle{ID: "rec-a", FeedbackToken: "dup", CreatedAt: base})
	seedVehicle(t, repo, model.SoldVehicle{ID: "rec-c", FeedbackToken: "other", CreatedAt: base})

	rows, err := repo.FindByFeedbackToken(ctx, "dup")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "rec-a", rows[0].ID)
	assert.Equal(t, "rec-b", rows[1].ID)

	rows, err = repo.FindByFeedbackToken(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFindByID(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	seedVehicle(t, repo, model.SoldVehicle{ID: "legacy-doc", CustomerName: "Jane Doe"})

	v, err := repo.FindByID(ctx, "legacy-doc")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Jane Doe", v.CustomerName)

	v, err = repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestApplyFeedbackOutcome_WritesOnce(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	seedVehicle(t, repo, model.SoldVehicle{ID: "rec-1", FeedbackToken: "tok-123"})

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := repo.ApplyFeedbackOutcome(ctx, "rec-1", model.FeedbackOutcome{
		Sentiment:    "negative",
		Text:         "Salesperson was rude.",
		SubmittedAt:  now,
		Status:       model.StatusNeedsFollowup,
		ManagerAlert: true,
		AlertTime:    &now,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, got.FeedbackSubmitted)
	assert.Equal(t, "negative", got.FeedbackSentiment)
	assert.Equal(t, "Salesperson was rude.", got.FeedbackText)
	assert.Equal(t, model.StatusNeedsFollowup, got.Status)
	assert.True(t, got.ManagerAlert)
	require.NotNil(t, got.FeedbackSubmittedAt)
	require.NotNil(t, got.AlertTime)

	err = repo.ApplyFeedbackOutcome(ctx, "rec-1", model.FeedbackOutcome{
		Sentiment:   "positive",
		SubmittedAt: now.Add(time.Minute),
		Status:      model.StatusGoogleRedirected,
	})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	got, err = repo.FindByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "negative", got.FeedbackSentiment)
}

func TestApplyFeedbackOutcome_PositiveLeavesAlertUnset(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	seedVehicle(t, repo, model.SoldVehicle{ID: "rec-2", FeedbackToken: "tok-456"})

	err := repo.ApplyFeedbackOutcome(ctx, "rec-2", model.FeedbackOutcome{
		Sentiment:   "positive",
		SubmittedAt: time.Now().UTC(),
		Status:      model.StatusGoogleRedirected,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "rec-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGoogleRedirected, got.Status)
	assert.False(t, got.ManagerAlert)
	assert.Nil(t, got.AlertTime)
	assert.Empty(t, got.FeedbackText)
}

func TestApplyFeedbackOutcome_MissingRecord(t *testing.T) {
	repo := setupSoldVehicleRepository(t)

	err := repo.ApplyFeedbackOutcome(context.Background(), "ghost", model.FeedbackOutcome{
		Sentiment:   "positive",
		SubmittedAt: time.Now().UTC(),
		Status:      model.StatusGoogleRedirected,
	})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPendingAlerts(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	early := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(2 * time.Hour)

	seedVehicle(t, repo, model.SoldVehicle{ID: "late", ManagerAlert: true, AlertTime: &late})
	seedVehicle(t, repo, model.SoldVehicle{ID: "early", ManagerAlert: true, AlertTime: &early})
	seedVehicle(t, repo, model.SoldVehicle{ID: "done", ManagerAlert: true, AlertTime: &early, AlertDispatchedAt: &late})
	seedVehicle(t, repo, model.SoldVehicle{ID: "quiet"})

	rows, err := repo.ListPendingAlerts(ctx, late, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "early", rows[0].ID)
	assert.Equal(t, "late", rows[1].ID)

	require.NoError(t, repo.MarkAlertDispatched(ctx, "early", late))
	rows, err = repo.ListPendingAlerts(ctx, late, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "late", rows[0].ID)

	assert.ErrorIs(t, repo.MarkAlertDispatched(ctx, "ghost", late), ErrRecordNotFound)
}

func TestPendingAlerts_FailedRecordsBackOff(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	oldest := now.Add(-3 * time.Hour)
	newer := now.Add(-time.Hour)

	seedVehicle(t, repo, model.SoldVehicle{ID: "stuck", ManagerAlert: true, AlertTime: &oldest})
	seedVehicle(t, repo, model.SoldVehicle{ID: "fresh", ManagerAlert: true, AlertTime: &newer})

	rows, err := repo.ListPendingAlerts(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "stuck", rows[0].ID)

	require.NoError(t, repo.RecordAlertFailure(ctx, "stuck", now.Add(10*time.Minute)))

	// The parked record no longer blocks the head of the batch.
	rows, err = repo.ListPendingAlerts(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].ID)

	rows, err = repo.ListPendingAlerts(ctx, now.Add(10*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "stuck", rows[0].ID)
	assert.Equal(t, 1, rows[0].AlertAttempts)

	require.NoError(t, repo.RecordAlertFailure(ctx, "stuck", now.Add(time.Hour)))
	v, err := repo.FindByID(ctx, "stuck")
	require.NoError(t, err)
	assert.Equal(t, 2, v.AlertAttempts)
	require.NotNil(t, v.NextAlertAt)
	assert.True(t, v.NextAlertAt.Equal(now.Add(time.Hour)))

	assert.ErrorIs(t, repo.RecordAlertFailure(ctx, "ghost", now), ErrRecordNotFound)
}

func TestListFollowUps(t *testing.T) {
	repo := setupSoldVehicleRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"f1", "f2", "f3"} {
		at := base.Add(time.Duration(i) * time.Hour)
		seedVehicle(t, repo, model.SoldVehicle{
			ID:                  id,
			FeedbackSubmitted:   true,
			FeedbackSubmittedAt: &at,
			Status:              model.StatusNeedsFollowup,
		})
	}
	seedVehicle(t, repo, model.SoldVehicle{ID: "happy", FeedbackSubmitted: true, Status: model.StatusGoogleRedirected})

	rows, total, err := repo.ListFollowUps(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "f3", rows[0].ID)
	assert.Equal(t, "f2", rows[1].ID)

	rows, _, err = repo.ListFollowUps(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "f1", rows[0].ID)
}

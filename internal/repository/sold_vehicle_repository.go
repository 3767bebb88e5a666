package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/model"
	"gorm.io/gorm"
)

var (
	// ErrAlreadySubmitted is returned when the conditional feedback write finds
	// the record already terminal.
	ErrAlreadySubmitted = errors.New("feedback already submitted")
	ErrRecordNotFound   = errors.New("sold vehicle not found")
)

type SoldVehicleRepository struct {
	db *gorm.DB
}

func NewSoldVehicleRepository(db *gorm.DB) *SoldVehicleRepository {
	return &SoldVehicleRepository{db}
}

func (r *SoldVehicleRepository) Create(ctx context.Context, v *model.SoldVehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// FindByFeedbackToken returns every record carrying token, oldest first, so
// callers that need a single match can deterministically take the first.
func (r *SoldVehicleRepository) FindByFeedbackToken(ctx context.Context, token string) ([]model.SoldVehicle, error) {
	var rows []model.SoldVehicle
	err := r.db.WithContext(ctx).
		Where("feedback_token = ?", token).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query sold vehicles by token: %w", err)
	}
	return rows, nil
}

// FindByID returns nil without error when no record has the given id.
func (r *SoldVehicleRepository) FindByID(ctx context.Context, id string) (*model.SoldVehicle, error) {
	var v model.SoldVehicle
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sold vehicle %s: %w", id, err)
	}
	return &v, nil
}

// ApplyFeedbackOutcome writes the terminal feedback fields in one statement,
// only while feedback_submitted is still false.
func (r *SoldVehicleRepository) ApplyFeedbackOutcome(ctx context.Context, id string, outcome model.FeedbackOutcome) error {
	fields := map[string]any{
		"feedback_submitted":    true,
		"feedback_sentiment":    outcome.Sentiment,
		"feedback_submitted_at": outcome.SubmittedAt,
		"status":                outcome.Status,
	}
	if outcome.Text != "" {
		fields["feedback_text"] = outcome.Text
	}
	if outcome.ManagerAlert {
		fields["manager_alert"] = true
		fields["alert_time"] = outcome.AlertTime
	}

	res := r.db.WithContext(ctx).
		Model(&model.SoldVehicle{}).
		Where("id = ? AND feedback_submitted = ?", id, false).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update feedback for %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrRecordNotFound
	}
	return ErrAlreadySubmitted
}

// ListPendingAlerts returns flagged records that still need a manager alert
// and are not backing off after a failed attempt, oldest alert first.
func (r *SoldVehicleRepository) ListPendingAlerts(ctx context.Context, now time.Time, limit int) ([]model.SoldVehicle, error) {
	var rows []model.SoldVehicle
	err := r.db.WithContext(ctx).
		Where("manager_alert = ? AND alert_dispatched_at IS NULL", true).
		Where("(next_alert_at IS NULL OR next_alert_at <= ?)", now).
		Order("alert_time asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query pending alerts: %w", err)
	}
	return rows, nil
}

// RecordAlertFailure counts a failed delivery and parks the record until nextAt.
func (r *SoldVehicleRepository) RecordAlertFailure(ctx context.Context, id string, nextAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.SoldVehicle{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"alert_attempts": gorm.Expr("alert_attempts + 1"),
			"next_alert_at":  nextAt,
		})
	if res.Error != nil {
		return fmt.Errorf("record alert failure for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *SoldVehicleRepository) MarkAlertDispatched(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.SoldVehicle{}).
		Where("id = ?", id).
		Update("alert_dispatched_at", at)
	if res.Error != nil {
		return fmt.Errorf("mark alert dispatched for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListFollowUps pages through records waiting on a manager, newest first.
func (r *SoldVehicleRepository) ListFollowUps(ctx context.Context, page, pageSize int) ([]model.SoldVehicle, int64, error) {
	var (
		rows  []model.SoldVehicle
		total int64
	)
	query := r.db.WithContext(ctx).Model(&model.SoldVehicle{}).Where("status = ?", model.StatusNeedsFollowup)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count follow-ups: %w", err)
	}
	err := query.
		Order("feedback_submitted_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list follow-ups: %w", err)
	}
	return rows, total, nil
}

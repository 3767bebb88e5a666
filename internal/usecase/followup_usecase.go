package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/metrics"
	"github.com/fadilmartias/dealer-feedback/internal/model"
	"github.com/fadilmartias/dealer-feedback/internal/service"
	"go.uber.org/zap"
)

type FollowUpStore interface {
	ListPendingAlerts(ctx context.Context, now time.Time, limit int) ([]model.SoldVehicle, error)
	MarkAlertDispatched(ctx context.Context, id string, at time.Time) error
	RecordAlertFailure(ctx context.Context, id string, nextAt time.Time) error
	ListFollowUps(ctx context.Context, page, pageSize int) ([]model.SoldVehicle, int64, error)
}

type FollowUpUsecase struct {
	store     FollowUpStore
	notifier  service.NotificationServiceInterface
	cfg       *config.FeedbackConfig
	batchSize int
	logger    *zap.Logger
	now       func() time.Time
}

func NewFollowUpUsecase(store FollowUpStore, notifier service.NotificationServiceInterface, cfg *config.FeedbackConfig, batchSize int, logger *zap.Logger) *FollowUpUsecase {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &FollowUpUsecase{
		store:     store,
		notifier:  notifier,
		cfg:       cfg,
		batchSize: batchSize,
		logger:    logger.Named("followup"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const (
	alertRetryBase = time.Minute
	alertRetryMax  = time.Hour
)

// DispatchPending sends one manager alert for each flagged record that has
// not been dispatched yet. A record is marked dispatched once any channel
// delivered. A failed delivery parks the record with exponential backoff so
// it does not hold up newer alerts. When the gateway attempts no channel at
// all (provider or channel disabled) the record is left untouched.
func (uc *FollowUpUsecase) DispatchPending(ctx context.Context) (int, error) {
	if uc.cfg.ManagerPhone == "" && uc.cfg.ManagerEmail == "" {
		uc.logger.Debug("no manager contact configured, skipping alert dispatch")
		return 0, nil
	}

	pending, err := uc.store.ListPendingAlerts(ctx, uc.now(), uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending alerts: %w", err)
	}

	dispatched := 0
	var errs []error
	for i := range pending {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		record := &pending[i]

		report, err := uc.notifier.Send(ctx, uc.alertMessage(record))
		if errors.Is(err, service.ErrNoRecipients) || (err == nil && !report.SMS.Attempted && !report.Email.Attempted) {
			uc.logger.Debug("no alert channel enabled, leaving record pending",
				zap.String("record_id", record.ID),
				zap.String("provider", uc.notifier.Provider()),
			)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("alert for %s: %w", record.ID, err))
			errs = append(errs, uc.backOff(ctx, record))
			continue
		}
		uc.recordChannel("sms", report.SMS)
		uc.recordChannel("email", report.Email)

		if !report.AnyDelivered() {
			uc.logger.Warn("manager alert not delivered on any channel",
				zap.String("record_id", record.ID),
				zap.Int("attempts", record.AlertAttempts+1),
				zap.NamedError("sms_error", report.SMS.Err),
				zap.NamedError("email_error", report.Email.Err),
			)
			errs = append(errs, fmt.Errorf("alert for %s: no channel delivered", record.ID))
			errs = append(errs, uc.backOff(ctx, record))
			continue
		}

		if err := uc.store.MarkAlertDispatched(ctx, record.ID, uc.now()); err != nil {
			errs = append(errs, err)
			continue
		}
		dispatched++
		uc.logger.Info("manager alert dispatched",
			zap.String("record_id", record.ID),
			zap.String("provider", uc.notifier.Provider()),
			zap.String("sms_id", report.SMS.MessageID),
			zap.String("email_id", report.Email.MessageID),
		)
	}
	return dispatched, errors.Join(errs...)
}

func (uc *FollowUpUsecase) backOff(ctx context.Context, record *model.SoldVehicle) error {
	next := uc.now().Add(alertBackoff(record.AlertAttempts))
	if err := uc.store.RecordAlertFailure(ctx, record.ID, next); err != nil {
		return fmt.Errorf("park alert for %s: %w", record.ID, err)
	}
	return nil
}

// alertBackoff is the wait after the given number of earlier failed attempts:
// one minute doubling up to an hour.
func alertBackoff(previousAttempts int) time.Duration {
	if previousAttempts < 0 {
		previousAttempts = 0
	}
	if previousAttempts >= 6 {
		return alertRetryMax
	}
	d := alertRetryBase << previousAttempts
	if d > alertRetryMax {
		return alertRetryMax
	}
	return d
}

func (uc *FollowUpUsecase) recordChannel(channel string, res service.ChannelResult) {
	switch {
	case !res.Attempted:
		return
	case res.Err != nil:
		metrics.ManagerAlerts.WithLabelValues(channel, "failed").Inc()
	default:
		metrics.ManagerAlerts.WithLabelValues(channel, "sent").Inc()
	}
}

func (uc *FollowUpUsecase) alertMessage(v *model.SoldVehicle) service.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s feedback alert: %s rated their purchase %s.\n",
		uc.cfg.DealershipName, nonEmpty(v.CustomerName, "A customer"), nonEmpty(v.FeedbackSentiment, "unknown"))
	if label := v.VehicleLabel(); label != "" {
		fmt.Fprintf(&b, "Vehicle: %s\n", label)
	}
	fmt.Fprintf(&b, "Phone: %s\n", nonEmpty(v.CustomerPhone, "not on file"))
	if v.FeedbackText != "" {
		fmt.Fprintf(&b, "Feedback: %q\n", v.FeedbackText)
	}
	if v.AlertTime != nil {
		fmt.Fprintf(&b, "Submitted: %s\n", v.AlertTime.UTC().Format(time.RFC3339))
	}

	return service.Message{
		ToName:  uc.cfg.ManagerName,
		ToPhone: uc.cfg.ManagerPhone,
		ToEmail: uc.cfg.ManagerEmail,
		Subject: fmt.Sprintf("Follow up needed: %s", nonEmpty(v.CustomerName, v.ID)),
		Body:    b.String(),
	}
}

// ListFollowUps pages through records flagged for a manager.
func (uc *FollowUpUsecase) ListFollowUps(ctx context.Context, page, pageSize int) ([]model.SoldVehicle, int64, error) {
	page, pageSize = NormalizePaging(page, pageSize)
	return uc.store.ListFollowUps(ctx, page, pageSize)
}

// NormalizePaging clamps page to at least 1 and pageSize to 1..100, using 20
// when pageSize is out of range.
func NormalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

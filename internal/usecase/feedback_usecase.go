package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/metrics"
	"github.com/fadilmartias/dealer-feedback/internal/model"
	"github.com/fadilmartias/dealer-feedback/internal/repository"
	"go.uber.org/zap"
)

type SoldVehicleStore interface {
	FindByFeedbackToken(ctx context.Context, token string) ([]model.SoldVehicle, error)
	FindByID(ctx context.Context, id string) (*model.SoldVehicle, error)
	ApplyFeedbackOutcome(ctx context.Context, id string, outcome model.FeedbackOutcome) error
}

type SubmissionLock interface {
	Acquire(ctx context.Context, token string) (release func(), err error)
}

type FeedbackUsecase struct {
	store      SoldVehicleStore
	lock       SubmissionLock
	cfg        *config.FeedbackConfig
	logger     *zap.Logger
	now        func() time.Time
	strategies []lookupStrategy
}

func NewFeedbackUsecase(store SoldVehicleStore, lock SubmissionLock, cfg *config.FeedbackConfig, logger *zap.Logger) *FeedbackUsecase {
	if lock == nil {
		lock = repository.NoopSubmissionLock{}
	}
	return &FeedbackUsecase{
		store:      store,
		lock:       lock,
		cfg:        cfg,
		logger:     logger.Named("feedback"),
		now:        func() time.Time { return time.Now().UTC() },
		strategies: defaultLookupStrategies(store),
	}
}

// Start opens a workflow session from the entry URL parts. The returned
// session is either in StateSentiment or in StateError.
func (uc *FeedbackUsecase) Start(ctx context.Context, pathParam, rawQuery string) *Session {
	s := &Session{uc: uc, state: StateLoading}

	token, ok := ResolveEntryToken(pathParam, rawQuery)
	if !ok {
		metrics.FeedbackLookups.WithLabelValues("missing_token").Inc()
		s.fail(errMissingToken())
		return s
	}
	s.token = token

	record, ferr := uc.lookup(ctx, token)
	if ferr != nil {
		s.fail(ferr)
		return s
	}
	s.record = record
	s.state = StateSentiment
	return s
}

func (uc *FeedbackUsecase) lookup(ctx context.Context, token string) (*model.SoldVehicle, *FeedbackError) {
	notFound := MsgInvalidOrExpired
	for _, strategy := range uc.strategies {
		if strategy.applies != nil && !strategy.applies(token) {
			continue
		}
		notFound = strategy.notFoundMessage

		record, err := strategy.find(ctx, token)
		if err != nil {
			uc.logger.Error("feedback lookup failed",
				zap.String("strategy", strategy.name),
				zap.Error(err),
			)
			metrics.FeedbackLookups.WithLabelValues("error").Inc()
			return nil, errLookupFailed(err)
		}
		if record == nil {
			continue
		}
		if record.FeedbackSubmitted {
			metrics.FeedbackLookups.WithLabelValues("already_submitted").Inc()
			return nil, errAlreadySubmitted()
		}
		uc.logger.Debug("feedback record resolved",
			zap.String("strategy", strategy.name),
			zap.String("record_id", record.ID),
		)
		metrics.FeedbackLookups.WithLabelValues("found").Inc()
		return record, nil
	}
	metrics.FeedbackLookups.WithLabelValues("not_found").Inc()
	return nil, errInvalidToken(notFound)
}

// persist applies the terminal write for the session's record under the
// per-token submission lock.
func (uc *FeedbackUsecase) persist(ctx context.Context, s *Session, outcome model.FeedbackOutcome) *FeedbackError {
	release, err := uc.lock.Acquire(ctx, s.token)
	switch {
	case errors.Is(err, repository.ErrLockHeld):
		metrics.FeedbackOutcomes.WithLabelValues(outcome.Sentiment, "in_flight").Inc()
		return errSubmissionInFlight()
	case err != nil:
		// The conditional write still guards the record without the lock.
		uc.logger.Warn("submission lock unavailable", zap.Error(err))
		release = func() {}
	}
	defer release()

	err = uc.store.ApplyFeedbackOutcome(ctx, s.record.ID, outcome)
	switch {
	case err == nil:
		metrics.FeedbackOutcomes.WithLabelValues(outcome.Sentiment, "persisted").Inc()
		uc.logger.Info("feedback persisted",
			zap.String("record_id", s.record.ID),
			zap.String("sentiment", outcome.Sentiment),
			zap.String("status", outcome.Status),
		)
		return nil
	case errors.Is(err, repository.ErrAlreadySubmitted):
		metrics.FeedbackOutcomes.WithLabelValues(outcome.Sentiment, "already_submitted").Inc()
		return errAlreadySubmitted()
	default:
		metrics.FeedbackOutcomes.WithLabelValues(outcome.Sentiment, "failed").Inc()
		uc.logger.Error("feedback persistence failed",
			zap.String("record_id", s.record.ID),
			zap.String("sentiment", outcome.Sentiment),
			zap.Error(err),
		)
		return errPersistenceFailed(err)
	}
}

func (uc *FeedbackUsecase) ReviewURL() string {
	return uc.cfg.ReviewURL
}

func (uc *FeedbackUsecase) ManagerContact() string {
	return managerContactCopy(uc.cfg)
}

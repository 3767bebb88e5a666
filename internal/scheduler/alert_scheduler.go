package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AlertDispatcher sends pending manager alerts and reports how many went out.
type AlertDispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

type AlertScheduler struct {
	cronEngine *cron.Cron
	dispatcher AlertDispatcher
	spec       string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewAlertScheduler(dispatcher AlertDispatcher, spec string, logger *zap.Logger) *AlertScheduler {
	return &AlertScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		dispatcher: dispatcher,
		spec:       spec,
		timeout:    time.Minute,
		logger:     logger.Named("scheduler"),
	}
}

func (s *AlertScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("add alert dispatch job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	s.logger.Info("alert scheduler started", zap.String("spec", s.spec))
	return nil
}

func (s *AlertScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sent, err := s.dispatcher.DispatchPending(ctx)
	if err != nil {
		s.logger.Error("alert dispatch finished with errors", zap.Int("sent", sent), zap.Error(err))
		return
	}
	if sent > 0 {
		s.logger.Info("alert dispatch finished", zap.Int("sent", sent))
	}
}

// Stop waits for a running dispatch to finish.
func (s *AlertScheduler) Stop() {
	s.logger.Info("stopping alert scheduler")
	<-s.cronEngine.Stop().Done()
	s.logger.Info("alert scheduler stopped")
}

package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/model"
	"github.com/fadilmartias/dealer-feedback/internal/repository"
	"github.com/fadilmartias/dealer-feedback/internal/service"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*model.SoldVehicle

	tokenCalls  int
	idCalls     int
	updateCalls int

	lookupErr error
	updateErr error

	dispatched map[string]time.Time
	markErr    error
}

func newFakeStore(records ...model.SoldVehicle) *fakeStore {
	s := &fakeStore{records: map[string]*model.SoldVehicle{}, dispatched: map[string]time.Time{}}
	for i := range records {
		r := records[i]
		s.records[r.ID] = &r
	}
	return s
}

func (s *fakeStore) FindByFeedbackToken(_ context.Context, token string) ([]model.SoldVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenCalls++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var rows []model.SoldVehicle
	for _, r := range s.records {
		if r.FeedbackToken == token {
			rows = append(rows, *r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*model.SoldVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idCalls++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) ApplyFeedbackOutcome(_ context.Context, id string, o model.FeedbackOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	if r.FeedbackSubmitted {
		return repository.ErrAlreadySubmitted
	}
	at := o.SubmittedAt
	r.FeedbackSubmitted = true
	r.FeedbackSentiment = o.Sentiment
	r.FeedbackText = o.Text
	r.FeedbackSubmittedAt = &at
	r.Status = o.Status
	r.ManagerAlert = o.ManagerAlert
	r.AlertTime = o.AlertTime
	return nil
}

func (s *fakeStore) ListPendingAlerts(_ context.Context, now time.Time, limit int) ([]model.SoldVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	var rows []model.SoldVehicle
	for _, r := range s.records {
		if !r.ManagerAlert || r.AlertDispatchedAt != nil {
			continue
		}
		if r.NextAlertAt != nil && r.NextAlertAt.After(now) {
			continue
		}
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *fakeStore) MarkAlertDispatched(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	r, ok := s.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	r.AlertDispatchedAt = &at
	s.dispatched[id] = at
	return nil
}

func (s *fakeStore) RecordAlertFailure(_ context.Context, id string, nextAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	r.AlertAttempts++
	r.NextAlertAt = &nextAt
	return nil
}

func (s *fakeStore) ListFollowUps(_ context.Context, page, pageSize int) ([]model.SoldVehicle, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []model.SoldVehicle
	for _, r := range s.records {
		if r.Status == model.StatusNeedsFollowup {
			rows = append(rows, *r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	total := int64(len(rows))
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total, nil
}

func (s *fakeStore) get(id string) model.SoldVehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

func (s *fakeStore) backendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenCalls + s.idCalls + s.updateCalls
}

type fakeLock struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]bool{}}
}

func (l *fakeLock) Acquire(_ context.Context, token string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held[token] {
		return nil, repository.ErrLockHeld
	}
	l.held[token] = true
	return func() {
		l.mu.Lock()
		delete(l.held, token)
		l.mu.Unlock()
	}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []service.Message
	report   func(msg service.Message) (*service.DeliveryReport, error)
}

func (n *fakeNotifier) Send(_ context.Context, msg service.Message) (*service.DeliveryReport, error) {
	n.mu.Lock()
	n.messages = append(n.messages, msg)
	n.mu.Unlock()
	if n.report != nil {
		return n.report(msg)
	}
	return &service.DeliveryReport{
		SMS:   service.ChannelResult{Attempted: msg.ToPhone != "", MessageID: "sms-1"},
		Email: service.ChannelResult{Attempted: msg.ToEmail != "", MessageID: "email-1"},
	}, nil
}

func (n *fakeNotifier) Provider() string { return "fake" }

func testFeedbackConfig() *config.FeedbackConfig {
	return &config.FeedbackConfig{
		ReviewURL:      "https://g.page/r/example/review",
		DealershipName: "Sunrise Motors",
		ManagerName:    "Alex",
		ManagerPhone:   "555-0199",
		ManagerEmail:   "manager@example.com",
	}
}

func newTestFeedbackUsecase(store SoldVehicleStore, lock SubmissionLock) *FeedbackUsecase {
	uc := NewFeedbackUsecase(store, lock, testFeedbackConfig(), zap.NewNop())
	uc.now = func() time.Time { return fixedNow }
	return uc
}

var errBackend = errors.New("backend unavailable")

func janeDoe() model.SoldVehicle {
	return model.SoldVehicle{
		ID:            "rec-1",
		FeedbackToken: "tok-123",
		CustomerName:  "Jane Doe",
		CustomerPhone: "555-0100",
		Year:          2021,
		Make:          "Honda",
		Model:         "Civic",
	}
}

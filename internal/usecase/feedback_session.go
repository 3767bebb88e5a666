package usecase

import (
	"context"
	"strings"

	"github.com/fadilmartias/dealer-feedback/internal/model"
	"go.uber.org/zap"
)

type State string

const (
	StateLoading   State = "loading"
	StateError     State = "error"
	StateSentiment State = "sentiment"
	StateFeedback  State = "feedback"
	StateComplete  State = "complete"
	// StateRedirected is the terminal state after a positive rating; the
	// caller sends the customer to the review destination.
	StateRedirected State = "redirected"
)

// Terminal reports whether no further transition is defined from s.
func (s State) Terminal() bool {
	return s == StateError || s == StateComplete || s == StateRedirected
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func ParseSentiment(value string) (Sentiment, error) {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(value))); s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return s, nil
	}
	return "", errInvalidSentiment(value)
}

// Session is one customer's pass through the feedback form. It is not safe
// for concurrent use; operations run one at a time.
type Session struct {
	uc        *FeedbackUsecase
	state     State
	token     string
	record    *model.SoldVehicle
	sentiment Sentiment
	text      string
	err       *FeedbackError
	warning   *FeedbackError
	busy      bool
}

func (s *Session) State() State               { return s.state }
func (s *Session) Token() string              { return s.token }
func (s *Session) Record() *model.SoldVehicle { return s.record }
func (s *Session) Sentiment() Sentiment       { return s.sentiment }
func (s *Session) Text() string               { return s.text }

// Err is the failure shown to the customer, if any.
func (s *Session) Err() *FeedbackError { return s.err }

// Warning holds a best-effort failure that did not stop the flow.
func (s *Session) Warning() *FeedbackError { return s.warning }

func (s *Session) fail(err *FeedbackError) {
	s.err = err
	if err.Terminal {
		s.state = StateError
	}
}

// SelectSentiment records the customer's rating. Positive ratings are
// persisted and then redirected even if the write fails; neutral and negative
// ratings move to the feedback form.
func (s *Session) SelectSentiment(ctx context.Context, sentiment Sentiment) error {
	if s.busy {
		return errSubmissionInFlight()
	}
	if s.state != StateSentiment {
		return errInvalidTransition("select a rating", s.state)
	}

	switch sentiment {
	case SentimentPositive:
		s.busy = true
		defer func() { s.busy = false }()

		s.sentiment = sentiment
		now := s.uc.now()
		if ferr := s.uc.persist(ctx, s, model.FeedbackOutcome{
			Sentiment:   string(SentimentPositive),
			SubmittedAt: now,
			Status:      model.StatusGoogleRedirected,
		}); ferr != nil {
			s.uc.logger.Warn("positive outcome not saved, redirecting anyway",
				zap.String("token", s.token),
				zap.String("code", string(ferr.Code)),
				zap.Error(ferr.Err),
			)
			s.warning = ferr
		}
		s.err = nil
		s.state = StateRedirected
		return nil
	case SentimentNeutral, SentimentNegative:
		s.sentiment = sentiment
		s.err = nil
		s.state = StateFeedback
		return nil
	}
	return errInvalidSentiment(string(sentiment))
}

// SubmitFeedback saves the written feedback for a neutral or negative rating.
// The text is kept on the session whatever the outcome.
func (s *Session) SubmitFeedback(ctx context.Context, text string) error {
	if s.busy {
		return errSubmissionInFlight()
	}
	if s.state != StateFeedback {
		return errInvalidTransition("submit feedback", s.state)
	}

	s.text = text
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		s.err = errEmptyFeedback()
		return s.err
	}

	s.busy = true
	defer func() { s.busy = false }()

	now := s.uc.now()
	ferr := s.uc.persist(ctx, s, model.FeedbackOutcome{
		Sentiment:    string(s.sentiment),
		Text:         trimmed,
		SubmittedAt:  now,
		Status:       model.StatusNeedsFollowup,
		ManagerAlert: true,
		AlertTime:    &now,
	})
	if ferr != nil {
		s.fail(ferr)
		return ferr
	}

	s.err = nil
	s.state = StateComplete
	return nil
}

// Back returns from the feedback form to the rating choice.
func (s *Session) Back() error {
	if s.busy {
		return errSubmissionInFlight()
	}
	if s.state != StateFeedback {
		return errInvalidTransition("go back", s.state)
	}
	s.sentiment = ""
	s.err = nil
	s.state = StateSentiment
	return nil
}

func (s *Session) Greeting() string {
	if s.record == nil {
		return ""
	}
	return greetingCopy(s.uc.cfg, s.record)
}

// Prompt is the question shown above the feedback text box.
func (s *Session) Prompt() string {
	if s.state != StateFeedback {
		return ""
	}
	return promptCopy(s.sentiment)
}

func (s *Session) Confirmation() string {
	if s.state != StateComplete {
		return ""
	}
	return confirmationCopy(s.uc.cfg, s.sentiment, s.record)
}

// RedirectURL is set once a positive rating moved the session to StateRedirected.
func (s *Session) RedirectURL() string {
	if s.state != StateRedirected {
		return ""
	}
	return s.uc.cfg.ReviewURL
}

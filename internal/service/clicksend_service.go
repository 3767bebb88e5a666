package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type ClickSendService struct {
	client         *resty.Client
	smsFrom        string
	emailAddressID int
	fromName       string
	logger         *zap.Logger

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Cooldown is how long the breaker stays open before one trial call is let through.
	Cooldown time.Duration

	mu                sync.Mutex
	consecutiveErrors int
	circuitBreakerMax int
	openedAt          time.Time
	now               func() time.Time
}

func NewClickSendService(cfg *config.NotificationConfig, logger *zap.Logger) *ClickSendService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.ClickSendBaseURL, "/")).
		SetBasicAuth(cfg.ClickSendUsername, cfg.ClickSendAPIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetLogger(logger.Named("resty").Sugar())

	return &ClickSendService{
		client:            client,
		smsFrom:           cfg.ClickSendSMSFrom,
		emailAddressID:    cfg.ClickSendEmailAddressID,
		fromName:          cfg.ClickSendFromName,
		logger:            logger.Named("clicksend"),
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		Cooldown:          2 * time.Minute,
		circuitBreakerMax: 5,
		now:               time.Now,
	}
}

func (s *ClickSendService) Provider() string {
	return config.NotifyProviderClickSend
}

func (s *ClickSendService) Send(ctx context.Context, msg Message) (*DeliveryReport, error) {
	report := &DeliveryReport{}

	if msg.ToPhone != "" {
		report.SMS.Attempted = true
		report.SMS.MessageID, report.SMS.Err = s.sendSMS(ctx, msg)
	}
	// Email needs a verified ClickSend sender address.
	if msg.ToEmail != "" && s.emailAddressID > 0 {
		report.Email.Attempted = true
		report.Email.MessageID, report.Email.Err = s.sendEmail(ctx, msg)
	}

	if !report.SMS.Attempted && !report.Email.Attempted {
		return report, ErrNoRecipients
	}
	return report, nil
}

func (s *ClickSendService) sendSMS(ctx context.Context, msg Message) (string, error) {
	sms := map[string]any{
		"to":     msg.ToPhone,
		"body":   msg.Body,
		"source": "dealer-feedback",
	}
	if s.smsFrom != "" {
		sms["from"] = s.smsFrom
	}
	payload := map[string]any{"messages": []map[string]any{sms}}

	start := time.Now()
	body, err := s.post(ctx, "/sms/send", payload)
	metrics.NotificationDuration.WithLabelValues(s.Provider(), "sms").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	status := gjson.Get(body, "data.messages.0.status").String()
	if status != "SUCCESS" {
		return "", fmt.Errorf("clicksend sms rejected: status %q", status)
	}
	return gjson.Get(body, "data.messages.0.message_id").String(), nil
}

func (s *ClickSendService) sendEmail(ctx context.Context, msg Message) (string, error) {
	payload := map[string]any{
		"to": []map[string]string{
			{"email": msg.ToEmail, "name": msg.ToName},
		},
		"from": map[string]any{
			"email_address_id": s.emailAddressID,
			"name":             s.fromName,
		},
		"subject": msg.Subject,
		"body":    msg.Body,
	}

	start := time.Now()
	body, err := s.post(ctx, "/email/send", payload)
	metrics.NotificationDuration.WithLabelValues(s.Provider(), "email").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return gjson.Get(body, "data.message_id").String(), nil
}

// post sends payload to path, retrying rate limits, server errors and
// transport failures with exponential backoff. It returns the response body
// once ClickSend answered with response_code SUCCESS.
func (s *ClickSendService) post(ctx context.Context, path string, payload any) (string, error) {
	if open, n := s.circuitOpen(); open {
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", n)
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.logger.Debug("retrying clicksend call",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("context done during retry: %w", ctx.Err())
			}
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(path)
		if err != nil {
			lastErr = err
			if !s.isRetryableError(err) {
				break
			}
			continue
		}

		text := resp.String()
		code := resp.StatusCode()
		if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("clicksend %s: http %d", path, code)
			continue
		}
		if responseCode := gjson.Get(text, "response_code").String(); code >= http.StatusBadRequest || responseCode != "SUCCESS" {
			s.recordResult(false)
			return "", fmt.Errorf("clicksend %s: http %d, response_code %q: %s",
				path, code, responseCode, gjson.Get(text, "response_msg").String())
		}

		s.recordResult(true)
		return text, nil
	}

	s.recordResult(false)
	return "", fmt.Errorf("clicksend %s failed after %d attempts: %w", path, s.MaxRetries+1, lastErr)
}

func (s *ClickSendService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}
	return delay
}

func (s *ClickSendService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

// circuitOpen reports whether calls are currently refused. Once the cooldown
// has passed a single trial call goes through; the window restarts so
// concurrent callers keep waiting until that call settles.
func (s *ClickSendService) circuitOpen() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consecutiveErrors < s.circuitBreakerMax {
		return false, s.consecutiveErrors
	}
	now := s.now()
	if now.Sub(s.openedAt) >= s.Cooldown {
		s.openedAt = now
		s.logger.Info("circuit breaker half-open, sending trial request")
		return false, s.consecutiveErrors
	}
	return true, s.consecutiveErrors
}

func (s *ClickSendService) recordResult(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		if s.consecutiveErrors >= s.circuitBreakerMax {
			s.logger.Info("circuit breaker closed")
		}
		s.consecutiveErrors = 0
		return
	}
	s.consecutiveErrors++
	if s.consecutiveErrors >= s.circuitBreakerMax {
		s.openedAt = s.now()
	}
}

func (s *ClickSendService) ResetCircuitBreaker() {
	s.mu.Lock()
	s.consecutiveErrors = 0
	s.mu.Unlock()
	s.logger.Info("circuit breaker reset")
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("notification has no deliverable recipient")

// Message is one outbound notification. Empty ToPhone or ToEmail skips that channel.
type Message struct {
	ToName  string
	ToPhone string
	ToEmail string
	Subject string
	Body    string
}

type ChannelResult struct {
	Attempted bool
	MessageID string
	Err       error
}

func (r ChannelResult) Delivered() bool {
	return r.Attempted && r.Err == nil
}

// DeliveryReport carries per-channel results of one Send.
type DeliveryReport struct {
	SMS   ChannelResult
	Email ChannelResult
}

func (r *DeliveryReport) AnyDelivered() bool {
	return r.SMS.Delivered() || r.Email.Delivered()
}

type NotificationServiceInterface interface {
	Send(ctx context.Context, msg Message) (*DeliveryReport, error)
	Provider() string
}

// NoopNotificationService logs messages instead of sending them.
type NoopNotificationService struct {
	logger *zap.Logger
}

func NewNoopNotificationService(logger *zap.Logger) *NoopNotificationService {
	return &NoopNotificationService{logger: logger.Named("notify")}
}

func (s *NoopNotificationService) Send(_ context.Context, msg Message) (*DeliveryReport, error) {
	s.logger.Info("notification provider disabled, dropping message",
		zap.String("subject", msg.Subject),
		zap.Bool("has_phone", msg.ToPhone != ""),
		zap.Bool("has_email", msg.ToEmail != ""),
	)
	return &DeliveryReport{}, nil
}

func (s *NoopNotificationService) Provider() string {
	return "none"
}

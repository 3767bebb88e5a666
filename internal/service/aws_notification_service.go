package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/metrics"
	"go.uber.org/zap"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// AWSNotificationService sends email through SES and SMS through SNS.
type AWSNotificationService struct {
	sesClient SESService
	snsClient SNSService
	fromEmail string
	logger    *zap.Logger
}

func NewAWSNotificationService(ctx context.Context, cfg *config.NotificationConfig, logger *zap.Logger) (*AWSNotificationService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewAWSNotificationServiceWithClients(ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), cfg.SESFromEmail, logger), nil
}

func NewAWSNotificationServiceWithClients(sesClient SESService, snsClient SNSService, fromEmail string, logger *zap.Logger) *AWSNotificationService {
	return &AWSNotificationService{
		sesClient: sesClient,
		snsClient: snsClient,
		fromEmail: fromEmail,
		logger:    logger.Named("aws-notify"),
	}
}

func (s *AWSNotificationService) Provider() string {
	return config.NotifyProviderAWS
}

func (s *AWSNotificationService) Send(ctx context.Context, msg Message) (*DeliveryReport, error) {
	report := &DeliveryReport{}

	if msg.ToEmail != "" && s.fromEmail != "" {
		report.Email.Attempted = true
		report.Email.MessageID, report.Email.Err = s.sendEmail(ctx, msg)
		if report.Email.Err != nil {
			s.logger.Error("email send failed", zap.String("email", msg.ToEmail), zap.Error(report.Email.Err))
		}
	}
	if msg.ToPhone != "" {
		report.SMS.Attempted = true
		report.SMS.MessageID, report.SMS.Err = s.sendSMS(ctx, msg)
		if report.SMS.Err != nil {
			s.logger.Error("SMS send failed", zap.String("phone", msg.ToPhone), zap.Error(report.SMS.Err))
		}
	}

	if !report.SMS.Attempted && !report.Email.Attempted {
		return report, ErrNoRecipients
	}
	return report, nil
}

func (s *AWSNotificationService) sendEmail(ctx context.Context, msg Message) (string, error) {
	start := time.Now()
	out, err := s.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	metrics.NotificationDuration.WithLabelValues(s.Provider(), "email").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("ses send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func (s *AWSNotificationService) sendSMS(ctx context.Context, msg Message) (string, error) {
	start := time.Now()
	out, err := s.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(msg.ToPhone),
		Message:     aws.String(msg.Body),
	})
	metrics.NotificationDuration.WithLabelValues(s.Provider(), "sms").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("sns publish: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// NewNotificationService picks the gateway named by cfg.Provider.
func NewNotificationService(ctx context.Context, cfg *config.NotificationConfig, logger *zap.Logger) (NotificationServiceInterface, error) {
	switch cfg.Provider {
	case config.NotifyProviderClickSend:
		if cfg.ClickSendUsername == "" || cfg.ClickSendAPIKey == "" {
			return nil, fmt.Errorf("CLICKSEND_USERNAME and CLICKSEND_API_KEY are required for provider %q", cfg.Provider)
		}
		return NewClickSendService(cfg, logger), nil
	case config.NotifyProviderAWS:
		return NewAWSNotificationService(ctx, cfg, logger)
	case config.NotifyProviderNone, "":
		return NewNoopNotificationService(logger), nil
	}
	return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
}

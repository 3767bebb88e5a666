package config

import (
	"os"
	"strings"
	"sync"
)

const (
	NotifyProviderClickSend = "clicksend"
	NotifyProviderAWS       = "aws"
	NotifyProviderNone      = "none"
)

type NotificationConfig struct {
	Provider string

	ClickSendUsername       string
	ClickSendAPIKey         string
	ClickSendBaseURL        string
	ClickSendSMSFrom        string
	ClickSendEmailAddressID int
	ClickSendFromName       string

	AWSRegion    string
	SESFromEmail string

	AlertCronSpec  string
	AlertBatchSize int
}

var (
	notificationConfig *NotificationConfig
	notificationOnce   sync.Once
)

func LoadNotificationConfig() *NotificationConfig {
	notificationOnce.Do(func() {
		notificationConfig = newNotificationConfig()
	})
	return notificationConfig
}

func newNotificationConfig() *NotificationConfig {
	return &NotificationConfig{
		Provider:                strings.ToLower(getEnv("NOTIFY_PROVIDER", NotifyProviderNone)),
		ClickSendUsername:       os.Getenv("CLICKSEND_USERNAME"),
		ClickSendAPIKey:         os.Getenv("CLICKSEND_API_KEY"),
		ClickSendBaseURL:        getEnv("CLICKSEND_BASE_URL", "https://rest.clicksend.com/v3"),
		ClickSendSMSFrom:        os.Getenv("CLICKSEND_SMS_FROM"),
		ClickSendEmailAddressID: getEnvInt("CLICKSEND_EMAIL_ADDRESS_ID", 0),
		ClickSendFromName:       getEnv("CLICKSEND_FROM_NAME", "Dealership"),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:            os.Getenv("SES_FROM_EMAIL"),
		AlertCronSpec:           getEnv("ALERT_CRON_SPEC", "@every 1m"),
		AlertBatchSize:          getEnvInt("ALERT_BATCH_SIZE", 20),
	}
}

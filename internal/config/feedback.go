package config

import (
	"os"
	"sync"
)

type FeedbackConfig struct {
	ReviewURL      string
	DealershipName string
	ManagerName    string
	ManagerPhone   string
	ManagerEmail   string
}

var (
	feedbackConfig *FeedbackConfig
	feedbackOnce   sync.Once
)

func LoadFeedbackConfig() *FeedbackConfig {
	feedbackOnce.Do(func() {
		feedbackConfig = newFeedbackConfig()
	})
	return feedbackConfig
}

func newFeedbackConfig() *FeedbackConfig {
	return &FeedbackConfig{
		ReviewURL:      os.Getenv("FEEDBACK_REVIEW_URL"),
		DealershipName: getEnv("DEALERSHIP_NAME", "our dealership"),
		ManagerName:    getEnv("MANAGER_NAME", "our manager"),
		ManagerPhone:   os.Getenv("MANAGER_PHONE"),
		ManagerEmail:   os.Getenv("MANAGER_EMAIL"),
	}
}

package config

import (
	"log"
	"os"
	"strings"
	"sync"
)

type AppConfig struct {
	Name      string
	Env       string
	Port      string
	BaseURL   string
	LogLevel  string
	LogFormat string
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = newAppConfig()
	})
	return appConfig
}

func newAppConfig() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
		log.Printf("Warning: APP_ENV not set, defaulting to %s", env)
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "console"
		if env == "production" {
			format = "json"
		}
	}
	return &AppConfig{
		Name:      getEnv("APP_NAME", "dealer-feedback"),
		Env:       env,
		Port:      getEnv("APP_PORT", ":8080"),
		BaseURL:   os.Getenv("APP_URL"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: format,
	}
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

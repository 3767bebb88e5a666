package config

import (
	"os"
	"sync"
)

type AdminConfig struct {
	User     string
	Password string
}

var (
	adminConfig *AdminConfig
	adminOnce   sync.Once
)

func LoadAdminConfig() *AdminConfig {
	adminOnce.Do(func() {
		adminConfig = &AdminConfig{
			User:     os.Getenv("ADMIN_USER"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		}
	})
	return adminConfig
}

// Enabled reports whether admin routes should be mounted at all.
func (c *AdminConfig) Enabled() bool {
	return c.User != "" && c.Password != ""
}

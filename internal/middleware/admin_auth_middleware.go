package middleware

import (
	"crypto/subtle"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// AdminAuth protects manager-only routes with HTTP basic auth.
func AdminAuth(cfg *config.AdminConfig) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: "dealer-feedback admin",
		Authorizer: func(user, pass string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
			return userOK && passOK
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="dealer-feedback admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":    false,
				"error_code": "UNAUTHORIZED",
				"message":    "Authentication required",
			})
		},
	})
}

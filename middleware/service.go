// middleware/service.go
package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ServiceTokenMiddleware guards internal endpoints (cron triggers) with a
// shared service token. The scheduler and external cron callers both present
// it as a bearer token.
func ServiceTokenMiddleware() fiber.Handler {
	expectedToken := os.Getenv("CRON_SERVICE_TOKEN")
	if expectedToken == "" {
		logrus.Fatal("CRON_SERVICE_TOKEN is not set — internal endpoints cannot be authenticated")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — accept the raw header value
			token = authHeader
		}

		if token == "" || token != expectedToken {
			logrus.WithField("path", c.Path()).Warn("rejected internal request with bad service token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}

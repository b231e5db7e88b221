package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthMiddleware validates the Bearer token on the admin API
func AdminAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("ADMIN_API_TOKEN")
	if expectedToken == "" {
		log.Fatal("❌ ADMIN_API_TOKEN is not set — admin API cannot authenticate callers")
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [ADMIN_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "admin authentication token missing",
			})
		}

		// Parse "Bearer <token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			token = authHeader
		}

		if token != expectedToken {
			log.Printf("❌ [ADMIN_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid admin authentication token",
			})
		}

		return c.Next()
	}
}

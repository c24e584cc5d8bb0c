package middlewares

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Safaricom publishes the source addresses its callbacks originate from.
var safaricomIPs = []string{"196.201.214.200", "196.201.214.206"}

// SafaricomIPAllowlist rejects callback traffic from unknown addresses.
// Only enforced in production so local testing can post callbacks
// directly.
func SafaricomIPAllowlist() fiber.Handler {
	enforce := os.Getenv("APP_ENV") == "production"

	return func(c *fiber.Ctx) error {
		if !enforce {
			return c.Next()
		}

		clientIP := c.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = c.IP()
		}

		for _, ip := range safaricomIPs {
			if strings.Contains(clientIP, ip) {
				return c.Next()
			}
		}

		log.Printf("⚠️  [Callback] Unauthorized source IP: %s", clientIP)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}
}

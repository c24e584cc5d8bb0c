package payments

import (
	"os"
	"surecover/helpers"
	"surecover/services"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Status returns the current state of a transaction for client polling.
func Status(c *fiber.Ctx) error {
	txn, err := services.GetTransaction(c.Params("checkoutRequestId"))
	if err != nil {
		if pe, ok := helpers.AsPaymentError(err); ok {
			return helpers.JSONError(c, pe.HTTPStatus(), pe.Message)
		}
		return helpers.JSONError(c, fiber.StatusInternalServerError, "lookup failed")
	}

	return helpers.JSONSuccess(c, fiber.StatusOK, "OK", txn)
}

func Health(c *fiber.Ctx) error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":      "active",
		"environment": env,
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

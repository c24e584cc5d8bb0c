package routes

import (
	callbackmpesa "surecover/controllers/callback/mpesa"
	"surecover/controllers/payments"
	"surecover/middlewares"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	pay := app.Group("/payments")
	pay.Post("/initiate", payments.Initiate)
	pay.Get("/health", payments.Health)

	// Provider webhook
	pay.Post("/callback", middlewares.SafaricomIPAllowlist(), callbackmpesa.Callback)

	pay.Get("/:checkoutRequestId", payments.Status)
}

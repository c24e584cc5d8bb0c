package mpesa

import (
	"log"
	"surecover/helpers"
	"surecover/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Callback receives the provider's asynchronous verdict. Processing
// errors are logged, never returned: anything but an acknowledgement
// makes the provider redeliver the same callback.
func Callback(c *fiber.Ctx) error {
	callbackID := uuid.New().String()

	raw := append([]byte(nil), c.Body()...)
	if err := services.ReconcileCallback(raw); err != nil {
		log.Printf("❌ [Callback %s] %v", callbackID, err)
	}

	return helpers.CallbackAck(c)
}

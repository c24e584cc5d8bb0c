package payments

import (
	"log"
	"surecover/helpers"
	"surecover/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InitiatePaymentRequest struct {
	Phone     string          `json:"phone"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// Initiate fires an STK push prompt at the payer's phone and returns
// the checkout request ID the client polls with.
func Initiate(c *fiber.Ctx) error {
	requestID := uuid.New().String()

	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "valid phone and amount required")
	}

	result, err := services.InitiateSTKPush(req.Phone, req.Amount, req.Reference)
	if err != nil {
		if pe, ok := helpers.AsPaymentError(err); ok {
			log.Printf("❌ [Initiate %s] %v", requestID, pe)
			return helpers.JSONError(c, pe.HTTPStatus(), pe.Message)
		}
		log.Printf("❌ [Initiate %s] %v", requestID, err)
		return helpers.JSONError(c, fiber.StatusInternalServerError, "payment request failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":             true,
		"checkoutRequestId":   result.CheckoutRequestID,
		"responseDescription": result.ResponseDescription,
	})
}

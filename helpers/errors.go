package helpers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	ErrKindValidation = "validation"
	ErrKindConflict   = "conflict"
	ErrKindAuth       = "auth"
	ErrKindGateway    = "gateway"
	ErrKindNetwork    = "network"
	ErrKindNotFound   = "not_found"
)

// PaymentError separates what a client may see (Message) from what
// only the logs may see (Detail). Provider response bodies and
// credentials stay in Detail.
type PaymentError struct {
	Kind    string
	Message string
	Detail  string
}

func (e *PaymentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewPaymentError(kind, message, detail string) *PaymentError {
	return &PaymentError{Kind: kind, Message: message, Detail: detail}
}

// HTTPStatus maps an error kind to the status the initiation endpoint
// returns. Gateway-side failures are all surfaced as 502 with the
// generic Message only.
func (e *PaymentError) HTTPStatus() int {
	switch e.Kind {
	case ErrKindValidation:
		return fiber.StatusBadRequest
	case ErrKindConflict:
		return fiber.StatusConflict
	case ErrKindNotFound:
		return fiber.StatusNotFound
	case ErrKindAuth, ErrKindGateway, ErrKindNetwork:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

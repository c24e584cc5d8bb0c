package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

// Transaction is the permanent audit record of one STK push attempt.
// Rows are created only after the gateway accepts the push, mutated at
// most once into a terminal status, and never deleted.
type Transaction struct {
	gorm.Model

	MerchantRequestID string `gorm:"size:64;index" json:"merchant_request_id"`
	CheckoutRequestID string `gorm:"size:64;uniqueIndex" json:"checkout_request_id"`

	Phone            string          `gorm:"size:16;index" json:"phone"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	AccountReference string          `gorm:"size:64" json:"account_reference"`

	Status          string         `gorm:"size:16;default:pending;index" json:"status"`
	ReceiptNumber   *string        `gorm:"size:32" json:"receipt_number"`
	PaymentDate     *time.Time     `json:"payment_date"`
	CallbackPayload datatypes.JSON `json:"callback_payload"`
}

// IsTerminal reports whether the transaction has already been reconciled.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusSuccess || t.Status == TxStatusFailed
}

// MarkSuccess moves a pending transaction to success. Returns false
// without touching the row when the status is already terminal, so
// redelivered callbacks are a no-op.
func (t *Transaction) MarkSuccess(receipt string, paidAt time.Time, payload datatypes.JSON) bool {
	if t.IsTerminal() {
		return false
	}
	t.Status = TxStatusSuccess
	t.ReceiptNumber = &receipt
	t.PaymentDate = &paidAt
	t.CallbackPayload = payload
	return true
}

// MarkFailed moves a pending transaction to failed. Receipt and payment
// date stay nil: they are only ever set on success.
func (t *Transaction) MarkFailed(payload datatypes.JSON) bool {
	if t.IsTerminal() {
		return false
	}
	t.Status = TxStatusFailed
	t.CallbackPayload = payload
	return true
}

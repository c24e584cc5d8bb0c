package services

import (
	"encoding/json"
	"fmt"
	"log"
	"surecover/database"
	"surecover/models"
	"time"

	"gorm.io/datatypes"
)

// ReconcileCallback applies the provider's asynchronous verdict to the
// matching pending transaction. It is idempotent: redelivered callbacks
// and callbacks for unknown requests change nothing. The returned error
// is for logging only; the HTTP layer always acknowledges the provider.
func ReconcileCallback(raw []byte) error {
	var envelope models.STKCallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("invalid callback payload: %w", err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return fmt.Errorf("callback missing CheckoutRequestID")
	}

	var txn models.Transaction
	err := database.DB.Where("checkout_request_id = ?", cb.CheckoutRequestID).First(&txn).Error
	if err != nil {
		// Possibly a redelivery for a request this instance never
		// recorded. Acknowledge and move on.
		log.Printf("⚠️  [Callback] No matching transaction for CheckoutRequestID %s", cb.CheckoutRequestID)
		return nil
	}

	if txn.IsTerminal() {
		log.Printf("⚠️  [Callback] Transaction %s already %s, ignoring redelivery", cb.CheckoutRequestID, txn.Status)
		return nil
	}

	payload := datatypes.JSON(raw)

	if cb.ResultCode == 0 {
		receipt := string(cb.MetadataValue("MpesaReceiptNumber"))
		if receipt == "" {
			// A success verdict always carries a receipt. Leave the row
			// pending so a well-formed redelivery can still reconcile it.
			return fmt.Errorf("success callback for %s missing MpesaReceiptNumber", cb.CheckoutRequestID)
		}
		paidAt := time.Now()

		if !txn.MarkSuccess(receipt, paidAt, payload) {
			return nil
		}

		// The status guard in the WHERE clause makes the flip atomic
		// under concurrent redelivery: only one update lands.
		res := database.DB.Model(&models.Transaction{}).
			Where("checkout_request_id = ? AND status = ?", txn.CheckoutRequestID, models.TxStatusPending).
			Updates(map[string]any{
				"status":           txn.Status,
				"receipt_number":   txn.ReceiptNumber,
				"payment_date":     txn.PaymentDate,
				"callback_payload": txn.CallbackPayload,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update transaction %s: %w", txn.CheckoutRequestID, res.Error)
		}
		if res.RowsAffected == 0 {
			log.Printf("⚠️  [Callback] Transaction %s reconciled concurrently, ignoring", txn.CheckoutRequestID)
			return nil
		}

		log.Printf("✅ [Callback] Payment success - CheckoutRequestID: %s | Receipt: %s",
			txn.CheckoutRequestID, receipt)

		// Notification is best-effort: the payment is already real.
		phone := string(cb.MetadataValue("PhoneNumber"))
		if phone == "" {
			phone = txn.Phone
		}
		NotifyPaymentSuccess(phone, txn.Amount.String(), receipt)

		return nil
	}

	if !txn.MarkFailed(payload) {
		return nil
	}

	res := database.DB.Model(&models.Transaction{}).
		Where("checkout_request_id = ? AND status = ?", txn.CheckoutRequestID, models.TxStatusPending).
		Updates(map[string]any{
			"status":           txn.Status,
			"callback_payload": txn.CallbackPayload,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.CheckoutRequestID, res.Error)
	}

	log.Printf("❌ [Callback] Payment failed - CheckoutRequestID: %s | ResultCode: %d | %s",
		txn.CheckoutRequestID, cb.ResultCode, cb.ResultDesc)

	return nil
}

package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"surecover/database"
	"surecover/helpers"
	"surecover/models"
	"surecover/providers"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultMinAmount     = "10"
	defaultMaxAmount     = "100000"
	defaultPendingWindow = 30 * time.Minute
)

func minAmount() decimal.Decimal {
	if v := os.Getenv("MPESA_MIN_AMOUNT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultMinAmount)
	return d
}

func maxAmount() decimal.Decimal {
	if v := os.Getenv("MPESA_MAX_AMOUNT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultMaxAmount)
	return d
}

func pendingWindow() time.Duration {
	if v := os.Getenv("MPESA_PENDING_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultPendingWindow
}

// InitiateSTKPush validates and de-duplicates a payment request, fires
// the push through the registered gateway, and records the pending
// transaction. No row exists until the gateway has accepted the push.
func InitiateSTKPush(phone string, amount decimal.Decimal, reference string) (*providers.PushResult, error) {
	msisdn, ok := helpers.NormalizeMsisdn(phone)
	if !ok {
		return nil, helpers.NewPaymentError(helpers.ErrKindValidation, "invalid phone number format", "")
	}

	min, max := minAmount(), maxAmount()
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return nil, helpers.NewPaymentError(helpers.ErrKindValidation,
			"amount must be between "+min.String()+" and "+max.String(), "")
	}

	if reference == "" {
		reference = "INSURANCE"
	}

	// A matching pending push inside the recency window means the payer
	// already has a prompt on their phone; do not fire a second one.
	var pending models.Transaction
	cutoff := time.Now().Add(-pendingWindow())
	err := database.DB.
		Where("phone = ? AND amount = ? AND status = ? AND created_at > ?",
			msisdn, amount, models.TxStatusPending, cutoff).
		First(&pending).Error
	if err == nil {
		return nil, helpers.NewPaymentError(helpers.ErrKindConflict, "similar transaction already pending", "")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		// A broken lookup must not disable de-duplication: stop before
		// any provider traffic.
		return nil, fmt.Errorf("checking pending transactions: %w", err)
	}

	provider := providers.GetProvider("mpesa")
	if provider == nil {
		return nil, helpers.NewPaymentError(helpers.ErrKindGateway, "payment gateway not configured", "")
	}

	result, err := provider.InitiatePush(providers.PushRequest{
		Phone:            msisdn,
		Amount:           amount,
		AccountReference: reference,
	})
	if err != nil {
		return nil, err
	}

	txn := models.Transaction{
		MerchantRequestID: result.MerchantRequestID,
		CheckoutRequestID: result.CheckoutRequestID,
		Phone:             msisdn,
		Amount:            amount,
		AccountReference:  reference,
		Status:            models.TxStatusPending,
	}
	if err := database.DB.Create(&txn).Error; err != nil {
		log.Printf("❌ [STKPush] Failed to save transaction %s: %v", result.CheckoutRequestID, err)
		return nil, helpers.NewPaymentError(helpers.ErrKindGateway, "payment request failed", err.Error())
	}

	log.Printf("✅ [STKPush] Initiated - Phone: %s | Amount: %s | CheckoutRequestID: %s",
		helpers.MaskMsisdn(msisdn), amount.String(), result.CheckoutRequestID)

	return result, nil
}

// GetTransaction looks up a transaction by its checkout request ID for
// client-side polling.
func GetTransaction(checkoutRequestID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := database.DB.Where("checkout_request_id = ?", checkoutRequestID).First(&txn).Error; err != nil {
		return nil, helpers.NewPaymentError(helpers.ErrKindNotFound, "transaction not found", err.Error())
	}
	return &txn, nil
}

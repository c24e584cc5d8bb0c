package services

import (
	"surecover/database"
	"surecover/helpers"
	"surecover/models"
	"surecover/providers"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A single connection keeps every query on the same in-memory DB.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Transaction{}, &models.Student{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	database.DB = db
}

type fakeGateway struct {
	calls  int
	result *providers.PushResult
	err    error
}

func (f *fakeGateway) InitiatePush(req providers.PushRequest) (*providers.PushResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func registerFakeGateway(t *testing.T, fake *fakeGateway) {
	t.Helper()
	providers.RegisterProvider("mpesa", fake)
	t.Cleanup(func() {
		delete(providers.PushProviders, "mpesa")
	})
}

func countTransactions(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := database.DB.Model(&models.Transaction{}).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

func TestInitiateInvalidPhone(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{}
	registerFakeGateway(t, fake)

	_, err := InitiateSTKPush("12345", decimal.NewFromInt(50), "")
	pe, ok := helpers.AsPaymentError(err)
	if !ok || pe.Kind != helpers.ErrKindValidation {
		t.Fatalf("error = %v, want validation", err)
	}
	if fake.calls != 0 {
		t.Errorf("gateway called %d times, want 0", fake.calls)
	}
	if countTransactions(t) != 0 {
		t.Error("no row may exist for a rejected request")
	}
}

func TestInitiateAmountOutOfRange(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{}
	registerFakeGateway(t, fake)

	for _, amount := range []decimal.Decimal{
		decimal.NewFromInt(5),
		decimal.NewFromInt(200000),
		decimal.Zero,
	} {
		_, err := InitiateSTKPush("0712345678", amount, "")
		pe, ok := helpers.AsPaymentError(err)
		if !ok || pe.Kind != helpers.ErrKindValidation {
			t.Errorf("amount %s: error = %v, want validation", amount, err)
		}
	}

	// Bounds are checked before any provider traffic.
	if fake.calls != 0 {
		t.Errorf("gateway called %d times, want 0", fake.calls)
	}
}

func TestInitiateBoundaryAmountsAccepted(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{result: &providers.PushResult{
		MerchantRequestID: "m1",
		CheckoutRequestID: "ws_min",
	}}
	registerFakeGateway(t, fake)

	// The range is inclusive at both ends.
	if _, err := InitiateSTKPush("0712345678", decimal.NewFromInt(10), ""); err != nil {
		t.Errorf("min amount rejected: %v", err)
	}
	fake.result = &providers.PushResult{MerchantRequestID: "m2", CheckoutRequestID: "ws_max"}
	if _, err := InitiateSTKPush("0722000000", decimal.NewFromInt(100000), ""); err != nil {
		t.Errorf("max amount rejected: %v", err)
	}
}

func TestInitiateCreatesPendingRow(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{result: &providers.PushResult{
		MerchantRequestID:   "29115-34620561-1",
		CheckoutRequestID:   "ws_1",
		ResponseDescription: "Success. Request accepted for processing",
	}}
	registerFakeGateway(t, fake)

	result, err := InitiateSTKPush("0712345678", decimal.NewFromInt(50), "POLICY-9")
	if err != nil {
		t.Fatalf("InitiateSTKPush: %v", err)
	}
	if result.CheckoutRequestID != "ws_1" {
		t.Errorf("CheckoutRequestID = %q", result.CheckoutRequestID)
	}

	var txn models.Transaction
	if err := database.DB.Where("checkout_request_id = ?", "ws_1").First(&txn).Error; err != nil {
		t.Fatalf("row not created: %v", err)
	}
	if txn.Status != models.TxStatusPending {
		t.Errorf("status = %q, want pending", txn.Status)
	}
	if txn.Phone != "254712345678" {
		t.Errorf("phone = %q, want normalized 254712345678", txn.Phone)
	}
	if !txn.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("amount = %s", txn.Amount)
	}
	if txn.AccountReference != "POLICY-9" {
		t.Errorf("reference = %q", txn.AccountReference)
	}
}

func TestInitiateDuplicatePending(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{result: &providers.PushResult{
		MerchantRequestID: "m1",
		CheckoutRequestID: "ws_1",
	}}
	registerFakeGateway(t, fake)

	if _, err := InitiateSTKPush("0712345678", decimal.NewFromInt(50), ""); err != nil {
		t.Fatalf("first initiation: %v", err)
	}

	// Same normalized phone and amount inside the recency window.
	_, err := InitiateSTKPush("+254712345678", decimal.NewFromInt(50), "")
	pe, ok := helpers.AsPaymentError(err)
	if !ok || pe.Kind != helpers.ErrKindConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if fake.calls != 1 {
		t.Errorf("gateway called %d times, want 1", fake.calls)
	}
	if countTransactions(t) != 1 {
		t.Errorf("transaction rows = %d, want 1", countTransactions(t))
	}

	// A different amount is not a duplicate.
	fake.result = &providers.PushResult{MerchantRequestID: "m2", CheckoutRequestID: "ws_2"}
	if _, err := InitiateSTKPush("0712345678", decimal.NewFromInt(75), ""); err != nil {
		t.Errorf("different amount rejected: %v", err)
	}
}

func TestInitiateDuplicateCheckDBErrorStopsRequest(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{result: &providers.PushResult{
		MerchantRequestID: "m1",
		CheckoutRequestID: "ws_1",
	}}
	registerFakeGateway(t, fake)

	// Break the pending lookup entirely.
	if err := database.DB.Exec("DROP TABLE transactions").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := InitiateSTKPush("0712345678", decimal.NewFromInt(50), "")
	if err == nil {
		t.Fatal("a failed duplicate check must not proceed to the gateway")
	}
	if pe, ok := helpers.AsPaymentError(err); ok && pe.Kind == helpers.ErrKindConflict {
		t.Errorf("error = %v, want a lookup failure, not a conflict", err)
	}
	if fake.calls != 0 {
		t.Errorf("gateway called %d times, want 0", fake.calls)
	}
}

func TestInitiateGatewayFailureCreatesNoRow(t *testing.T) {
	setupTestDB(t)
	fake := &fakeGateway{err: helpers.NewPaymentError(helpers.ErrKindGateway,
		"payment request rejected by provider", "Invalid PhoneNumber")}
	registerFakeGateway(t, fake)

	_, err := InitiateSTKPush("0712345678", decimal.NewFromInt(50), "")
	pe, ok := helpers.AsPaymentError(err)
	if !ok || pe.Kind != helpers.ErrKindGateway {
		t.Fatalf("error = %v, want gateway", err)
	}
	if countTransactions(t) != 0 {
		t.Error("a failed push must not create a row")
	}
}

func TestGetTransaction(t *testing.T) {
	setupTestDB(t)

	seed := models.Transaction{
		CheckoutRequestID: "ws_55",
		Phone:             "254712345678",
		Amount:            decimal.NewFromInt(50),
		Status:            models.TxStatusPending,
	}
	if err := database.DB.Create(&seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	txn, err := GetTransaction("ws_55")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if txn.Status != models.TxStatusPending {
		t.Errorf("status = %q", txn.Status)
	}

	_, err = GetTransaction("ws_unknown")
	pe, ok := helpers.AsPaymentError(err)
	if !ok || pe.Kind != helpers.ErrKindNotFound {
		t.Fatalf("error = %v, want not_found", err)
	}
}

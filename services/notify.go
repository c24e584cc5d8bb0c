package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"surecover/database"
	"surecover/helpers"
	"surecover/models"
	"time"

	"gopkg.in/gomail.v2"
)

// SendPaymentNotification delivers the confirmation email. Package
// variable so tests can swap in a recorder.
var SendPaymentNotification = sendPaymentEmail

// NotifyPaymentSuccess activates the paying student's cover and sends
// the confirmation email. Failures are logged, never propagated: the
// transaction is already reconciled by the time this runs.
func NotifyPaymentSuccess(phone, amount, receipt string) {
	var student models.Student
	if err := database.DB.Where("phone_number = ?", phone).First(&student).Error; err != nil {
		log.Printf("⚠️  [Notify] No student found for %s", helpers.MaskMsisdn(phone))
		return
	}

	now := time.Now()
	if err := database.DB.Model(&student).Updates(map[string]any{
		"insurance_status":  "active",
		"last_payment_date": now,
	}).Error; err != nil {
		log.Printf("❌ [Notify] Failed to activate cover for %s: %v", helpers.MaskMsisdn(phone), err)
	}

	if student.Email == "" {
		log.Printf("⚠️  [Notify] Student %d has no email, skipping confirmation", student.ID)
		return
	}

	if err := SendPaymentNotification(student.Email, student.Name, phone, amount, receipt); err != nil {
		log.Printf("❌ [Notify] Failed to send confirmation to %s: %v", student.Email, err)
		return
	}

	log.Printf("✅ [Notify] Payment confirmation sent to %s", student.Email)
}

func sendPaymentEmail(email, name, phone, amount, receipt string) error {
	if name == "" {
		name = "Student"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_SENDER"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Payment Confirmation - Insurance Platform")
	m.SetBody("text/html", fmt.Sprintf(
		"<h2>Payment Received</h2>"+
			"<p>Dear %s,</p>"+
			"<p>Thank you for your payment. Here are the details:</p>"+
			"<ul>"+
			"<li><strong>Phone Number:</strong> %s</li>"+
			"<li><strong>Amount Paid:</strong> KES %s</li>"+
			"<li><strong>Receipt Number:</strong> %s</li>"+
			"</ul>"+
			"<p>Regards,<br/>Student Insurance Team</p>",
		name, helpers.MaskMsisdn(phone), amount, receipt,
	))

	port := 465
	if v, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		port = v
	}

	d := gomail.NewDialer(
		os.Getenv("SMTP_HOST"),
		port,
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
	)

	return d.DialAndSend(m)
}

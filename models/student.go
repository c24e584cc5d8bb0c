package models

import (
	"time"

	"gorm.io/gorm"
)

type Student struct {
	gorm.Model

	Name            string     `gorm:"size:128" json:"name"`
	Email           string     `gorm:"size:128" json:"email"`
	PhoneNumber     string     `gorm:"size:16;index" json:"phone_number"`
	InsuranceStatus string     `gorm:"size:16;default:inactive" json:"insurance_status"`
	LastPaymentDate *time.Time `json:"last_payment_date"`
}

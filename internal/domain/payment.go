package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodMpesa        PaymentMethod = "mpesa"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCredits      PaymentMethod = "credits"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPayPal, MethodMpesa, MethodBankTransfer, MethodCredits:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const DefaultCurrency = "USD"

type Payment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	UserID        int64           `json:"user_id" gorm:"not null;index"`
	BookingID     *int64          `json:"booking_id,omitempty" gorm:"index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;not null;default:USD"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	TransactionID string          `json:"transaction_id,omitempty" gorm:"size:255"`
	InvoiceNumber string          `json:"invoice_number" gorm:"size:50;uniqueIndex;not null"`
	Notes         string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Booking *Booking `json:"-" gorm:"foreignKey:BookingID;constraint:OnDelete:SET NULL"`
}

func (Payment) TableName() string { return "payments" }

// InvoiceNumber formats INV-{YYYYmmddHHMMSS}-{userID}.
func InvoiceNumber(at time.Time, userID int64) string {
	return fmt.Sprintf("INV-%s-%d", at.UTC().Format("20060102150405"), userID)
}

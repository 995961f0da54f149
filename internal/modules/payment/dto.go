package payment

import (
	"time"

	"admarket/internal/domain"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest pays one pending booking. Amount defaults to the booking's final price.
type CreatePaymentRequest struct {
	BookingID     int64            `json:"booking_id" validate:"required,min=1"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=credit_card paypal mpesa bank_transfer credits"`
	Notes         string           `json:"notes" validate:"max=1000"`
}

type RefundRequest struct {
	Reason string `json:"reason"`
}

type PaymentResponse struct {
	ID            int64                `json:"id"`
	UserID        int64                `json:"user_id"`
	BookingID     *int64               `json:"booking_id,omitempty"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	InvoiceNumber string               `json:"invoice_number"`
	Notes         string               `json:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

func NewPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		BookingID:     p.BookingID,
		Amount:        p.Amount.StringFixed(2),
		Currency:      p.Currency,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		InvoiceNumber: p.InvoiceNumber,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

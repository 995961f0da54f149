package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDateRange = errors.New("end_date must be on or after start_date")
	ErrInvalidDiscount  = errors.New("discount_percentage must be between 0 and 100")
	ErrInvalidPrice     = errors.New("price_per_day must not be negative")

	ErrDiscountPrecision = errors.New("discount_percentage must have at most 2 decimal places")
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the computed price fields of a booking. Values are produced by QuotePrice
// only; callers never supply them.
type Pricing struct {
	PricePerDay        decimal.Decimal `json:"price_per_day" gorm:"type:decimal(12,2);not null"`
	TotalDays          int             `json:"total_days" gorm:"not null"`
	TotalPrice         decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" gorm:"type:decimal(5,2);not null;default:0"`
	FinalPrice         decimal.Decimal `json:"final_price" gorm:"type:decimal(12,2);not null"`
}

// QuotePrice computes booking prices for the inclusive range [start, end]:
//
//	total_days  = (end - start).days + 1
//	total_price = price_per_day * total_days
//	final_price = total_price - total_price * discount / 100
func QuotePrice(pricePerDay decimal.Decimal, start, end time.Time, discount decimal.Decimal) (Pricing, error) {
	if err := ValidateRange(start, end); err != nil {
		return Pricing{}, err
	}
	if err := ValidateDiscount(discount); err != nil {
		return Pricing{}, err
	}
	if pricePerDay.IsNegative() {
		return Pricing{}, ErrInvalidPrice
	}

	days := InclusiveDays(start, end)
	total := pricePerDay.Mul(decimal.NewFromInt(int64(days)))
	final := total.Sub(total.Mul(discount).Div(hundred)).Round(2)

	return Pricing{
		PricePerDay:        pricePerDay,
		TotalDays:          days,
		TotalPrice:         total,
		DiscountPercentage: discount,
		FinalPrice:         final,
	}, nil
}

// ValidateRange rejects ranges whose end date falls before the start date.
func ValidateRange(start, end time.Time) error {
	if DateOf(end).Before(DateOf(start)) {
		return ErrInvalidDateRange
	}
	return nil
}

// ValidateDiscount accepts 0..100 with at most two decimal places, the precision the
// discount column stores.
func ValidateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	if !discount.Equal(discount.Round(2)) {
		return ErrDiscountPrecision
	}
	return nil
}

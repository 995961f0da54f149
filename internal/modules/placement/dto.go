package placement

import (
	"time"

	"admarket/internal/domain"

	"github.com/shopspring/decimal"
)

type CreatePlacementRequest struct {
	PlacementName    string          `json:"placement_name" validate:"required,max=100"`
	PlacementCode    string          `json:"placement_code" validate:"required,max=50"`
	Description      string          `json:"description"`
	Dimensions       string          `json:"dimensions" validate:"max=50"`
	BasePricePerDay  decimal.Decimal `json:"base_price_per_day"`
	MaxFileSizeMB    *int            `json:"max_file_size_mb" validate:"omitempty,min=1"`
	IsActive         *bool           `json:"is_active"`
	IsPremium        bool            `json:"is_premium"`
	MaxConcurrentAds *int            `json:"max_concurrent_ads" validate:"omitempty,min=1"`
}

// UpdatePlacementRequest applies only the fields that are present.
type UpdatePlacementRequest struct {
	PlacementName    *string          `json:"placement_name" validate:"omitempty,min=1,max=100"`
	PlacementCode    *string          `json:"placement_code" validate:"omitempty,min=1,max=50"`
	Description      *string          `json:"description"`
	Dimensions       *string          `json:"dimensions" validate:"omitempty,max=50"`
	BasePricePerDay  *decimal.Decimal `json:"base_price_per_day"`
	MaxFileSizeMB    *int             `json:"max_file_size_mb" validate:"omitempty,min=1"`
	IsActive         *bool            `json:"is_active"`
	IsPremium        *bool            `json:"is_premium"`
	MaxConcurrentAds *int             `json:"max_concurrent_ads" validate:"omitempty,min=1"`
}

type PlacementResponse struct {
	ID               int64     `json:"id"`
	PlacementName    string    `json:"placement_name"`
	PlacementCode    string    `json:"placement_code"`
	Description      string    `json:"description,omitempty"`
	Dimensions       string    `json:"dimensions,omitempty"`
	BasePricePerDay  string    `json:"base_price_per_day"`
	MaxFileSizeMB    int       `json:"max_file_size_mb"`
	IsActive         bool      `json:"is_active"`
	IsPremium        bool      `json:"is_premium"`
	MaxConcurrentAds int       `json:"max_concurrent_ads"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewPlacementResponse(p *domain.Placement) PlacementResponse {
	return PlacementResponse{
		ID:               p.ID,
		PlacementName:    p.PlacementName,
		PlacementCode:    p.PlacementCode,
		Description:      p.Description,
		Dimensions:       p.Dimensions,
		BasePricePerDay:  p.BasePricePerDay.StringFixed(2),
		MaxFileSizeMB:    p.MaxFileSizeMB,
		IsActive:         p.IsActive,
		IsPremium:        p.IsPremium,
		MaxConcurrentAds: p.MaxConcurrentAds,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// placementPage is what the list cache stores.
type placementPage struct {
	Items []domain.Placement `json:"items"`
	Total int64              `json:"total"`
}

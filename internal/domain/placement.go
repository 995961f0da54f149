package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Placement is a purchasable ad-display slot. Staff maintain the catalog.
type Placement struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	PlacementName    string          `json:"placement_name" gorm:"size:100;not null"`
	PlacementCode    string          `json:"placement_code" gorm:"size:50;uniqueIndex;not null"`
	Description      string          `json:"description,omitempty" gorm:"type:text"`
	Dimensions       string          `json:"dimensions,omitempty" gorm:"size:50"`
	BasePricePerDay  decimal.Decimal `json:"base_price_per_day" gorm:"type:decimal(12,2);not null"`
	MaxFileSizeMB    int             `json:"max_file_size_mb" gorm:"not null;default:10"`
	IsActive         bool            `json:"is_active" gorm:"not null;index"`
	IsPremium        bool            `json:"is_premium" gorm:"not null;default:false"`
	MaxConcurrentAds int             `json:"max_concurrent_ads" gorm:"not null;default:1"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Placement) TableName() string { return "ad_placements" }

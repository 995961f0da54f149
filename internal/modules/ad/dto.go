package ad

import (
	"time"

	"admarket/internal/domain"
)

type CreateAdRequest struct {
	Title            string `json:"title" validate:"required,max=200"`
	ShortDescription string `json:"short_description" validate:"max=500"`
	FullDescription  string `json:"full_description"`
	CallToAction     string `json:"call_to_action" validate:"max=100"`
	WebsiteURL       string `json:"website_url" validate:"omitempty,url,max=500"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
}

// UpdateAdRequest changes content fields that are present. Status is never set here.
type UpdateAdRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=1,max=200"`
	ShortDescription *string `json:"short_description" validate:"omitempty,max=500"`
	FullDescription  *string `json:"full_description"`
	CallToAction     *string `json:"call_to_action" validate:"omitempty,max=100"`
	WebsiteURL       *string `json:"website_url" validate:"omitempty,url,max=500"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
}

type RejectAdRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type AdResponse struct {
	ID               int64           `json:"id"`
	AdvertiserID     int64           `json:"advertiser_id"`
	Title            string          `json:"title"`
	ShortDescription string          `json:"short_description,omitempty"`
	FullDescription  string          `json:"full_description,omitempty"`
	CallToAction     string          `json:"call_to_action,omitempty"`
	WebsiteURL       string          `json:"website_url,omitempty"`
	Status           domain.AdStatus `json:"status"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	ReviewedBy       *int64          `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty"`
	StartDate        string          `json:"start_date,omitempty"`
	EndDate          string          `json:"end_date,omitempty"`
	TotalImpressions int64           `json:"total_impressions"`
	TotalClicks      int64           `json:"total_clicks"`
	IsFeatured       bool            `json:"is_featured"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewAdResponse(a *domain.Ad) AdResponse {
	resp := AdResponse{
		ID:               a.ID,
		AdvertiserID:     a.AdvertiserID,
		Title:            a.Title,
		ShortDescription: a.ShortDescription,
		FullDescription:  a.FullDescription,
		CallToAction:     a.CallToAction,
		WebsiteURL:       a.WebsiteURL,
		Status:           a.Status,
		RejectionReason:  a.RejectionReason,
		ReviewedBy:       a.ReviewedBy,
		ReviewedAt:       a.ReviewedAt,
		TotalImpressions: a.TotalImpressions,
		TotalClicks:      a.TotalClicks,
		IsFeatured:       a.IsFeatured,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.StartDate != nil {
		resp.StartDate = domain.FormatDate(*a.StartDate)
	}
	if a.EndDate != nil {
		resp.EndDate = domain.FormatDate(*a.EndDate)
	}
	return resp
}

func NewAdResponses(items []domain.Ad) []AdResponse {
	out := make([]AdResponse, 0, len(items))
	for i := range items {
		out = append(out, NewAdResponse(&items[i]))
	}
	return out
}

// Statistics reports delivery counters. CTR is clicks per hundred impressions.
type Statistics struct {
	AdID        int64  `json:"ad_id"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
	CTR         string `json:"ctr"`
}

package domain

import "time"

type AdStatus string

const (
	AdDraft         AdStatus = "draft"
	AdPendingReview AdStatus = "pending_review"
	AdApproved      AdStatus = "approved"
	AdRejected      AdStatus = "rejected"
	AdLive          AdStatus = "live"
	AdPaused        AdStatus = "paused"
	AdExpired       AdStatus = "expired"
)

var adTransitions = map[AdStatus][]AdStatus{
	AdDraft:         {AdPendingReview},
	AdPendingReview: {AdApproved, AdRejected},
	AdRejected:      {AdPendingReview},
	AdApproved:      {AdLive},
	AdLive:          {AdExpired, AdPaused},
}

// CanTransitionTo reports whether the ad lifecycle allows moving from s to next.
func (s AdStatus) CanTransitionTo(next AdStatus) bool {
	for _, allowed := range adTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether the owner may still change the ad content.
func (s AdStatus) IsEditable() bool {
	return s == AdDraft || s == AdRejected
}

// IsBookable reports whether placements may be booked for an ad in this status.
func (s AdStatus) IsBookable() bool {
	return s == AdApproved || s == AdLive
}

type Ad struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	AdvertiserID     int64      `json:"advertiser_id" gorm:"not null;index"`
	Title            string     `json:"title" gorm:"size:200;not null"`
	ShortDescription string     `json:"short_description,omitempty" gorm:"size:500"`
	FullDescription  string     `json:"full_description,omitempty" gorm:"type:text"`
	CallToAction     string     `json:"call_to_action,omitempty" gorm:"size:100"`
	WebsiteURL       string     `json:"website_url,omitempty" gorm:"size:500"`
	Status           AdStatus   `json:"status" gorm:"type:varchar(20);not null;default:draft;index"`
	RejectionReason  string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	ReviewedBy       *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty" gorm:"type:date"`
	EndDate          *time.Time `json:"end_date,omitempty" gorm:"type:date"`
	TotalImpressions int64      `json:"total_impressions" gorm:"not null;default:0"`
	TotalClicks      int64      `json:"total_clicks" gorm:"not null;default:0"`
	IsFeatured       bool       `json:"is_featured" gorm:"not null;default:false"`
	PriorityOrder    int        `json:"priority_order" gorm:"not null;default:0"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Advertiser *User `json:"-" gorm:"foreignKey:AdvertiserID;constraint:OnDelete:CASCADE"`
}

func (Ad) TableName() string { return "ads" }

package ad

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admarket/internal/apperror"
	"admarket/internal/domain"
	"admarket/internal/events"
	"admarket/internal/logger"
	"admarket/internal/pkg/params"
	"admarket/internal/pkg/validator"
	"admarket/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store  *repository.Store
	events EventPublisher
	log    *logger.Logger
}

func NewService(store *repository.Store, publisher EventPublisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: store, events: publisher, log: log}
}

func (s *Service) Create(ctx context.Context, r domain.Requester, req CreateAdRequest) (*domain.Ad, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	ad := &domain.Ad{
		AdvertiserID:     r.UserID,
		Title:            strings.TrimSpace(req.Title),
		ShortDescription: req.ShortDescription,
		FullDescription:  req.FullDescription,
		CallToAction:     req.CallToAction,
		WebsiteURL:       req.WebsiteURL,
		Status:           domain.AdDraft,
		StartDate:        start,
		EndDate:          end,
	}
	if err := s.store.Ads.Create(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// Update edits content while the ad is still a draft or was rejected.
func (s *Service) Update(ctx context.Context, r domain.Requester, id int64, req UpdateAdRequest) (*domain.Ad, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	var updated *domain.Ad
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		ad, err := tx.Ads.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if ad.AdvertiserID != r.UserID {
			return apperror.Forbidden("only the advertiser can edit this ad", nil)
		}
		if !ad.Status.IsEditable() {
			return apperror.InvalidTransition(fmt.Sprintf("ad cannot be edited in status %s", ad.Status), nil)
		}

		if req.Title != nil {
			ad.Title = strings.TrimSpace(*req.Title)
		}
		if req.ShortDescription != nil {
			ad.ShortDescription = *req.ShortDescription
		}
		if req.FullDescription != nil {
			ad.FullDescription = *req.FullDescription
		}
		if req.CallToAction != nil {
			ad.CallToAction = *req.CallToAction
		}
		if req.WebsiteURL != nil {
			ad.WebsiteURL = *req.WebsiteURL
		}
		if req.StartDate != nil || req.EndDate != nil {
			startRaw, endRaw := formatOptional(ad.StartDate), formatOptional(ad.EndDate)
			if req.StartDate != nil {
				startRaw = *req.StartDate
			}
			if req.EndDate != nil {
				endRaw = *req.EndDate
			}
			start, end, err := parseWindow(startRaw, endRaw)
			if err != nil {
				return err
			}
			ad.StartDate, ad.EndDate = start, end
		}

		if err := tx.Ads.Save(ctx, ad); err != nil {
			return err
		}
		updated = ad
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Submit sends a draft or rejected ad to moderation.
func (s *Service) Submit(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error) {
	return s.transition(ctx, id, domain.AdPendingReview, events.AdSubmitted, func(ad *domain.Ad) error {
		if ad.AdvertiserID != r.UserID {
			return apperror.Forbidden("only the advertiser can submit this ad", nil)
		}
		ad.RejectionReason = ""
		return nil
	})
}

func (s *Service) Approve(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error) {
	if !r.IsStaff() {
		return nil, apperror.Forbidden("only staff can review ads", nil)
	}
	return s.transition(ctx, id, domain.AdApproved, events.AdApproved, func(ad *domain.Ad) error {
		markReviewed(ad, r.UserID)
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, r domain.Requester, id int64, reason string) (*domain.Ad, error) {
	if !r.IsStaff() {
		return nil, apperror.Forbidden("only staff can review ads", nil)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.FieldValidation("reason", "rejection reason is required")
	}
	return s.transition(ctx, id, domain.AdRejected, events.AdRejected, func(ad *domain.Ad) error {
		markReviewed(ad, r.UserID)
		ad.RejectionReason = reason
		return nil
	})
}

// Publish puts an approved ad live.
func (s *Service) Publish(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error) {
	return s.transition(ctx, id, domain.AdLive, events.AdPublished, ownerOrStaff(r))
}

func (s *Service) Pause(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error) {
	return s.transition(ctx, id, domain.AdPaused, events.AdPaused, ownerOrStaff(r))
}

// Expire ends a live ad. It is driven by the lifecycle job, not by users.
func (s *Service) Expire(ctx context.Context, id int64) (*domain.Ad, error) {
	return s.transition(ctx, id, domain.AdExpired, events.AdExpired, nil)
}

// ExpireEnded expires every live ad whose end date is before today and returns how many moved.
func (s *Service) ExpireEnded(ctx context.Context, today time.Time) (int, error) {
	ads, err := s.store.Ads.ListLiveEndedBefore(ctx, domain.DateOf(today))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ad := range ads {
		if _, err := s.Expire(ctx, ad.ID); err != nil {
			if apperror.Is(err, apperror.KindInvalidTransition) {
				continue
			}
			return expired, fmt.Errorf("expire ad %d: %w", ad.ID, err)
		}
		expired++
	}
	return expired, nil
}

func (s *Service) Get(ctx context.Context, r domain.Requester, id int64) (*domain.Ad, error) {
	ad, err := s.store.Ads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.CanAccess(ad.AdvertiserID) {
		return nil, apperror.Forbidden("you can only view your own ads", nil)
	}
	return ad, nil
}

func (s *Service) ListMine(ctx context.Context, r domain.Requester, status string, page, limit int) ([]domain.Ad, int64, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, 0, err
	}
	return s.store.Ads.List(ctx, repository.AdFilter{
		AdvertiserID: r.UserID,
		Status:       st,
		Offset:       params.Offset(page, limit),
		Limit:        limit,
	})
}

// ListPendingReview is the moderation queue.
func (s *Service) ListPendingReview(ctx context.Context, r domain.Requester, page, limit int) ([]domain.Ad, int64, error) {
	if !r.IsStaff() {
		return nil, 0, apperror.Forbidden("only staff can review ads", nil)
	}
	return s.store.Ads.List(ctx, repository.AdFilter{
		Status: domain.AdPendingReview,
		Offset: params.Offset(page, limit),
		Limit:  limit,
	})
}

func (s *Service) Statistics(ctx context.Context, r domain.Requester, id int64) (*Statistics, error) {
	ad, err := s.Get(ctx, r, id)
	if err != nil {
		return nil, err
	}
	return &Statistics{
		AdID:        ad.ID,
		Impressions: ad.TotalImpressions,
		Clicks:      ad.TotalClicks,
		CTR:         clickThroughRate(ad.TotalClicks, ad.TotalImpressions),
	}, nil
}

func (s *Service) TrackImpression(ctx context.Context, id int64) error {
	return s.track(ctx, id, "total_impressions")
}

func (s *Service) TrackClick(ctx context.Context, id int64) error {
	return s.track(ctx, id, "total_clicks")
}

func (s *Service) track(ctx context.Context, id int64, column string) error {
	ok, err := s.store.Ads.IncrementCounter(ctx, id, column)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("live ad not found", nil)
	}
	return nil
}

// transition locks the ad, checks the lifecycle edge, applies mutate and saves.
func (s *Service) transition(ctx context.Context, id int64, to domain.AdStatus, evt events.Type, mutate func(*domain.Ad) error) (*domain.Ad, error) {
	var out *domain.Ad
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		ad, err := tx.Ads.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(ad); err != nil {
				return err
			}
		}
		if !ad.Status.CanTransitionTo(to) {
			return apperror.InvalidTransition(fmt.Sprintf("ad cannot move from %s to %s", ad.Status, to), nil)
		}
		ad.Status = to
		if err := tx.Ads.Save(ctx, ad); err != nil {
			return err
		}
		out = ad
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"ad_id": out.ID, "status": out.Status}).Info("ad status changed")
	e := events.New(evt, out.ID, out.AdvertiserID, map[string]interface{}{
		"status": string(out.Status),
		"title":  out.Title,
	})
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", evt).Warn("failed to publish ad event")
	}
	return out, nil
}

func ownerOrStaff(r domain.Requester) func(*domain.Ad) error {
	return func(ad *domain.Ad) error {
		if !r.CanAccess(ad.AdvertiserID) {
			return apperror.Forbidden("you can only manage your own ads", nil)
		}
		return nil
	}
}

func markReviewed(ad *domain.Ad, reviewerID int64) {
	now := time.Now().UTC()
	ad.ReviewedBy = &reviewerID
	ad.ReviewedAt = &now
}

func clickThroughRate(clicks, impressions int64) string {
	if impressions == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(clicks).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(impressions)).
		StringFixed(2)
}

func parseStatus(raw string) (domain.AdStatus, error) {
	if raw == "" {
		return "", nil
	}
	st := domain.AdStatus(raw)
	switch st {
	case domain.AdDraft, domain.AdPendingReview, domain.AdApproved, domain.AdRejected,
		domain.AdLive, domain.AdPaused, domain.AdExpired:
		return st, nil
	}
	return "", apperror.FieldValidation("status", fmt.Sprintf("unknown ad status %q", raw))
}

// parseWindow reads the optional display window. Either bound may be empty.
func parseWindow(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	fields := map[string]string{}
	var start, end *time.Time

	if strings.TrimSpace(startRaw) != "" {
		d, err := domain.ParseDate(startRaw)
		if err != nil {
			fields["start_date"] = err.Error()
		} else {
			start = &d
		}
	}
	if strings.TrimSpace(endRaw) != "" {
		d, err := domain.ParseDate(endRaw)
		if err != nil {
			fields["end_date"] = err.Error()
		} else {
			end = &d
		}
	}
	if len(fields) > 0 {
		return nil, nil, apperror.ValidationFields("invalid display window", fields)
	}
	if start != nil && end != nil {
		if err := domain.ValidateRange(*start, *end); err != nil {
			return nil, nil, apperror.FieldValidation("dates", err.Error())
		}
	}
	return start, end, nil
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.FormatDate(*t)
}

package placement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admarket/internal/apperror"
	"admarket/internal/cache"
	"admarket/internal/domain"
	"admarket/internal/logger"
	"admarket/internal/pkg/params"
	"admarket/internal/pkg/validator"
	"admarket/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	defaultMaxFileSizeMB    = 10
	defaultMaxConcurrentAds = 1
)

type Service struct {
	store *repository.Store
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewService builds the catalog service. cache may be nil when Redis is disabled.
func NewService(store *repository.Store, c Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{store: store, cache: c, ttl: ttl, log: log}
}

func (s *Service) List(ctx context.Context, activeOnly bool, page, limit int) ([]domain.Placement, int64, error) {
	key := fmt.Sprintf("%s:%t:%d:%d", cache.PrefixPlacementList, activeOnly, page, limit)

	var cached placementPage
	if s.readCache(ctx, key, &cached) {
		return cached.Items, cached.Total, nil
	}

	items, total, err := s.store.Placements.List(ctx, activeOnly, params.Offset(page, limit), limit)
	if err != nil {
		return nil, 0, err
	}
	s.writeCache(ctx, key, placementPage{Items: items, Total: total})
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Placement, error) {
	key := cache.Key(cache.PrefixPlacement, id)

	var cached domain.Placement
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := s.store.Placements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, p)
	return p, nil
}

func (s *Service) Create(ctx context.Context, r domain.Requester, req CreatePlacementRequest) (*domain.Placement, error) {
	if !r.IsStaff() {
		return nil, apperror.Forbidden("only staff can manage placements", nil)
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := validatePrice(req.BasePricePerDay); err != nil {
		return nil, err
	}

	p := &domain.Placement{
		PlacementName:    strings.TrimSpace(req.PlacementName),
		PlacementCode:    strings.ToUpper(strings.TrimSpace(req.PlacementCode)),
		Description:      req.Description,
		Dimensions:       req.Dimensions,
		BasePricePerDay:  req.BasePricePerDay,
		MaxFileSizeMB:    defaultMaxFileSizeMB,
		IsActive:         true,
		IsPremium:        req.IsPremium,
		MaxConcurrentAds: defaultMaxConcurrentAds,
	}
	if req.MaxFileSizeMB != nil {
		p.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if req.MaxConcurrentAds != nil {
		p.MaxConcurrentAds = *req.MaxConcurrentAds
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.store.Placements.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	s.log.WithField("placement_id", p.ID).WithField("code", p.PlacementCode).Info("placement created")
	return p, nil
}

// Update edits catalog data. Existing bookings keep the price they were created with.
func (s *Service) Update(ctx context.Context, r domain.Requester, id int64, req UpdatePlacementRequest) (*domain.Placement, error) {
	if !r.IsStaff() {
		return nil, apperror.Forbidden("only staff can manage placements", nil)
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	p, err := s.store.Placements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PlacementName != nil {
		p.PlacementName = strings.TrimSpace(*req.PlacementName)
	}
	if req.PlacementCode != nil {
		p.PlacementCode = strings.ToUpper(strings.TrimSpace(*req.PlacementCode))
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Dimensions != nil {
		p.Dimensions = *req.Dimensions
	}
	if req.BasePricePerDay != nil {
		if err := validatePrice(*req.BasePricePerDay); err != nil {
			return nil, err
		}
		p.BasePricePerDay = *req.BasePricePerDay
	}
	if req.MaxFileSizeMB != nil {
		p.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.IsPremium != nil {
		p.IsPremium = *req.IsPremium
	}
	if req.MaxConcurrentAds != nil {
		p.MaxConcurrentAds = *req.MaxConcurrentAds
	}

	if err := s.store.Placements.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return p, nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperror.FieldValidation("base_price_per_day", "must be greater than 0")
	}
	if price.Exponent() < -2 {
		return apperror.FieldValidation("base_price_per_day", "must have at most 2 decimal places")
	}
	return nil
}

// Cache failures degrade to database reads.

func (s *Service) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("placement cache read failed")
		return false
	}
	return hit
}

func (s *Service) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("placement cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.Key(cache.PrefixPlacement, id)); err != nil {
		s.log.WithError(err).Warn("placement cache invalidation failed")
	}
	if err := s.cache.DeleteByPrefix(ctx, cache.PrefixPlacementList+":"); err != nil {
		s.log.WithError(err).Warn("placement list cache invalidation failed")
	}
}

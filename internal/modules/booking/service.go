package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admarket/internal/apperror"
	"admarket/internal/domain"
	"admarket/internal/events"
	"admarket/internal/logger"
	"admarket/internal/pkg/params"
	"admarket/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store        *repository.Store
	events       EventPublisher
	ads          AdExpirer
	log          *logger.Logger
	reminderDays int
}

func NewService(store *repository.Store, publisher EventPublisher, ads AdExpirer, log *logger.Logger, reminderDays int) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:        store,
		events:       publisher,
		ads:          ads,
		log:          log,
		reminderDays: reminderDays,
	}
}

// Create books a placement for an ad over an inclusive date range. The placement row stays
// locked from the conflict query until the insert commits.
func (s *Service) Create(ctx context.Context, r domain.Requester, req CreateBookingRequest) (*domain.Booking, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if req.DiscountPercentage != nil {
		discount = *req.DiscountPercentage
	}
	if err := domain.ValidateDiscount(discount); err != nil {
		return nil, apperror.FieldValidation("discount_percentage", err.Error())
	}

	var created *domain.Booking
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		placement, err := tx.Placements.LockByID(ctx, req.PlacementID)
		if err != nil {
			return err
		}
		if !placement.IsActive {
			return apperror.FieldValidation("placement_id", "placement is not active")
		}

		ad, err := tx.Ads.GetByID(ctx, req.AdID)
		if err != nil {
			return err
		}
		if !r.CanAccess(ad.AdvertiserID) {
			return apperror.Forbidden("you can only book placements for your own ads", nil)
		}
		if !ad.Status.IsBookable() {
			return apperror.FieldValidation("ad_id", fmt.Sprintf("ad must be approved or live, current status is %s", ad.Status))
		}

		conflicts, err := tx.Bookings.FindConflicts(ctx, placement.ID, start, end, 0)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{PlacementID: placement.ID, Bookings: conflicts}
		}

		pricing, err := domain.QuotePrice(placement.BasePricePerDay, start, end, discount)
		if err != nil {
			return apperror.Validation(err.Error(), err)
		}

		b := domain.NewBooking(ad.ID, placement.ID, ad.AdvertiserID, start, end, pricing)
		if err := tx.Bookings.Create(ctx, b); err != nil {
			return err
		}
		b.Ad, b.Placement = ad, placement
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":   created.ID,
		"placement_id": created.PlacementID,
		"ad_id":        created.AdID,
		"final_price":  money(created.FinalPrice),
	}).Info("booking created")
	s.Announce(ctx, events.BookingCreated, created)
	return created, nil
}

// Cancel moves a pending or confirmed booking to cancelled. Cancelling twice fails.
func (s *Service) Cancel(ctx context.Context, r domain.Requester, id int64, reason string) (*domain.Booking, error) {
	var cancelled *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.CanAccess(b.UserID) {
			return apperror.Forbidden("you can only cancel your own bookings", nil)
		}
		if err := cancelLocked(ctx, tx, b, reason); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"booking_id": id, "user_id": r.UserID}).Info("booking cancelled")
	s.Announce(ctx, events.BookingCancelled, cancelled)
	return cancelled, nil
}

// CancelTx cancels inside a caller's transaction when the booking is still cancellable.
// It reports false, without error, when the booking is past the cancellable states.
func (s *Service) CancelTx(ctx context.Context, tx *repository.Store, id int64, reason string) (*domain.Booking, bool, error) {
	b, err := tx.Bookings.LockByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !b.Status.IsCancellable() {
		return b, false, nil
	}
	if err := cancelLocked(ctx, tx, b, reason); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func cancelLocked(ctx context.Context, tx *repository.Store, b *domain.Booking, reason string) error {
	if !b.Status.IsCancellable() {
		return apperror.InvalidTransition(fmt.Sprintf("booking cannot be cancelled from status %s", b.Status), nil)
	}

	now := time.Now().UTC()
	err := tx.Bookings.UpdateFields(ctx, b.ID, map[string]interface{}{
		"status":              domain.BookingCancelled,
		"cancellation_reason": reason,
		"cancelled_at":        now,
	})
	if err != nil {
		return err
	}
	b.Status = domain.BookingCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	return nil
}

// ConfirmTx confirms a pending booking inside the caller's transaction. The conflict check
// runs again with the placement locked, so two confirmed bookings can never overlap.
func (s *Service) ConfirmTx(ctx context.Context, tx *repository.Store, id int64) (*domain.Booking, error) {
	current, err := tx.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Placements.LockByID(ctx, current.PlacementID); err != nil {
		return nil, err
	}
	b, err := tx.Bookings.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(domain.BookingConfirmed) {
		return nil, apperror.InvalidTransition(fmt.Sprintf("booking cannot be confirmed from status %s", b.Status), nil)
	}

	conflicts, err := tx.Bookings.FindConflicts(ctx, b.PlacementID, b.StartDate, b.EndDate, b.ID)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{PlacementID: b.PlacementID, Bookings: conflicts}
	}

	if err := tx.Bookings.UpdateFields(ctx, b.ID, map[string]interface{}{"status": domain.BookingConfirmed}); err != nil {
		return nil, err
	}
	b.Status = domain.BookingConfirmed
	b.Ad, b.Placement = current.Ad, current.Placement
	return b, nil
}

// Confirm runs ConfirmTx in its own transaction.
func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	var confirmed *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := s.ConfirmTx(ctx, tx, id)
		confirmed = b
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Announce(ctx, events.BookingConfirmed, confirmed)
	return confirmed, nil
}

func (s *Service) Get(ctx context.Context, r domain.Requester, id int64) (*domain.Booking, error) {
	b, err := s.store.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.CanAccess(b.UserID) {
		return nil, apperror.Forbidden("you can only view your own bookings", nil)
	}
	return b, nil
}

func (s *Service) ListMine(ctx context.Context, r domain.Requester, status string, page, limit int) ([]domain.Booking, int64, error) {
	st := domain.BookingStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, apperror.FieldValidation("status", fmt.Sprintf("unknown booking status %q", status))
	}
	return s.store.Bookings.List(ctx, repository.BookingFilter{
		UserID: r.UserID,
		Status: st,
		Offset: params.Offset(page, limit),
		Limit:  limit,
	})
}

func (s *Service) MyStatistics(ctx context.Context, r domain.Requester) (*Statistics, error) {
	stats, err := s.store.Bookings.StatsForUser(ctx, r.UserID)
	if err != nil {
		return nil, err
	}

	out := &Statistics{
		Pending:      stats.ByStatus[domain.BookingPending],
		Confirmed:    stats.ByStatus[domain.BookingConfirmed],
		Active:       stats.ByStatus[domain.BookingActive],
		Completed:    stats.ByStatus[domain.BookingCompleted],
		Cancelled:    stats.ByStatus[domain.BookingCancelled],
		TotalRevenue: money(stats.TotalRevenue),
	}
	for _, n := range stats.ByStatus {
		out.TotalBookings += n
	}
	return out, nil
}

// Calendar lists confirmed and active bookings intersecting the optional window.
func (s *Service) Calendar(ctx context.Context, q CalendarQuery) ([]repository.CalendarEntry, error) {
	filter := repository.CalendarFilter{PlacementID: q.PlacementID}
	fields := map[string]string{}

	if q.StartDate != "" {
		d, err := domain.ParseDate(q.StartDate)
		if err != nil {
			fields["start_date"] = err.Error()
		} else {
			filter.Start = &d
		}
	}
	if q.EndDate != "" {
		d, err := domain.ParseDate(q.EndDate)
		if err != nil {
			fields["end_date"] = err.Error()
		} else {
			filter.End = &d
		}
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields("invalid calendar window", fields)
	}
	if filter.Start != nil && filter.End != nil {
		if err := domain.ValidateRange(*filter.Start, *filter.End); err != nil {
			return nil, apperror.FieldValidation("dates", err.Error())
		}
	}

	return s.store.Bookings.Calendar(ctx, filter)
}

// CheckAvailability answers whether the placement is free over [start, end], using the same
// conflict query as Create.
func (s *Service) CheckAvailability(ctx context.Context, placementID int64, startRaw, endRaw string) (*Availability, error) {
	start, end, err := parseRange(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Placements.GetByID(ctx, placementID); err != nil {
		return nil, err
	}

	conflicts, err := s.store.Bookings.FindConflicts(ctx, placementID, start, end, 0)
	if err != nil {
		return nil, err
	}
	return &Availability{
		IsAvailable:         len(conflicts) == 0,
		ConflictingBookings: summarize(conflicts),
	}, nil
}

// AdvanceLifecycle applies the date-driven transitions for today: confirmed bookings that
// started become active, active bookings that ended become completed, upcoming bookings get
// a reminder event and ended live ads expire. Per-item failures are logged and joined.
func (s *Service) AdvanceLifecycle(ctx context.Context, today time.Time) (*LifecycleReport, error) {
	today = domain.DateOf(today)
	report := &LifecycleReport{}
	var errs []error

	due, err := s.store.Bookings.DueForActivation(ctx, today)
	if err != nil {
		return nil, err
	}
	for _, b := range due {
		moved, err := s.advance(ctx, b.ID, domain.BookingActive, "start_notification_sent")
		if err != nil {
			errs = append(errs, fmt.Errorf("activate booking %d: %w", b.ID, err))
			continue
		}
		if moved != nil {
			report.Activated++
			s.Announce(ctx, events.BookingActivated, moved)
		}
	}

	due, err = s.store.Bookings.DueForCompletion(ctx, today)
	if err != nil {
		return nil, err
	}
	for _, b := range due {
		moved, err := s.advance(ctx, b.ID, domain.BookingCompleted, "end_notification_sent")
		if err != nil {
			errs = append(errs, fmt.Errorf("complete booking %d: %w", b.ID, err))
			continue
		}
		if moved != nil {
			report.Completed++
			s.Announce(ctx, events.BookingCompleted, moved)
		}
	}

	due, err = s.store.Bookings.DueForReminder(ctx, today.AddDate(0, 0, s.reminderDays))
	if err != nil {
		return nil, err
	}
	for _, b := range due {
		reminded, err := s.remind(ctx, b.ID, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("remind booking %d: %w", b.ID, err))
			continue
		}
		if reminded != nil {
			report.Reminded++
			s.Announce(ctx, events.BookingReminder, reminded)
		}
	}

	if s.ads != nil {
		n, err := s.ads.ExpireEnded(ctx, today)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire ads: %w", err))
		}
		report.AdsExpired = n
	}

	s.log.WithFields(logrus.Fields{
		"day":         domain.FormatDate(today),
		"activated":   report.Activated,
		"completed":   report.Completed,
		"reminded":    report.Reminded,
		"ads_expired": report.AdsExpired,
	}).Info("booking lifecycle advanced")

	return report, errors.Join(errs...)
}

// advance moves one booking to the next status and raises its notification flag. It returns
// nil when the booking already left the expected state.
func (s *Service) advance(ctx context.Context, id int64, to domain.BookingStatus, flag string) (*domain.Booking, error) {
	var moved *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(to) {
			return nil
		}
		if err := tx.Bookings.UpdateFields(ctx, id, map[string]interface{}{"status": to, flag: true}); err != nil {
			return err
		}
		b.Status = to
		moved = b
		return nil
	})
	return moved, err
}

// remind flags an upcoming confirmed booking as reminded. It returns nil when the booking
// was cancelled, already reminded or starts today or earlier.
func (s *Service) remind(ctx context.Context, id int64, today time.Time) (*domain.Booking, error) {
	var reminded *domain.Booking
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingConfirmed || b.ReminderSent || !b.StartDate.After(today) {
			return nil
		}
		if err := tx.Bookings.UpdateFields(ctx, id, map[string]interface{}{"reminder_sent": true}); err != nil {
			return err
		}
		b.ReminderSent = true
		reminded = b
		return nil
	})
	return reminded, err
}

// Announce publishes a booking event. Failures are logged and never surface to the caller.
func (s *Service) Announce(ctx context.Context, t events.Type, b *domain.Booking) {
	if b == nil {
		return
	}
	e := events.New(t, b.ID, b.UserID, map[string]interface{}{
		"placement_id": b.PlacementID,
		"ad_id":        b.AdID,
		"start_date":   domain.FormatDate(b.StartDate),
		"end_date":     domain.FormatDate(b.EndDate),
		"status":       string(b.Status),
		"final_price":  money(b.FinalPrice),
	})
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": t, "booking_id": b.ID}).Warn("failed to publish booking event")
	}
}

// parseRange validates both dates before anything touches the database.
func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	fields := map[string]string{}

	start, err := domain.ParseDate(startRaw)
	if err != nil {
		fields["start_date"] = err.Error()
	}
	end, err := domain.ParseDate(endRaw)
	if err != nil {
		fields["end_date"] = err.Error()
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, apperror.ValidationFields("invalid dates", fields)
	}

	if err := domain.ValidateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, apperror.FieldValidation("dates", err.Error())
	}
	return start, end, nil
}

package payment

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const refundCancellationReason = "refunded"

type Service struct {
	store    *repository.Store
	bookings BookingLifecycle
	events   EventPublisher
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store *repository.Store, bookings BookingLifecycle, publisher EventPublisher, log *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:    store,
		bookings: bookings,
		events:   publisher,
		log:      log,
		now:      time.Now,
	}
}

// Create records a completed payment for a pending booking and confirms the booking in the
// same transaction. Gateway settlement happens outside this service.
func (s *Service) Create(ctx context.Context, r domain.Requester, req CreatePaymentRequest) (*domain.Payment, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, apperror.FieldValidation("amount", "must be greater than 0")
	}

	var (
		payment   *domain.Payment
		confirmed *domain.Booking
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if !r.CanAccess(b.UserID) {
			return apperror.Forbidden("you can only pay for your own bookings", nil)
		}
		if b.Status != domain.BookingPending {
			return apperror.InvalidTransition(fmt.Sprintf("booking in status %s is not awaiting payment", b.Status), nil)
		}

		amount := b.FinalPrice
		if req.Amount != nil {
			if !req.Amount.Equal(b.FinalPrice) {
				return apperror.FieldValidation("amount", fmt.Sprintf("amount must equal the booking final price %s", b.FinalPrice.StringFixed(2)))
			}
			amount = *req.Amount
		}

		confirmed, err = s.bookings.ConfirmTx(ctx, tx, b.ID)
		if err != nil {
			return err
		}

		bookingID := b.ID
		payment = &domain.Payment{
			UserID:        b.UserID,
			BookingID:     &bookingID,
			Amount:        amount,
			Currency:      domain.DefaultCurrency,
			PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
			Status:        domain.PaymentCompleted,
			TransactionID: "TXN-" + strings.ToUpper(uuid.NewString()),
			InvoiceNumber: domain.InvoiceNumber(s.now(), b.UserID),
			Notes:         req.Notes,
		}
		return tx.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": confirmed.ID,
		"invoice":    payment.InvoiceNumber,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("payment recorded")
	s.publish(ctx, events.PaymentCompleted, payment)
	s.bookings.Announce(ctx, events.BookingConfirmed, confirmed)
	return payment, nil
}

func (s *Service) Get(ctx context.Context, r domain.Requester, id int64) (*domain.Payment, error) {
	p, err := s.store.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.CanAccess(p.UserID) {
		return nil, apperror.Forbidden("you can only view your own payments", nil)
	}
	return p, nil
}

func (s *Service) ListMine(ctx context.Context, r domain.Requester, page, limit int) ([]domain.Payment, int64, error) {
	return s.store.Payments.ListByUser(ctx, r.UserID, params.Offset(page, limit), limit)
}

// Refund marks a completed payment refunded and cancels its booking if it is still
// pending or confirmed.
func (s *Service) Refund(ctx context.Context, r domain.Requester, id int64, reason string) (*domain.Payment, error) {
	if !r.IsStaff() {
		return nil, apperror.Forbidden("only staff can refund payments", nil)
	}

	var (
		refunded  *domain.Payment
		cancelled *domain.Booking
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != domain.PaymentCompleted {
			return apperror.InvalidTransition(fmt.Sprintf("payment in status %s cannot be refunded", p.Status), nil)
		}
		if err := tx.Payments.UpdateStatus(ctx, p.ID, domain.PaymentRefunded); err != nil {
			return err
		}
		p.Status = domain.PaymentRefunded
		if reason = strings.TrimSpace(reason); reason != "" {
			p.Notes = strings.TrimSpace(p.Notes + "\nrefund: " + reason)
			if err := tx.DB().Model(p).Update("notes", p.Notes).Error; err != nil {
				return err
			}
		}

		if p.BookingID != nil {
			b, ok, err := s.bookings.CancelTx(ctx, tx, *p.BookingID, refundCancellationReason)
			if err != nil {
				return err
			}
			if ok {
				cancelled = b
			}
		}
		refunded = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"payment_id": id, "staff_id": r.UserID}).Info("payment refunded")
	s.publish(ctx, events.PaymentRefunded, refunded)
	if cancelled != nil {
		s.bookings.Announce(ctx, events.BookingCancelled, cancelled)
	}
	return refunded, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, p *domain.Payment) {
	data := map[string]interface{}{
		"amount":         p.Amount.StringFixed(2),
		"currency":       p.Currency,
		"invoice_number": p.InvoiceNumber,
		"status":         string(p.Status),
	}
	if p.BookingID != nil {
		data["booking_id"] = *p.BookingID
	}
	if err := s.events.Publish(ctx, events.New(t, p.ID, p.UserID, data)); err != nil {
		s.log.WithError(err).WithField("event", t).Warn("failed to publish payment event")
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/payments"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const bookingIDPrefix = "bkg_"

const (
	eventBookingCreated   = "booking.created"
	eventBookingCancelled = "booking.cancelled"
)

var (
	// ErrBookingInvalidInput indicates validation failures for booking operations.
	ErrBookingInvalidInput = errors.New("booking: invalid input")
	// ErrBookingNotFound indicates the booking does not exist or belongs to another user.
	ErrBookingNotFound = errors.New("booking: not found")
	// ErrBookingSessionIncomplete indicates the intake session has not been completed.
	ErrBookingSessionIncomplete = errors.New("booking: intake session not completed")
	// ErrBookingCoachUnavailable indicates the coach can no longer take bookings.
	ErrBookingCoachUnavailable = errors.New("booking: coach unavailable")
	// ErrBookingAlreadyCancelled indicates the booking was cancelled earlier.
	ErrBookingAlreadyCancelled = errors.New("booking: already cancelled")
	// ErrBookingPastSlot indicates the requested slot is not in the future.
	ErrBookingPastSlot = errors.New("booking: scheduled time must be in the future")
)

// BookingServiceDeps bundles collaborators required to construct a BookingService.
type BookingServiceDeps struct {
	Bookings        repositories.BookingRepository
	Sessions        repositories.ChatSessionRepository
	Coaches         repositories.CoachRepository
	Pricing         *payments.Calculator
	Events          EventPublisher
	DurationMinutes int
	Clock           func() time.Time
	IDGenerator     func() string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type bookingService struct {
	bookings repositories.BookingRepository
	sessions repositories.ChatSessionRepository
	coaches  repositories.CoachRepository
	pricing  *payments.Calculator
	events   EventPublisher
	duration int
	clock    func() time.Time
	newID    func() string
	log      func(ctx context.Context, event string, fields map[string]any)
}

// NewBookingService wires dependencies into a concrete BookingService implementation.
func NewBookingService(deps BookingServiceDeps) (BookingService, error) {
	if deps.Bookings == nil {
		return nil, errors.New("booking service: booking repository is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("booking service: session repository is required")
	}
	if deps.Coaches == nil {
		return nil, errors.New("booking service: coach repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("booking service: pricing calculator is required")
	}
	if deps.DurationMinutes <= 0 {
		return nil, errors.New("booking service: duration must be positive")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return bookingIDPrefix + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bookingService{
		bookings: deps.Bookings,
		sessions: deps.Sessions,
		coaches:  deps.Coaches,
		pricing:  deps.Pricing,
		events:   deps.Events,
		duration: deps.DurationMinutes,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
		log:   logger,
	}, nil
}

// Create turns a completed intake session into a priced booking awaiting
// payment. The pricing breakdown is computed once here and embedded so later
// policy changes never reprice an existing booking.
func (s *bookingService) Create(ctx context.Context, cmd CreateBookingCommand) (BookingConfirmation, error) {
	userID := strings.TrimSpace(cmd.UserID)
	sessionID := strings.TrimSpace(cmd.ChatSessionID)
	switch {
	case userID == "":
		return BookingConfirmation{}, fmt.Errorf("%w: user id is required", ErrBookingInvalidInput)
	case sessionID == "":
		return BookingConfirmation{}, fmt.Errorf("%w: chat session id is required", ErrBookingInvalidInput)
	case cmd.ScheduledAt.IsZero():
		return BookingConfirmation{}, fmt.Errorf("%w: scheduled time is required", ErrBookingInvalidInput)
	}

	now := s.clock()
	scheduledAt := cmd.ScheduledAt.UTC()
	if !scheduledAt.After(now) {
		return BookingConfirmation{}, ErrBookingPastSlot
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return BookingConfirmation{}, ErrBookingSessionIncomplete
		}
		return BookingConfirmation{}, err
	}
	if session.UserID != userID {
		return BookingConfirmation{}, ErrBookingSessionIncomplete
	}
	if session.Status != domain.ChatSessionStatusCompleted {
		return BookingConfirmation{}, ErrBookingSessionIncomplete
	}

	coach, err := s.coaches.FindByID(ctx, session.CoachID)
	if err != nil {
		if isRepoNotFound(err) {
			return BookingConfirmation{}, ErrBookingCoachUnavailable
		}
		return BookingConfirmation{}, err
	}
	if coach.Status != domain.CoachStatusApproved {
		return BookingConfirmation{}, ErrBookingCoachUnavailable
	}

	pricing := s.pricing.BookingAmounts(ctx, coach.ConsultationFee)
	booking := domain.Booking{
		ID:              s.newID(),
		UserID:          userID,
		CoachID:         coach.ID,
		ConditionID:     session.ConditionID,
		ChatSessionID:   session.ID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: s.duration,
		Pricing:         pricing,
		BookingStatus:   domain.BookingStatusPendingPayment,
		PaymentStatus:   domain.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.bookings.Insert(ctx, booking); err != nil {
		return BookingConfirmation{}, err
	}

	s.publish(ctx, LifecycleEventMessage{
		EventType:  eventBookingCreated,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		CoachID:    booking.CoachID,
		Amount:     pricing.TotalAmount,
		OccurredAt: now,
	})
	s.log(ctx, "booking.created", map[string]any{
		"booking_id":   booking.ID,
		"coach_id":     booking.CoachID,
		"total_amount": pricing.TotalAmount,
	})
	return BookingConfirmation{
		Booking:        booking,
		PaymentSummary: payments.FormatBreakdown(pricing),
	}, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string, pager Pagination) (domain.Page[Booking], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Page[Booking]{}, fmt.Errorf("%w: user id is required", ErrBookingInvalidInput)
	}
	return s.bookings.ListByUser(ctx, userID, pager)
}

// Cancel applies the tiered refund policy against the scheduled time. Paid
// bookings get a refund breakdown persisted with the booking; unpaid ones are
// simply cancelled with nothing to return.
func (s *bookingService) Cancel(ctx context.Context, cmd CancelBookingCommand) (Booking, error) {
	userID := strings.TrimSpace(cmd.UserID)
	bookingID := strings.TrimSpace(cmd.BookingID)
	if userID == "" || bookingID == "" {
		return Booking{}, fmt.Errorf("%w: user id and booking id are required", ErrBookingInvalidInput)
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if isRepoNotFound(err) {
			return Booking{}, ErrBookingNotFound
		}
		return Booking{}, err
	}
	if booking.UserID != userID {
		return Booking{}, ErrBookingNotFound
	}
	if booking.BookingStatus == domain.BookingStatusCancelled {
		return Booking{}, ErrBookingAlreadyCancelled
	}

	now := s.clock()
	hoursBefore := booking.ScheduledAt.Sub(now).Hours()
	refund := s.pricing.Refund(ctx, booking.Pricing.TotalAmount, hoursBefore, booking.Pricing.PlatformFee)
	booking.Refund = &refund
	var refundAmount int64
	if booking.PaymentStatus == domain.PaymentStatusPaid {
		refundAmount = refund.RefundAmount
		if refund.RefundAmount > 0 {
			booking.PaymentStatus = domain.PaymentStatusRefunded
		}
	}
	booking.BookingStatus = domain.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.UpdatedAt = now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return Booking{}, err
	}

	s.publish(ctx, LifecycleEventMessage{
		EventType:  eventBookingCancelled,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		CoachID:    booking.CoachID,
		Amount:     refundAmount,
		OccurredAt: now,
	})
	s.log(ctx, "booking.cancelled", map[string]any{
		"booking_id":    booking.ID,
		"refund_amount": refundAmount,
		"reason":        strings.TrimSpace(cmd.Reason),
	})
	return booking, nil
}

// publish is best effort. A booking must not fail because the event bus is down.
func (s *bookingService) publish(ctx context.Context, msg LifecycleEventMessage) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishEvent(ctx, msg); err != nil {
		s.log(ctx, "booking.event_publish_failed", map[string]any{
			"event_type": msg.EventType,
			"booking_id": msg.BookingID,
			"error":      err.Error(),
		})
	}
}

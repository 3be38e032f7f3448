package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/payments"
)

type bookingFixture struct {
	svc      BookingService
	bookings *fakeBookingRepository
	sessions *fakeChatSessionRepository
	coaches  *fakeCoachRepository
	events   *fakeEventPublisher
	now      time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	completedAt := now.Add(-time.Hour)
	fx := &bookingFixture{
		bookings: newFakeBookingRepository(),
		sessions: newFakeChatSessionRepository(domain.ChatSession{
			ID:          "chat_done",
			UserID:      "usr_1",
			ConditionID: "cond_diabetes",
			CoachID:     "coach_1",
			Status:      domain.ChatSessionStatusCompleted,
			CompletedAt: &completedAt,
		}),
		coaches: newFakeCoachRepository(domain.Coach{
			ID:              "coach_1",
			UserID:          "usr_coach",
			Status:          domain.CoachStatusApproved,
			ConsultationFee: 800,
		}),
		events: &fakeEventPublisher{},
		now:    now,
	}
	svc, err := NewBookingService(BookingServiceDeps{
		Bookings:        fx.bookings,
		Sessions:        fx.sessions,
		Coaches:         fx.coaches,
		Pricing:         newTestCalculator(t),
		Events:          fx.events,
		DurationMinutes: 45,
		Clock:           fixedClock(now),
		IDGenerator:     func() string { return "bkg_test" },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	fx.svc = svc
	return fx
}

func TestBookingServiceCreate(t *testing.T) {
	t.Run("prices and persists the booking", func(t *testing.T) {
		fx := newBookingFixture(t)
		confirmation, err := fx.svc.Create(context.Background(), CreateBookingCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(72 * time.Hour),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		booking := confirmation.Booking
		if booking.ID != "bkg_test" || booking.CoachID != "coach_1" {
			t.Fatalf("unexpected booking: %+v", booking)
		}
		if booking.BookingStatus != domain.BookingStatusPendingPayment || booking.PaymentStatus != domain.PaymentStatusPending {
			t.Fatalf("unexpected statuses: %+v", booking)
		}
		if booking.DurationMinutes != 45 {
			t.Fatalf("expected 45 minute slot, got %d", booking.DurationMinutes)
		}
		// fee 800 at rate 0.25 with flat fee 50.
		pricing := booking.Pricing
		if pricing.CommissionAmount != 200 || pricing.CoachPayoutAmount != 600 || pricing.TotalAmount != 850 || pricing.PlatformEarnings != 250 {
			t.Fatalf("unexpected pricing: %+v", pricing)
		}
		if confirmation.PaymentSummary != "Coach Fee: ₹800 + Platform Fee: ₹50" {
			t.Fatalf("unexpected summary %q", confirmation.PaymentSummary)
		}
		if len(fx.events.events) != 1 || fx.events.events[0].EventType != "booking.created" {
			t.Fatalf("expected booking.created event, got %v", fx.events.events)
		}
		if fx.events.events[0].Amount != 850 {
			t.Fatalf("expected event amount 850, got %d", fx.events.events[0].Amount)
		}
	})

	t.Run("requires a completed session owned by the caller", func(t *testing.T) {
		fx := newBookingFixture(t)
		active := domain.ChatSession{ID: "chat_active", UserID: "usr_1", CoachID: "coach_1", Status: domain.ChatSessionStatusActive}
		fx.sessions.sessions[active.ID] = active

		cases := map[string]CreateBookingCommand{
			"active session":  {UserID: "usr_1", ChatSessionID: "chat_active", ScheduledAt: fx.now.Add(time.Hour)},
			"foreign session": {UserID: "usr_2", ChatSessionID: "chat_done", ScheduledAt: fx.now.Add(time.Hour)},
			"missing session": {UserID: "usr_1", ChatSessionID: "chat_nope", ScheduledAt: fx.now.Add(time.Hour)},
		}
		for name, cmd := range cases {
			if _, err := fx.svc.Create(context.Background(), cmd); !errors.Is(err, ErrBookingSessionIncomplete) {
				t.Fatalf("%s: expected ErrBookingSessionIncomplete, got %v", name, err)
			}
		}
	})

	t.Run("rejects past slots", func(t *testing.T) {
		fx := newBookingFixture(t)
		_, err := fx.svc.Create(context.Background(), CreateBookingCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(-time.Minute),
		})
		if !errors.Is(err, ErrBookingPastSlot) {
			t.Fatalf("expected ErrBookingPastSlot, got %v", err)
		}
	})

	t.Run("rejects coaches that lost approval", func(t *testing.T) {
		fx := newBookingFixture(t)
		coach := fx.coaches.coaches["coach_1"]
		coach.Status = domain.CoachStatusRejected
		fx.coaches.coaches["coach_1"] = coach
		_, err := fx.svc.Create(context.Background(), CreateBookingCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(time.Hour),
		})
		if !errors.Is(err, ErrBookingCoachUnavailable) {
			t.Fatalf("expected ErrBookingCoachUnavailable, got %v", err)
		}
	})

	t.Run("survives a failing event bus", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.events.err = errors.New("pubsub down")
		if _, err := fx.svc.Create(context.Background(), CreateBookingCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(time.Hour),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestBookingServiceCancel(t *testing.T) {
	paidBooking := func(scheduledAt time.Time) domain.Booking {
		return domain.Booking{
			ID:            "bkg_1",
			UserID:        "usr_1",
			CoachID:       "coach_1",
			ScheduledAt:   scheduledAt,
			Pricing:       domain.PricingBreakdown{ConsultationFee: 800, PlatformFee: 50, TotalAmount: 850},
			BookingStatus: domain.BookingStatusConfirmed,
			PaymentStatus: domain.PaymentStatusPaid,
		}
	}

	t.Run("full refund at 24 hours or more", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.bookings.bookings["bkg_1"] = paidBooking(fx.now.Add(24 * time.Hour))

		booking, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.Refund == nil {
			t.Fatalf("expected refund breakdown")
		}
		if booking.Refund.RefundAmount != 800 || booking.Refund.RefundPercentage != 1.0 || booking.Refund.PlatformRetains != 50 {
			t.Fatalf("unexpected refund: %+v", booking.Refund)
		}
		if booking.BookingStatus != domain.BookingStatusCancelled || booking.PaymentStatus != domain.PaymentStatusRefunded {
			t.Fatalf("unexpected statuses: %+v", booking)
		}
		if booking.CancelledAt == nil || !booking.CancelledAt.Equal(fx.now) {
			t.Fatalf("expected cancellation timestamp, got %v", booking.CancelledAt)
		}
		if len(fx.events.events) != 1 || fx.events.events[0].EventType != "booking.cancelled" || fx.events.events[0].Amount != 800 {
			t.Fatalf("unexpected events: %v", fx.events.events)
		}
	})

	t.Run("half refund between 12 and 24 hours", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.bookings.bookings["bkg_1"] = paidBooking(fx.now.Add(12 * time.Hour))

		booking, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.Refund.RefundAmount != 425 || booking.Refund.RefundPercentage != 0.5 || booking.Refund.PlatformRetains != 425 {
			t.Fatalf("unexpected refund: %+v", booking.Refund)
		}
	})

	t.Run("no refund under 12 hours keeps the payment", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.bookings.bookings["bkg_1"] = paidBooking(fx.now.Add(3 * time.Hour))

		booking, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.Refund.RefundAmount != 0 || booking.Refund.PlatformRetains != 850 {
			t.Fatalf("unexpected refund: %+v", booking.Refund)
		}
		if booking.PaymentStatus != domain.PaymentStatusPaid {
			t.Fatalf("expected payment untouched, got %q", booking.PaymentStatus)
		}
		if booking.BookingStatus != domain.BookingStatusCancelled {
			t.Fatalf("expected cancelled booking, got %q", booking.BookingStatus)
		}
	})

	t.Run("cancelling an unpaid booking refunds nothing", func(t *testing.T) {
		fx := newBookingFixture(t)
		unpaid := paidBooking(fx.now.Add(48 * time.Hour))
		unpaid.BookingStatus = domain.BookingStatusPendingPayment
		unpaid.PaymentStatus = domain.PaymentStatusPending
		fx.bookings.bookings["bkg_1"] = unpaid

		booking, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.PaymentStatus != domain.PaymentStatusPending {
			t.Fatalf("expected pending payment, got %q", booking.PaymentStatus)
		}
		if fx.events.events[0].Amount != 0 {
			t.Fatalf("expected zero refund amount in event, got %d", fx.events.events[0].Amount)
		}
	})

	t.Run("fee raised after booking does not shrink the refund", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.bookings.bookings["bkg_1"] = paidBooking(fx.now.Add(48 * time.Hour))

		repriced, err := payments.NewCalculator(payments.CalculatorDeps{
			Policy: payments.Policy{CommissionRate: 0.25, PlatformFee: 60},
		})
		if err != nil {
			t.Fatalf("unexpected calculator error: %v", err)
		}
		svc, err := NewBookingService(BookingServiceDeps{
			Bookings:        fx.bookings,
			Sessions:        fx.sessions,
			Coaches:         fx.coaches,
			Pricing:         repriced,
			Events:          fx.events,
			DurationMinutes: 45,
			Clock:           fixedClock(fx.now),
			IDGenerator:     func() string { return "bkg_test" },
		})
		if err != nil {
			t.Fatalf("unexpected constructor error: %v", err)
		}

		booking, err := svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.Refund.RefundAmount != 800 || booking.Refund.PlatformRetains != 50 {
			t.Fatalf("expected refund priced with the stored fee, got %+v", booking.Refund)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		fx := newBookingFixture(t)
		fx.bookings.bookings["bkg_1"] = paidBooking(fx.now.Add(48 * time.Hour))
		if _, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_2", BookingID: "bkg_1"}); !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})

	t.Run("cannot cancel twice", func(t *testing.T) {
		fx := newBookingFixture(t)
		cancelled := paidBooking(fx.now.Add(48 * time.Hour))
		cancelled.BookingStatus = domain.BookingStatusCancelled
		fx.bookings.bookings["bkg_1"] = cancelled
		if _, err := fx.svc.Cancel(context.Background(), CancelBookingCommand{UserID: "usr_1", BookingID: "bkg_1"}); !errors.Is(err, ErrBookingAlreadyCancelled) {
			t.Fatalf("expected ErrBookingAlreadyCancelled, got %v", err)
		}
	})
}

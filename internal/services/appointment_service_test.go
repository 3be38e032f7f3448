package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/payments"
)

type appointmentFixture struct {
	svc          AppointmentService
	appointments *fakeAppointmentRepository
	sessions     *fakeChatSessionRepository
	coaches      *fakeCoachRepository
	conditions   *fakeConditionRepository
	events       *fakeEventPublisher
	now          time.Time
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	completedAt := now.Add(-time.Hour)
	fx := &appointmentFixture{
		appointments: newFakeAppointmentRepository(),
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
			Name:            "Dr. Mehta",
			Status:          domain.CoachStatusApproved,
			ConsultationFee: 800,
		}),
		conditions: newFakeConditionRepository(domain.Condition{ID: "cond_diabetes", IsActive: true}),
		events:     &fakeEventPublisher{},
		now:        now,
	}
	svc, err := NewAppointmentService(AppointmentServiceDeps{
		Appointments: fx.appointments,
		Sessions:     fx.sessions,
		Coaches:      fx.coaches,
		Conditions:   fx.conditions,
		Pricing:      newTestCalculator(t),
		Events:       fx.events,
		Clock:        fixedClock(now),
		IDGenerator:  func() string { return "apt_test" },
		MeetingToken: func() string { return "roomtoken" },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	fx.svc = svc
	return fx
}

func TestAppointmentServiceCreate(t *testing.T) {
	t.Run("schedules with a meeting link", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		appointment, err := fx.svc.Create(context.Background(), CreateAppointmentCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(48 * time.Hour),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if appointment.ID != "apt_test" || appointment.CoachName != "Dr. Mehta" {
			t.Fatalf("unexpected appointment: %+v", appointment)
		}
		if appointment.Status != domain.AppointmentStatusScheduled || appointment.PaymentStatus != domain.PaymentStatusPending {
			t.Fatalf("unexpected statuses: %+v", appointment)
		}
		if appointment.ConsultationFee != 800 {
			t.Fatalf("expected fee snapshot 800, got %d", appointment.ConsultationFee)
		}
		if appointment.TotalAmount != 850 {
			t.Fatalf("expected billed total 850, got %d", appointment.TotalAmount)
		}
		if !strings.HasSuffix(appointment.MeetingLink, "/cdisease-roomtoken") {
			t.Fatalf("unexpected meeting link %q", appointment.MeetingLink)
		}
		if len(fx.events.events) != 1 || fx.events.events[0].EventType != "appointment.created" {
			t.Fatalf("expected appointment.created event, got %v", fx.events.events)
		}
	})

	t.Run("requires a completed owned session", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		_, err := fx.svc.Create(context.Background(), CreateAppointmentCommand{
			UserID:        "usr_2",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now.Add(time.Hour),
		})
		if !errors.Is(err, ErrAppointmentSessionIncomplete) {
			t.Fatalf("expected ErrAppointmentSessionIncomplete, got %v", err)
		}
	})

	t.Run("rejects past slots", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		_, err := fx.svc.Create(context.Background(), CreateAppointmentCommand{
			UserID:        "usr_1",
			ChatSessionID: "chat_done",
			ScheduledAt:   fx.now,
		})
		if !errors.Is(err, ErrAppointmentInvalidInput) {
			t.Fatalf("expected ErrAppointmentInvalidInput, got %v", err)
		}
	})
}

func TestAppointmentServiceRecordPayment(t *testing.T) {
	scheduled := func(fx *appointmentFixture) domain.Appointment {
		appointment := domain.Appointment{
			ID:              "apt_1",
			UserID:          "usr_1",
			CoachID:         "coach_1",
			ConditionID:     "cond_diabetes",
			ScheduledAt:     fx.now.Add(48 * time.Hour),
			Status:          domain.AppointmentStatusScheduled,
			PaymentStatus:   domain.PaymentStatusPending,
			ConsultationFee: 800,
			TotalAmount:     850,
			MeetingLink:     "https://meet.jit.si/cdisease-roomtoken",
		}
		fx.appointments.appointments[appointment.ID] = appointment
		return appointment
	}

	t.Run("marks paid and returns the meeting link", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		scheduled(fx)
		receipt, err := fx.svc.RecordPayment(context.Background(), RecordPaymentCommand{
			UserID:           "usr_1",
			AppointmentID:    "apt_1",
			Amount:           850,
			PaymentReference: "mock-123",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Appointment.PaymentStatus != domain.PaymentStatusPaid || receipt.Appointment.PaymentAmount != 850 {
			t.Fatalf("unexpected receipt: %+v", receipt.Appointment)
		}
		if receipt.Appointment.PaidAt == nil || !receipt.Appointment.PaidAt.Equal(fx.now) {
			t.Fatalf("expected paid timestamp, got %v", receipt.Appointment.PaidAt)
		}
		if receipt.MeetingLink != "https://meet.jit.si/cdisease-roomtoken" {
			t.Fatalf("unexpected meeting link %q", receipt.MeetingLink)
		}
		if got := fx.conditions.conditions["cond_diabetes"].Stats.TotalConsultations; got != 1 {
			t.Fatalf("expected consultation counter 1, got %d", got)
		}
		if len(fx.events.events) != 1 || fx.events.events[0].EventType != "appointment.paid" || fx.events.events[0].Amount != 850 {
			t.Fatalf("unexpected events: %v", fx.events.events)
		}
	})

	t.Run("rejects amount mismatches", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		scheduled(fx)
		_, err := fx.svc.RecordPayment(context.Background(), RecordPaymentCommand{
			UserID: "usr_1", AppointmentID: "apt_1", Amount: 800,
		})
		if !errors.Is(err, ErrAppointmentAmountMismatch) {
			t.Fatalf("expected ErrAppointmentAmountMismatch, got %v", err)
		}
	})

	t.Run("fee raised after scheduling keeps the billed total", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		scheduled(fx)

		repriced, err := payments.NewCalculator(payments.CalculatorDeps{
			Policy: payments.Policy{CommissionRate: 0.25, PlatformFee: 60},
		})
		if err != nil {
			t.Fatalf("unexpected calculator error: %v", err)
		}
		svc, err := NewAppointmentService(AppointmentServiceDeps{
			Appointments: fx.appointments,
			Sessions:     fx.sessions,
			Coaches:      fx.coaches,
			Conditions:   fx.conditions,
			Pricing:      repriced,
			Events:       fx.events,
			Clock:        fixedClock(fx.now),
		})
		if err != nil {
			t.Fatalf("unexpected constructor error: %v", err)
		}

		receipt, err := svc.RecordPayment(context.Background(), RecordPaymentCommand{
			UserID: "usr_1", AppointmentID: "apt_1", Amount: 850,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.Appointment.PaymentStatus != domain.PaymentStatusPaid || receipt.Appointment.PaymentAmount != 850 {
			t.Fatalf("unexpected receipt: %+v", receipt.Appointment)
		}
	})

	t.Run("cannot pay twice", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		appointment := scheduled(fx)
		appointment.PaymentStatus = domain.PaymentStatusPaid
		fx.appointments.appointments[appointment.ID] = appointment
		_, err := fx.svc.RecordPayment(context.Background(), RecordPaymentCommand{
			UserID: "usr_1", AppointmentID: "apt_1", Amount: 850,
		})
		if !errors.Is(err, ErrAppointmentAlreadyPaid) {
			t.Fatalf("expected ErrAppointmentAlreadyPaid, got %v", err)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		fx := newAppointmentFixture(t)
		scheduled(fx)
		_, err := fx.svc.RecordPayment(context.Background(), RecordPaymentCommand{
			UserID: "usr_2", AppointmentID: "apt_1", Amount: 850,
		})
		if !errors.Is(err, ErrAppointmentNotFound) {
			t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
		}
	})
}

func TestAppointmentServiceGet(t *testing.T) {
	fx := newAppointmentFixture(t)
	fx.appointments.appointments["apt_1"] = domain.Appointment{ID: "apt_1", UserID: "usr_1"}

	if _, err := fx.svc.Get(context.Background(), "usr_1", "apt_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fx.svc.Get(context.Background(), "usr_2", "apt_1"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

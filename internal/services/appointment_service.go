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

const (
	appointmentIDPrefix   = "apt_"
	defaultMeetingBaseURL = "https://meet.jit.si"
)

const (
	eventAppointmentCreated = "appointment.created"
	eventAppointmentPaid    = "appointment.paid"
)

var (
	// ErrAppointmentInvalidInput indicates validation failures for appointment operations.
	ErrAppointmentInvalidInput = errors.New("appointment: invalid input")
	// ErrAppointmentNotFound indicates the appointment does not exist or belongs to another user.
	ErrAppointmentNotFound = errors.New("appointment: not found")
	// ErrAppointmentSessionIncomplete indicates the intake session has not been completed.
	ErrAppointmentSessionIncomplete = errors.New("appointment: intake session not completed")
	// ErrAppointmentCoachUnavailable indicates the coach can no longer take consultations.
	ErrAppointmentCoachUnavailable = errors.New("appointment: coach unavailable")
	// ErrAppointmentAlreadyPaid indicates payment was already recorded.
	ErrAppointmentAlreadyPaid = errors.New("appointment: already paid")
	// ErrAppointmentAmountMismatch indicates the paid amount does not match the billed total.
	ErrAppointmentAmountMismatch = errors.New("appointment: amount does not match billed total")
)

// AppointmentServiceDeps bundles collaborators required to construct an AppointmentService.
type AppointmentServiceDeps struct {
	Appointments   repositories.AppointmentRepository
	Sessions       repositories.ChatSessionRepository
	Coaches        repositories.CoachRepository
	Conditions     repositories.ConditionRepository
	Pricing        *payments.Calculator
	Events         EventPublisher
	MeetingBaseURL string
	Clock          func() time.Time
	IDGenerator    func() string
	MeetingToken   func() string
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type appointmentService struct {
	appointments repositories.AppointmentRepository
	sessions     repositories.ChatSessionRepository
	coaches      repositories.CoachRepository
	conditions   repositories.ConditionRepository
	pricing      *payments.Calculator
	events       EventPublisher
	meetingBase  string
	clock        func() time.Time
	newID        func() string
	meetingToken func() string
	log          func(ctx context.Context, event string, fields map[string]any)
}

// NewAppointmentService wires dependencies into a concrete AppointmentService implementation.
func NewAppointmentService(deps AppointmentServiceDeps) (AppointmentService, error) {
	if deps.Appointments == nil {
		return nil, errors.New("appointment service: appointment repository is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("appointment service: session repository is required")
	}
	if deps.Coaches == nil {
		return nil, errors.New("appointment service: coach repository is required")
	}
	if deps.Conditions == nil {
		return nil, errors.New("appointment service: condition repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("appointment service: pricing calculator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return appointmentIDPrefix + ulid.Make().String() }
	}
	meetingToken := deps.MeetingToken
	if meetingToken == nil {
		meetingToken = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	meetingBase := strings.TrimRight(strings.TrimSpace(deps.MeetingBaseURL), "/")
	if meetingBase == "" {
		meetingBase = defaultMeetingBaseURL
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &appointmentService{
		appointments: deps.Appointments,
		sessions:     deps.Sessions,
		coaches:      deps.Coaches,
		conditions:   deps.Conditions,
		pricing:      deps.Pricing,
		events:       deps.Events,
		meetingBase:  meetingBase,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:        idGen,
		meetingToken: meetingToken,
		log:          logger,
	}, nil
}

// Create schedules a consultation from a completed intake session. The
// meeting link is generated up front but only surfaced once payment lands.
func (s *appointmentService) Create(ctx context.Context, cmd CreateAppointmentCommand) (Appointment, error) {
	userID := strings.TrimSpace(cmd.UserID)
	sessionID := strings.TrimSpace(cmd.ChatSessionID)
	switch {
	case userID == "":
		return Appointment{}, fmt.Errorf("%w: user id is required", ErrAppointmentInvalidInput)
	case sessionID == "":
		return Appointment{}, fmt.Errorf("%w: chat session id is required", ErrAppointmentInvalidInput)
	case cmd.ScheduledAt.IsZero():
		return Appointment{}, fmt.Errorf("%w: scheduled time is required", ErrAppointmentInvalidInput)
	}

	now := s.clock()
	scheduledAt := cmd.ScheduledAt.UTC()
	if !scheduledAt.After(now) {
		return Appointment{}, fmt.Errorf("%w: scheduled time must be in the future", ErrAppointmentInvalidInput)
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return Appointment{}, ErrAppointmentSessionIncomplete
		}
		return Appointment{}, err
	}
	if session.UserID != userID || session.Status != domain.ChatSessionStatusCompleted {
		return Appointment{}, ErrAppointmentSessionIncomplete
	}

	coach, err := s.coaches.FindByID(ctx, session.CoachID)
	if err != nil {
		if isRepoNotFound(err) {
			return Appointment{}, ErrAppointmentCoachUnavailable
		}
		return Appointment{}, err
	}
	if coach.Status != domain.CoachStatusApproved {
		return Appointment{}, ErrAppointmentCoachUnavailable
	}

	pricing := s.pricing.BookingAmounts(ctx, coach.ConsultationFee)
	appointment := domain.Appointment{
		ID:              s.newID(),
		UserID:          userID,
		CoachID:         coach.ID,
		CoachName:       coach.Name,
		ConditionID:     session.ConditionID,
		ChatSessionID:   session.ID,
		ScheduledAt:     scheduledAt,
		Status:          domain.AppointmentStatusScheduled,
		PaymentStatus:   domain.PaymentStatusPending,
		ConsultationFee: pricing.ConsultationFee,
		TotalAmount:     pricing.TotalAmount,
		MeetingLink:     fmt.Sprintf("%s/cdisease-%s", s.meetingBase, s.meetingToken()),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.Insert(ctx, appointment); err != nil {
		return Appointment{}, err
	}

	s.publish(ctx, LifecycleEventMessage{
		EventType:     eventAppointmentCreated,
		AppointmentID: appointment.ID,
		UserID:        appointment.UserID,
		CoachID:       appointment.CoachID,
		OccurredAt:    now,
	})
	return appointment, nil
}

func (s *appointmentService) ListMine(ctx context.Context, userID string, pager Pagination) (domain.Page[Appointment], error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Page[Appointment]{}, fmt.Errorf("%w: user id is required", ErrAppointmentInvalidInput)
	}
	return s.appointments.ListByUser(ctx, userID, pager)
}

func (s *appointmentService) Get(ctx context.Context, userID string, appointmentID string) (Appointment, error) {
	return s.ownedAppointment(ctx, userID, appointmentID)
}

// RecordPayment is the mock payment gateway. It validates the paid amount
// against the total billed when the appointment was created, marks the
// appointment paid and bumps the condition's consultation counter. A policy
// change between creation and payment must not change what the user owes.
func (s *appointmentService) RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (PaymentReceipt, error) {
	appointment, err := s.ownedAppointment(ctx, cmd.UserID, cmd.AppointmentID)
	if err != nil {
		return PaymentReceipt{}, err
	}
	if appointment.PaymentStatus == domain.PaymentStatusPaid {
		return PaymentReceipt{}, ErrAppointmentAlreadyPaid
	}

	if cmd.Amount != appointment.TotalAmount {
		return PaymentReceipt{}, fmt.Errorf("%w: got %d, want %d", ErrAppointmentAmountMismatch, cmd.Amount, appointment.TotalAmount)
	}

	now := s.clock()
	appointment.PaymentStatus = domain.PaymentStatusPaid
	appointment.PaymentAmount = cmd.Amount
	appointment.PaidAt = &now
	appointment.UpdatedAt = now
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return PaymentReceipt{}, err
	}

	if err := s.conditions.IncrementStats(ctx, appointment.ConditionID, repositories.ConditionStatsDelta{Consultations: 1}); err != nil && !isRepoNotFound(err) {
		s.log(ctx, "appointment.stats_update_failed", map[string]any{
			"condition_id": appointment.ConditionID,
			"error":        err.Error(),
		})
	}

	s.publish(ctx, LifecycleEventMessage{
		EventType:     eventAppointmentPaid,
		AppointmentID: appointment.ID,
		UserID:        appointment.UserID,
		CoachID:       appointment.CoachID,
		Amount:        cmd.Amount,
		OccurredAt:    now,
	})
	s.log(ctx, "appointment.paid", map[string]any{
		"appointment_id": appointment.ID,
		"amount":         cmd.Amount,
		"reference":      strings.TrimSpace(cmd.PaymentReference),
	})
	return PaymentReceipt{Appointment: appointment, MeetingLink: appointment.MeetingLink}, nil
}

func (s *appointmentService) ownedAppointment(ctx context.Context, userID string, appointmentID string) (domain.Appointment, error) {
	userID = strings.TrimSpace(userID)
	appointmentID = strings.TrimSpace(appointmentID)
	if userID == "" || appointmentID == "" {
		return domain.Appointment{}, fmt.Errorf("%w: user id and appointment id are required", ErrAppointmentInvalidInput)
	}
	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Appointment{}, ErrAppointmentNotFound
		}
		return domain.Appointment{}, err
	}
	if appointment.UserID != userID {
		return domain.Appointment{}, ErrAppointmentNotFound
	}
	return appointment, nil
}

func (s *appointmentService) publish(ctx context.Context, msg LifecycleEventMessage) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishEvent(ctx, msg); err != nil {
		s.log(ctx, "appointment.event_publish_failed", map[string]any{
			"event_type":     msg.EventType,
			"appointment_id": msg.AppointmentID,
			"error":          err.Error(),
		})
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const upcomingAppointmentsLimit = 10

var (
	// ErrProfessionalNotFound indicates the caller has no coaching profile.
	ErrProfessionalNotFound = errors.New("professional: profile not found")
	// ErrProfessionalAppointmentNotFound indicates the appointment is not owned by the caller.
	ErrProfessionalAppointmentNotFound = errors.New("professional: appointment not found")
	// ErrProfessionalInvalidInput indicates validation failures for professional operations.
	ErrProfessionalInvalidInput = errors.New("professional: invalid input")
)

// ProfessionalServiceDeps bundles collaborators required to construct a ProfessionalService.
type ProfessionalServiceDeps struct {
	Coaches      CoachService
	Appointments repositories.AppointmentRepository
	Sessions     repositories.ChatSessionRepository
	Users        repositories.UserRepository
	Clock        func() time.Time
}

// The professional console reuses the coach service for profile operations
// and enriches appointment listings with patient contact details.
type professionalService struct {
	coaches      CoachService
	appointments repositories.AppointmentRepository
	sessions     repositories.ChatSessionRepository
	users        repositories.UserRepository
	clock        func() time.Time
}

// NewProfessionalService wires dependencies into a concrete ProfessionalService implementation.
func NewProfessionalService(deps ProfessionalServiceDeps) (ProfessionalService, error) {
	if deps.Coaches == nil {
		return nil, errors.New("professional service: coach service is required")
	}
	if deps.Appointments == nil {
		return nil, errors.New("professional service: appointment repository is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("professional service: session repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("professional service: user repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &professionalService{
		coaches:      deps.Coaches,
		appointments: deps.Appointments,
		sessions:     deps.Sessions,
		users:        deps.Users,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (s *professionalService) DashboardStats(ctx context.Context, userID string) (CoachDashboardStats, error) {
	stats, err := s.coaches.DashboardStats(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCoachNotFound) {
			return CoachDashboardStats{}, ErrProfessionalNotFound
		}
		return CoachDashboardStats{}, err
	}
	return stats, nil
}

func (s *professionalService) Appointments(ctx context.Context, userID string, pager Pagination) (domain.Page[ProfessionalAppointment], error) {
	coach, err := s.profile(ctx, userID)
	if err != nil {
		return domain.Page[ProfessionalAppointment]{}, err
	}
	page, err := s.appointments.ListByCoach(ctx, coach.ID, pager)
	if err != nil {
		return domain.Page[ProfessionalAppointment]{}, err
	}
	enriched, err := s.enrich(ctx, page.Items)
	if err != nil {
		return domain.Page[ProfessionalAppointment]{}, err
	}
	return domain.Page[ProfessionalAppointment]{
		Items: enriched,
		Total: page.Total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}, nil
}

// UpcomingAppointments returns the next scheduled consultations, soonest first.
func (s *professionalService) UpcomingAppointments(ctx context.Context, userID string) ([]ProfessionalAppointment, error) {
	coach, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	page, err := s.appointments.ListByCoach(ctx, coach.ID, domain.Pagination{})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	upcoming := make([]domain.Appointment, 0, len(page.Items))
	for _, appointment := range page.Items {
		if appointment.Status == domain.AppointmentStatusScheduled && appointment.ScheduledAt.After(now) {
			upcoming = append(upcoming, appointment)
		}
	}
	// ListByCoach returns newest first; flip so the nearest slot leads.
	for i, j := 0, len(upcoming)-1; i < j; i, j = i+1, j-1 {
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	}
	if len(upcoming) > upcomingAppointmentsLimit {
		upcoming = upcoming[:upcomingAppointmentsLimit]
	}
	return s.enrich(ctx, upcoming)
}

// ChatHistory exposes a patient's intake answers to the coach the
// consultation was booked with, and nobody else.
func (s *professionalService) ChatHistory(ctx context.Context, userID string, appointmentID string) (ChatSession, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return ChatSession{}, fmt.Errorf("%w: appointment id is required", ErrProfessionalInvalidInput)
	}
	coach, err := s.profile(ctx, userID)
	if err != nil {
		return ChatSession{}, err
	}
	appointment, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if isRepoNotFound(err) {
			return ChatSession{}, ErrProfessionalAppointmentNotFound
		}
		return ChatSession{}, err
	}
	if appointment.CoachID != coach.ID {
		return ChatSession{}, ErrProfessionalAppointmentNotFound
	}
	session, err := s.sessions.FindByID(ctx, appointment.ChatSessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return ChatSession{}, ErrProfessionalAppointmentNotFound
		}
		return ChatSession{}, err
	}
	return session, nil
}

func (s *professionalService) UpdateFee(ctx context.Context, cmd UpdateFeeCommand) (Coach, error) {
	coach, err := s.coaches.UpdateFee(ctx, cmd)
	if err != nil {
		if errors.Is(err, ErrCoachNotFound) {
			return Coach{}, ErrProfessionalNotFound
		}
		return Coach{}, err
	}
	return coach, nil
}

func (s *professionalService) Profile(ctx context.Context, userID string) (Coach, error) {
	return s.profile(ctx, userID)
}

func (s *professionalService) profile(ctx context.Context, userID string) (Coach, error) {
	coach, err := s.coaches.MyProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCoachNotFound) {
			return Coach{}, ErrProfessionalNotFound
		}
		return Coach{}, err
	}
	return coach, nil
}

func (s *professionalService) enrich(ctx context.Context, appointments []domain.Appointment) ([]ProfessionalAppointment, error) {
	result := make([]ProfessionalAppointment, 0, len(appointments))
	patients := make(map[string]domain.User, len(appointments))
	for _, appointment := range appointments {
		patient, ok := patients[appointment.UserID]
		if !ok {
			user, err := s.users.FindByID(ctx, appointment.UserID)
			if err != nil && !isRepoNotFound(err) {
				return nil, err
			}
			patient = user
			patients[appointment.UserID] = patient
		}
		result = append(result, ProfessionalAppointment{
			Appointment:  appointment,
			PatientName:  patient.Name,
			PatientEmail: patient.Email,
		})
	}
	return result, nil
}

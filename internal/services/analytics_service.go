package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/payments"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

// AnalyticsServiceDeps bundles collaborators required to construct an AnalyticsService.
type AnalyticsServiceDeps struct {
	Users        repositories.UserRepository
	Coaches      CoachService
	CoachRepo    repositories.CoachRepository
	Appointments repositories.AppointmentRepository
	Pricing      *payments.Calculator
	Audit        AuditRecorder
	Clock        func() time.Time
}

type analyticsService struct {
	users        repositories.UserRepository
	coaches      CoachService
	coachRepo    repositories.CoachRepository
	appointments repositories.AppointmentRepository
	pricing      *payments.Calculator
	audit        AuditRecorder
	clock        func() time.Time
}

// NewAnalyticsService wires dependencies into a concrete AnalyticsService implementation.
func NewAnalyticsService(deps AnalyticsServiceDeps) (AnalyticsService, error) {
	if deps.Users == nil {
		return nil, errors.New("analytics service: user repository is required")
	}
	if deps.Coaches == nil {
		return nil, errors.New("analytics service: coach service is required")
	}
	if deps.CoachRepo == nil {
		return nil, errors.New("analytics service: coach repository is required")
	}
	if deps.Appointments == nil {
		return nil, errors.New("analytics service: appointment repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("analytics service: pricing calculator is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &analyticsService{
		users:        deps.Users,
		coaches:      deps.Coaches,
		coachRepo:    deps.CoachRepo,
		appointments: deps.Appointments,
		pricing:      deps.Pricing,
		audit:        deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

// Overview aggregates platform-wide totals. Commission figures apply the
// configured rate to gross paid volume, truncated the same way booking
// amounts are.
func (s *analyticsService) Overview(ctx context.Context) (PlatformOverview, error) {
	totalUsers, err := s.users.Count(ctx, nil)
	if err != nil {
		return PlatformOverview{}, err
	}
	approved, err := s.coachRepo.CountByStatus(ctx, domain.CoachStatusApproved)
	if err != nil {
		return PlatformOverview{}, err
	}
	pending, err := s.coachRepo.CountByStatus(ctx, domain.CoachStatusPending)
	if err != nil {
		return PlatformOverview{}, err
	}

	now := s.clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary, err := s.appointments.Summarize(ctx, repositories.AppointmentSummaryQuery{
		MonthStart: monthStart,
		Now:        now,
	})
	if err != nil {
		return PlatformOverview{}, err
	}

	rate := s.pricing.Rate()
	return PlatformOverview{
		TotalUsers:            totalUsers,
		TotalProfessionals:    approved,
		PendingProfessionals:  pending,
		TotalAppointments:     summary.Total,
		CompletedAppointments: summary.Completed,
		GrossRevenue:          summary.GrossPaid,
		CommissionEarned:      int64(float64(summary.GrossPaid) * rate),
		MonthGrossRevenue:     summary.MonthGrossPaid,
		MonthCommissionEarned: int64(float64(summary.MonthGrossPaid) * rate),
	}, nil
}

func (s *analyticsService) ListUsers(ctx context.Context, filter UserListFilter) (domain.Page[User], error) {
	page, err := s.users.List(ctx, repositories.UserListFilter{
		Role:       filter.Role,
		Search:     filter.Search,
		Pagination: filter.Pagination,
	})
	if err != nil {
		return domain.Page[User]{}, err
	}
	for i := range page.Items {
		page.Items[i] = sanitizeUser(page.Items[i])
	}
	return page, nil
}

func (s *analyticsService) ListProfessionals(ctx context.Context, filter ProfessionalListFilter) (domain.Page[Coach], error) {
	statuses := filter.Status
	if len(statuses) == 0 {
		statuses = []domain.CoachStatus{
			domain.CoachStatusPending,
			domain.CoachStatusApproved,
			domain.CoachStatusRejected,
		}
	}
	return s.coachRepo.List(ctx, repositories.CoachListFilter{
		Status:     statuses,
		Pagination: filter.Pagination,
	})
}

func (s *analyticsService) ListAppointments(ctx context.Context, filter AppointmentListFilter) (domain.Page[Appointment], error) {
	return s.appointments.List(ctx, repositories.AppointmentListFilter{
		Status:     filter.Status,
		From:       filter.From,
		To:         filter.To,
		Pagination: filter.Pagination,
	})
}

// SetProfessionalStatus performs the review decision and leaves an audit entry.
func (s *analyticsService) SetProfessionalStatus(ctx context.Context, cmd SetCoachStatusCommand) (Coach, error) {
	coach, err := s.coaches.SetStatus(ctx, cmd)
	if err != nil {
		return Coach{}, err
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditLogEntry{
			Actor:     cmd.ActorID,
			ActorType: "admin",
			Action:    "professional.status_changed",
			TargetRef: coach.ID,
			Metadata:  map[string]any{"status": string(coach.Status)},
		})
	}
	return coach, nil
}

package repositories

import (
	"context"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Users() UserRepository
	Conditions() ConditionRepository
	Coaches() CoachRepository
	ChatQuestions() ChatQuestionRepository
	ChatSessions() ChatSessionRepository
	Bookings() BookingRepository
	Appointments() AppointmentRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository stores account records keyed by id with a unique email lookup.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context, filter UserListFilter) (domain.Page[domain.User], error)
	Count(ctx context.Context, role *domain.Role) (int64, error)
}

// ConditionRepository maintains the condition catalog and its denormalised stats.
type ConditionRepository interface {
	Upsert(ctx context.Context, condition domain.Condition) (domain.Condition, error)
	FindByID(ctx context.Context, conditionID string) (domain.Condition, error)
	ListActive(ctx context.Context) ([]domain.Condition, error)
	IncrementStats(ctx context.Context, conditionID string, delta ConditionStatsDelta) error
}

// CoachRepository stores coaching profiles and their review status.
type CoachRepository interface {
	Insert(ctx context.Context, coach domain.Coach) error
	Update(ctx context.Context, coach domain.Coach) error
	FindByID(ctx context.Context, coachID string) (domain.Coach, error)
	FindByUserID(ctx context.Context, userID string) (domain.Coach, error)
	List(ctx context.Context, filter CoachListFilter) (domain.Page[domain.Coach], error)
	CountByStatus(ctx context.Context, status domain.CoachStatus) (int64, error)
}

// ChatQuestionRepository stores the ordered intake question set per condition.
type ChatQuestionRepository interface {
	ListByCondition(ctx context.Context, conditionID string) ([]domain.ChatQuestion, error)
	InsertBatch(ctx context.Context, questions []domain.ChatQuestion) error
}

// ChatSessionRepository persists intake conversations.
type ChatSessionRepository interface {
	Insert(ctx context.Context, session domain.ChatSession) error
	Update(ctx context.Context, session domain.ChatSession) error
	FindByID(ctx context.Context, sessionID string) (domain.ChatSession, error)
}

// BookingRepository persists priced bookings and their refund state.
type BookingRepository interface {
	Insert(ctx context.Context, booking domain.Booking) error
	Update(ctx context.Context, booking domain.Booking) error
	FindByID(ctx context.Context, bookingID string) (domain.Booking, error)
	ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Booking], error)
}

// AppointmentRepository persists consultations and supports dashboard aggregation.
type AppointmentRepository interface {
	Insert(ctx context.Context, appointment domain.Appointment) error
	Update(ctx context.Context, appointment domain.Appointment) error
	FindByID(ctx context.Context, appointmentID string) (domain.Appointment, error)
	ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Appointment], error)
	ListByCoach(ctx context.Context, coachID string, pager domain.Pagination) (domain.Page[domain.Appointment], error)
	List(ctx context.Context, filter AppointmentListFilter) (domain.Page[domain.Appointment], error)
	Summarize(ctx context.Context, query AppointmentSummaryQuery) (AppointmentSummary, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type UserListFilter struct {
	Role       *domain.Role
	Search     string
	Pagination domain.Pagination
}

type CoachListFilter struct {
	ConditionID string
	Status      []domain.CoachStatus
	Pagination  domain.Pagination
}

type AppointmentListFilter struct {
	UserID     string
	CoachID    string
	Status     []domain.AppointmentStatus
	From       *time.Time
	To         *time.Time
	Pagination domain.Pagination
}

// ConditionStatsDelta carries counter adjustments applied atomically.
type ConditionStatsDelta struct {
	Coaches       int64
	Consultations int64
}

// AppointmentSummaryQuery scopes aggregation to a coach and a month window.
// An empty CoachID aggregates platform-wide. MonthStart bounds the
// month-to-date figures and Now splits upcoming from past appointments.
type AppointmentSummaryQuery struct {
	CoachID    string
	MonthStart time.Time
	Now        time.Time
}

// AppointmentSummary reports appointment counts and gross paid amounts.
type AppointmentSummary struct {
	Total          int64
	Upcoming       int64
	Completed      int64
	GrossPaid      int64
	MonthCount     int64
	MonthGrossPaid int64
}

package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/J2c-ashwani/cdisease/internal/platform/firestore"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider

	users        *UserRepository
	conditions   *ConditionRepository
	coaches      *CoachRepository
	questions    *ChatQuestionRepository
	sessions     *ChatSessionRepository
	bookings     *BookingRepository
	appointments *AppointmentRepository
	auditLogs    *AuditLogRepository
	health       repositories.HealthRepository
}

// NewRegistry constructs all Firestore repositories against the shared provider.
// The health repository is optional and may be supplied separately.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}

	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	conditions, err := NewConditionRepository(provider)
	if err != nil {
		return nil, err
	}
	coaches, err := NewCoachRepository(provider)
	if err != nil {
		return nil, err
	}
	questions, err := NewChatQuestionRepository(provider)
	if err != nil {
		return nil, err
	}
	sessions, err := NewChatSessionRepository(provider)
	if err != nil {
		return nil, err
	}
	bookings, err := NewBookingRepository(provider)
	if err != nil {
		return nil, err
	}
	appointments, err := NewAppointmentRepository(provider)
	if err != nil {
		return nil, err
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:     provider,
		users:        users,
		conditions:   conditions,
		coaches:      coaches,
		questions:    questions,
		sessions:     sessions,
		bookings:     bookings,
		appointments: appointments,
		auditLogs:    auditLogs,
		health:       health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// RunInTx executes fn inside a Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.provider == nil {
		return errors.New("registry not initialised")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

func (r *Registry) Users() repositories.UserRepository                 { return r.users }
func (r *Registry) Conditions() repositories.ConditionRepository       { return r.conditions }
func (r *Registry) Coaches() repositories.CoachRepository              { return r.coaches }
func (r *Registry) ChatQuestions() repositories.ChatQuestionRepository { return r.questions }
func (r *Registry) ChatSessions() repositories.ChatSessionRepository   { return r.sessions }
func (r *Registry) Bookings() repositories.BookingRepository           { return r.bookings }
func (r *Registry) Appointments() repositories.AppointmentRepository   { return r.appointments }
func (r *Registry) AuditLogs() repositories.AuditLogRepository         { return r.auditLogs }
func (r *Registry) Health() repositories.HealthRepository              { return r.health }

var _ repositories.Registry = (*Registry)(nil)

package services

import (
	"context"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	SortOrder           = domain.SortOrder
	Role                = domain.Role
	User                = domain.User
	Condition           = domain.Condition
	ConditionStats      = domain.ConditionStats
	Coach               = domain.Coach
	CoachStatus         = domain.CoachStatus
	ChatQuestion        = domain.ChatQuestion
	ChatSession         = domain.ChatSession
	Booking             = domain.Booking
	BookingStatus       = domain.BookingStatus
	PaymentStatus       = domain.PaymentStatus
	Appointment         = domain.Appointment
	AppointmentStatus   = domain.AppointmentStatus
	PricingBreakdown    = domain.PricingBreakdown
	RefundBreakdown     = domain.RefundBreakdown
	SystemHealthReport  = domain.SystemHealthReport
	AuditLogEntry       = domain.AuditLogEntry
	SignedAssetResponse = domain.SignedAssetResponse
)

// AuthService manages account registration and first-party token issuance.
type AuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error)
	Login(ctx context.Context, cmd LoginCommand) (AuthResult, error)
	ResetPassword(ctx context.Context, cmd ResetPasswordCommand) error
	CurrentUser(ctx context.Context, userID string) (User, error)
}

// CatalogService serves the public condition catalog and its coach listings.
type CatalogService interface {
	ListConditions(ctx context.Context) ([]Condition, error)
	GetCondition(ctx context.Context, conditionID string) (Condition, error)
	ListConditionCoaches(ctx context.Context, conditionID string) ([]Coach, error)
	UpsertCondition(ctx context.Context, cmd UpsertConditionCommand) (Condition, error)
}

// CoachService manages coach applications, profiles, and earnings dashboards.
type CoachService interface {
	Apply(ctx context.Context, cmd CoachApplicationCommand) (Coach, error)
	List(ctx context.Context, filter CoachListFilter) (domain.Page[Coach], error)
	Get(ctx context.Context, coachID string) (CoachDetail, error)
	MyProfile(ctx context.Context, userID string) (Coach, error)
	UpdateFee(ctx context.Context, cmd UpdateFeeCommand) (Coach, error)
	SetStatus(ctx context.Context, cmd SetCoachStatusCommand) (Coach, error)
	DashboardStats(ctx context.Context, userID string) (CoachDashboardStats, error)
	IssueProfileImageUpload(ctx context.Context, cmd SignedUploadCommand) (SignedAssetResponse, error)
}

// ChatService runs the guided intake conversation that precedes a booking.
type ChatService interface {
	Start(ctx context.Context, cmd StartChatCommand) (ChatStartResult, error)
	SubmitAnswer(ctx context.Context, cmd SubmitAnswerCommand) (ChatSession, error)
	GetSession(ctx context.Context, userID string, sessionID string) (ChatSession, error)
	Complete(ctx context.Context, cmd CompleteChatCommand) (ChatCompletion, error)
}

// BookingService creates priced bookings from completed intake sessions and
// handles cancellation refunds.
type BookingService interface {
	Create(ctx context.Context, cmd CreateBookingCommand) (BookingConfirmation, error)
	ListMine(ctx context.Context, userID string, pager Pagination) (domain.Page[Booking], error)
	Cancel(ctx context.Context, cmd CancelBookingCommand) (Booking, error)
}

// AppointmentService schedules consultations and records mock payments.
type AppointmentService interface {
	Create(ctx context.Context, cmd CreateAppointmentCommand) (Appointment, error)
	ListMine(ctx context.Context, userID string, pager Pagination) (domain.Page[Appointment], error)
	Get(ctx context.Context, userID string, appointmentID string) (Appointment, error)
	RecordPayment(ctx context.Context, cmd RecordPaymentCommand) (PaymentReceipt, error)
}

// ProfessionalService backs the coach-facing console.
type ProfessionalService interface {
	DashboardStats(ctx context.Context, userID string) (CoachDashboardStats, error)
	Appointments(ctx context.Context, userID string, pager Pagination) (domain.Page[ProfessionalAppointment], error)
	UpcomingAppointments(ctx context.Context, userID string) ([]ProfessionalAppointment, error)
	ChatHistory(ctx context.Context, userID string, appointmentID string) (ChatSession, error)
	UpdateFee(ctx context.Context, cmd UpdateFeeCommand) (Coach, error)
	Profile(ctx context.Context, userID string) (Coach, error)
}

// AnalyticsService backs the admin console with platform-wide aggregates.
type AnalyticsService interface {
	Overview(ctx context.Context) (PlatformOverview, error)
	ListUsers(ctx context.Context, filter UserListFilter) (domain.Page[User], error)
	ListProfessionals(ctx context.Context, filter ProfessionalListFilter) (domain.Page[Coach], error)
	ListAppointments(ctx context.Context, filter AppointmentListFilter) (domain.Page[Appointment], error)
	SetProfessionalStatus(ctx context.Context, cmd SetCoachStatusCommand) (Coach, error)
}

// SystemService aggregates dependency probes for health endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// EventPublisher accepts lifecycle notifications for downstream processing.
type EventPublisher interface {
	PublishEvent(ctx context.Context, message LifecycleEventMessage) (string, error)
}

// AuditRecorder persists immutable audit entries for admin actions.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditLogEntry)
}

// LifecycleEventMessage is the payload published for booking and appointment
// lifecycle changes.
type LifecycleEventMessage struct {
	EventType     string    `json:"event_type"`
	BookingID     string    `json:"booking_id,omitempty"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	CoachID       string    `json:"coach_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Command and DTO definitions ------------------------------------------------

type RegisterCommand struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

type LoginCommand struct {
	Email    string
	Password string
}

type ResetPasswordCommand struct {
	Email       string
	NewPassword string
}

// AuthResult bundles the issued token with the authenticated account view.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

type UpsertConditionCommand struct {
	Condition Condition
	ActorID   string
}

type CoachApplicationCommand struct {
	UserID          string
	Name            string
	Email           string
	Phone           string
	Qualification   string
	ExperienceYears int
	Bio             string
	Languages       []string
	ConsultationFee int64
	ConditionIDs    []string
}

type CoachListFilter struct {
	ConditionID string
	Status      []CoachStatus
	Pagination  Pagination
}

// CoachDetail enriches a public coach profile with its linked conditions.
type CoachDetail struct {
	Coach      Coach
	Conditions []Condition
}

type UpdateFeeCommand struct {
	UserID          string
	ConsultationFee int64
}

type SetCoachStatusCommand struct {
	CoachID string
	Status  CoachStatus
	ActorID string
}

// CoachDashboardStats summarises a coach's appointment volume and earnings.
// Net figures deduct the configured commission from gross payments.
type CoachDashboardStats struct {
	TotalAppointments     int64
	UpcomingAppointments  int64
	CompletedAppointments int64
	GrossEarnings         int64
	CommissionPaid        int64
	NetEarnings           int64
	MonthAppointments     int64
	MonthGrossEarnings    int64
	MonthNetEarnings      int64
}

type StartChatCommand struct {
	UserID      string
	ConditionID string
	CoachID     string
}

// ChatStartResult returns the created session with the ordered question set.
type ChatStartResult struct {
	Session   ChatSession
	Questions []ChatQuestion
}

type SubmitAnswerCommand struct {
	UserID     string
	SessionID  string
	QuestionID string
	Answer     string
}

type CompleteChatCommand struct {
	UserID    string
	SessionID string
}

// ChatCompletion carries the inputs the payment step needs after intake.
type ChatCompletion struct {
	Session         ChatSession
	CoachID         string
	ConsultationFee int64
}

type CreateBookingCommand struct {
	UserID        string
	ChatSessionID string
	ScheduledAt   time.Time
}

// BookingConfirmation pairs the persisted booking with a human-readable
// payment summary line.
type BookingConfirmation struct {
	Booking        Booking
	PaymentSummary string
}

type CancelBookingCommand struct {
	UserID    string
	BookingID string
	Reason    string
}

type CreateAppointmentCommand struct {
	UserID        string
	ChatSessionID string
	ScheduledAt   time.Time
}

type RecordPaymentCommand struct {
	UserID           string
	AppointmentID    string
	Amount           int64
	PaymentReference string
}

// PaymentReceipt confirms a recorded payment and exposes the meeting link.
type PaymentReceipt struct {
	Appointment Appointment
	MeetingLink string
}

// ProfessionalAppointment enriches an appointment with patient contact details.
type ProfessionalAppointment struct {
	Appointment  Appointment
	PatientName  string
	PatientEmail string
}

// PlatformOverview aggregates platform-wide totals for the admin console.
type PlatformOverview struct {
	TotalUsers            int64
	TotalProfessionals    int64
	PendingProfessionals  int64
	TotalAppointments     int64
	CompletedAppointments int64
	GrossRevenue          int64
	CommissionEarned      int64
	MonthGrossRevenue     int64
	MonthCommissionEarned int64
}

type UserListFilter struct {
	Role       *Role
	Search     string
	Pagination Pagination
}

type ProfessionalListFilter struct {
	Status     []CoachStatus
	Pagination Pagination
}

type AppointmentListFilter struct {
	Status     []AppointmentStatus
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}

type SignedUploadCommand struct {
	ActorID     string
	CoachID     string
	Purpose     string
	FileName    string
	ContentType string
	SizeBytes   int64
}

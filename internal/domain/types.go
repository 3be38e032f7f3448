package domain

import (
	"time"
)

// Pagination defines standard offset-based paging inputs for list operations.
type Pagination struct {
	Skip  int
	Limit int
}

// Page packages list results with the total count and the paging window used.
type Page[T any] struct {
	Items []T
	Total int64
	Skip  int
	Limit int
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// Role enumerates the account roles recognised by the platform.
type Role string

const (
	// RolePatient is the default role assigned at registration.
	RolePatient Role = "patient"
	// RoleCoach identifies accounts with an approved coaching profile.
	RoleCoach Role = "coach"
	// RoleProfessional identifies licensed practitioners on the platform.
	RoleProfessional Role = "professional"
	// RoleAdmin identifies platform operators.
	RoleAdmin Role = "admin"
)

// User captures the canonical account record persisted in Firestore.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConditionStats aggregates denormalised counters maintained per condition.
type ConditionStats struct {
	TotalCoaches       int64
	TotalConsultations int64
	AverageCoachRating float64
}

// Condition describes a chronic condition listed in the public catalog.
type Condition struct {
	ID              string
	Name            string
	Slug            string
	Description     string
	Category        string
	Icon            string
	Color           string
	CommonSymptoms  []string
	MetaDescription string
	Keywords        []string
	Stats           ConditionStats
	IsActive        bool
	DisplayOrder    int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CoachStatus enumerates the review states of a coaching application.
type CoachStatus string

const (
	// CoachStatusPending indicates the application awaits admin review.
	CoachStatusPending CoachStatus = "pending"
	// CoachStatusApproved indicates the coach is live and bookable.
	CoachStatusApproved CoachStatus = "approved"
	// CoachStatusRejected indicates the application was declined.
	CoachStatusRejected CoachStatus = "rejected"
)

// Coach stores a coaching profile linked to a user account.
type Coach struct {
	ID                 string
	UserID             string
	Name               string
	Email              string
	Phone              string
	Qualification      string
	ExperienceYears    int
	Bio                string
	Languages          []string
	ConsultationFee    int64
	ConditionIDs       []string
	ProfileImageURL    string
	Rating             float64
	TotalConsultations int64
	Status             CoachStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ChatQuestionType distinguishes choice questions from free-text ones.
type ChatQuestionType string

const (
	// ChatQuestionTypeMultipleChoice presents a fixed option list.
	ChatQuestionTypeMultipleChoice ChatQuestionType = "multiple_choice"
	// ChatQuestionTypeText accepts free-form answers.
	ChatQuestionTypeText ChatQuestionType = "text"
)

// ChatQuestion is a single intake question attached to a condition.
type ChatQuestion struct {
	ID          string
	ConditionID string
	Text        string
	Type        ChatQuestionType
	Options     []string
	Order       int
	IsRequired  bool
	CreatedAt   time.Time
}

// ChatSessionStatus enumerates intake session lifecycle states.
type ChatSessionStatus string

const (
	// ChatSessionStatusActive indicates the intake is still collecting answers.
	ChatSessionStatusActive ChatSessionStatus = "active"
	// ChatSessionStatusCompleted indicates all answers have been submitted.
	ChatSessionStatusCompleted ChatSessionStatus = "completed"
)

// ChatSession records a guided intake conversation prior to booking.
type ChatSession struct {
	ID             string
	UserID         string
	ConditionID    string
	CoachID        string
	Answers        map[string]string
	TotalQuestions int
	Status         ChatSessionStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// BookingStatus enumerates valid lifecycle states for bookings.
type BookingStatus string

const (
	// BookingStatusPendingPayment indicates the booking awaits payment completion.
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	// BookingStatusConfirmed indicates payment succeeded and the slot is held.
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusCancelled indicates the booking was cancelled.
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus enumerates payment states shared by bookings and appointments.
type PaymentStatus string

const (
	// PaymentStatusPending indicates no payment has been captured yet.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid indicates the payment has been captured.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusRefunded indicates a refund has been issued.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Booking ties a patient, a coach and a completed intake session to a slot,
// with the pricing breakdown embedded at creation time.
type Booking struct {
	ID              string
	UserID          string
	CoachID         string
	ConditionID     string
	ChatSessionID   string
	ScheduledAt     time.Time
	DurationMinutes int
	Pricing         PricingBreakdown
	BookingStatus   BookingStatus
	PaymentStatus   PaymentStatus
	Refund          *RefundBreakdown
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppointmentStatus enumerates appointment lifecycle states.
type AppointmentStatus string

const (
	// AppointmentStatusScheduled indicates the consultation is upcoming.
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	// AppointmentStatusCompleted indicates the consultation took place.
	AppointmentStatusCompleted AppointmentStatus = "completed"
	// AppointmentStatusCancelled indicates the consultation was called off.
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents a scheduled consultation with a meeting link.
type Appointment struct {
	ID              string
	UserID          string
	CoachID         string
	CoachName       string
	ConditionID     string
	ChatSessionID   string
	ScheduledAt     time.Time
	Status          AppointmentStatus
	PaymentStatus   PaymentStatus
	ConsultationFee int64
	TotalAmount     int64
	MeetingLink     string
	PaymentAmount   int64
	PaidAt          *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}

// AuditLogEntry stores normalized audit information for admin use.
type AuditLogEntry struct {
	ID        string
	Actor     string
	ActorType string
	Action    string
	TargetRef string
	Metadata  map[string]any
	IPHash    string
	UserAgent string
	Severity  string
	RequestID string
	CreatedAt time.Time
}

// SignedAssetResponse returns signed URL payloads for upload flows.
type SignedAssetResponse struct {
	AssetID   string
	URL       string
	ExpiresAt time.Time
	Method    string
	Headers   map[string]string
}

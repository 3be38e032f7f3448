package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/platform/pagination"
)

const maxRequestBodySize = 64 * 1024

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxRequestBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// decodeJSONBody reads a size-limited body and unmarshals it into target.
func decodeJSONBody(r *http.Request, target any) error {
	data, err := readLimitedBody(r, maxRequestBodySize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// requireIdentity pulls the authenticated identity from context, answering 401
// when the auth middleware did not run or produced nothing.
func requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

// parsePagination extracts offset paging from the query string. Malformed
// values fall back to defaults rather than failing the request.
func parsePagination(r *http.Request) domain.Pagination {
	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		params = pagination.Must(pagination.Params{})
	}
	return domain.Pagination{Skip: params.Skip, Limit: params.Limit}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// Shared response payloads --------------------------------------------------

type pagePayload[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

func buildPagePayload[S, T any](page domain.Page[S], build func(S) T) pagePayload[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, build(item))
	}
	return pagePayload[T]{
		Items: items,
		Total: page.Total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func buildUserPayload(user domain.User) userPayload {
	return userPayload{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

type conditionStatsPayload struct {
	TotalCoaches       int64   `json:"total_coaches"`
	TotalConsultations int64   `json:"total_consultations"`
	AverageCoachRating float64 `json:"average_coach_rating"`
}

type conditionPayload struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Slug            string                `json:"slug"`
	Description     string                `json:"description,omitempty"`
	Category        string                `json:"category,omitempty"`
	Icon            string                `json:"icon,omitempty"`
	Color           string                `json:"color,omitempty"`
	CommonSymptoms  []string              `json:"common_symptoms,omitempty"`
	MetaDescription string                `json:"meta_description,omitempty"`
	Keywords        []string              `json:"keywords,omitempty"`
	Stats           conditionStatsPayload `json:"stats"`
	IsActive        bool                  `json:"is_active"`
	DisplayOrder    int                   `json:"display_order"`
	CreatedAt       string                `json:"created_at,omitempty"`
}

func buildConditionPayload(condition domain.Condition) conditionPayload {
	return conditionPayload{
		ID:              condition.ID,
		Name:            condition.Name,
		Slug:            condition.Slug,
		Description:     condition.Description,
		Category:        condition.Category,
		Icon:            condition.Icon,
		Color:           condition.Color,
		CommonSymptoms:  condition.CommonSymptoms,
		MetaDescription: condition.MetaDescription,
		Keywords:        condition.Keywords,
		Stats: conditionStatsPayload{
			TotalCoaches:       condition.Stats.TotalCoaches,
			TotalConsultations: condition.Stats.TotalConsultations,
			AverageCoachRating: condition.Stats.AverageCoachRating,
		},
		IsActive:     condition.IsActive,
		DisplayOrder: condition.DisplayOrder,
		CreatedAt:    formatTime(condition.CreatedAt),
	}
}

type coachPayload struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id,omitempty"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Qualification      string   `json:"qualification,omitempty"`
	ExperienceYears    int      `json:"experience_years"`
	Bio                string   `json:"bio,omitempty"`
	Languages          []string `json:"languages,omitempty"`
	ConsultationFee    int64    `json:"consultation_fee"`
	ConditionIDs       []string `json:"condition_ids,omitempty"`
	ProfileImageURL    string   `json:"profile_image_url,omitempty"`
	Rating             float64  `json:"rating"`
	TotalConsultations int64    `json:"total_consultations"`
	Status             string   `json:"status"`
	CreatedAt          string   `json:"created_at,omitempty"`
}

func buildCoachPayload(coach domain.Coach) coachPayload {
	return coachPayload{
		ID:                 coach.ID,
		UserID:             coach.UserID,
		Name:               coach.Name,
		Email:              coach.Email,
		Qualification:      coach.Qualification,
		ExperienceYears:    coach.ExperienceYears,
		Bio:                coach.Bio,
		Languages:          coach.Languages,
		ConsultationFee:    coach.ConsultationFee,
		ConditionIDs:       coach.ConditionIDs,
		ProfileImageURL:    coach.ProfileImageURL,
		Rating:             coach.Rating,
		TotalConsultations: coach.TotalConsultations,
		Status:             string(coach.Status),
		CreatedAt:          formatTime(coach.CreatedAt),
	}
}

type pricingPayload struct {
	ConsultationFee   int64   `json:"consultation_fee"`
	PlatformFee       int64   `json:"platform_fee"`
	CommissionRate    float64 `json:"commission_rate"`
	CommissionAmount  int64   `json:"commission_amount"`
	CoachPayoutAmount int64   `json:"coach_payout_amount"`
	TotalAmount       int64   `json:"total_amount"`
	PlatformEarnings  int64   `json:"platform_earnings"`
}

func buildPricingPayload(pricing domain.PricingBreakdown) pricingPayload {
	return pricingPayload{
		ConsultationFee:   pricing.ConsultationFee,
		PlatformFee:       pricing.PlatformFee,
		CommissionRate:    pricing.CommissionRate,
		CommissionAmount:  pricing.CommissionAmount,
		CoachPayoutAmount: pricing.CoachPayoutAmount,
		TotalAmount:       pricing.TotalAmount,
		PlatformEarnings:  pricing.PlatformEarnings,
	}
}

type refundPayload struct {
	RefundAmount     int64   `json:"refund_amount"`
	RefundPercentage float64 `json:"refund_percentage"`
	PlatformRetains  int64   `json:"platform_retains"`
}

func buildRefundPayload(refund domain.RefundBreakdown) refundPayload {
	return refundPayload{
		RefundAmount:     refund.RefundAmount,
		RefundPercentage: refund.RefundPercentage,
		PlatformRetains:  refund.PlatformRetains,
	}
}

type chatQuestionPayload struct {
	ID          string   `json:"id"`
	ConditionID string   `json:"condition_id"`
	Text        string   `json:"text"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Order       int      `json:"order"`
	IsRequired  bool     `json:"is_required"`
}

func buildChatQuestionPayload(question domain.ChatQuestion) chatQuestionPayload {
	return chatQuestionPayload{
		ID:          question.ID,
		ConditionID: question.ConditionID,
		Text:        question.Text,
		Type:        string(question.Type),
		Options:     question.Options,
		Order:       question.Order,
		IsRequired:  question.IsRequired,
	}
}

type chatSessionPayload struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	ConditionID    string            `json:"condition_id"`
	CoachID        string            `json:"coach_id"`
	Answers        map[string]string `json:"answers"`
	TotalQuestions int               `json:"total_questions"`
	Status         string            `json:"status"`
	CreatedAt      string            `json:"created_at"`
	CompletedAt    string            `json:"completed_at,omitempty"`
}

func buildChatSessionPayload(session domain.ChatSession) chatSessionPayload {
	return chatSessionPayload{
		ID:             session.ID,
		UserID:         session.UserID,
		ConditionID:    session.ConditionID,
		CoachID:        session.CoachID,
		Answers:        session.Answers,
		TotalQuestions: session.TotalQuestions,
		Status:         string(session.Status),
		CreatedAt:      formatTime(session.CreatedAt),
		CompletedAt:    formatTimePtr(session.CompletedAt),
	}
}

type bookingPayload struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	CoachID         string         `json:"coach_id"`
	ConditionID     string         `json:"condition_id"`
	ChatSessionID   string         `json:"chat_session_id"`
	ScheduledAt     string         `json:"scheduled_at"`
	DurationMinutes int            `json:"duration_minutes"`
	Pricing         pricingPayload `json:"pricing"`
	BookingStatus   string         `json:"booking_status"`
	PaymentStatus   string         `json:"payment_status"`
	Refund          *refundPayload `json:"refund,omitempty"`
	CancelledAt     string         `json:"cancelled_at,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

func buildBookingPayload(booking domain.Booking) bookingPayload {
	payload := bookingPayload{
		ID:              booking.ID,
		UserID:          booking.UserID,
		CoachID:         booking.CoachID,
		ConditionID:     booking.ConditionID,
		ChatSessionID:   booking.ChatSessionID,
		ScheduledAt:     formatTime(booking.ScheduledAt),
		DurationMinutes: booking.DurationMinutes,
		Pricing:         buildPricingPayload(booking.Pricing),
		BookingStatus:   string(booking.BookingStatus),
		PaymentStatus:   string(booking.PaymentStatus),
		CancelledAt:     formatTimePtr(booking.CancelledAt),
		CreatedAt:       formatTime(booking.CreatedAt),
	}
	if booking.Refund != nil {
		refund := buildRefundPayload(*booking.Refund)
		payload.Refund = &refund
	}
	return payload
}

type appointmentPayload struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	CoachID         string `json:"coach_id"`
	CoachName       string `json:"coach_name,omitempty"`
	ConditionID     string `json:"condition_id"`
	ChatSessionID   string `json:"chat_session_id"`
	ScheduledAt     string `json:"scheduled_at"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	ConsultationFee int64  `json:"consultation_fee"`
	TotalAmount     int64  `json:"total_amount"`
	MeetingLink     string `json:"meeting_link,omitempty"`
	PaymentAmount   int64  `json:"payment_amount,omitempty"`
	PaidAt          string `json:"paid_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func buildAppointmentPayload(appointment domain.Appointment) appointmentPayload {
	return appointmentPayload{
		ID:              appointment.ID,
		UserID:          appointment.UserID,
		CoachID:         appointment.CoachID,
		CoachName:       appointment.CoachName,
		ConditionID:     appointment.ConditionID,
		ChatSessionID:   appointment.ChatSessionID,
		ScheduledAt:     formatTime(appointment.ScheduledAt),
		Status:          string(appointment.Status),
		PaymentStatus:   string(appointment.PaymentStatus),
		ConsultationFee: appointment.ConsultationFee,
		TotalAmount:     appointment.TotalAmount,
		MeetingLink:     appointment.MeetingLink,
		PaymentAmount:   appointment.PaymentAmount,
		PaidAt:          formatTimePtr(appointment.PaidAt),
		CreatedAt:       formatTime(appointment.CreatedAt),
	}
}

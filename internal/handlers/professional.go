package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// ProfessionalHandlers serves the coach-facing console endpoints.
type ProfessionalHandlers struct {
	authn        *auth.Authenticator
	professional services.ProfessionalService
}

// NewProfessionalHandlers constructs handlers for the /professional endpoints.
func NewProfessionalHandlers(authn *auth.Authenticator, professional services.ProfessionalService) *ProfessionalHandlers {
	return &ProfessionalHandlers{
		authn:        authn,
		professional: professional,
	}
}

// Routes wires the /professional endpoints onto the provided router. Access is
// restricted to coach and professional roles.
func (h *ProfessionalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleCoach, auth.RoleProfessional))
	}
	r.Get("/dashboard/stats", h.dashboardStats)
	r.Get("/appointments", h.appointments)
	r.Get("/appointments/upcoming", h.upcomingAppointments)
	r.Get("/appointments/{appointmentID}/chat", h.chatHistory)
	r.Get("/profile", h.profile)
	r.Put("/fee", h.updateFee)
}

type updateFeeRequest struct {
	ConsultationFee int64 `json:"consultation_fee"`
}

type dashboardStatsPayload struct {
	TotalAppointments     int64 `json:"total_appointments"`
	UpcomingAppointments  int64 `json:"upcoming_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
	GrossEarnings         int64 `json:"gross_earnings"`
	CommissionPaid        int64 `json:"commission_paid"`
	NetEarnings           int64 `json:"net_earnings"`
	MonthAppointments     int64 `json:"month_appointments"`
	MonthGrossEarnings    int64 `json:"month_gross_earnings"`
	MonthNetEarnings      int64 `json:"month_net_earnings"`
}

type professionalAppointmentPayload struct {
	Appointment  appointmentPayload `json:"appointment"`
	PatientName  string             `json:"patient_name,omitempty"`
	PatientEmail string             `json:"patient_email,omitempty"`
}

func buildProfessionalAppointmentPayload(item services.ProfessionalAppointment) professionalAppointmentPayload {
	return professionalAppointmentPayload{
		Appointment:  buildAppointmentPayload(item.Appointment),
		PatientName:  item.PatientName,
		PatientEmail: item.PatientEmail,
	}
}

func (h *ProfessionalHandlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	stats, err := h.professional.DashboardStats(ctx, identity.UserID)
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"stats": dashboardStatsPayload{
		TotalAppointments:     stats.TotalAppointments,
		UpcomingAppointments:  stats.UpcomingAppointments,
		CompletedAppointments: stats.CompletedAppointments,
		GrossEarnings:         stats.GrossEarnings,
		CommissionPaid:        stats.CommissionPaid,
		NetEarnings:           stats.NetEarnings,
		MonthAppointments:     stats.MonthAppointments,
		MonthGrossEarnings:    stats.MonthGrossEarnings,
		MonthNetEarnings:      stats.MonthNetEarnings,
	}})
}

func (h *ProfessionalHandlers) appointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	page, err := h.professional.Appointments(ctx, identity.UserID, parsePagination(r))
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildProfessionalAppointmentPayload))
}

func (h *ProfessionalHandlers) upcomingAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	items, err := h.professional.UpcomingAppointments(ctx, identity.UserID)
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	payload := make([]professionalAppointmentPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, buildProfessionalAppointmentPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"appointments": payload})
}

func (h *ProfessionalHandlers) chatHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	session, err := h.professional.ChatHistory(ctx, identity.UserID, appointmentID)
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"session": buildChatSessionPayload(session)})
}

func (h *ProfessionalHandlers) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	coach, err := h.professional.Profile(ctx, identity.UserID)
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"coach": buildCoachPayload(coach)})
}

func (h *ProfessionalHandlers) updateFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req updateFeeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	coach, err := h.professional.UpdateFee(ctx, services.UpdateFeeCommand{
		UserID:          identity.UserID,
		ConsultationFee: req.ConsultationFee,
	})
	if err != nil {
		writeProfessionalError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"coach": buildCoachPayload(coach)})
}

func writeProfessionalError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProfessionalInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCoachFeeOutOfRange):
		httpx.WriteError(ctx, w, httpx.NewError("fee_out_of_range", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProfessionalNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("profile_not_found", "coaching profile not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProfessionalAppointmentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("appointment_not_found", "appointment not found", http.StatusNotFound))
	case errors.Is(err, services.ErrChatSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "chat session not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

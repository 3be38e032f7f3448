package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// AppointmentHandlers exposes appointment scheduling and the mock payment flow.
type AppointmentHandlers struct {
	authn        *auth.Authenticator
	appointments services.AppointmentService
	idempotency  func(http.Handler) http.Handler
}

// NewAppointmentHandlers constructs handlers for the /appointments endpoints.
func NewAppointmentHandlers(authn *auth.Authenticator, appointments services.AppointmentService, idempotency func(http.Handler) http.Handler) *AppointmentHandlers {
	return &AppointmentHandlers{
		authn:        authn,
		appointments: appointments,
		idempotency:  idempotency,
	}
}

// Routes wires the /appointments endpoints onto the provided router.
func (h *AppointmentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}

	r.Get("/", h.list)
	r.Get("/{appointmentID}", h.get)
	if h.idempotency != nil {
		r.With(h.idempotency).Post("/", h.create)
		r.With(h.idempotency).Post("/payment/mock", h.mockPayment)
	} else {
		r.Post("/", h.create)
		r.Post("/payment/mock", h.mockPayment)
	}
}

type createAppointmentRequest struct {
	ChatSessionID string    `json:"chat_session_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type mockPaymentRequest struct {
	AppointmentID    string `json:"appointment_id"`
	Amount           int64  `json:"amount"`
	PaymentReference string `json:"payment_reference"`
}

func (h *AppointmentHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	appointment, err := h.appointments.Create(ctx, services.CreateAppointmentCommand{
		UserID:        identity.UserID,
		ChatSessionID: req.ChatSessionID,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		writeAppointmentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"appointment": buildAppointmentPayload(appointment)})
}

func (h *AppointmentHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	page, err := h.appointments.ListMine(ctx, identity.UserID, parsePagination(r))
	if err != nil {
		writeAppointmentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildAppointmentPayload))
}

func (h *AppointmentHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	appointmentID := strings.TrimSpace(chi.URLParam(r, "appointmentID"))
	appointment, err := h.appointments.Get(ctx, identity.UserID, appointmentID)
	if err != nil {
		writeAppointmentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"appointment": buildAppointmentPayload(appointment)})
}

func (h *AppointmentHandlers) mockPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req mockPaymentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	receipt, err := h.appointments.RecordPayment(ctx, services.RecordPaymentCommand{
		UserID:           identity.UserID,
		AppointmentID:    req.AppointmentID,
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		writeAppointmentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"appointment":  buildAppointmentPayload(receipt.Appointment),
		"meeting_link": receipt.MeetingLink,
	})
}

func writeAppointmentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAppointmentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAppointmentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("appointment_not_found", "appointment not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAppointmentSessionIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("session_incomplete", "intake session is not completed", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrAppointmentCoachUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("coach_unavailable", "coach is not available", http.StatusConflict))
	case errors.Is(err, services.ErrAppointmentAlreadyPaid):
		httpx.WriteError(ctx, w, httpx.NewError("already_paid", "appointment is already paid", http.StatusConflict))
	case errors.Is(err, services.ErrAppointmentAmountMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("amount_mismatch", "payment amount does not match the billed total", http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

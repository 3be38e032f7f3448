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

// BookingHandlers exposes booking creation, listing, and cancellation.
type BookingHandlers struct {
	authn       *auth.Authenticator
	bookings    services.BookingService
	idempotency func(http.Handler) http.Handler
}

// NewBookingHandlers constructs handlers for the /bookings endpoints. The
// optional idempotency middleware guards the mutating routes against retries.
func NewBookingHandlers(authn *auth.Authenticator, bookings services.BookingService, idempotency func(http.Handler) http.Handler) *BookingHandlers {
	return &BookingHandlers{
		authn:       authn,
		bookings:    bookings,
		idempotency: idempotency,
	}
}

// Routes wires the /bookings endpoints onto the provided router.
func (h *BookingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}

	r.Get("/", h.list)
	if h.idempotency != nil {
		r.With(h.idempotency).Post("/", h.create)
		r.With(h.idempotency).Post("/{bookingID}/cancel", h.cancel)
	} else {
		r.Post("/", h.create)
		r.Post("/{bookingID}/cancel", h.cancel)
	}
}

type createBookingRequest struct {
	ChatSessionID string    `json:"chat_session_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	confirmation, err := h.bookings.Create(ctx, services.CreateBookingCommand{
		UserID:        identity.UserID,
		ChatSessionID: req.ChatSessionID,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"booking":         buildBookingPayload(confirmation.Booking),
		"payment_summary": confirmation.PaymentSummary,
	})
}

func (h *BookingHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	page, err := h.bookings.ListMine(ctx, identity.UserID, parsePagination(r))
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildBookingPayload))
}

func (h *BookingHandlers) cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req cancelBookingRequest
	if err := decodeJSONBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	booking, err := h.bookings.Cancel(ctx, services.CancelBookingCommand{
		UserID:    identity.UserID,
		BookingID: strings.TrimSpace(chi.URLParam(r, "bookingID")),
		Reason:    req.Reason,
	})
	if err != nil {
		writeBookingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"booking": buildBookingPayload(booking)})
}

func writeBookingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBookingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBookingPastSlot):
		httpx.WriteError(ctx, w, httpx.NewError("past_slot", "scheduled time must be in the future", http.StatusBadRequest))
	case errors.Is(err, services.ErrBookingNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("booking_not_found", "booking not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookingSessionIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("session_incomplete", "intake session is not completed", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrBookingCoachUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("coach_unavailable", "coach is not available", http.StatusConflict))
	case errors.Is(err, services.ErrBookingAlreadyCancelled):
		httpx.WriteError(ctx, w, httpx.NewError("already_cancelled", "booking is already cancelled", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

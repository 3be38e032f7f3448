package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// AdminHandlers serves the operator console endpoints.
type AdminHandlers struct {
	authn     *auth.Authenticator
	analytics services.AnalyticsService
	catalog   services.CatalogService
}

// NewAdminHandlers constructs handlers for the /admin endpoints.
func NewAdminHandlers(authn *auth.Authenticator, analytics services.AnalyticsService, catalog services.CatalogService) *AdminHandlers {
	return &AdminHandlers{
		authn:     authn,
		analytics: analytics,
		catalog:   catalog,
	}
}

// Routes wires the /admin endpoints onto the provided router. Admin role only.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Get("/overview", h.overview)
	r.Get("/users", h.listUsers)
	r.Get("/professionals", h.listProfessionals)
	r.Put("/professionals/{coachID}/status", h.setProfessionalStatus)
	r.Get("/appointments", h.listAppointments)
	r.Post("/conditions", h.upsertCondition)
	r.Put("/conditions/{conditionID}", h.upsertCondition)
}

type platformOverviewPayload struct {
	TotalUsers            int64 `json:"total_users"`
	TotalProfessionals    int64 `json:"total_professionals"`
	PendingProfessionals  int64 `json:"pending_professionals"`
	TotalAppointments     int64 `json:"total_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
	GrossRevenue          int64 `json:"gross_revenue"`
	CommissionEarned      int64 `json:"commission_earned"`
	MonthGrossRevenue     int64 `json:"month_gross_revenue"`
	MonthCommissionEarned int64 `json:"month_commission_earned"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type upsertConditionRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Icon            string   `json:"icon"`
	Color           string   `json:"color"`
	CommonSymptoms  []string `json:"common_symptoms"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	IsActive        *bool    `json:"is_active"`
	DisplayOrder    int      `json:"display_order"`
}

func (h *AdminHandlers) overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overview, err := h.analytics.Overview(ctx)
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"overview": platformOverviewPayload{
		TotalUsers:            overview.TotalUsers,
		TotalProfessionals:    overview.TotalProfessionals,
		PendingProfessionals:  overview.PendingProfessionals,
		TotalAppointments:     overview.TotalAppointments,
		CompletedAppointments: overview.CompletedAppointments,
		GrossRevenue:          overview.GrossRevenue,
		CommissionEarned:      overview.CommissionEarned,
		MonthGrossRevenue:     overview.MonthGrossRevenue,
		MonthCommissionEarned: overview.MonthCommissionEarned,
	}})
}

func (h *AdminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.UserListFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Pagination: parsePagination(r),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role := domain.Role(strings.ToLower(raw))
		filter.Role = &role
	}

	page, err := h.analytics.ListUsers(ctx, filter)
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildUserPayload))
}

func (h *AdminHandlers) listProfessionals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.ProfessionalListFilter{Pagination: parsePagination(r)}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			status = strings.ToLower(strings.TrimSpace(status))
			if status != "" {
				filter.Status = append(filter.Status, domain.CoachStatus(status))
			}
		}
	}

	page, err := h.analytics.ListProfessionals(ctx, filter)
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildCoachPayload))
}

func (h *AdminHandlers) setProfessionalStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	coach, err := h.analytics.SetProfessionalStatus(ctx, services.SetCoachStatusCommand{
		CoachID: strings.TrimSpace(chi.URLParam(r, "coachID")),
		Status:  domain.CoachStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		ActorID: identity.UserID,
	})
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"coach": buildCoachPayload(coach)})
}

func (h *AdminHandlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := services.AppointmentListFilter{Pagination: parsePagination(r)}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			status = strings.ToLower(strings.TrimSpace(status))
			if status != "" {
				filter.Status = append(filter.Status, domain.AppointmentStatus(status))
			}
		}
	}
	if from, ok := parseTimeParam(r, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeParam(r, "to"); ok {
		filter.To = &to
	}

	page, err := h.analytics.ListAppointments(ctx, filter)
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildAppointmentPayload))
}

func (h *AdminHandlers) upsertCondition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req upsertConditionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	condition := domain.Condition{
		ID:              strings.TrimSpace(chi.URLParam(r, "conditionID")),
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Icon:            req.Icon,
		Color:           req.Color,
		CommonSymptoms:  req.CommonSymptoms,
		MetaDescription: req.MetaDescription,
		Keywords:        req.Keywords,
		IsActive:        true,
		DisplayOrder:    req.DisplayOrder,
	}
	if req.IsActive != nil {
		condition.IsActive = *req.IsActive
	}

	saved, err := h.catalog.UpsertCondition(ctx, services.UpsertConditionCommand{
		Condition: condition,
		ActorID:   identity.UserID,
	})
	if err != nil {
		writeAdminError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if condition.ID == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, map[string]any{"condition": buildConditionPayload(saved)})
}

func parseTimeParam(r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func writeAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput), errors.Is(err, services.ErrCoachInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrConditionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("condition_not_found", "condition not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCoachNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("coach_not_found", "coach not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

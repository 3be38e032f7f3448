package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// ConditionHandlers serves the public condition catalog.
type ConditionHandlers struct {
	catalog services.CatalogService
}

// NewConditionHandlers constructs handlers for the condition catalog endpoints.
func NewConditionHandlers(catalog services.CatalogService) *ConditionHandlers {
	return &ConditionHandlers{catalog: catalog}
}

// Routes wires the /conditions endpoints onto the provided router.
func (h *ConditionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Get("/{conditionID}", h.get)
	r.Get("/{conditionID}/coaches", h.listCoaches)
}

func (h *ConditionHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conditions, err := h.catalog.ListConditions(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]conditionPayload, 0, len(conditions))
	for _, condition := range conditions {
		payload = append(payload, buildConditionPayload(condition))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"conditions": payload})
}

func (h *ConditionHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conditionID := strings.TrimSpace(chi.URLParam(r, "conditionID"))

	condition, err := h.catalog.GetCondition(ctx, conditionID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"condition": buildConditionPayload(condition)})
}

func (h *ConditionHandlers) listCoaches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conditionID := strings.TrimSpace(chi.URLParam(r, "conditionID"))

	coaches, err := h.catalog.ListConditionCoaches(ctx, conditionID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]coachPayload, 0, len(coaches))
	for _, coach := range coaches {
		payload = append(payload, buildCoachPayload(coach))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"coaches": payload})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrConditionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("condition_not_found", "condition not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

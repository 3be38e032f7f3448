package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/platform/httpx"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

// CoachHandlers exposes the public coach directory and self-service profile endpoints.
type CoachHandlers struct {
	authn   *auth.Authenticator
	coaches services.CoachService
}

// NewCoachHandlers constructs handlers for the /coaches endpoints.
func NewCoachHandlers(authn *auth.Authenticator, coaches services.CoachService) *CoachHandlers {
	return &CoachHandlers{
		authn:   authn,
		coaches: coaches,
	}
}

// Routes wires the /coaches endpoints onto the provided router.
func (h *CoachHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Get("/{coachID}", h.get)

	r.Group(func(authed chi.Router) {
		if h.authn != nil {
			authed.Use(h.authn.RequireAuth())
		}
		authed.Post("/apply", h.apply)
		authed.Get("/my/profile", h.myProfile)
		authed.Post("/my/profile-image", h.profileImageUpload)
	})
}

type coachApplicationRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Qualification   string   `json:"qualification"`
	ExperienceYears int      `json:"experience_years"`
	Bio             string   `json:"bio"`
	Languages       []string `json:"languages"`
	ConsultationFee int64    `json:"consultation_fee"`
	ConditionIDs    []string `json:"condition_ids"`
}

type profileImageUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *CoachHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.coaches.List(ctx, services.CoachListFilter{
		ConditionID: strings.TrimSpace(r.URL.Query().Get("condition_id")),
		Pagination:  parsePagination(r),
	})
	if err != nil {
		writeCoachError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildPagePayload(page, buildCoachPayload))
}

func (h *CoachHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coachID := strings.TrimSpace(chi.URLParam(r, "coachID"))

	detail, err := h.coaches.Get(ctx, coachID)
	if err != nil {
		writeCoachError(ctx, w, err)
		return
	}

	conditions := make([]conditionPayload, 0, len(detail.Conditions))
	for _, condition := range detail.Conditions {
		conditions = append(conditions, buildConditionPayload(condition))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"coach":      buildCoachPayload(detail.Coach),
		"conditions": conditions,
	})
}

func (h *CoachHandlers) apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req coachApplicationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	coach, err := h.coaches.Apply(ctx, services.CoachApplicationCommand{
		UserID:          identity.UserID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Bio:             req.Bio,
		Languages:       req.Languages,
		ConsultationFee: req.ConsultationFee,
		ConditionIDs:    req.ConditionIDs,
	})
	if err != nil {
		writeCoachError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{"coach": buildCoachPayload(coach)})
}

func (h *CoachHandlers) myProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	coach, err := h.coaches.MyProfile(ctx, identity.UserID)
	if err != nil {
		writeCoachError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"coach": buildCoachPayload(coach)})
}

func (h *CoachHandlers) profileImageUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req profileImageUploadRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	signed, err := h.coaches.IssueProfileImageUpload(ctx, services.SignedUploadCommand{
		ActorID:     identity.UserID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		writeCoachError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildSignedAssetPayload(signed))
}

type signedAssetPayload struct {
	AssetID   string            `json:"asset_id"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	ExpiresAt string            `json:"expires_at"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func buildSignedAssetPayload(signed domain.SignedAssetResponse) signedAssetPayload {
	return signedAssetPayload{
		AssetID:   signed.AssetID,
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: formatTime(signed.ExpiresAt),
		Headers:   signed.Headers,
	}
}

func writeCoachError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCoachInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCoachFeeOutOfRange):
		httpx.WriteError(ctx, w, httpx.NewError("fee_out_of_range", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCoachAlreadyApplied):
		httpx.WriteError(ctx, w, httpx.NewError("already_applied", "coaching profile already exists", http.StatusConflict))
	case errors.Is(err, services.ErrCoachNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("coach_not_found", "coach not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCoachUploadsUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("uploads_unavailable", "profile image uploads are unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

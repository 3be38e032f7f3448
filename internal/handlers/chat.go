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

// ChatHandlers exposes the guided intake conversation endpoints.
type ChatHandlers struct {
	authn *auth.Authenticator
	chat  services.ChatService
}

// NewChatHandlers constructs handlers for the /chat endpoints.
func NewChatHandlers(authn *auth.Authenticator, chat services.ChatService) *ChatHandlers {
	return &ChatHandlers{
		authn: authn,
		chat:  chat,
	}
}

// Routes wires the /chat endpoints onto the provided router. Every endpoint
// requires an authenticated caller.
func (h *ChatHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/start", h.start)
	r.Post("/answer", h.answer)
	r.Post("/complete", h.complete)
	r.Get("/session/{sessionID}", h.getSession)
}

type startChatRequest struct {
	ConditionID string `json:"condition_id"`
	CoachID     string `json:"coach_id"`
}

type submitAnswerRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type completeChatRequest struct {
	SessionID string `json:"session_id"`
}

func (h *ChatHandlers) start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req startChatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	result, err := h.chat.Start(ctx, services.StartChatCommand{
		UserID:      identity.UserID,
		ConditionID: req.ConditionID,
		CoachID:     req.CoachID,
	})
	if err != nil {
		writeChatError(ctx, w, err)
		return
	}

	questions := make([]chatQuestionPayload, 0, len(result.Questions))
	for _, question := range result.Questions {
		questions = append(questions, buildChatQuestionPayload(question))
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"session":   buildChatSessionPayload(result.Session),
		"questions": questions,
	})
}

func (h *ChatHandlers) answer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session, err := h.chat.SubmitAnswer(ctx, services.SubmitAnswerCommand{
		UserID:     identity.UserID,
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Answer:     req.Answer,
	})
	if err != nil {
		writeChatError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"session": buildChatSessionPayload(session)})
}

func (h *ChatHandlers) complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req completeChatRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	completion, err := h.chat.Complete(ctx, services.CompleteChatCommand{
		UserID:    identity.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeChatError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"session":          buildChatSessionPayload(completion.Session),
		"coach_id":         completion.CoachID,
		"consultation_fee": completion.ConsultationFee,
	})
}

func (h *ChatHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	session, err := h.chat.GetSession(ctx, identity.UserID, sessionID)
	if err != nil {
		writeChatError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"session": buildChatSessionPayload(session)})
}

func writeChatError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrChatInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrChatSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "chat session not found", http.StatusNotFound))
	case errors.Is(err, services.ErrChatSessionClosed):
		httpx.WriteError(ctx, w, httpx.NewError("session_closed", "chat session already completed", http.StatusConflict))
	case errors.Is(err, services.ErrChatIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("chat_incomplete", "required questions are unanswered", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrChatUnknownQuestion):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_question", "question does not belong to this session", http.StatusBadRequest))
	case errors.Is(err, services.ErrChatCoachUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("coach_unavailable", "coach is not available for this condition", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected failure", http.StatusInternalServerError))
	}
}

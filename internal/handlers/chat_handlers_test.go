package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/auth"
	"github.com/J2c-ashwani/cdisease/internal/services"
)

type stubChatService struct {
	startFn    func(context.Context, services.StartChatCommand) (services.ChatStartResult, error)
	answerFn   func(context.Context, services.SubmitAnswerCommand) (services.ChatSession, error)
	getFn      func(context.Context, string, string) (services.ChatSession, error)
	completeFn func(context.Context, services.CompleteChatCommand) (services.ChatCompletion, error)
}

func (s *stubChatService) Start(ctx context.Context, cmd services.StartChatCommand) (services.ChatStartResult, error) {
	if s.startFn != nil {
		return s.startFn(ctx, cmd)
	}
	return services.ChatStartResult{}, errors.New("not implemented")
}

func (s *stubChatService) SubmitAnswer(ctx context.Context, cmd services.SubmitAnswerCommand) (services.ChatSession, error) {
	if s.answerFn != nil {
		return s.answerFn(ctx, cmd)
	}
	return services.ChatSession{}, errors.New("not implemented")
}

func (s *stubChatService) GetSession(ctx context.Context, userID string, sessionID string) (services.ChatSession, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, sessionID)
	}
	return services.ChatSession{}, errors.New("not implemented")
}

func (s *stubChatService) Complete(ctx context.Context, cmd services.CompleteChatCommand) (services.ChatCompletion, error) {
	if s.completeFn != nil {
		return s.completeFn(ctx, cmd)
	}
	return services.ChatCompletion{}, errors.New("not implemented")
}

var _ services.ChatService = (*stubChatService)(nil)

func newChatTestRouter(service services.ChatService) chi.Router {
	handler := NewChatHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/chat", handler.Routes)
	return router
}

func TestChatHandlersStart(t *testing.T) {
	service := &stubChatService{
		startFn: func(ctx context.Context, cmd services.StartChatCommand) (services.ChatStartResult, error) {
			if cmd.UserID != "usr_1" || cmd.ConditionID != "cond_diabetes" || cmd.CoachID != "coach_1" {
				t.Fatalf("unexpected command: %+v", cmd)
			}
			return services.ChatStartResult{
				Session: domain.ChatSession{
					ID:             "chat_1",
					UserID:         "usr_1",
					ConditionID:    "cond_diabetes",
					CoachID:        "coach_1",
					TotalQuestions: 3,
					Status:         domain.ChatSessionStatusActive,
				},
				Questions: []services.ChatQuestion{
					{ID: "cq_1", Text: "How long have you had this condition?", Type: domain.ChatQuestionTypeMultipleChoice, Order: 1, IsRequired: true},
					{ID: "cq_2", Text: "Are you on any medication?", Type: domain.ChatQuestionTypeMultipleChoice, Order: 2, IsRequired: true},
					{ID: "cq_3", Text: "What is your goal?", Type: domain.ChatQuestionTypeText, Order: 3, IsRequired: true},
				},
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"condition_id":"cond_diabetes","coach_id":"coach_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/start", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newChatTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Session struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"session"`
		Questions []struct {
			ID string `json:"id"`
		} `json:"questions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Session.ID != "chat_1" || payload.Session.Status != "active" {
		t.Fatalf("unexpected session payload: %+v", payload.Session)
	}
	if len(payload.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(payload.Questions))
	}
}

func TestChatHandlersStartUnauthenticated(t *testing.T) {
	body := bytes.NewBufferString(`{"condition_id":"cond_diabetes","coach_id":"coach_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/start", body)
	rr := httptest.NewRecorder()
	newChatTestRouter(&stubChatService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestChatHandlersAnswerRejected(t *testing.T) {
	service := &stubChatService{
		answerFn: func(context.Context, services.SubmitAnswerCommand) (services.ChatSession, error) {
			return services.ChatSession{}, services.ErrChatUnknownQuestion
		},
	}

	body := bytes.NewBufferString(`{"session_id":"chat_1","question_id":"cq_bogus","answer":"Yes"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/answer", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newChatTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["error"] != "unknown_question" {
		t.Fatalf("expected unknown_question, got %v", payload["error"])
	}
}

func TestChatHandlersCompleteReturnsFee(t *testing.T) {
	service := &stubChatService{
		completeFn: func(ctx context.Context, cmd services.CompleteChatCommand) (services.ChatCompletion, error) {
			if cmd.SessionID != "chat_1" {
				t.Fatalf("expected chat_1, got %s", cmd.SessionID)
			}
			return services.ChatCompletion{
				Session:         domain.ChatSession{ID: "chat_1", Status: domain.ChatSessionStatusCompleted},
				CoachID:         "coach_1",
				ConsultationFee: 800,
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"session_id":"chat_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/complete", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newChatTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		CoachID         string `json:"coach_id"`
		ConsultationFee int64  `json:"consultation_fee"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.CoachID != "coach_1" || payload.ConsultationFee != 800 {
		t.Fatalf("unexpected completion payload: %+v", payload)
	}
}

func TestChatHandlersCompleteIncomplete(t *testing.T) {
	service := &stubChatService{
		completeFn: func(context.Context, services.CompleteChatCommand) (services.ChatCompletion, error) {
			return services.ChatCompletion{}, services.ErrChatIncomplete
		},
	}

	body := bytes.NewBufferString(`{"session_id":"chat_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat/complete", body)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newChatTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestChatHandlersGetSession(t *testing.T) {
	service := &stubChatService{
		getFn: func(ctx context.Context, userID string, sessionID string) (services.ChatSession, error) {
			if userID != "usr_1" || sessionID != "chat_1" {
				t.Fatalf("unexpected lookup: %s %s", userID, sessionID)
			}
			return domain.ChatSession{ID: "chat_1", UserID: "usr_1", Answers: map[string]string{"cq_1": "Yes"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/session/chat_1", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: "usr_1"}))
	rr := httptest.NewRecorder()
	newChatTestRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload struct {
		Session struct {
			Answers map[string]string `json:"answers"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Session.Answers["cq_1"] != "Yes" {
		t.Fatalf("unexpected answers: %+v", payload.Session.Answers)
	}
}

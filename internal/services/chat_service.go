package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/platform/textutil"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const (
	chatSessionIDPrefix  = "chat_"
	chatQuestionIDPrefix = "cq_"
)

var (
	// ErrChatInvalidInput indicates validation failures for chat operations.
	ErrChatInvalidInput = errors.New("chat: invalid input")
	// ErrChatSessionNotFound indicates the session does not exist or belongs to another user.
	ErrChatSessionNotFound = errors.New("chat: session not found")
	// ErrChatSessionClosed indicates the session already completed.
	ErrChatSessionClosed = errors.New("chat: session already completed")
	// ErrChatIncomplete indicates required questions remain unanswered.
	ErrChatIncomplete = errors.New("chat: required questions unanswered")
	// ErrChatUnknownQuestion indicates the answered question is not part of the intake set.
	ErrChatUnknownQuestion = errors.New("chat: unknown question")
	// ErrChatCoachUnavailable indicates the chosen coach cannot take the consultation.
	ErrChatCoachUnavailable = errors.New("chat: coach unavailable")
)

// ChatServiceDeps bundles collaborators required to construct a ChatService.
type ChatServiceDeps struct {
	Sessions    repositories.ChatSessionRepository
	Questions   repositories.ChatQuestionRepository
	Conditions  repositories.ConditionRepository
	Coaches     repositories.CoachRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type chatService struct {
	sessions   repositories.ChatSessionRepository
	questions  repositories.ChatQuestionRepository
	conditions repositories.ConditionRepository
	coaches    repositories.CoachRepository
	clock      func() time.Time
	newID      func() string
	log        func(ctx context.Context, event string, fields map[string]any)
}

// NewChatService wires dependencies into a concrete ChatService implementation.
func NewChatService(deps ChatServiceDeps) (ChatService, error) {
	if deps.Sessions == nil {
		return nil, errors.New("chat service: session repository is required")
	}
	if deps.Questions == nil {
		return nil, errors.New("chat service: question repository is required")
	}
	if deps.Conditions == nil {
		return nil, errors.New("chat service: condition repository is required")
	}
	if deps.Coaches == nil {
		return nil, errors.New("chat service: coach repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return chatSessionIDPrefix + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &chatService{
		sessions:   deps.Sessions,
		questions:  deps.Questions,
		conditions: deps.Conditions,
		coaches:    deps.Coaches,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
		log:   logger,
	}, nil
}

// Start opens an intake session for a condition and a chosen coach. The
// condition's question set is seeded on first use so every condition always
// has an intake flow.
func (s *chatService) Start(ctx context.Context, cmd StartChatCommand) (ChatStartResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	conditionID := strings.TrimSpace(cmd.ConditionID)
	coachID := strings.TrimSpace(cmd.CoachID)
	switch {
	case userID == "":
		return ChatStartResult{}, fmt.Errorf("%w: user id is required", ErrChatInvalidInput)
	case conditionID == "":
		return ChatStartResult{}, fmt.Errorf("%w: condition id is required", ErrChatInvalidInput)
	case coachID == "":
		return ChatStartResult{}, fmt.Errorf("%w: coach id is required", ErrChatInvalidInput)
	}

	condition, err := s.conditions.FindByID(ctx, conditionID)
	if err != nil {
		if isRepoNotFound(err) {
			return ChatStartResult{}, fmt.Errorf("%w: unknown condition %s", ErrChatInvalidInput, conditionID)
		}
		return ChatStartResult{}, err
	}
	if !condition.IsActive {
		return ChatStartResult{}, fmt.Errorf("%w: condition %s is not active", ErrChatInvalidInput, conditionID)
	}

	coach, err := s.coaches.FindByID(ctx, coachID)
	if err != nil {
		if isRepoNotFound(err) {
			return ChatStartResult{}, ErrChatCoachUnavailable
		}
		return ChatStartResult{}, err
	}
	if coach.Status != domain.CoachStatusApproved {
		return ChatStartResult{}, ErrChatCoachUnavailable
	}
	if !coachServesCondition(coach, conditionID) {
		return ChatStartResult{}, fmt.Errorf("%w: coach does not cover %s", ErrChatCoachUnavailable, conditionID)
	}

	questions, err := s.questions.ListByCondition(ctx, conditionID)
	if err != nil {
		return ChatStartResult{}, err
	}
	if len(questions) == 0 {
		questions = s.defaultQuestions(condition)
		if err := s.questions.InsertBatch(ctx, questions); err != nil {
			return ChatStartResult{}, err
		}
		s.log(ctx, "chat.questions_seeded", map[string]any{
			"condition_id": conditionID,
			"count":        len(questions),
		})
	}

	now := s.clock()
	session := domain.ChatSession{
		ID:             s.newID(),
		UserID:         userID,
		ConditionID:    conditionID,
		CoachID:        coachID,
		Answers:        map[string]string{},
		TotalQuestions: len(questions),
		Status:         domain.ChatSessionStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return ChatStartResult{}, err
	}
	s.log(ctx, "chat.started", map[string]any{
		"session_id":   session.ID,
		"condition_id": conditionID,
		"coach_id":     coachID,
	})
	return ChatStartResult{Session: session, Questions: questions}, nil
}

func (s *chatService) SubmitAnswer(ctx context.Context, cmd SubmitAnswerCommand) (ChatSession, error) {
	questionID := strings.TrimSpace(cmd.QuestionID)
	answer := strings.TrimSpace(cmd.Answer)
	if questionID == "" {
		return ChatSession{}, fmt.Errorf("%w: question id is required", ErrChatInvalidInput)
	}
	if answer == "" {
		return ChatSession{}, fmt.Errorf("%w: answer is required", ErrChatInvalidInput)
	}

	session, err := s.ownedSession(ctx, cmd.UserID, cmd.SessionID)
	if err != nil {
		return ChatSession{}, err
	}
	if session.Status != domain.ChatSessionStatusActive {
		return ChatSession{}, ErrChatSessionClosed
	}

	questions, err := s.questions.ListByCondition(ctx, session.ConditionID)
	if err != nil {
		return ChatSession{}, err
	}
	question, ok := findQuestion(questions, questionID)
	if !ok {
		return ChatSession{}, ErrChatUnknownQuestion
	}
	if question.Type == domain.ChatQuestionTypeMultipleChoice && !containsOption(question.Options, answer) {
		return ChatSession{}, fmt.Errorf("%w: answer %q is not one of the offered options", ErrChatInvalidInput, answer)
	}

	if session.Answers == nil {
		session.Answers = map[string]string{}
	}
	session.Answers[questionID] = answer
	session.UpdatedAt = s.clock()
	if err := s.sessions.Update(ctx, session); err != nil {
		return ChatSession{}, err
	}
	return session, nil
}

func (s *chatService) GetSession(ctx context.Context, userID string, sessionID string) (ChatSession, error) {
	return s.ownedSession(ctx, userID, sessionID)
}

// Complete closes the intake once every required question has an answer and
// hands back the coach's fee so the caller can proceed to booking.
func (s *chatService) Complete(ctx context.Context, cmd CompleteChatCommand) (ChatCompletion, error) {
	session, err := s.ownedSession(ctx, cmd.UserID, cmd.SessionID)
	if err != nil {
		return ChatCompletion{}, err
	}
	if session.Status == domain.ChatSessionStatusCompleted {
		return ChatCompletion{}, ErrChatSessionClosed
	}

	questions, err := s.questions.ListByCondition(ctx, session.ConditionID)
	if err != nil {
		return ChatCompletion{}, err
	}
	for _, question := range questions {
		if !question.IsRequired {
			continue
		}
		if strings.TrimSpace(session.Answers[question.ID]) == "" {
			return ChatCompletion{}, fmt.Errorf("%w: question %s", ErrChatIncomplete, question.ID)
		}
	}

	coach, err := s.coaches.FindByID(ctx, session.CoachID)
	if err != nil {
		if isRepoNotFound(err) {
			return ChatCompletion{}, ErrChatCoachUnavailable
		}
		return ChatCompletion{}, err
	}
	if coach.Status != domain.CoachStatusApproved {
		return ChatCompletion{}, ErrChatCoachUnavailable
	}

	now := s.clock()
	session.Answers = textutil.NormalizeStringMap(session.Answers)
	session.Status = domain.ChatSessionStatusCompleted
	session.CompletedAt = &now
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session); err != nil {
		return ChatCompletion{}, err
	}
	s.log(ctx, "chat.completed", map[string]any{
		"session_id": session.ID,
		"coach_id":   session.CoachID,
	})
	return ChatCompletion{
		Session:         session,
		CoachID:         coach.ID,
		ConsultationFee: coach.ConsultationFee,
	}, nil
}

func (s *chatService) ownedSession(ctx context.Context, userID string, sessionID string) (domain.ChatSession, error) {
	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return domain.ChatSession{}, fmt.Errorf("%w: user id and session id are required", ErrChatInvalidInput)
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.ChatSession{}, ErrChatSessionNotFound
		}
		return domain.ChatSession{}, err
	}
	if session.UserID != userID {
		return domain.ChatSession{}, ErrChatSessionNotFound
	}
	return session, nil
}

// defaultQuestions is the generic three-question intake used until a
// condition gets a curated question set.
func (s *chatService) defaultQuestions(condition domain.Condition) []domain.ChatQuestion {
	now := s.clock()
	return []domain.ChatQuestion{
		{
			ID:          chatQuestionIDPrefix + ulid.Make().String(),
			ConditionID: condition.ID,
			Text:        fmt.Sprintf("How long have you been managing %s?", condition.Name),
			Type:        domain.ChatQuestionTypeMultipleChoice,
			Options:     []string{"Less than 6 months", "6 months to 2 years", "2 to 5 years", "More than 5 years"},
			Order:       1,
			IsRequired:  true,
			CreatedAt:   now,
		},
		{
			ID:          chatQuestionIDPrefix + ulid.Make().String(),
			ConditionID: condition.ID,
			Text:        "Are you currently on any prescribed medication for this condition?",
			Type:        domain.ChatQuestionTypeMultipleChoice,
			Options:     []string{"Yes", "No", "Occasionally"},
			Order:       2,
			IsRequired:  true,
			CreatedAt:   now,
		},
		{
			ID:          chatQuestionIDPrefix + ulid.Make().String(),
			ConditionID: condition.ID,
			Text:        "What would you most like help with from your coach?",
			Type:        domain.ChatQuestionTypeText,
			Order:       3,
			IsRequired:  true,
			CreatedAt:   now,
		},
	}
}

func coachServesCondition(coach domain.Coach, conditionID string) bool {
	for _, id := range coach.ConditionIDs {
		if id == conditionID {
			return true
		}
	}
	return false
}

func findQuestion(questions []domain.ChatQuestion, questionID string) (domain.ChatQuestion, bool) {
	for _, question := range questions {
		if question.ID == questionID {
			return question, true
		}
	}
	return domain.ChatQuestion{}, false
}

func containsOption(options []string, answer string) bool {
	for _, option := range options {
		if strings.EqualFold(option, answer) {
			return true
		}
	}
	return false
}

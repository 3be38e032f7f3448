package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	pfirestore "github.com/J2c-ashwani/cdisease/internal/platform/firestore"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const chatSessionsCollection = "chatSessions"

// ChatSessionRepository persists intake conversations in Firestore.
type ChatSessionRepository struct {
	base *pfirestore.BaseRepository[chatSessionDocument]
}

// NewChatSessionRepository constructs a Firestore-backed session repository.
func NewChatSessionRepository(provider *pfirestore.Provider) (*ChatSessionRepository, error) {
	if provider == nil {
		return nil, errors.New("chat session repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[chatSessionDocument](provider, chatSessionsCollection, nil, nil)
	return &ChatSessionRepository{base: base}, nil
}

// Insert stores a new session. The ID must be unique.
func (r *ChatSessionRepository) Insert(ctx context.Context, session domain.ChatSession) error {
	if r == nil || r.base == nil {
		return errors.New("chat session repository not initialised")
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return errors.New("chat session repository: session id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeChatSessionDocument(session)); err != nil {
		return pfirestore.WrapError("chat_sessions.insert", err)
	}
	return nil
}

// Update replaces the persisted session state.
func (r *ChatSessionRepository) Update(ctx context.Context, session domain.ChatSession) error {
	if r == nil || r.base == nil {
		return errors.New("chat session repository not initialised")
	}
	sessionID := strings.TrimSpace(session.ID)
	if sessionID == "" {
		return errors.New("chat session repository: session id is required")
	}
	if _, err := r.base.Set(ctx, sessionID, encodeChatSessionDocument(session)); err != nil {
		return err
	}
	return nil
}

// FindByID loads a single session.
func (r *ChatSessionRepository) FindByID(ctx context.Context, sessionID string) (domain.ChatSession, error) {
	if r == nil || r.base == nil {
		return domain.ChatSession{}, errors.New("chat session repository not initialised")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.ChatSession{}, errors.New("chat session repository: session id is required")
	}
	doc, err := r.base.Get(ctx, sessionID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	return decodeChatSessionDocument(doc.ID, doc.Data), nil
}

type chatSessionDocument struct {
	UserID         string            `firestore:"userId"`
	ConditionID    string            `firestore:"conditionId"`
	CoachID        string            `firestore:"coachId"`
	Answers        map[string]string `firestore:"answers,omitempty"`
	TotalQuestions int               `firestore:"totalQuestions"`
	Status         string            `firestore:"status"`
	CreatedAt      time.Time         `firestore:"createdAt"`
	UpdatedAt      time.Time         `firestore:"updatedAt"`
	CompletedAt    *time.Time        `firestore:"completedAt,omitempty"`
}

func encodeChatSessionDocument(session domain.ChatSession) chatSessionDocument {
	return chatSessionDocument{
		UserID:         strings.TrimSpace(session.UserID),
		ConditionID:    strings.TrimSpace(session.ConditionID),
		CoachID:        strings.TrimSpace(session.CoachID),
		Answers:        session.Answers,
		TotalQuestions: session.TotalQuestions,
		Status:         string(session.Status),
		CreatedAt:      session.CreatedAt.UTC(),
		UpdatedAt:      session.UpdatedAt.UTC(),
		CompletedAt:    session.CompletedAt,
	}
}

func decodeChatSessionDocument(id string, doc chatSessionDocument) domain.ChatSession {
	return domain.ChatSession{
		ID:             id,
		UserID:         doc.UserID,
		ConditionID:    doc.ConditionID,
		CoachID:        doc.CoachID,
		Answers:        doc.Answers,
		TotalQuestions: doc.TotalQuestions,
		Status:         domain.ChatSessionStatus(doc.Status),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		CompletedAt:    doc.CompletedAt,
	}
}

var _ repositories.ChatSessionRepository = (*ChatSessionRepository)(nil)

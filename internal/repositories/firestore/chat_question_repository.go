package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	pfirestore "github.com/J2c-ashwani/cdisease/internal/platform/firestore"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const chatQuestionsCollection = "chatQuestions"

// ChatQuestionRepository stores intake questions per condition.
type ChatQuestionRepository struct {
	base     *pfirestore.BaseRepository[chatQuestionDocument]
	provider *pfirestore.Provider
}

// NewChatQuestionRepository constructs a Firestore-backed question repository.
func NewChatQuestionRepository(provider *pfirestore.Provider) (*ChatQuestionRepository, error) {
	if provider == nil {
		return nil, errors.New("chat question repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[chatQuestionDocument](provider, chatQuestionsCollection, nil, nil)
	return &ChatQuestionRepository{base: base, provider: provider}, nil
}

// ListByCondition returns the question set for a condition in ask order.
func (r *ChatQuestionRepository) ListByCondition(ctx context.Context, conditionID string) ([]domain.ChatQuestion, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("chat question repository not initialised")
	}
	conditionID = strings.TrimSpace(conditionID)
	if conditionID == "" {
		return nil, errors.New("chat question repository: condition id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("conditionId", "==", conditionID)
	})
	if err != nil {
		return nil, err
	}
	questions := make([]domain.ChatQuestion, 0, len(docs))
	for _, doc := range docs {
		questions = append(questions, decodeChatQuestionDocument(doc.ID, doc.Data))
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
	return questions, nil
}

// InsertBatch writes a question set in a single batch.
func (r *ChatQuestionRepository) InsertBatch(ctx context.Context, questions []domain.ChatQuestion) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("chat question repository not initialised")
	}
	if len(questions) == 0 {
		return nil
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	writer := client.BulkWriter(ctx)
	for _, question := range questions {
		questionID := strings.TrimSpace(question.ID)
		if questionID == "" {
			return errors.New("chat question repository: question id is required")
		}
		docRef := client.Collection(chatQuestionsCollection).Doc(questionID)
		if _, err := writer.Create(docRef, encodeChatQuestionDocument(question)); err != nil {
			return pfirestore.WrapError("chat_questions.insert_batch", err)
		}
	}
	writer.End()
	return nil
}

type chatQuestionDocument struct {
	ConditionID string    `firestore:"conditionId"`
	Text        string    `firestore:"text"`
	Type        string    `firestore:"type"`
	Options     []string  `firestore:"options,omitempty"`
	Order       int       `firestore:"order"`
	IsRequired  bool      `firestore:"isRequired"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func encodeChatQuestionDocument(question domain.ChatQuestion) chatQuestionDocument {
	return chatQuestionDocument{
		ConditionID: strings.TrimSpace(question.ConditionID),
		Text:        strings.TrimSpace(question.Text),
		Type:        string(question.Type),
		Options:     question.Options,
		Order:       question.Order,
		IsRequired:  question.IsRequired,
		CreatedAt:   question.CreatedAt.UTC(),
	}
}

func decodeChatQuestionDocument(id string, doc chatQuestionDocument) domain.ChatQuestion {
	return domain.ChatQuestion{
		ID:          id,
		ConditionID: doc.ConditionID,
		Text:        doc.Text,
		Type:        domain.ChatQuestionType(doc.Type),
		Options:     doc.Options,
		Order:       doc.Order,
		IsRequired:  doc.IsRequired,
		CreatedAt:   doc.CreatedAt,
	}
}

var _ repositories.ChatQuestionRepository = (*ChatQuestionRepository)(nil)

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

const conditionsCollection = "conditions"

// ConditionRepository maintains the condition catalog and its counters.
type ConditionRepository struct {
	base *pfirestore.BaseRepository[conditionDocument]
}

// NewConditionRepository constructs a Firestore-backed condition repository.
func NewConditionRepository(provider *pfirestore.Provider) (*ConditionRepository, error) {
	if provider == nil {
		return nil, errors.New("condition repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[conditionDocument](provider, conditionsCollection, nil, nil)
	return &ConditionRepository{base: base}, nil
}

// Upsert writes the condition under its id, preserving the created timestamp.
func (r *ConditionRepository) Upsert(ctx context.Context, condition domain.Condition) (domain.Condition, error) {
	if r == nil || r.base == nil {
		return domain.Condition{}, errors.New("condition repository not initialised")
	}
	conditionID := strings.TrimSpace(condition.ID)
	if conditionID == "" {
		return domain.Condition{}, errors.New("condition repository: condition id is required")
	}
	if _, err := r.base.Set(ctx, conditionID, encodeConditionDocument(condition)); err != nil {
		return domain.Condition{}, err
	}
	condition.ID = conditionID
	return condition, nil
}

// FindByID loads a single condition.
func (r *ConditionRepository) FindByID(ctx context.Context, conditionID string) (domain.Condition, error) {
	if r == nil || r.base == nil {
		return domain.Condition{}, errors.New("condition repository not initialised")
	}
	conditionID = strings.TrimSpace(conditionID)
	if conditionID == "" {
		return domain.Condition{}, errors.New("condition repository: condition id is required")
	}
	doc, err := r.base.Get(ctx, conditionID)
	if err != nil {
		return domain.Condition{}, err
	}
	return decodeConditionDocument(doc.ID, doc.Data), nil
}

// ListActive returns active conditions ordered by display order.
func (r *ConditionRepository) ListActive(ctx context.Context) ([]domain.Condition, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("condition repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("isActive", "==", true)
	})
	if err != nil {
		return nil, err
	}
	conditions := make([]domain.Condition, 0, len(docs))
	for _, doc := range docs {
		conditions = append(conditions, decodeConditionDocument(doc.ID, doc.Data))
	}
	sort.SliceStable(conditions, func(i, j int) bool {
		if conditions[i].DisplayOrder != conditions[j].DisplayOrder {
			return conditions[i].DisplayOrder < conditions[j].DisplayOrder
		}
		return conditions[i].Name < conditions[j].Name
	})
	return conditions, nil
}

// IncrementStats atomically adjusts the denormalised counters.
func (r *ConditionRepository) IncrementStats(ctx context.Context, conditionID string, delta repositories.ConditionStatsDelta) error {
	if r == nil || r.base == nil {
		return errors.New("condition repository not initialised")
	}
	conditionID = strings.TrimSpace(conditionID)
	if conditionID == "" {
		return errors.New("condition repository: condition id is required")
	}

	var updates []firestore.Update
	if delta.Coaches != 0 {
		updates = append(updates, firestore.Update{Path: "stats.totalCoaches", Value: firestore.Increment(delta.Coaches)})
	}
	if delta.Consultations != 0 {
		updates = append(updates, firestore.Update{Path: "stats.totalConsultations", Value: firestore.Increment(delta.Consultations)})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := r.base.Update(ctx, conditionID, updates); err != nil {
		return err
	}
	return nil
}

type conditionDocument struct {
	Name            string                 `firestore:"name"`
	Slug            string                 `firestore:"slug"`
	Description     string                 `firestore:"description,omitempty"`
	Category        string                 `firestore:"category,omitempty"`
	Icon            string                 `firestore:"icon,omitempty"`
	Color           string                 `firestore:"color,omitempty"`
	CommonSymptoms  []string               `firestore:"commonSymptoms,omitempty"`
	MetaDescription string                 `firestore:"metaDescription,omitempty"`
	Keywords        []string               `firestore:"keywords,omitempty"`
	Stats           conditionStatsDocument `firestore:"stats"`
	IsActive        bool                   `firestore:"isActive"`
	DisplayOrder    int                    `firestore:"displayOrder"`
	CreatedAt       time.Time              `firestore:"createdAt"`
	UpdatedAt       time.Time              `firestore:"updatedAt"`
}

type conditionStatsDocument struct {
	TotalCoaches       int64   `firestore:"totalCoaches"`
	TotalConsultations int64   `firestore:"totalConsultations"`
	AverageCoachRating float64 `firestore:"averageCoachRating"`
}

func encodeConditionDocument(condition domain.Condition) conditionDocument {
	return conditionDocument{
		Name:            strings.TrimSpace(condition.Name),
		Slug:            strings.TrimSpace(condition.Slug),
		Description:     condition.Description,
		Category:        strings.TrimSpace(condition.Category),
		Icon:            strings.TrimSpace(condition.Icon),
		Color:           strings.TrimSpace(condition.Color),
		CommonSymptoms:  condition.CommonSymptoms,
		MetaDescription: condition.MetaDescription,
		Keywords:        condition.Keywords,
		Stats: conditionStatsDocument{
			TotalCoaches:       condition.Stats.TotalCoaches,
			TotalConsultations: condition.Stats.TotalConsultations,
			AverageCoachRating: condition.Stats.AverageCoachRating,
		},
		IsActive:     condition.IsActive,
		DisplayOrder: condition.DisplayOrder,
		CreatedAt:    condition.CreatedAt.UTC(),
		UpdatedAt:    condition.UpdatedAt.UTC(),
	}
}

func decodeConditionDocument(id string, doc conditionDocument) domain.Condition {
	return domain.Condition{
		ID:              id,
		Name:            doc.Name,
		Slug:            doc.Slug,
		Description:     doc.Description,
		Category:        doc.Category,
		Icon:            doc.Icon,
		Color:           doc.Color,
		CommonSymptoms:  doc.CommonSymptoms,
		MetaDescription: doc.MetaDescription,
		Keywords:        doc.Keywords,
		Stats: domain.ConditionStats{
			TotalCoaches:       doc.Stats.TotalCoaches,
			TotalConsultations: doc.Stats.TotalConsultations,
			AverageCoachRating: doc.Stats.AverageCoachRating,
		},
		IsActive:     doc.IsActive,
		DisplayOrder: doc.DisplayOrder,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

var _ repositories.ConditionRepository = (*ConditionRepository)(nil)

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

const coachesCollection = "coaches"

// CoachRepository persists coaching profiles in Firestore.
type CoachRepository struct {
	base *pfirestore.BaseRepository[coachDocument]
}

// NewCoachRepository constructs a Firestore-backed coach repository.
func NewCoachRepository(provider *pfirestore.Provider) (*CoachRepository, error) {
	if provider == nil {
		return nil, errors.New("coach repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[coachDocument](provider, coachesCollection, nil, nil)
	return &CoachRepository{base: base}, nil
}

// Insert stores a new coach profile. The ID must be unique.
func (r *CoachRepository) Insert(ctx context.Context, coach domain.Coach) error {
	if r == nil || r.base == nil {
		return errors.New("coach repository not initialised")
	}
	coachID := strings.TrimSpace(coach.ID)
	if coachID == "" {
		return errors.New("coach repository: coach id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, coachID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeCoachDocument(coach)); err != nil {
		return pfirestore.WrapError("coaches.insert", err)
	}
	return nil
}

// Update replaces the persisted coach state.
func (r *CoachRepository) Update(ctx context.Context, coach domain.Coach) error {
	if r == nil || r.base == nil {
		return errors.New("coach repository not initialised")
	}
	coachID := strings.TrimSpace(coach.ID)
	if coachID == "" {
		return errors.New("coach repository: coach id is required")
	}
	if _, err := r.base.Set(ctx, coachID, encodeCoachDocument(coach)); err != nil {
		return err
	}
	return nil
}

// FindByID loads a single coach profile.
func (r *CoachRepository) FindByID(ctx context.Context, coachID string) (domain.Coach, error) {
	if r == nil || r.base == nil {
		return domain.Coach{}, errors.New("coach repository not initialised")
	}
	coachID = strings.TrimSpace(coachID)
	if coachID == "" {
		return domain.Coach{}, errors.New("coach repository: coach id is required")
	}
	doc, err := r.base.Get(ctx, coachID)
	if err != nil {
		return domain.Coach{}, err
	}
	return decodeCoachDocument(doc.ID, doc.Data), nil
}

// FindByUserID resolves the coach profile linked to a user account.
func (r *CoachRepository) FindByUserID(ctx context.Context, userID string) (domain.Coach, error) {
	if r == nil || r.base == nil {
		return domain.Coach{}, errors.New("coach repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Coach{}, errors.New("coach repository: user id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID).Limit(1)
	})
	if err != nil {
		return domain.Coach{}, err
	}
	if len(docs) == 0 {
		return domain.Coach{}, pfirestore.WrapError("coaches.find_by_user", notFoundErr("coach profile", userID))
	}
	return decodeCoachDocument(docs[0].ID, docs[0].Data), nil
}

// List returns coach profiles filtered by condition and status, best rated first.
func (r *CoachRepository) List(ctx context.Context, filter repositories.CoachListFilter) (domain.Page[domain.Coach], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Coach]{}, errors.New("coach repository not initialised")
	}
	conditionID := strings.TrimSpace(filter.ConditionID)
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if conditionID != "" {
			q = q.Where("conditionIds", "array-contains", conditionID)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Coach]{}, err
	}

	coaches := make([]domain.Coach, 0, len(docs))
	for _, doc := range docs {
		coach := decodeCoachDocument(doc.ID, doc.Data)
		if len(filter.Status) > 0 && !containsStatus(filter.Status, coach.Status) {
			continue
		}
		coaches = append(coaches, coach)
	}
	sort.SliceStable(coaches, func(i, j int) bool {
		if coaches[i].Rating != coaches[j].Rating {
			return coaches[i].Rating > coaches[j].Rating
		}
		return coaches[i].CreatedAt.Before(coaches[j].CreatedAt)
	})
	return pageSlice(coaches, filter.Pagination), nil
}

// CountByStatus reports the number of coach profiles in the given status.
func (r *CoachRepository) CountByStatus(ctx context.Context, status domain.CoachStatus) (int64, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("coach repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", string(status))
	})
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func containsStatus(statuses []domain.CoachStatus, status domain.CoachStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type coachDocument struct {
	UserID             string    `firestore:"userId"`
	Name               string    `firestore:"name"`
	Email              string    `firestore:"email"`
	Phone              string    `firestore:"phone,omitempty"`
	Qualification      string    `firestore:"qualification,omitempty"`
	ExperienceYears    int       `firestore:"experienceYears"`
	Bio                string    `firestore:"bio,omitempty"`
	Languages          []string  `firestore:"languages,omitempty"`
	ConsultationFee    int64     `firestore:"consultationFee"`
	ConditionIDs       []string  `firestore:"conditionIds,omitempty"`
	ProfileImageURL    string    `firestore:"profileImageUrl,omitempty"`
	Rating             float64   `firestore:"rating"`
	TotalConsultations int64     `firestore:"totalConsultations"`
	Status             string    `firestore:"status"`
	CreatedAt          time.Time `firestore:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt"`
}

func encodeCoachDocument(coach domain.Coach) coachDocument {
	return coachDocument{
		UserID:             strings.TrimSpace(coach.UserID),
		Name:               strings.TrimSpace(coach.Name),
		Email:              strings.ToLower(strings.TrimSpace(coach.Email)),
		Phone:              strings.TrimSpace(coach.Phone),
		Qualification:      strings.TrimSpace(coach.Qualification),
		ExperienceYears:    coach.ExperienceYears,
		Bio:                coach.Bio,
		Languages:          coach.Languages,
		ConsultationFee:    coach.ConsultationFee,
		ConditionIDs:       coach.ConditionIDs,
		ProfileImageURL:    strings.TrimSpace(coach.ProfileImageURL),
		Rating:             coach.Rating,
		TotalConsultations: coach.TotalConsultations,
		Status:             string(coach.Status),
		CreatedAt:          coach.CreatedAt.UTC(),
		UpdatedAt:          coach.UpdatedAt.UTC(),
	}
}

func decodeCoachDocument(id string, doc coachDocument) domain.Coach {
	return domain.Coach{
		ID:                 id,
		UserID:             doc.UserID,
		Name:               doc.Name,
		Email:              doc.Email,
		Phone:              doc.Phone,
		Qualification:      doc.Qualification,
		ExperienceYears:    doc.ExperienceYears,
		Bio:                doc.Bio,
		Languages:          doc.Languages,
		ConsultationFee:    doc.ConsultationFee,
		ConditionIDs:       doc.ConditionIDs,
		ProfileImageURL:    doc.ProfileImageURL,
		Rating:             doc.Rating,
		TotalConsultations: doc.TotalConsultations,
		Status:             domain.CoachStatus(doc.Status),
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

var _ repositories.CoachRepository = (*CoachRepository)(nil)

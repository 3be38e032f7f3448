package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const conditionIDPrefix = "cond_"

var (
	// ErrCatalogInvalidInput indicates validation failures for catalog operations.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrConditionNotFound indicates the condition does not exist or is inactive.
	ErrConditionNotFound = errors.New("catalog: condition not found")
)

// CatalogServiceDeps bundles collaborators required to construct a CatalogService.
type CatalogServiceDeps struct {
	Conditions  repositories.ConditionRepository
	Coaches     repositories.CoachRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	conditions repositories.ConditionRepository
	coaches    repositories.CoachRepository
	clock      func() time.Time
	newID      func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Conditions == nil {
		return nil, errors.New("catalog service: condition repository is required")
	}
	if deps.Coaches == nil {
		return nil, errors.New("catalog service: coach repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return conditionIDPrefix + ulid.Make().String() }
	}

	return &catalogService{
		conditions: deps.Conditions,
		coaches:    deps.Coaches,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *catalogService) ListConditions(ctx context.Context) ([]Condition, error) {
	return s.conditions.ListActive(ctx)
}

func (s *catalogService) GetCondition(ctx context.Context, conditionID string) (Condition, error) {
	conditionID = strings.TrimSpace(conditionID)
	if conditionID == "" {
		return Condition{}, fmt.Errorf("%w: condition id is required", ErrCatalogInvalidInput)
	}
	condition, err := s.conditions.FindByID(ctx, conditionID)
	if err != nil {
		if isRepoNotFound(err) {
			return Condition{}, ErrConditionNotFound
		}
		return Condition{}, err
	}
	if !condition.IsActive {
		return Condition{}, ErrConditionNotFound
	}
	return condition, nil
}

// ListConditionCoaches returns approved coaches treating the condition,
// best rated first.
func (s *catalogService) ListConditionCoaches(ctx context.Context, conditionID string) ([]Coach, error) {
	if _, err := s.GetCondition(ctx, conditionID); err != nil {
		return nil, err
	}
	page, err := s.coaches.List(ctx, repositories.CoachListFilter{
		ConditionID: strings.TrimSpace(conditionID),
		Status:      []domain.CoachStatus{domain.CoachStatusApproved},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// UpsertCondition seeds or updates a catalog entry. Intended for admin use.
func (s *catalogService) UpsertCondition(ctx context.Context, cmd UpsertConditionCommand) (Condition, error) {
	condition := cmd.Condition
	condition.Name = strings.TrimSpace(condition.Name)
	if condition.Name == "" {
		return Condition{}, fmt.Errorf("%w: condition name is required", ErrCatalogInvalidInput)
	}
	if strings.TrimSpace(condition.Slug) == "" {
		condition.Slug = slugify(condition.Name)
	}

	now := s.clock()
	if strings.TrimSpace(condition.ID) == "" {
		condition.ID = s.newID()
		condition.CreatedAt = now
	}
	if condition.CreatedAt.IsZero() {
		condition.CreatedAt = now
	}
	condition.UpdatedAt = now

	return s.conditions.Upsert(ctx, condition)
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	fields := strings.FieldsFunc(slug, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	return strings.Join(fields, "-")
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/payments"
	"github.com/J2c-ashwani/cdisease/internal/platform/storage"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const (
	coachIDPrefix  = "coach_"
	uploadIDPrefix = "upl_"

	maxProfileImageSize = 5 << 20
)

var (
	// ErrCoachInvalidInput indicates validation failures for coach operations.
	ErrCoachInvalidInput = errors.New("coach: invalid input")
	// ErrCoachNotFound indicates the coach profile could not be located.
	ErrCoachNotFound = errors.New("coach: not found")
	// ErrCoachAlreadyApplied indicates the user already has a coaching profile.
	ErrCoachAlreadyApplied = errors.New("coach: profile already exists")
	// ErrCoachFeeOutOfRange indicates the consultation fee violates the configured bounds.
	ErrCoachFeeOutOfRange = errors.New("coach: consultation fee out of range")
	// ErrCoachUploadsUnavailable indicates signed uploads are not configured.
	ErrCoachUploadsUnavailable = errors.New("coach: uploads unavailable")
)

var profileImageContentTypes = []string{"image/jpeg", "image/png", "image/webp"}

// UploadURLSigner issues signed URLs for direct-to-bucket uploads.
type UploadURLSigner interface {
	SignedURL(ctx context.Context, bucket string, object string, opts storage.SignedURLOptions) (storage.SignedURLResult, error)
}

// FeeBounds describes the inclusive consultation fee range accepted from coaches.
type FeeBounds struct {
	Min int64
	Max int64
}

// CoachServiceDeps bundles collaborators required to construct a CoachService.
type CoachServiceDeps struct {
	Coaches      repositories.CoachRepository
	Conditions   repositories.ConditionRepository
	Users        repositories.UserRepository
	Appointments repositories.AppointmentRepository
	Pricing      *payments.Calculator
	Fees         FeeBounds
	Uploads      UploadURLSigner
	UploadBucket string
	Clock        func() time.Time
	IDGenerator  func() string
}

type coachService struct {
	coaches      repositories.CoachRepository
	conditions   repositories.ConditionRepository
	users        repositories.UserRepository
	appointments repositories.AppointmentRepository
	pricing      *payments.Calculator
	fees         FeeBounds
	uploads      UploadURLSigner
	uploadBucket string
	clock        func() time.Time
	newID        func() string
	sanitizeBio  func(string) string
}

// NewCoachService wires dependencies into a concrete CoachService implementation.
func NewCoachService(deps CoachServiceDeps) (CoachService, error) {
	if deps.Coaches == nil {
		return nil, errors.New("coach service: coach repository is required")
	}
	if deps.Conditions == nil {
		return nil, errors.New("coach service: condition repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("coach service: user repository is required")
	}
	if deps.Appointments == nil {
		return nil, errors.New("coach service: appointment repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("coach service: pricing calculator is required")
	}
	if deps.Fees.Min <= 0 || deps.Fees.Max < deps.Fees.Min {
		return nil, errors.New("coach service: invalid fee bounds")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return coachIDPrefix + ulid.Make().String() }
	}

	policy := bluemonday.StrictPolicy()

	return &coachService{
		coaches:      deps.Coaches,
		conditions:   deps.Conditions,
		users:        deps.Users,
		appointments: deps.Appointments,
		pricing:      deps.Pricing,
		fees:         deps.Fees,
		uploads:      deps.Uploads,
		uploadBucket: strings.TrimSpace(deps.UploadBucket),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
		sanitizeBio: func(bio string) string {
			return strings.TrimSpace(policy.Sanitize(bio))
		},
	}, nil
}

func (s *coachService) Apply(ctx context.Context, cmd CoachApplicationCommand) (Coach, error) {
	userID := strings.TrimSpace(cmd.UserID)
	name := strings.TrimSpace(cmd.Name)
	switch {
	case userID == "":
		return Coach{}, fmt.Errorf("%w: user id is required", ErrCoachInvalidInput)
	case name == "":
		return Coach{}, fmt.Errorf("%w: name is required", ErrCoachInvalidInput)
	case cmd.ExperienceYears < 0:
		return Coach{}, fmt.Errorf("%w: experience years cannot be negative", ErrCoachInvalidInput)
	case len(cmd.ConditionIDs) == 0:
		return Coach{}, fmt.Errorf("%w: at least one condition is required", ErrCoachInvalidInput)
	}
	if err := s.checkFeeBounds(cmd.ConsultationFee); err != nil {
		return Coach{}, err
	}

	languages, err := canonicaliseLanguages(cmd.Languages)
	if err != nil {
		return Coach{}, err
	}

	conditionIDs := make([]string, 0, len(cmd.ConditionIDs))
	for _, conditionID := range cmd.ConditionIDs {
		conditionID = strings.TrimSpace(conditionID)
		if conditionID == "" {
			continue
		}
		condition, err := s.conditions.FindByID(ctx, conditionID)
		if err != nil {
			if isRepoNotFound(err) {
				return Coach{}, fmt.Errorf("%w: unknown condition %s", ErrCoachInvalidInput, conditionID)
			}
			return Coach{}, err
		}
		if !condition.IsActive {
			return Coach{}, fmt.Errorf("%w: condition %s is not active", ErrCoachInvalidInput, conditionID)
		}
		conditionIDs = append(conditionIDs, conditionID)
	}
	if len(conditionIDs) == 0 {
		return Coach{}, fmt.Errorf("%w: at least one condition is required", ErrCoachInvalidInput)
	}

	if _, err := s.coaches.FindByUserID(ctx, userID); err == nil {
		return Coach{}, ErrCoachAlreadyApplied
	} else if !isRepoNotFound(err) {
		return Coach{}, err
	}

	now := s.clock()
	coach := domain.Coach{
		ID:              s.newID(),
		UserID:          userID,
		Name:            name,
		Email:           strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:           strings.TrimSpace(cmd.Phone),
		Qualification:   strings.TrimSpace(cmd.Qualification),
		ExperienceYears: cmd.ExperienceYears,
		Bio:             s.sanitizeBio(cmd.Bio),
		Languages:       languages,
		ConsultationFee: cmd.ConsultationFee,
		ConditionIDs:    conditionIDs,
		Status:          domain.CoachStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.coaches.Insert(ctx, coach); err != nil {
		if isRepoConflict(err) {
			return Coach{}, ErrCoachAlreadyApplied
		}
		return Coach{}, err
	}
	return coach, nil
}

func (s *coachService) List(ctx context.Context, filter CoachListFilter) (domain.Page[Coach], error) {
	statuses := filter.Status
	if len(statuses) == 0 {
		statuses = []domain.CoachStatus{domain.CoachStatusApproved}
	}
	return s.coaches.List(ctx, repositories.CoachListFilter{
		ConditionID: strings.TrimSpace(filter.ConditionID),
		Status:      statuses,
		Pagination:  filter.Pagination,
	})
}

// Get returns a public coach profile. Only approved coaches are visible.
func (s *coachService) Get(ctx context.Context, coachID string) (CoachDetail, error) {
	coachID = strings.TrimSpace(coachID)
	if coachID == "" {
		return CoachDetail{}, fmt.Errorf("%w: coach id is required", ErrCoachInvalidInput)
	}
	coach, err := s.coaches.FindByID(ctx, coachID)
	if err != nil {
		if isRepoNotFound(err) {
			return CoachDetail{}, ErrCoachNotFound
		}
		return CoachDetail{}, err
	}
	if coach.Status != domain.CoachStatusApproved {
		return CoachDetail{}, ErrCoachNotFound
	}

	conditions := make([]Condition, 0, len(coach.ConditionIDs))
	for _, conditionID := range coach.ConditionIDs {
		condition, err := s.conditions.FindByID(ctx, conditionID)
		if err != nil {
			if isRepoNotFound(err) {
				continue
			}
			return CoachDetail{}, err
		}
		conditions = append(conditions, condition)
	}
	return CoachDetail{Coach: coach, Conditions: conditions}, nil
}

func (s *coachService) MyProfile(ctx context.Context, userID string) (Coach, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Coach{}, fmt.Errorf("%w: user id is required", ErrCoachInvalidInput)
	}
	coach, err := s.coaches.FindByUserID(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return Coach{}, ErrCoachNotFound
		}
		return Coach{}, err
	}
	return coach, nil
}

func (s *coachService) UpdateFee(ctx context.Context, cmd UpdateFeeCommand) (Coach, error) {
	if err := s.checkFeeBounds(cmd.ConsultationFee); err != nil {
		return Coach{}, err
	}
	coach, err := s.MyProfile(ctx, cmd.UserID)
	if err != nil {
		return Coach{}, err
	}
	coach.ConsultationFee = cmd.ConsultationFee
	coach.UpdatedAt = s.clock()
	if err := s.coaches.Update(ctx, coach); err != nil {
		return Coach{}, err
	}
	return coach, nil
}

// SetStatus transitions a coaching application between review states and keeps
// the condition coach counters and the account role in step.
func (s *coachService) SetStatus(ctx context.Context, cmd SetCoachStatusCommand) (Coach, error) {
	coachID := strings.TrimSpace(cmd.CoachID)
	if coachID == "" {
		return Coach{}, fmt.Errorf("%w: coach id is required", ErrCoachInvalidInput)
	}
	switch cmd.Status {
	case domain.CoachStatusPending, domain.CoachStatusApproved, domain.CoachStatusRejected:
	default:
		return Coach{}, fmt.Errorf("%w: unknown status %q", ErrCoachInvalidInput, cmd.Status)
	}

	coach, err := s.coaches.FindByID(ctx, coachID)
	if err != nil {
		if isRepoNotFound(err) {
			return Coach{}, ErrCoachNotFound
		}
		return Coach{}, err
	}
	if coach.Status == cmd.Status {
		return coach, nil
	}

	previous := coach.Status
	coach.Status = cmd.Status
	coach.UpdatedAt = s.clock()
	if err := s.coaches.Update(ctx, coach); err != nil {
		return Coach{}, err
	}

	var delta int64
	switch {
	case cmd.Status == domain.CoachStatusApproved:
		delta = 1
	case previous == domain.CoachStatusApproved:
		delta = -1
	}
	if delta != 0 {
		for _, conditionID := range coach.ConditionIDs {
			if err := s.conditions.IncrementStats(ctx, conditionID, repositories.ConditionStatsDelta{Coaches: delta}); err != nil && !isRepoNotFound(err) {
				return Coach{}, err
			}
		}
	}

	if cmd.Status == domain.CoachStatusApproved {
		if user, err := s.users.FindByID(ctx, coach.UserID); err == nil && user.Role == domain.RolePatient {
			user.Role = domain.RoleCoach
			user.UpdatedAt = s.clock()
			if err := s.users.Update(ctx, user); err != nil {
				return Coach{}, err
			}
		} else if err != nil && !isRepoNotFound(err) {
			return Coach{}, err
		}
	}
	return coach, nil
}

// DashboardStats aggregates a coach's appointment volume and earnings, with
// net figures derived from the configured commission rate.
func (s *coachService) DashboardStats(ctx context.Context, userID string) (CoachDashboardStats, error) {
	coach, err := s.MyProfile(ctx, userID)
	if err != nil {
		return CoachDashboardStats{}, err
	}

	now := s.clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary, err := s.appointments.Summarize(ctx, repositories.AppointmentSummaryQuery{
		CoachID:    coach.ID,
		MonthStart: monthStart,
		Now:        now,
	})
	if err != nil {
		return CoachDashboardStats{}, err
	}

	rate := s.pricing.Rate()
	commission := int64(float64(summary.GrossPaid) * rate)
	monthCommission := int64(float64(summary.MonthGrossPaid) * rate)
	return CoachDashboardStats{
		TotalAppointments:     summary.Total,
		UpcomingAppointments:  summary.Upcoming,
		CompletedAppointments: summary.Completed,
		GrossEarnings:         summary.GrossPaid,
		CommissionPaid:        commission,
		NetEarnings:           summary.GrossPaid - commission,
		MonthAppointments:     summary.MonthCount,
		MonthGrossEarnings:    summary.MonthGrossPaid,
		MonthNetEarnings:      summary.MonthGrossPaid - monthCommission,
	}, nil
}

// IssueProfileImageUpload returns a signed PUT URL for a coach profile image.
func (s *coachService) IssueProfileImageUpload(ctx context.Context, cmd SignedUploadCommand) (SignedAssetResponse, error) {
	if s.uploads == nil || s.uploadBucket == "" {
		return SignedAssetResponse{}, ErrCoachUploadsUnavailable
	}
	coach, err := s.MyProfile(ctx, cmd.ActorID)
	if err != nil {
		return SignedAssetResponse{}, err
	}
	if cmd.SizeBytes > maxProfileImageSize {
		return SignedAssetResponse{}, fmt.Errorf("%w: file exceeds %d bytes", ErrCoachInvalidInput, int64(maxProfileImageSize))
	}

	uploadID := uploadIDPrefix + ulid.Make().String()
	object, err := storage.BuildObjectPath(storage.PurposeProfileImage, storage.PathParams{
		CoachID:  coach.ID,
		UploadID: uploadID,
		FileName: cmd.FileName,
	})
	if err != nil {
		return SignedAssetResponse{}, fmt.Errorf("%w: %v", ErrCoachInvalidInput, err)
	}

	result, err := s.uploads.SignedURL(ctx, s.uploadBucket, object, storage.SignedURLOptions{
		Upload: &storage.UploadOptions{
			Method:              "PUT",
			ContentType:         cmd.ContentType,
			AllowedContentTypes: profileImageContentTypes,
			MaxSize:             maxProfileImageSize,
		},
	})
	if err != nil {
		return SignedAssetResponse{}, err
	}
	return SignedAssetResponse{
		AssetID:   uploadID,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
		Method:    result.Method,
		Headers:   result.Headers,
	}, nil
}

func (s *coachService) checkFeeBounds(fee int64) error {
	if fee < s.fees.Min || fee > s.fees.Max {
		return fmt.Errorf("%w: fee must be between %d and %d", ErrCoachFeeOutOfRange, s.fees.Min, s.fees.Max)
	}
	return nil
}

func canonicaliseLanguages(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
		if tag == "" {
			continue
		}
		parsed, err := language.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid language tag %q", ErrCoachInvalidInput, tag)
		}
		canonical := parsed.String()
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

package services

import (
	"context"
	"sort"
	"strings"
	"time"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

// repoError is the in-memory stand-in for persistence failures in tests.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

func errRepoNotFound(msg string) error { return &repoError{msg: msg, notFound: true} }
func errRepoConflict(msg string) error { return &repoError{msg: msg, conflict: true} }

var _ repositories.RepositoryError = (*repoError)(nil)

func pageOf[T any](items []T, pager domain.Pagination) domain.Page[T] {
	total := int64(len(items))
	skip := pager.Skip
	if skip < 0 {
		skip = 0
	}
	if skip > len(items) {
		skip = len(items)
	}
	window := items[skip:]
	if pager.Limit > 0 && pager.Limit < len(window) {
		window = window[:pager.Limit]
	}
	return domain.Page[T]{Items: window, Total: total, Skip: pager.Skip, Limit: pager.Limit}
}

type fakeUserRepository struct {
	users     map[string]domain.User
	insertErr error
	updateErr error
}

func newFakeUserRepository(users ...domain.User) *fakeUserRepository {
	repo := &fakeUserRepository{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepository) Insert(_ context.Context, user domain.User) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.users[user.ID]; ok {
		return errRepoConflict("user exists")
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepository) Update(_ context.Context, user domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepository) FindByID(_ context.Context, userID string) (domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, errRepoNotFound("user not found")
	}
	return user, nil
}

func (r *fakeUserRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, errRepoNotFound("user not found")
}

func (r *fakeUserRepository) List(_ context.Context, filter repositories.UserListFilter) (domain.Page[domain.User], error) {
	items := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Name), needle) && !strings.Contains(strings.ToLower(user.Email), needle) {
				continue
			}
		}
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return pageOf(items, filter.Pagination), nil
}

func (r *fakeUserRepository) Count(_ context.Context, role *domain.Role) (int64, error) {
	var count int64
	for _, user := range r.users {
		if role != nil && user.Role != *role {
			continue
		}
		count++
	}
	return count, nil
}

type fakeConditionRepository struct {
	conditions map[string]domain.Condition
	statsCalls []struct {
		ConditionID string
		Delta       repositories.ConditionStatsDelta
	}
}

func newFakeConditionRepository(conditions ...domain.Condition) *fakeConditionRepository {
	repo := &fakeConditionRepository{conditions: make(map[string]domain.Condition)}
	for _, condition := range conditions {
		repo.conditions[condition.ID] = condition
	}
	return repo
}

func (r *fakeConditionRepository) Upsert(_ context.Context, condition domain.Condition) (domain.Condition, error) {
	r.conditions[condition.ID] = condition
	return condition, nil
}

func (r *fakeConditionRepository) FindByID(_ context.Context, conditionID string) (domain.Condition, error) {
	condition, ok := r.conditions[conditionID]
	if !ok {
		return domain.Condition{}, errRepoNotFound("condition not found")
	}
	return condition, nil
}

func (r *fakeConditionRepository) ListActive(_ context.Context) ([]domain.Condition, error) {
	items := make([]domain.Condition, 0, len(r.conditions))
	for _, condition := range r.conditions {
		if condition.IsActive {
			items = append(items, condition)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].DisplayOrder != items[j].DisplayOrder {
			return items[i].DisplayOrder < items[j].DisplayOrder
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r *fakeConditionRepository) IncrementStats(_ context.Context, conditionID string, delta repositories.ConditionStatsDelta) error {
	condition, ok := r.conditions[conditionID]
	if !ok {
		return errRepoNotFound("condition not found")
	}
	condition.Stats.TotalCoaches += delta.Coaches
	condition.Stats.TotalConsultations += delta.Consultations
	r.conditions[conditionID] = condition
	r.statsCalls = append(r.statsCalls, struct {
		ConditionID string
		Delta       repositories.ConditionStatsDelta
	}{conditionID, delta})
	return nil
}

type fakeCoachRepository struct {
	coaches   map[string]domain.Coach
	insertErr error
	updateErr error
}

func newFakeCoachRepository(coaches ...domain.Coach) *fakeCoachRepository {
	repo := &fakeCoachRepository{coaches: make(map[string]domain.Coach)}
	for _, coach := range coaches {
		repo.coaches[coach.ID] = coach
	}
	return repo
}

func (r *fakeCoachRepository) Insert(_ context.Context, coach domain.Coach) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.coaches[coach.ID]; ok {
		return errRepoConflict("coach exists")
	}
	r.coaches[coach.ID] = coach
	return nil
}

func (r *fakeCoachRepository) Update(_ context.Context, coach domain.Coach) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.coaches[coach.ID] = coach
	return nil
}

func (r *fakeCoachRepository) FindByID(_ context.Context, coachID string) (domain.Coach, error) {
	coach, ok := r.coaches[coachID]
	if !ok {
		return domain.Coach{}, errRepoNotFound("coach not found")
	}
	return coach, nil
}

func (r *fakeCoachRepository) FindByUserID(_ context.Context, userID string) (domain.Coach, error) {
	for _, coach := range r.coaches {
		if coach.UserID == userID {
			return coach, nil
		}
	}
	return domain.Coach{}, errRepoNotFound("coach not found")
}

func (r *fakeCoachRepository) List(_ context.Context, filter repositories.CoachListFilter) (domain.Page[domain.Coach], error) {
	items := make([]domain.Coach, 0, len(r.coaches))
	for _, coach := range r.coaches {
		if filter.ConditionID != "" && !containsString(coach.ConditionIDs, filter.ConditionID) {
			continue
		}
		if len(filter.Status) > 0 && !containsCoachStatus(filter.Status, coach.Status) {
			continue
		}
		items = append(items, coach)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return pageOf(items, filter.Pagination), nil
}

func (r *fakeCoachRepository) CountByStatus(_ context.Context, status domain.CoachStatus) (int64, error) {
	var count int64
	for _, coach := range r.coaches {
		if coach.Status == status {
			count++
		}
	}
	return count, nil
}

func containsString(values []string, needle string) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}

func containsCoachStatus(values []domain.CoachStatus, needle domain.CoachStatus) bool {
	for _, value := range values {
		if value == needle {
			return true
		}
	}
	return false
}

type fakeChatQuestionRepository struct {
	questions map[string][]domain.ChatQuestion
	inserted  []domain.ChatQuestion
}

func newFakeChatQuestionRepository() *fakeChatQuestionRepository {
	return &fakeChatQuestionRepository{questions: make(map[string][]domain.ChatQuestion)}
}

func (r *fakeChatQuestionRepository) ListByCondition(_ context.Context, conditionID string) ([]domain.ChatQuestion, error) {
	items := append([]domain.ChatQuestion(nil), r.questions[conditionID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items, nil
}

func (r *fakeChatQuestionRepository) InsertBatch(_ context.Context, questions []domain.ChatQuestion) error {
	for _, question := range questions {
		r.questions[question.ConditionID] = append(r.questions[question.ConditionID], question)
	}
	r.inserted = append(r.inserted, questions...)
	return nil
}

type fakeChatSessionRepository struct {
	sessions map[string]domain.ChatSession
}

func newFakeChatSessionRepository(sessions ...domain.ChatSession) *fakeChatSessionRepository {
	repo := &fakeChatSessionRepository{sessions: make(map[string]domain.ChatSession)}
	for _, session := range sessions {
		repo.sessions[session.ID] = session
	}
	return repo
}

func (r *fakeChatSessionRepository) Insert(_ context.Context, session domain.ChatSession) error {
	if _, ok := r.sessions[session.ID]; ok {
		return errRepoConflict("session exists")
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeChatSessionRepository) Update(_ context.Context, session domain.ChatSession) error {
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeChatSessionRepository) FindByID(_ context.Context, sessionID string) (domain.ChatSession, error) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return domain.ChatSession{}, errRepoNotFound("session not found")
	}
	return session, nil
}

type fakeBookingRepository struct {
	bookings map[string]domain.Booking
}

func newFakeBookingRepository(bookings ...domain.Booking) *fakeBookingRepository {
	repo := &fakeBookingRepository{bookings: make(map[string]domain.Booking)}
	for _, booking := range bookings {
		repo.bookings[booking.ID] = booking
	}
	return repo
}

func (r *fakeBookingRepository) Insert(_ context.Context, booking domain.Booking) error {
	if _, ok := r.bookings[booking.ID]; ok {
		return errRepoConflict("booking exists")
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepository) Update(_ context.Context, booking domain.Booking) error {
	r.bookings[booking.ID] = booking
	return nil
}

func (r *fakeBookingRepository) FindByID(_ context.Context, bookingID string) (domain.Booking, error) {
	booking, ok := r.bookings[bookingID]
	if !ok {
		return domain.Booking{}, errRepoNotFound("booking not found")
	}
	return booking, nil
}

func (r *fakeBookingRepository) ListByUser(_ context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Booking], error) {
	items := make([]domain.Booking, 0, len(r.bookings))
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			items = append(items, booking)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return pageOf(items, pager), nil
}

type fakeAppointmentRepository struct {
	appointments map[string]domain.Appointment
}

func newFakeAppointmentRepository(appointments ...domain.Appointment) *fakeAppointmentRepository {
	repo := &fakeAppointmentRepository{appointments: make(map[string]domain.Appointment)}
	for _, appointment := range appointments {
		repo.appointments[appointment.ID] = appointment
	}
	return repo
}

func (r *fakeAppointmentRepository) Insert(_ context.Context, appointment domain.Appointment) error {
	if _, ok := r.appointments[appointment.ID]; ok {
		return errRepoConflict("appointment exists")
	}
	r.appointments[appointment.ID] = appointment
	return nil
}

func (r *fakeAppointmentRepository) Update(_ context.Context, appointment domain.Appointment) error {
	r.appointments[appointment.ID] = appointment
	return nil
}

func (r *fakeAppointmentRepository) FindByID(_ context.Context, appointmentID string) (domain.Appointment, error) {
	appointment, ok := r.appointments[appointmentID]
	if !ok {
		return domain.Appointment{}, errRepoNotFound("appointment not found")
	}
	return appointment, nil
}

func (r *fakeAppointmentRepository) ListByUser(_ context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Appointment], error) {
	return r.listWhere(func(appointment domain.Appointment) bool { return appointment.UserID == userID }, pager), nil
}

func (r *fakeAppointmentRepository) ListByCoach(_ context.Context, coachID string, pager domain.Pagination) (domain.Page[domain.Appointment], error) {
	return r.listWhere(func(appointment domain.Appointment) bool { return appointment.CoachID == coachID }, pager), nil
}

func (r *fakeAppointmentRepository) List(_ context.Context, filter repositories.AppointmentListFilter) (domain.Page[domain.Appointment], error) {
	return r.listWhere(func(appointment domain.Appointment) bool {
		if filter.UserID != "" && appointment.UserID != filter.UserID {
			return false
		}
		if filter.CoachID != "" && appointment.CoachID != filter.CoachID {
			return false
		}
		if len(filter.Status) > 0 {
			match := false
			for _, status := range filter.Status {
				if appointment.Status == status {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
		if filter.From != nil && appointment.ScheduledAt.Before(*filter.From) {
			return false
		}
		if filter.To != nil && appointment.ScheduledAt.After(*filter.To) {
			return false
		}
		return true
	}, filter.Pagination), nil
}

func (r *fakeAppointmentRepository) listWhere(keep func(domain.Appointment) bool, pager domain.Pagination) domain.Page[domain.Appointment] {
	items := make([]domain.Appointment, 0, len(r.appointments))
	for _, appointment := range r.appointments {
		if keep(appointment) {
			items = append(items, appointment)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ScheduledAt.After(items[j].ScheduledAt) })
	return pageOf(items, pager)
}

func (r *fakeAppointmentRepository) Summarize(_ context.Context, query repositories.AppointmentSummaryQuery) (repositories.AppointmentSummary, error) {
	var summary repositories.AppointmentSummary
	for _, appointment := range r.appointments {
		if query.CoachID != "" && appointment.CoachID != query.CoachID {
			continue
		}
		summary.Total++
		switch appointment.Status {
		case domain.AppointmentStatusCompleted:
			summary.Completed++
		case domain.AppointmentStatusScheduled:
			if appointment.ScheduledAt.After(query.Now) {
				summary.Upcoming++
			}
		}
		if appointment.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}
		summary.GrossPaid += appointment.PaymentAmount
		paidAt := appointment.ScheduledAt
		if appointment.PaidAt != nil {
			paidAt = *appointment.PaidAt
		}
		if !paidAt.Before(query.MonthStart) {
			summary.MonthCount++
			summary.MonthGrossPaid += appointment.PaymentAmount
		}
	}
	return summary, nil
}

type fakeAuditLogRepository struct {
	entries []domain.AuditLogEntry
	err     error
}

func (r *fakeAuditLogRepository) Append(_ context.Context, entry domain.AuditLogEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type fakeEventPublisher struct {
	events []LifecycleEventMessage
	err    error
}

func (p *fakeEventPublisher) PublishEvent(_ context.Context, msg LifecycleEventMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, msg)
	return "msg_test", nil
}

type fakeTokenIssuer struct {
	token     string
	expiresAt time.Time
	err       error
	lastRole  string
}

func (t *fakeTokenIssuer) Issue(userID string, email string, role string) (string, time.Time, error) {
	t.lastRole = role
	if t.err != nil {
		return "", time.Time{}, t.err
	}
	return t.token, t.expiresAt, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

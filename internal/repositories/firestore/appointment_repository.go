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

const appointmentsCollection = "appointments"

// AppointmentRepository persists consultations in Firestore.
type AppointmentRepository struct {
	base *pfirestore.BaseRepository[appointmentDocument]
}

// NewAppointmentRepository constructs a Firestore-backed appointment repository.
func NewAppointmentRepository(provider *pfirestore.Provider) (*AppointmentRepository, error) {
	if provider == nil {
		return nil, errors.New("appointment repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[appointmentDocument](provider, appointmentsCollection, nil, nil)
	return &AppointmentRepository{base: base}, nil
}

// Insert stores a new appointment. The ID must be unique.
func (r *AppointmentRepository) Insert(ctx context.Context, appointment domain.Appointment) error {
	if r == nil || r.base == nil {
		return errors.New("appointment repository not initialised")
	}
	appointmentID := strings.TrimSpace(appointment.ID)
	if appointmentID == "" {
		return errors.New("appointment repository: appointment id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, appointmentID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeAppointmentDocument(appointment)); err != nil {
		return pfirestore.WrapError("appointments.insert", err)
	}
	return nil
}

// Update replaces the persisted appointment state.
func (r *AppointmentRepository) Update(ctx context.Context, appointment domain.Appointment) error {
	if r == nil || r.base == nil {
		return errors.New("appointment repository not initialised")
	}
	appointmentID := strings.TrimSpace(appointment.ID)
	if appointmentID == "" {
		return errors.New("appointment repository: appointment id is required")
	}
	if _, err := r.base.Set(ctx, appointmentID, encodeAppointmentDocument(appointment)); err != nil {
		return err
	}
	return nil
}

// FindByID loads a single appointment.
func (r *AppointmentRepository) FindByID(ctx context.Context, appointmentID string) (domain.Appointment, error) {
	if r == nil || r.base == nil {
		return domain.Appointment{}, errors.New("appointment repository not initialised")
	}
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return domain.Appointment{}, errors.New("appointment repository: appointment id is required")
	}
	doc, err := r.base.Get(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}
	return decodeAppointmentDocument(doc.ID, doc.Data), nil
}

// ListByUser returns a patient's appointments, most recent first.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Appointment], error) {
	return r.listByField(ctx, "userId", userID, pager)
}

// ListByCoach returns a coach's appointments, most recent first.
func (r *AppointmentRepository) ListByCoach(ctx context.Context, coachID string, pager domain.Pagination) (domain.Page[domain.Appointment], error) {
	return r.listByField(ctx, "coachId", coachID, pager)
}

func (r *AppointmentRepository) listByField(ctx context.Context, field string, value string, pager domain.Pagination) (domain.Page[domain.Appointment], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Appointment]{}, errors.New("appointment repository not initialised")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Page[domain.Appointment]{}, errors.New("appointment repository: " + field + " is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value)
	})
	if err != nil {
		return domain.Page[domain.Appointment]{}, err
	}
	appointments := decodeAppointmentDocuments(docs)
	sortByScheduledDesc(appointments)
	return pageSlice(appointments, pager), nil
}

// List returns appointments matching the admin filter, most recent first.
func (r *AppointmentRepository) List(ctx context.Context, filter repositories.AppointmentListFilter) (domain.Page[domain.Appointment], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Appointment]{}, errors.New("appointment repository not initialised")
	}
	userID := strings.TrimSpace(filter.UserID)
	coachID := strings.TrimSpace(filter.CoachID)
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if userID != "" {
			q = q.Where("userId", "==", userID)
		}
		if coachID != "" {
			q = q.Where("coachId", "==", coachID)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Appointment]{}, err
	}

	appointments := make([]domain.Appointment, 0, len(docs))
	for _, doc := range docs {
		appointment := decodeAppointmentDocument(doc.ID, doc.Data)
		if len(filter.Status) > 0 && !containsAppointmentStatus(filter.Status, appointment.Status) {
			continue
		}
		if filter.From != nil && appointment.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && appointment.ScheduledAt.After(*filter.To) {
			continue
		}
		appointments = append(appointments, appointment)
	}
	sortByScheduledDesc(appointments)
	return pageSlice(appointments, filter.Pagination), nil
}

// Summarize aggregates appointment counts and gross paid amounts for dashboards.
func (r *AppointmentRepository) Summarize(ctx context.Context, query repositories.AppointmentSummaryQuery) (repositories.AppointmentSummary, error) {
	if r == nil || r.base == nil {
		return repositories.AppointmentSummary{}, errors.New("appointment repository not initialised")
	}
	coachID := strings.TrimSpace(query.CoachID)
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if coachID != "" {
			q = q.Where("coachId", "==", coachID)
		}
		return q
	})
	if err != nil {
		return repositories.AppointmentSummary{}, err
	}

	var summary repositories.AppointmentSummary
	for _, doc := range docs {
		appointment := decodeAppointmentDocument(doc.ID, doc.Data)
		summary.Total++
		switch appointment.Status {
		case domain.AppointmentStatusCompleted:
			summary.Completed++
		case domain.AppointmentStatusScheduled:
			if !query.Now.IsZero() && appointment.ScheduledAt.After(query.Now) {
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
		if !query.MonthStart.IsZero() && !paidAt.Before(query.MonthStart) {
			summary.MonthCount++
			summary.MonthGrossPaid += appointment.PaymentAmount
		}
	}
	return summary, nil
}

func decodeAppointmentDocuments(docs []pfirestore.Document[appointmentDocument]) []domain.Appointment {
	appointments := make([]domain.Appointment, 0, len(docs))
	for _, doc := range docs {
		appointments = append(appointments, decodeAppointmentDocument(doc.ID, doc.Data))
	}
	return appointments
}

func sortByScheduledDesc(appointments []domain.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].ScheduledAt.After(appointments[j].ScheduledAt)
	})
}

func containsAppointmentStatus(statuses []domain.AppointmentStatus, status domain.AppointmentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type appointmentDocument struct {
	UserID          string     `firestore:"userId"`
	CoachID         string     `firestore:"coachId"`
	CoachName       string     `firestore:"coachName,omitempty"`
	ConditionID     string     `firestore:"conditionId,omitempty"`
	ChatSessionID   string     `firestore:"chatSessionId,omitempty"`
	ScheduledAt     time.Time  `firestore:"scheduledAt"`
	Status          string     `firestore:"status"`
	PaymentStatus   string     `firestore:"paymentStatus"`
	ConsultationFee int64      `firestore:"consultationFee"`
	TotalAmount     int64      `firestore:"totalAmount"`
	MeetingLink     string     `firestore:"meetingLink,omitempty"`
	PaymentAmount   int64      `firestore:"paymentAmount"`
	PaidAt          *time.Time `firestore:"paidAt,omitempty"`
	CreatedAt       time.Time  `firestore:"createdAt"`
	UpdatedAt       time.Time  `firestore:"updatedAt"`
}

func encodeAppointmentDocument(appointment domain.Appointment) appointmentDocument {
	return appointmentDocument{
		UserID:          strings.TrimSpace(appointment.UserID),
		CoachID:         strings.TrimSpace(appointment.CoachID),
		CoachName:       strings.TrimSpace(appointment.CoachName),
		ConditionID:     strings.TrimSpace(appointment.ConditionID),
		ChatSessionID:   strings.TrimSpace(appointment.ChatSessionID),
		ScheduledAt:     appointment.ScheduledAt.UTC(),
		Status:          string(appointment.Status),
		PaymentStatus:   string(appointment.PaymentStatus),
		ConsultationFee: appointment.ConsultationFee,
		TotalAmount:     appointment.TotalAmount,
		MeetingLink:     strings.TrimSpace(appointment.MeetingLink),
		PaymentAmount:   appointment.PaymentAmount,
		PaidAt:          appointment.PaidAt,
		CreatedAt:       appointment.CreatedAt.UTC(),
		UpdatedAt:       appointment.UpdatedAt.UTC(),
	}
}

func decodeAppointmentDocument(id string, doc appointmentDocument) domain.Appointment {
	return domain.Appointment{
		ID:              id,
		UserID:          doc.UserID,
		CoachID:         doc.CoachID,
		CoachName:       doc.CoachName,
		ConditionID:     doc.ConditionID,
		ChatSessionID:   doc.ChatSessionID,
		ScheduledAt:     doc.ScheduledAt,
		Status:          domain.AppointmentStatus(doc.Status),
		PaymentStatus:   domain.PaymentStatus(doc.PaymentStatus),
		ConsultationFee: doc.ConsultationFee,
		TotalAmount:     doc.TotalAmount,
		MeetingLink:     doc.MeetingLink,
		PaymentAmount:   doc.PaymentAmount,
		PaidAt:          doc.PaidAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

var _ repositories.AppointmentRepository = (*AppointmentRepository)(nil)

package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/J2c-ashwani/cdisease/internal/domain"
	pfirestore "github.com/J2c-ashwani/cdisease/internal/platform/firestore"
	"github.com/J2c-ashwani/cdisease/internal/repositories"
)

const bookingsCollection = "bookings"

// BookingRepository persists priced bookings in Firestore.
type BookingRepository struct {
	base *pfirestore.BaseRepository[bookingDocument]
}

// NewBookingRepository constructs a Firestore-backed booking repository.
func NewBookingRepository(provider *pfirestore.Provider) (*BookingRepository, error) {
	if provider == nil {
		return nil, errors.New("booking repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository[bookingDocument](provider, bookingsCollection, nil, nil)
	return &BookingRepository{base: base}, nil
}

// Insert stores a new booking. The ID must be unique.
func (r *BookingRepository) Insert(ctx context.Context, booking domain.Booking) error {
	if r == nil || r.base == nil {
		return errors.New("booking repository not initialised")
	}
	bookingID := strings.TrimSpace(booking.ID)
	if bookingID == "" {
		return errors.New("booking repository: booking id is required")
	}
	docRef, err := r.base.DocumentRef(ctx, bookingID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeBookingDocument(booking)); err != nil {
		return pfirestore.WrapError("bookings.insert", err)
	}
	return nil
}

// Update replaces the persisted booking state.
func (r *BookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	if r == nil || r.base == nil {
		return errors.New("booking repository not initialised")
	}
	bookingID := strings.TrimSpace(booking.ID)
	if bookingID == "" {
		return errors.New("booking repository: booking id is required")
	}
	if _, err := r.base.Set(ctx, bookingID, encodeBookingDocument(booking)); err != nil {
		return err
	}
	return nil
}

// FindByID loads a single booking.
func (r *BookingRepository) FindByID(ctx context.Context, bookingID string) (domain.Booking, error) {
	if r == nil || r.base == nil {
		return domain.Booking{}, errors.New("booking repository not initialised")
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return domain.Booking{}, errors.New("booking repository: booking id is required")
	}
	doc, err := r.base.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	return decodeBookingDocument(doc.ID, doc.Data), nil
}

// ListByUser returns bookings for a patient, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.Page[domain.Booking], error) {
	if r == nil || r.base == nil {
		return domain.Page[domain.Booking]{}, errors.New("booking repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Page[domain.Booking]{}, errors.New("booking repository: user id is required")
	}
	byUser := func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID)
	}
	total, err := r.base.Count(ctx, byUser)
	if err != nil {
		return domain.Page[domain.Booking]{}, err
	}

	skip := pager.Skip
	if skip < 0 {
		skip = 0
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = byUser(q).OrderBy("createdAt", firestore.Desc)
		if skip > 0 {
			q = q.Offset(skip)
		}
		if pager.Limit > 0 {
			q = q.Limit(pager.Limit)
		}
		return q
	})
	if err != nil {
		return domain.Page[domain.Booking]{}, err
	}
	bookings := make([]domain.Booking, 0, len(docs))
	for _, doc := range docs {
		bookings = append(bookings, decodeBookingDocument(doc.ID, doc.Data))
	}
	return domain.Page[domain.Booking]{
		Items: bookings,
		Total: total,
		Skip:  skip,
		Limit: pager.Limit,
	}, nil
}

type bookingDocument struct {
	UserID          string                   `firestore:"userId"`
	CoachID         string                   `firestore:"coachId"`
	ConditionID     string                   `firestore:"conditionId,omitempty"`
	ChatSessionID   string                   `firestore:"chatSessionId"`
	ScheduledAt     time.Time                `firestore:"scheduledAt"`
	DurationMinutes int                      `firestore:"durationMinutes"`
	Pricing         pricingDocument          `firestore:"pricing"`
	BookingStatus   string                   `firestore:"bookingStatus"`
	PaymentStatus   string                   `firestore:"paymentStatus"`
	Refund          *refundBreakdownDocument `firestore:"refund,omitempty"`
	CancelledAt     *time.Time               `firestore:"cancelledAt,omitempty"`
	CreatedAt       time.Time                `firestore:"createdAt"`
	UpdatedAt       time.Time                `firestore:"updatedAt"`
}

type pricingDocument struct {
	ConsultationFee  int64   `firestore:"consultationFee"`
	PlatformFee      int64   `firestore:"platformFee"`
	CommissionRate   float64 `firestore:"commissionRate"`
	CommissionAmount int64   `firestore:"commissionAmount"`
	CoachPayout      int64   `firestore:"coachPayoutAmount"`
	TotalAmount      int64   `firestore:"totalAmount"`
	PlatformEarnings int64   `firestore:"platformEarnings"`
}

type refundBreakdownDocument struct {
	RefundAmount     int64   `firestore:"refundAmount"`
	RefundPercentage float64 `firestore:"refundPercentage"`
	PlatformRetains  int64   `firestore:"platformRetains"`
}

func encodeBookingDocument(booking domain.Booking) bookingDocument {
	doc := bookingDocument{
		UserID:          strings.TrimSpace(booking.UserID),
		CoachID:         strings.TrimSpace(booking.CoachID),
		ConditionID:     strings.TrimSpace(booking.ConditionID),
		ChatSessionID:   strings.TrimSpace(booking.ChatSessionID),
		ScheduledAt:     booking.ScheduledAt.UTC(),
		DurationMinutes: booking.DurationMinutes,
		Pricing: pricingDocument{
			ConsultationFee:  booking.Pricing.ConsultationFee,
			PlatformFee:      booking.Pricing.PlatformFee,
			CommissionRate:   booking.Pricing.CommissionRate,
			CommissionAmount: booking.Pricing.CommissionAmount,
			CoachPayout:      booking.Pricing.CoachPayoutAmount,
			TotalAmount:      booking.Pricing.TotalAmount,
			PlatformEarnings: booking.Pricing.PlatformEarnings,
		},
		BookingStatus: string(booking.BookingStatus),
		PaymentStatus: string(booking.PaymentStatus),
		CancelledAt:   booking.CancelledAt,
		CreatedAt:     booking.CreatedAt.UTC(),
		UpdatedAt:     booking.UpdatedAt.UTC(),
	}
	if booking.Refund != nil {
		doc.Refund = &refundBreakdownDocument{
			RefundAmount:     booking.Refund.RefundAmount,
			RefundPercentage: booking.Refund.RefundPercentage,
			PlatformRetains:  booking.Refund.PlatformRetains,
		}
	}
	return doc
}

func decodeBookingDocument(id string, doc bookingDocument) domain.Booking {
	booking := domain.Booking{
		ID:              id,
		UserID:          doc.UserID,
		CoachID:         doc.CoachID,
		ConditionID:     doc.ConditionID,
		ChatSessionID:   doc.ChatSessionID,
		ScheduledAt:     doc.ScheduledAt,
		DurationMinutes: doc.DurationMinutes,
		Pricing: domain.PricingBreakdown{
			ConsultationFee:   doc.Pricing.ConsultationFee,
			PlatformFee:       doc.Pricing.PlatformFee,
			CommissionRate:    doc.Pricing.CommissionRate,
			CommissionAmount:  doc.Pricing.CommissionAmount,
			CoachPayoutAmount: doc.Pricing.CoachPayout,
			TotalAmount:       doc.Pricing.TotalAmount,
			PlatformEarnings:  doc.Pricing.PlatformEarnings,
		},
		BookingStatus: domain.BookingStatus(doc.BookingStatus),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		CancelledAt:   doc.CancelledAt,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if doc.Refund != nil {
		booking.Refund = &domain.RefundBreakdown{
			RefundAmount:     doc.Refund.RefundAmount,
			RefundPercentage: doc.Refund.RefundPercentage,
			PlatformRetains:  doc.Refund.PlatformRetains,
		}
	}
	return booking
}

var _ repositories.BookingRepository = (*BookingRepository)(nil)

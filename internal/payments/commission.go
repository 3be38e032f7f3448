package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/J2c-ashwani/cdisease/internal/domain"
)

var (
	// ErrCommissionInvalidPolicy signals a policy outside the supported ranges.
	ErrCommissionInvalidPolicy = errors.New("commission: invalid policy")
)

// Refund windows measured against the scheduled consultation time.
const (
	fullRefundHours = 24.0
	halfRefundHours = 12.0
)

// Calculator derives booking prices and cancellation refunds from a fixed
// platform policy. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	rate   float64
	fee    int64
	logger func(context.Context, string, map[string]any)
}

// CalculatorDeps configures a Calculator. Policy is required; Logger is
// optional and receives one audit record per computation.
type CalculatorDeps struct {
	Policy Policy
	Logger func(context.Context, string, map[string]any)
}

// Policy is the revenue-sharing contract applied to every booking.
type Policy struct {
	// CommissionRate is the platform's cut of the consultation fee, in [0, 1].
	CommissionRate float64
	// PlatformFee is a flat per-booking charge added on top of the fee.
	PlatformFee int64
}

func NewCalculator(deps CalculatorDeps) (*Calculator, error) {
	if deps.Policy.CommissionRate < 0 || deps.Policy.CommissionRate > 1 {
		return nil, fmt.Errorf("%w: commission rate %v outside [0, 1]", ErrCommissionInvalidPolicy, deps.Policy.CommissionRate)
	}
	if deps.Policy.PlatformFee < 0 {
		return nil, fmt.Errorf("%w: platform fee %d is negative", ErrCommissionInvalidPolicy, deps.Policy.PlatformFee)
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Calculator{
		rate:   deps.Policy.CommissionRate,
		fee:    deps.Policy.PlatformFee,
		logger: logger,
	}, nil
}

// BookingAmounts splits a consultation fee between the coach and the platform
// and adds the flat platform fee on top for the payer.
//
// The commission is the fee times the rate truncated toward zero; the coach
// payout is the exact complement, so the two always recombine to the fee and
// the coach absorbs no rounding loss. Identical inputs always produce
// identical breakdowns.
func (c *Calculator) BookingAmounts(ctx context.Context, consultationFee int64) domain.PricingBreakdown {
	commission := int64(float64(consultationFee) * c.rate)
	breakdown := domain.PricingBreakdown{
		ConsultationFee:   consultationFee,
		PlatformFee:       c.fee,
		CommissionRate:    c.rate,
		CommissionAmount:  commission,
		CoachPayoutAmount: consultationFee - commission,
		TotalAmount:       consultationFee + c.fee,
		PlatformEarnings:  commission + c.fee,
	}
	c.logger(ctx, "commission.booking_amounts", map[string]any{
		"consultation_fee":  breakdown.ConsultationFee,
		"commission_amount": breakdown.CommissionAmount,
		"coach_payout":      breakdown.CoachPayoutAmount,
		"total_amount":      breakdown.TotalAmount,
	})
	return breakdown
}

// Refund applies the tiered cancellation policy to a paid booking total.
// platformFee is the flat fee the booking was originally charged, not the
// currently configured one; a policy change must not reprice old bookings.
//
// At 24 hours or more before the consultation the payer recovers everything
// except the flat platform fee; the coach's share, commission included, is
// clawed back in full. Between 12 and 24 hours the refund is half the total,
// truncated toward zero. Under 12 hours, including cancellations after the
// scheduled time, nothing is refunded. Both window bounds are inclusive at
// the lower edge. The platform retains the exact complement of the refund.
func (c *Calculator) Refund(ctx context.Context, totalAmount int64, hoursBefore float64, platformFee int64) domain.RefundBreakdown {
	var breakdown domain.RefundBreakdown
	switch {
	case hoursBefore >= fullRefundHours:
		breakdown.RefundPercentage = 1.0
		breakdown.RefundAmount = totalAmount - platformFee
	case hoursBefore >= halfRefundHours:
		breakdown.RefundPercentage = 0.5
		breakdown.RefundAmount = int64(float64(totalAmount) * 0.5)
	default:
		breakdown.RefundPercentage = 0
		breakdown.RefundAmount = 0
	}
	breakdown.PlatformRetains = totalAmount - breakdown.RefundAmount
	c.logger(ctx, "commission.refund", map[string]any{
		"total_amount":      totalAmount,
		"hours_before":      hoursBefore,
		"refund_percentage": breakdown.RefundPercentage,
		"refund_amount":     breakdown.RefundAmount,
		"platform_retains":  breakdown.PlatformRetains,
	})
	return breakdown
}

// Rate exposes the configured commission rate for reporting surfaces.
func (c *Calculator) Rate() float64 { return c.rate }

// PlatformFee exposes the configured flat fee for reporting surfaces.
func (c *Calculator) PlatformFee() int64 { return c.fee }

// FormatBreakdown renders the payer-facing summary line shown when a booking is created.
func FormatBreakdown(b domain.PricingBreakdown) string {
	return fmt.Sprintf("Coach Fee: ₹%d + Platform Fee: ₹%d", b.ConsultationFee, b.PlatformFee)
}

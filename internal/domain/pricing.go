package domain

// PricingBreakdown captures the monetary split computed when a booking is priced.
// All amounts are whole currency units.
type PricingBreakdown struct {
	ConsultationFee   int64
	PlatformFee       int64
	CommissionRate    float64
	CommissionAmount  int64
	CoachPayoutAmount int64
	TotalAmount       int64
	PlatformEarnings  int64
}

// RefundBreakdown captures the outcome of applying the cancellation policy
// to a paid booking. PlatformRetains is always TotalAmount minus RefundAmount.
type RefundBreakdown struct {
	RefundAmount     int64
	RefundPercentage float64
	PlatformRetains  int64
}

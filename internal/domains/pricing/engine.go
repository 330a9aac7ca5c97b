package pricing

import "math"

// Tier maps a minimum price threshold to the platform commission rate. Tiers are
// static configuration, evaluated highest threshold first; the computed snapshot is
// the only thing persisted per booking.
type Tier struct {
	MinPrice float64
	Rate     float64
}

var tiers = []Tier{
	{MinPrice: 200, Rate: 0.20},
	{MinPrice: 100, Rate: 0.15},
	{MinPrice: 0, Rate: 0.10},
}

// Breakdown is the result of a commission computation.
type Breakdown struct {
	Rate        float64
	PlatformFee float64
	TutorPayout float64
}

// Snapshot is the pricing state stamped onto a booking exactly once at creation.
type Snapshot struct {
	Price           float64
	PlatformFeePct  float64
	PlatformFee     float64
	TutorPayout     float64
	PaymentRequired bool
}

// round2 rounds half away from zero to 2 decimal places. The same rounding is used
// for both fee and payout so their sum never diverges from the rounded price by
// more than one minor currency unit.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Compute derives the commission breakdown for a price. Pure function, no side
// effects.
func Compute(price float64) Breakdown {
	rate := 0.0

	for _, tier := range tiers {
		if price >= tier.MinPrice {
			rate = tier.Rate

			break
		}
	}

	platformFee := round2(price * rate)

	return Breakdown{
		Rate:        rate,
		PlatformFee: platformFee,
		TutorPayout: round2(price - platformFee),
	}
}

// NewSnapshot is the single authoritative pricing entry point. The launch-mode
// policy is consulted here rather than overwriting persisted fields afterwards, so
// there is exactly one computation path and no read-overwrite window.
func NewSnapshot(price float64, paidClassesEnabled bool) Snapshot {
	if !paidClassesEnabled {
		return Snapshot{}
	}

	breakdown := Compute(price)

	return Snapshot{
		Price:           round2(price),
		PlatformFeePct:  breakdown.Rate,
		PlatformFee:     breakdown.PlatformFee,
		TutorPayout:     breakdown.TutorPayout,
		PaymentRequired: price > 0,
	}
}

package pricing_test

import (
	"testing"
	"tutorhub/internal/domains/pricing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name            string
		price           float64
		wantRate        float64
		wantPlatformFee float64
		wantTutorPayout float64
	}{
		{
			name:            "lowest tier",
			price:           75,
			wantRate:        0.10,
			wantPlatformFee: 7.50,
			wantTutorPayout: 67.50,
		},
		{
			name:            "middle tier",
			price:           150,
			wantRate:        0.15,
			wantPlatformFee: 22.50,
			wantTutorPayout: 127.50,
		},
		{
			name:            "top tier boundary",
			price:           200,
			wantRate:        0.20,
			wantPlatformFee: 40.00,
			wantTutorPayout: 160.00,
		},
		{
			name:            "middle tier lower boundary",
			price:           100,
			wantRate:        0.15,
			wantPlatformFee: 15.00,
			wantTutorPayout: 85.00,
		},
		{
			name:            "just below middle tier",
			price:           99.99,
			wantRate:        0.10,
			wantPlatformFee: 10.00,
			wantTutorPayout: 89.99,
		},
		{
			name:            "zero price",
			price:           0,
			wantRate:        0.10,
			wantPlatformFee: 0,
			wantTutorPayout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := pricing.Compute(tt.price)

			assert.InDelta(t, tt.wantRate, breakdown.Rate, 1e-9)
			assert.InDelta(t, tt.wantPlatformFee, breakdown.PlatformFee, 1e-9)
			assert.InDelta(t, tt.wantTutorPayout, breakdown.TutorPayout, 1e-9)
		})
	}
}

func TestCompute_FeePlusPayoutMatchesPrice(t *testing.T) {
	// Fee and payout must add back up to the rounded price across the whole range,
	// including awkward fractional prices around the tier boundaries.
	for price := 0.0; price <= 500.0; price += 0.07 {
		breakdown := pricing.Compute(price)

		rounded := float64(int(price*100+0.5)) / 100

		assert.InDelta(t, rounded, breakdown.PlatformFee+breakdown.TutorPayout, 0.011,
			"price %.2f: fee %.2f + payout %.2f", price, breakdown.PlatformFee, breakdown.TutorPayout)
	}
}

func TestCompute_RateMonotonicity(t *testing.T) {
	previousRate := 0.0

	for price := 0.0; price <= 400.0; price += 0.5 {
		breakdown := pricing.Compute(price)

		assert.GreaterOrEqual(t, breakdown.Rate, previousRate,
			"rate decreased at price %.2f", price)

		previousRate = breakdown.Rate
	}
}

func TestNewSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		price       float64
		paidClasses bool
		want        pricing.Snapshot
	}{
		{
			name:        "paid classes enabled",
			price:       150,
			paidClasses: true,
			want: pricing.Snapshot{
				Price:           150,
				PlatformFeePct:  0.15,
				PlatformFee:     22.50,
				TutorPayout:     127.50,
				PaymentRequired: true,
			},
		},
		{
			name:        "launch mode zeroes the snapshot",
			price:       150,
			paidClasses: false,
			want:        pricing.Snapshot{},
		},
		{
			name:        "free session requires no payment",
			price:       0,
			paidClasses: true,
			want: pricing.Snapshot{
				Price:           0,
				PlatformFeePct:  0.10,
				PlatformFee:     0,
				TutorPayout:     0,
				PaymentRequired: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.NewSnapshot(tt.price, tt.paidClasses))
		})
	}
}

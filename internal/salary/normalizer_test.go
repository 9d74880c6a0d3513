package salary

import (
	"errors"
	"math"
	"testing"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(minV, maxV, avgV float64, currency, period string) domain.SalaryObservation {
	o := domain.SalaryObservation{Currency: currency, Period: period}
	if minV != 0 {
		o.Min = domain.Some(minV)
	}
	if maxV != 0 {
		o.Max = domain.Some(maxV)
	}
	if avgV != 0 {
		o.Average = domain.Some(avgV)
	}
	return o
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name       string
		obs        domain.SalaryObservation
		wantOK     bool
		wantYearly int64
		wantSource domain.Provenance
	}{
		{
			name:       "min and max yearly",
			obs:        obs(40000, 60000, 0, "EUR", "year"),
			wantOK:     true,
			wantYearly: 50000,
			wantSource: domain.ProvenanceCalculated,
		},
		{
			name:       "min and max win over average",
			obs:        obs(40000, 60000, 70000, "EUR", "year"),
			wantOK:     true,
			wantYearly: 50000,
			wantSource: domain.ProvenanceCalculated,
		},
		{
			name:       "average only",
			obs:        obs(0, 0, 55000, "EUR", "year"),
			wantOK:     true,
			wantYearly: 55000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "average preferred over lone min",
			obs:        obs(30000, 0, 45000, "EUR", ""),
			wantOK:     true,
			wantYearly: 45000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "min only",
			obs:        obs(30000, 0, 0, "EUR", "year"),
			wantOK:     true,
			wantYearly: 30000,
			wantSource: domain.ProvenanceMin,
		},
		{
			name:       "max only",
			obs:        obs(0, 90000, 0, "EUR", "year"),
			wantOK:     true,
			wantYearly: 90000,
			wantSource: domain.ProvenanceMax,
		},
		{
			// rates are EUR per unit, so amounts are multiplied
			name:       "gbp converted to eur",
			obs:        obs(0, 0, 50000, "GBP", "year"),
			wantOK:     true,
			wantYearly: 58500,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "monthly",
			obs:        obs(3000, 4000, 0, "EUR", "month"),
			wantOK:     true,
			wantYearly: 42000,
			wantSource: domain.ProvenanceCalculated,
		},
		{
			name:       "weekly",
			obs:        obs(0, 0, 1000, "EUR", "week"),
			wantOK:     true,
			wantYearly: 52000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "daily",
			obs:        obs(0, 0, 200, "EUR", "day"),
			wantOK:     true,
			wantYearly: 73000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "hourly assumes 40 hour week",
			obs:        obs(0, 0, 25, "EUR", "hour"),
			wantOK:     true,
			wantYearly: 52000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "unrecognized period unchanged",
			obs:        obs(0, 0, 48000, "EUR", "fortnight"),
			wantOK:     true,
			wantYearly: 48000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "usd converted with static rate",
			obs:        obs(0, 0, 100000, "usd", "year"),
			wantOK:     true,
			wantYearly: 92000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "unknown currency passes through",
			obs:        obs(0, 0, 100000, "JPY", "year"),
			wantOK:     true,
			wantYearly: 100000,
			wantSource: domain.ProvenanceAverage,
		},
		{
			name:       "rounded to nearest unit",
			obs:        obs(40000, 40001, 0, "EUR", "year"),
			wantOK:     true,
			wantYearly: 40001,
			wantSource: domain.ProvenanceCalculated,
		},
		{
			name:   "no salary fields",
			obs:    domain.SalaryObservation{Currency: "EUR"},
			wantOK: false,
		},
		{
			name:   "non-positive values are absent",
			obs:    obs(-100, 0, 0, "EUR", "year"),
			wantOK: false,
		},
		{
			name:   "malformed currency",
			obs:    obs(0, 0, 50000, "€$", "year"),
			wantOK: false,
		},
		{
			name:   "non-finite amount",
			obs:    obs(0, 0, math.Inf(1), "EUR", "year"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.obs)

			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, domain.NormalizedSalary{}, got)
				return
			}

			assert.Equal(t, tt.wantYearly, got.Yearly())
			assert.Equal(t, tt.wantSource, got.Provenance)
			assert.Equal(t, domain.BaseCurrency, got.Currency)
			assert.True(t, got.YearlyAmount.IsPositive())
		})
	}
}

func TestNormalizer_CalculatedProperty(t *testing.T) {
	n := NewNormalizer(nil)

	periods := map[string]float64{
		"year":  1,
		"month": MonthsPerYear,
		"week":  WeeksPerYear,
		"day":   DaysPerYear,
		"hour":  HoursPerYear,
	}
	pairs := [][2]float64{{1, 2}, {10, 15}, {33, 34}, {40000, 60000}, {12.5, 17.25}}

	for period, mult := range periods {
		for _, p := range pairs {
			got, ok := n.Normalize(obs(p[0], p[1], 0, "EUR", period))
			require.True(t, ok)
			assert.Equal(t, domain.ProvenanceCalculated, got.Provenance)
			assert.Equal(t, int64(math.Round((p[0]+p[1])/2*mult)), got.Yearly(), "period %s pair %v", period, p)
		}
	}
}

func TestNormalizer_ParseReasons(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Parse(obs(0, 0, 100, "12", "year"))
	assert.True(t, errors.Is(err, domain.ErrMalformedObservation))

	_, err = n.Parse(domain.SalaryObservation{})
	assert.True(t, errors.Is(err, ErrNoSalary))
}

func TestNewNormalizer_CustomRates(t *testing.T) {
	n := NewNormalizer(map[string]float64{"usd": 0.5, "bad": -1})

	got, ok := n.Normalize(obs(0, 0, 1000, "USD", "year"))
	require.True(t, ok)
	assert.Equal(t, int64(500), got.Yearly())

	got, ok = n.Normalize(obs(0, 0, 1000, "BAD", "year"))
	require.True(t, ok)
	assert.Equal(t, int64(1000), got.Yearly())

	got, ok = n.Normalize(obs(0, 0, 1000, "", "year"))
	require.True(t, ok)
	assert.Equal(t, int64(1000), got.Yearly())
}

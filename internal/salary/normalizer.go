// Package salary converts raw salary observations into yearly EUR amounts.
package salary

import (
	"fmt"
	"math"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/shopspring/decimal"
)

// Period multipliers to a yearly figure. Hourly assumes a 40-hour week.
const (
	MonthsPerYear = 12
	WeeksPerYear  = 52
	DaysPerYear   = 365
	HoursPerYear  = 2080
)

// DefaultRates is the static EUR value of one unit of each known currency
var DefaultRates = map[string]float64{
	"EUR": 1.0,
	"USD": 0.92,
	"GBP": 1.17,
	"CHF": 1.02,
	"CAD": 0.68,
	"AUD": 0.61,
}

// Normalizer turns observations into NormalizedSalary values.
// It is safe for concurrent use once constructed.
type Normalizer struct {
	rates map[string]decimal.Decimal
}

// NewNormalizer creates a Normalizer with the given rate table.
// A nil or empty table uses DefaultRates. Non-positive rates are ignored.
func NewNormalizer(rates map[string]float64) *Normalizer {
	if len(rates) == 0 {
		rates = DefaultRates
	}

	table := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		table[strings.ToUpper(strings.TrimSpace(code))] = decimal.NewFromFloat(rate)
	}
	table[domain.BaseCurrency] = decimal.NewFromInt(1)

	return &Normalizer{rates: table}
}

// Normalize returns the yearly EUR salary of obs, or false when the observation
// carries no usable salary data. Malformed observations are reported as absent.
func (n *Normalizer) Normalize(obs domain.SalaryObservation) (domain.NormalizedSalary, bool) {
	s, err := n.Parse(obs)
	if err != nil {
		return domain.NormalizedSalary{}, false
	}
	return s, true
}

// Parse is Normalize with the reason for an absent result.
// It returns ErrMalformedObservation for unreadable input and ErrNoSalary when nothing usable is present.
func (n *Normalizer) Parse(obs domain.SalaryObservation) (domain.NormalizedSalary, error) {
	currency, err := parseCurrency(obs.Currency)
	if err != nil {
		return domain.NormalizedSalary{}, err
	}

	base, provenance, err := baseValue(obs)
	if err != nil {
		return domain.NormalizedSalary{}, err
	}

	yearly := base.Mul(decimal.NewFromInt(periodMultiplier(obs.Period)))

	// Unknown currencies pass through unconverted.
	if rate, ok := n.rates[currency]; ok {
		yearly = yearly.Mul(rate)
	}

	yearly = yearly.Round(0)
	if !yearly.IsPositive() {
		return domain.NormalizedSalary{}, ErrNoSalary
	}

	return domain.NormalizedSalary{
		YearlyAmount: yearly,
		Currency:     domain.BaseCurrency,
		Provenance:   provenance,
	}, nil
}

// baseValue applies the min/max/average priority policy
func baseValue(obs domain.SalaryObservation) (decimal.Decimal, domain.Provenance, error) {
	minV, hasMin, err := positive(obs.Min)
	if err != nil {
		return decimal.Zero, "", err
	}
	maxV, hasMax, err := positive(obs.Max)
	if err != nil {
		return decimal.Zero, "", err
	}
	avgV, hasAvg, err := positive(obs.Average)
	if err != nil {
		return decimal.Zero, "", err
	}

	switch {
	case hasMin && hasMax:
		return minV.Add(maxV).Div(decimal.NewFromInt(2)), domain.ProvenanceCalculated, nil
	case hasAvg:
		return avgV, domain.ProvenanceAverage, nil
	case hasMin:
		return minV, domain.ProvenanceMin, nil
	case hasMax:
		return maxV, domain.ProvenanceMax, nil
	default:
		return decimal.Zero, "", ErrNoSalary
	}
}

func positive(o domain.Optional[float64]) (decimal.Decimal, bool, error) {
	v, ok := o.Get()
	if !ok {
		return decimal.Zero, false, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, false, fmt.Errorf("%w: non-finite amount", domain.ErrMalformedObservation)
	}
	if v <= 0 {
		return decimal.Zero, false, nil
	}
	return decimal.NewFromFloat(v), true, nil
}

func parseCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return domain.BaseCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency %q", domain.ErrMalformedObservation, raw)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency %q", domain.ErrMalformedObservation, raw)
		}
	}
	return code, nil
}

// periodMultiplier maps a pay period to its yearly multiplier.
// Yearly and unrecognized periods keep the amount unchanged.
func periodMultiplier(period string) int64 {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "month", "monthly":
		return MonthsPerYear
	case "week", "weekly":
		return WeeksPerYear
	case "day", "daily":
		return DaysPerYear
	case "hour", "hourly":
		return HoursPerYear
	default:
		return 1
	}
}

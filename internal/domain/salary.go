package domain

import "github.com/shopspring/decimal"

// BaseCurrency is the currency every normalized salary is expressed in
const BaseCurrency = "EUR"

// Provenance records which observation produced a normalized salary
type Provenance string

const (
	ProvenanceMin        Provenance = "min"
	ProvenanceMax        Provenance = "max"
	ProvenanceAverage    Provenance = "average"
	ProvenanceCalculated Provenance = "calculated"
)

// NormalizedSalary is a yearly amount in BaseCurrency.
// YearlyAmount is always > 0; a missing salary is represented by the absence of the value.
type NormalizedSalary struct {
	YearlyAmount decimal.Decimal `json:"yearlyAmount"`
	Currency     string          `json:"currency"`
	Provenance   Provenance      `json:"provenance"`
}

// Yearly returns the amount as whole currency units
func (s NormalizedSalary) Yearly() int64 {
	return s.YearlyAmount.IntPart()
}

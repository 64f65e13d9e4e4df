package tithe

import (
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

var oneHundred = decimal.NewFromInt(100)

// PercentageTable holds the configured distribution percentages (0-100 each).
// The values are supplied by configuration; there are no built-in defaults.
type PercentageTable struct {
	TitheOfTithe       decimal.Decimal
	FinanceCommittee   decimal.Decimal
	PastoralTithe      decimal.Decimal
	PastoralSustenance decimal.Decimal
}

// Sum returns the combined percentage of the table
func (t PercentageTable) Sum() decimal.Decimal {
	return t.TitheOfTithe.
		Add(t.FinanceCommittee).
		Add(t.PastoralTithe).
		Add(t.PastoralSustenance)
}

// Validate checks that the table is usable: no negative entries, at least one
// positive entry, and a combined share of at most 100%.
func (t PercentageTable) Validate() error {
	for _, p := range []decimal.Decimal{t.TitheOfTithe, t.FinanceCommittee, t.PastoralTithe, t.PastoralSustenance} {
		if p.IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR", "Distribution percentages cannot be negative")
		}
	}
	sum := t.Sum()
	if !sum.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Distribution percentages are not configured")
	}
	if sum.GreaterThan(oneHundred) {
		return shared.NewDomainError("VALIDATION_ERROR", "Distribution percentages exceed 100%")
	}
	return nil
}

// Calculator computes tithe batch breakdowns from a percentage table.
// Distribute is pure and deterministic: the same total always yields the
// same breakdown, and the breakdown never sums to more than the total.
type Calculator struct {
	table PercentageTable
}

// NewCalculator creates a calculator after validating the table
func NewCalculator(table PercentageTable) (*Calculator, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{table: table}, nil
}

// Table returns the configured percentage table
func (c *Calculator) Table() PercentageTable {
	return c.table
}

// Distribute computes the breakdown for a batch total. Each share is
// truncated to cents, which keeps the sum of the shares at or below the
// total even when the table adds up to exactly 100%.
func (c *Calculator) Distribute(total decimal.Decimal) (Breakdown, error) {
	if total.IsNegative() {
		return Breakdown{}, shared.NewDomainError("VALIDATION_ERROR", "Total cannot be negative")
	}
	return Breakdown{
		TitheOfTithe:       share(total, c.table.TitheOfTithe),
		FinanceCommittee:   share(total, c.table.FinanceCommittee),
		PastoralTithe:      share(total, c.table.PastoralTithe),
		PastoralSustenance: share(total, c.table.PastoralSustenance),
	}, nil
}

func share(total, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(oneHundred).Truncate(2)
}

package tithe

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// PeriodType identifies which collection period a batch covers
type PeriodType string

const (
	PeriodFirstFortnight  PeriodType = "FIRST_FORTNIGHT"
	PeriodSecondFortnight PeriodType = "SECOND_FORTNIGHT"
	PeriodMonthly         PeriodType = "MONTHLY"
)

// IsValid reports whether the period type is a known value
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodFirstFortnight, PeriodSecondFortnight, PeriodMonthly:
		return true
	}
	return false
}

// ErrAlreadyDistributed rejects a second distribution of the same batch
var ErrAlreadyDistributed = shared.NewDomainError("ALREADY_DISTRIBUTED", "Tithe batch has already been distributed")

// Breakdown holds the four computed distribution amounts of a batch
type Breakdown struct {
	TitheOfTithe       decimal.Decimal `json:"tithe_of_tithe"`
	FinanceCommittee   decimal.Decimal `json:"finance_committee"`
	PastoralTithe      decimal.Decimal `json:"pastoral_tithe"`
	PastoralSustenance decimal.Decimal `json:"pastoral_sustenance"`
}

// Total returns the sum of the four breakdown amounts
func (b Breakdown) Total() decimal.Decimal {
	return b.TitheOfTithe.
		Add(b.FinanceCommittee).
		Add(b.PastoralTithe).
		Add(b.PastoralSustenance)
}

// TitheBatch groups the tithe transactions of one collection period together
// with their computed distribution. Distribution is a one-way transition:
// once Distributed flips to true it never flips back, and the stamp fields
// are written exactly once.
type TitheBatch struct {
	shared.BaseAggregateRoot
	Period        string
	PeriodType    PeriodType
	ReceivedAt    time.Time
	TotalReceived decimal.Decimal
	Breakdown     Breakdown
	Distributed   bool
	DistributedAt *time.Time
	DistributedBy *uuid.UUID
	RegisteredBy  uuid.UUID
}

// NewTitheBatch creates a batch in the undistributed state
func NewTitheBatch(period string, periodType PeriodType, receivedAt time.Time, total decimal.Decimal, breakdown Breakdown, registeredBy uuid.UUID) (*TitheBatch, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Period is required")
	}
	if !periodType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown period type")
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Total received cannot be negative")
	}
	if breakdown.Total().GreaterThan(total) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Breakdown exceeds total received")
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return &TitheBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Period:            period,
		PeriodType:        periodType,
		ReceivedAt:        receivedAt,
		TotalReceived:     total,
		Breakdown:         breakdown,
		Distributed:       false,
		RegisteredBy:      registeredBy,
	}, nil
}

// Distribute marks the batch as distributed, stamping who and when.
// A second call fails and leaves the original stamp untouched.
func (b *TitheBatch) Distribute(by uuid.UUID, at time.Time) error {
	if b.Distributed {
		return ErrAlreadyDistributed
	}
	if at.IsZero() {
		at = time.Now()
	}
	b.Distributed = true
	b.DistributedAt = &at
	b.DistributedBy = &by
	b.IncrementVersion()
	b.Touch()
	return nil
}

// Recompute replaces the total and breakdown after an entry edit or removal.
// The distributed flag and stamps are never touched here.
func (b *TitheBatch) Recompute(total decimal.Decimal, breakdown Breakdown) error {
	if total.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Total received cannot be negative")
	}
	if breakdown.Total().GreaterThan(total) {
		return shared.NewDomainError("VALIDATION_ERROR", "Breakdown exceeds total received")
	}
	b.TotalReceived = total
	b.Breakdown = breakdown
	b.IncrementVersion()
	b.Touch()
	return nil
}

package treasury

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// BoxStatus represents the lifecycle state of a petty cash box
type BoxStatus string

const (
	BoxStatusActive   BoxStatus = "ACTIVE"
	BoxStatusInactive BoxStatus = "INACTIVE"
)

// PettyCashBox is a physical cash fund managed by the treasury.
// A box may belong to a society (youth, women, ...) or to the church at large.
// AvailableAmount is ledger-driven: it only changes through the movement
// repositories, never by direct assignment from callers.
type PettyCashBox struct {
	shared.BaseAggregateRoot
	Name                string
	Description         string
	SocietyID           *uuid.UUID
	AvailableAmount     decimal.Decimal
	AssignedAmount      decimal.Decimal
	PeriodStart         *time.Time
	ResponsibleMemberID *uuid.UUID
	Status              BoxStatus
}

// NewPettyCashBox creates a petty cash box with an opening balance
func NewPettyCashBox(name, description string, societyID *uuid.UUID, openingAmount decimal.Decimal) (*PettyCashBox, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Box name is required")
	}
	if openingAmount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Opening amount cannot be negative")
	}
	return &PettyCashBox{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		SocietyID:         societyID,
		AvailableAmount:   openingAmount,
		AssignedAmount:    decimal.Zero,
		Status:            BoxStatusActive,
	}, nil
}

// AssignBudget records the amount assigned to the box for a period and the
// member responsible for it. Informational fields; the available balance is
// unaffected.
func (b *PettyCashBox) AssignBudget(amount decimal.Decimal, periodStart *time.Time, responsibleMemberID *uuid.UUID) error {
	if amount.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Assigned amount cannot be negative")
	}
	b.AssignedAmount = amount
	b.PeriodStart = periodStart
	b.ResponsibleMemberID = responsibleMemberID
	b.Touch()
	return nil
}

// IsActive returns true if the box accepts movements
func (b *PettyCashBox) IsActive() bool {
	return b.Status == BoxStatusActive
}

// BelongsToSociety reports whether the box is owned by the given society
func (b *PettyCashBox) BelongsToSociety(societyID uuid.UUID) bool {
	return b.SocietyID != nil && *b.SocietyID == societyID
}

// IsSocietyScoped reports whether the box is owned by any society
func (b *PettyCashBox) IsSocietyScoped() bool {
	return b.SocietyID != nil
}

// CanWithdraw validates that the box can cover an outbound amount.
// This is a pre-check; the repository re-validates atomically on write.
func (b *PettyCashBox) CanWithdraw(amount decimal.Decimal) error {
	if !b.IsActive() {
		return shared.ErrInvalidState
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if b.AvailableAmount.LessThan(amount) {
		return shared.ErrInsufficientBalance
	}
	return nil
}

// Rename updates the box name and description
func (b *PettyCashBox) Rename(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Box name is required")
	}
	b.Name = name
	b.Description = description
	b.IncrementVersion()
	b.Touch()
	return nil
}

// Deactivate closes the box for further movements. Status toggles ride along
// with Rename in the update flow, so the version bump happens there.
func (b *PettyCashBox) Deactivate() {
	b.Status = BoxStatusInactive
	b.Touch()
}

// Activate reopens the box
func (b *PettyCashBox) Activate() {
	b.Status = BoxStatusActive
	b.Touch()
}

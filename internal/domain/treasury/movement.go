package treasury

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// MovementType classifies a petty cash movement
type MovementType string

const (
	MovementTypeExpense       MovementType = "EXPENSE"
	MovementTypeReplenishment MovementType = "REPLENISHMENT"
	MovementTypeTransferOut   MovementType = "TRANSFER_OUT"
	MovementTypeTransferIn    MovementType = "TRANSFER_IN"
	MovementTypeBankDeposit   MovementType = "BANK_DEPOSIT"
)

// IsOutbound reports whether the movement takes money out of its box
func (t MovementType) IsOutbound() bool {
	switch t {
	case MovementTypeExpense, MovementTypeTransferOut, MovementTypeBankDeposit:
		return true
	}
	return false
}

// IsValid reports whether the movement type is a known value
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeExpense, MovementTypeReplenishment, MovementTypeTransferOut,
		MovementTypeTransferIn, MovementTypeBankDeposit:
		return true
	}
	return false
}

// CashMovement is an immutable audit record of money entering or leaving a
// petty cash box. Amount is always positive; direction comes from Type.
// Transfers record two legs sharing a TransferID, each pointing at the
// counterpart box or account.
type CashMovement struct {
	shared.BaseAggregateRoot
	BoxID         uuid.UUID
	Type          MovementType
	Amount        decimal.Decimal
	Concept       string
	OccurredAt    time.Time
	RecordedBy    uuid.UUID
	CounterpartID *uuid.UUID
	TransferID    *uuid.UUID
}

// NewCashMovement creates a validated cash movement
func NewCashMovement(boxID uuid.UUID, movementType MovementType, amount decimal.Decimal, concept string, occurredAt time.Time, recordedBy uuid.UUID) (*CashMovement, error) {
	if boxID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Box is required")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown movement type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if strings.TrimSpace(concept) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Concept is required")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &CashMovement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BoxID:             boxID,
		Type:              movementType,
		Amount:            amount,
		Concept:           concept,
		OccurredAt:        occurredAt,
		RecordedBy:        recordedBy,
	}, nil
}

// LinkTransfer attaches transfer correlation data to a movement leg
func (m *CashMovement) LinkTransfer(transferID, counterpartID uuid.UUID) {
	m.TransferID = &transferID
	m.CounterpartID = &counterpartID
}

// BankMovementType classifies a bank account movement
type BankMovementType string

const (
	BankMovementTypeDeposit     BankMovementType = "DEPOSIT"
	BankMovementTypeWithdrawal  BankMovementType = "WITHDRAWAL"
	BankMovementTypeTransferOut BankMovementType = "TRANSFER_OUT"
	BankMovementTypeTransferIn  BankMovementType = "TRANSFER_IN"
)

// IsOutbound reports whether the movement takes money out of its account
func (t BankMovementType) IsOutbound() bool {
	return t == BankMovementTypeWithdrawal || t == BankMovementTypeTransferOut
}

// IsValid reports whether the bank movement type is a known value
func (t BankMovementType) IsValid() bool {
	switch t {
	case BankMovementTypeDeposit, BankMovementTypeWithdrawal,
		BankMovementTypeTransferOut, BankMovementTypeTransferIn:
		return true
	}
	return false
}

// BankMovement is an immutable audit record of money entering or leaving a
// bank account. Mirrors CashMovement.
type BankMovement struct {
	shared.BaseAggregateRoot
	AccountID     uuid.UUID
	Type          BankMovementType
	Amount        decimal.Decimal
	Description   string
	OccurredAt    time.Time
	RecordedBy    uuid.UUID
	CounterpartID *uuid.UUID
	TransferID    *uuid.UUID
}

// NewBankMovement creates a validated bank movement
func NewBankMovement(accountID uuid.UUID, movementType BankMovementType, amount decimal.Decimal, description string, occurredAt time.Time, recordedBy uuid.UUID) (*BankMovement, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Account is required")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown movement type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Description is required")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &BankMovement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		Type:              movementType,
		Amount:            amount,
		Description:       description,
		OccurredAt:        occurredAt,
		RecordedBy:        recordedBy,
	}, nil
}

// LinkTransfer attaches transfer correlation data to a movement leg
func (m *BankMovement) LinkTransfer(transferID, counterpartID uuid.UUID) {
	m.TransferID = &transferID
	m.CounterpartID = &counterpartID
}

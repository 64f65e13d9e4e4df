package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// MovementTotals aggregates inbound and outbound movement amounts for a period
type MovementTotals struct {
	Inbound  decimal.Decimal
	Outbound decimal.Decimal
}

// PettyCashBoxRepository persists petty cash boxes.
// Debit applies a conditional balance update (available >= amount) so that an
// overdraft is impossible even under concurrent writers; it returns
// shared.ErrInsufficientBalance when the condition fails on an active box.
type PettyCashBoxRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PettyCashBox, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PettyCashBox, int64, error)
	Save(ctx context.Context, box *PettyCashBox) error
	SaveWithLock(ctx context.Context, box *PettyCashBox) error
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// BankAccountRepository persists bank accounts; Debit/Credit follow the same
// conditional-update contract as PettyCashBoxRepository.
type BankAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BankAccount, int64, error)
	Save(ctx context.Context, account *BankAccount) error
	SaveWithLock(ctx context.Context, account *BankAccount) error
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// CashMovementRepository persists the petty cash audit trail
type CashMovementRepository interface {
	Save(ctx context.Context, movement *CashMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*CashMovement, error)
	FindByBox(ctx context.Context, boxID uuid.UUID, filter shared.Filter) ([]CashMovement, int64, error)
	TotalsByPeriod(ctx context.Context, from, to time.Time) (MovementTotals, error)
}

// BankMovementRepository persists the bank account audit trail
type BankMovementRepository interface {
	Save(ctx context.Context, movement *BankMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*BankMovement, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]BankMovement, int64, error)
	TotalsByPeriod(ctx context.Context, from, to time.Time) (MovementTotals, error)
}

package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// TransactionType marks a transaction as income or expense
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Transaction is a generic income/expense ledger row. Tithe entries are income
// transactions linked to a batch through the tithe_batch_entries join table.
// The contributor is either a member reference or a free-text external name.
type Transaction struct {
	shared.BaseAggregateRoot
	Type                TransactionType
	CategoryID          uuid.UUID
	Amount              decimal.Decimal
	Description         string
	OccurredAt          time.Time
	MemberID            *uuid.UUID
	ExternalContributor string
	PaymentMethod       string
	RecordedBy          uuid.UUID
}

// NewTransaction creates a validated ledger transaction
func NewTransaction(txType TransactionType, categoryID uuid.UUID, amount decimal.Decimal, description string, occurredAt time.Time, recordedBy uuid.UUID) (*Transaction, error) {
	if txType != TransactionTypeIncome && txType != TransactionTypeExpense {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown transaction type")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Category is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              txType,
		CategoryID:        categoryID,
		Amount:            amount,
		Description:       description,
		OccurredAt:        occurredAt,
		RecordedBy:        recordedBy,
	}, nil
}

// SetContributor records who the money came from. Exactly one of memberID or
// externalName must be provided.
func (t *Transaction) SetContributor(memberID *uuid.UUID, externalName string) error {
	externalName = strings.TrimSpace(externalName)
	if memberID == nil && externalName == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "A member or an external contributor name is required")
	}
	if memberID != nil && externalName != "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Provide either a member or an external contributor, not both")
	}
	t.MemberID = memberID
	t.ExternalContributor = externalName
	return nil
}

// SetPaymentMethod records how the money was received
func (t *Transaction) SetPaymentMethod(method string) {
	t.PaymentMethod = strings.TrimSpace(method)
}

// ChangeAmount updates the transaction amount, keeping it positive
func (t *Transaction) ChangeAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	t.Amount = amount
	t.IncrementVersion()
	t.Touch()
	return nil
}

package treasury

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/shared"
)

// AccountStatus represents the lifecycle state of a bank account
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// AccountType distinguishes checking accounts from savings accounts
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// IsValid reports whether the account type is a known value
func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// BankAccount is a church bank account tracked by the treasury.
// CurrentBalance is ledger-driven, same as PettyCashBox.AvailableAmount.
type BankAccount struct {
	shared.BaseAggregateRoot
	Name           string
	BankName       string
	AccountNumber  string
	AccountType    AccountType
	CurrentBalance decimal.Decimal
	Status         AccountStatus
}

// NewBankAccount creates a bank account with an opening balance
func NewBankAccount(name, bankName, accountNumber string, accountType AccountType, openingBalance decimal.Decimal) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Account name is required")
	}
	if strings.TrimSpace(bankName) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Bank name is required")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Account type must be CHECKING or SAVINGS")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Opening balance cannot be negative")
	}
	return &BankAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		BankName:          bankName,
		AccountNumber:     accountNumber,
		AccountType:       accountType,
		CurrentBalance:    openingBalance,
		Status:            AccountStatusActive,
	}, nil
}

// IsActive returns true if the account accepts movements
func (a *BankAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CanWithdraw validates that the account can cover an outbound amount.
// This is a pre-check; the repository re-validates atomically on write.
func (a *BankAccount) CanWithdraw(amount decimal.Decimal) error {
	if !a.IsActive() {
		return shared.ErrInvalidState
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Amount must be positive")
	}
	if a.CurrentBalance.LessThan(amount) {
		return shared.ErrInsufficientBalance
	}
	return nil
}

// Deactivate closes the account for further movements
func (a *BankAccount) Deactivate() {
	a.Status = AccountStatusInactive
	a.Touch()
}

// Activate reopens the account
func (a *BankAccount) Activate() {
	a.Status = AccountStatusActive
	a.Touch()
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/treasury"
)

// PettyCashBoxModel is the persistence model for the PettyCashBox aggregate root.
type PettyCashBoxModel struct {
	AggregateModel
	Name                string             `gorm:"type:varchar(200);not null"`
	Description         string             `gorm:"type:text"`
	SocietyID           *uuid.UUID         `gorm:"type:uuid;index"`
	AvailableAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AssignedAmount      decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	PeriodStart         *time.Time
	ResponsibleMemberID *uuid.UUID         `gorm:"type:uuid"`
	Status              treasury.BoxStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (PettyCashBoxModel) TableName() string {
	return "petty_cash_boxes"
}

// ToDomain converts the persistence model to a domain PettyCashBox.
func (m *PettyCashBoxModel) ToDomain() *treasury.PettyCashBox {
	return &treasury.PettyCashBox{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		SocietyID:           m.SocietyID,
		AvailableAmount:     m.AvailableAmount,
		AssignedAmount:      m.AssignedAmount,
		PeriodStart:         m.PeriodStart,
		ResponsibleMemberID: m.ResponsibleMemberID,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain PettyCashBox.
func (m *PettyCashBoxModel) FromDomain(b *treasury.PettyCashBox) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Description = b.Description
	m.SocietyID = b.SocietyID
	m.AvailableAmount = b.AvailableAmount
	m.AssignedAmount = b.AssignedAmount
	m.PeriodStart = b.PeriodStart
	m.ResponsibleMemberID = b.ResponsibleMemberID
	m.Status = b.Status
}

// BankAccountModel is the persistence model for the BankAccount aggregate root.
type BankAccountModel struct {
	AggregateModel
	Name           string                 `gorm:"type:varchar(200);not null"`
	BankName       string                 `gorm:"type:varchar(200);not null"`
	AccountNumber  string                 `gorm:"type:varchar(50)"`
	AccountType    treasury.AccountType   `gorm:"type:varchar(20);not null;default:'CHECKING'"`
	CurrentBalance decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Status         treasury.AccountStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount.
func (m *BankAccountModel) ToDomain() *treasury.BankAccount {
	return &treasury.BankAccount{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		BankName:          m.BankName,
		AccountNumber:     m.AccountNumber,
		AccountType:       m.AccountType,
		CurrentBalance:    m.CurrentBalance,
		Status:            m.Status,
	}
}

// FromDomain populates the persistence model from a domain BankAccount.
func (m *BankAccountModel) FromDomain(a *treasury.BankAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.BankName = a.BankName
	m.AccountNumber = a.AccountNumber
	m.AccountType = a.AccountType
	m.CurrentBalance = a.CurrentBalance
	m.Status = a.Status
}

// CashMovementModel is the persistence model for petty cash movements.
// Rows are append-only; balance corrections happen through compensating
// movements, never by editing history.
type CashMovementModel struct {
	AggregateModel
	BoxID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type          treasury.MovementType `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Concept       string                `gorm:"type:varchar(500);not null"`
	OccurredAt    time.Time             `gorm:"not null;index"`
	RecordedBy    uuid.UUID             `gorm:"type:uuid;not null"`
	CounterpartID *uuid.UUID            `gorm:"type:uuid"`
	TransferID    *uuid.UUID            `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CashMovementModel) TableName() string {
	return "cash_movements"
}

// ToDomain converts the persistence model to a domain CashMovement.
func (m *CashMovementModel) ToDomain() *treasury.CashMovement {
	return &treasury.CashMovement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BoxID:             m.BoxID,
		Type:              m.Type,
		Amount:            m.Amount,
		Concept:           m.Concept,
		OccurredAt:        m.OccurredAt,
		RecordedBy:        m.RecordedBy,
		CounterpartID:     m.CounterpartID,
		TransferID:        m.TransferID,
	}
}

// FromDomain populates the persistence model from a domain CashMovement.
func (m *CashMovementModel) FromDomain(mv *treasury.CashMovement) {
	m.FromDomainAggregateRoot(mv.BaseAggregateRoot)
	m.BoxID = mv.BoxID
	m.Type = mv.Type
	m.Amount = mv.Amount
	m.Concept = mv.Concept
	m.OccurredAt = mv.OccurredAt
	m.RecordedBy = mv.RecordedBy
	m.CounterpartID = mv.CounterpartID
	m.TransferID = mv.TransferID
}

// BankMovementModel is the persistence model for bank account movements.
type BankMovementModel struct {
	AggregateModel
	AccountID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type          treasury.BankMovementType `gorm:"type:varchar(20);not null;index"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Description   string                    `gorm:"type:varchar(500);not null"`
	OccurredAt    time.Time                 `gorm:"not null;index"`
	RecordedBy    uuid.UUID                 `gorm:"type:uuid;not null"`
	CounterpartID *uuid.UUID                `gorm:"type:uuid"`
	TransferID    *uuid.UUID                `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BankMovementModel) TableName() string {
	return "bank_movements"
}

// ToDomain converts the persistence model to a domain BankMovement.
func (m *BankMovementModel) ToDomain() *treasury.BankMovement {
	return &treasury.BankMovement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		AccountID:         m.AccountID,
		Type:              m.Type,
		Amount:            m.Amount,
		Description:       m.Description,
		OccurredAt:        m.OccurredAt,
		RecordedBy:        m.RecordedBy,
		CounterpartID:     m.CounterpartID,
		TransferID:        m.TransferID,
	}
}

// FromDomain populates the persistence model from a domain BankMovement.
func (m *BankMovementModel) FromDomain(mv *treasury.BankMovement) {
	m.FromDomainAggregateRoot(mv.BaseAggregateRoot)
	m.AccountID = mv.AccountID
	m.Type = mv.Type
	m.Amount = mv.Amount
	m.Description = mv.Description
	m.OccurredAt = mv.OccurredAt
	m.RecordedBy = mv.RecordedBy
	m.CounterpartID = mv.CounterpartID
	m.TransferID = mv.TransferID
}

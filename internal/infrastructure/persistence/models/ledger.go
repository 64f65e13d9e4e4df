package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/ledger"
)

// CategoryModel is the persistence model for ledger categories.
type CategoryModel struct {
	AggregateModel
	Code string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string              `gorm:"type:varchar(200);not null"`
	Kind ledger.CategoryKind `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *ledger.Category {
	return &ledger.Category{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Kind:              m.Kind,
	}
}

// FromDomain populates the persistence model from a domain Category.
func (m *CategoryModel) FromDomain(c *ledger.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Kind = c.Kind
}

// TransactionModel is the persistence model for ledger transactions.
type TransactionModel struct {
	AggregateModel
	Type                ledger.TransactionType `gorm:"type:varchar(20);not null;index"`
	CategoryID          uuid.UUID              `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Description         string                 `gorm:"type:varchar(500)"`
	OccurredAt          time.Time              `gorm:"not null;index"`
	MemberID            *uuid.UUID             `gorm:"type:uuid;index"`
	ExternalContributor string                 `gorm:"type:varchar(200)"`
	PaymentMethod       string                 `gorm:"type:varchar(50)"`
	RecordedBy          uuid.UUID              `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		Type:                m.Type,
		CategoryID:          m.CategoryID,
		Amount:              m.Amount,
		Description:         m.Description,
		OccurredAt:          m.OccurredAt,
		MemberID:            m.MemberID,
		ExternalContributor: m.ExternalContributor,
		PaymentMethod:       m.PaymentMethod,
		RecordedBy:          m.RecordedBy,
	}
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Type = t.Type
	m.CategoryID = t.CategoryID
	m.Amount = t.Amount
	m.Description = t.Description
	m.OccurredAt = t.OccurredAt
	m.MemberID = t.MemberID
	m.ExternalContributor = t.ExternalContributor
	m.PaymentMethod = t.PaymentMethod
	m.RecordedBy = t.RecordedBy
}

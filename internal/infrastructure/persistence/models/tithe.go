package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/domain/tithe"
)

// TitheBatchModel is the persistence model for the TitheBatch aggregate root.
// The four breakdown amounts are flattened into columns.
type TitheBatchModel struct {
	AggregateModel
	Period             string           `gorm:"type:varchar(7);not null;index"`
	PeriodType         tithe.PeriodType `gorm:"type:varchar(20);not null"`
	ReceivedAt         time.Time        `gorm:"not null;index"`
	TotalReceived      decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	TitheOfTithe       decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	FinanceCommittee   decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PastoralTithe      decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PastoralSustenance decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Distributed        bool             `gorm:"not null;default:false;index"`
	DistributedAt      *time.Time
	DistributedBy      *uuid.UUID `gorm:"type:uuid"`
	RegisteredBy       uuid.UUID  `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (TitheBatchModel) TableName() string {
	return "tithe_batches"
}

// ToDomain converts the persistence model to a domain TitheBatch.
func (m *TitheBatchModel) ToDomain() *tithe.TitheBatch {
	return &tithe.TitheBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Period:            m.Period,
		PeriodType:        m.PeriodType,
		ReceivedAt:        m.ReceivedAt,
		TotalReceived:     m.TotalReceived,
		Breakdown: tithe.Breakdown{
			TitheOfTithe:       m.TitheOfTithe,
			FinanceCommittee:   m.FinanceCommittee,
			PastoralTithe:      m.PastoralTithe,
			PastoralSustenance: m.PastoralSustenance,
		},
		Distributed:   m.Distributed,
		DistributedAt: m.DistributedAt,
		DistributedBy: m.DistributedBy,
		RegisteredBy:  m.RegisteredBy,
	}
}

// FromDomain populates the persistence model from a domain TitheBatch.
func (m *TitheBatchModel) FromDomain(b *tithe.TitheBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Period = b.Period
	m.PeriodType = b.PeriodType
	m.ReceivedAt = b.ReceivedAt
	m.TotalReceived = b.TotalReceived
	m.TitheOfTithe = b.Breakdown.TitheOfTithe
	m.FinanceCommittee = b.Breakdown.FinanceCommittee
	m.PastoralTithe = b.Breakdown.PastoralTithe
	m.PastoralSustenance = b.Breakdown.PastoralSustenance
	m.Distributed = b.Distributed
	m.DistributedAt = b.DistributedAt
	m.DistributedBy = b.DistributedBy
	m.RegisteredBy = b.RegisteredBy
}

// TitheBatchEntryModel links one ledger transaction to one tithe batch.
// A transaction belongs to at most one batch.
type TitheBatchEntryModel struct {
	BatchID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;primaryKey;uniqueIndex"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TitheBatchEntryModel) TableName() string {
	return "tithe_batch_entries"
}

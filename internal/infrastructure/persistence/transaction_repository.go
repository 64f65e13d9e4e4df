package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchops/backend/internal/domain/ledger"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/infrastructure/persistence/models"
)

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.TransactionModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the transactions matching the given IDs, ordered by
// occurrence time
func (r *GormTransactionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ledger.Transaction, error) {
	if len(ids) == 0 {
		return []ledger.Transaction{}, nil
	}

	var transactionModels []models.TransactionModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("occurred_at ASC").
		Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]ledger.Transaction, len(transactionModels))
	for i, model := range transactionModels {
		transactions[i] = *model.ToDomain()
	}
	return transactions, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, transaction *ledger.Transaction) error {
	var model models.TransactionModel
	model.FromDomain(transaction)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, transaction *ledger.Transaction) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ? AND version = ?", transaction.ID, transaction.Version-1).
		Updates(map[string]interface{}{
			"amount":               transaction.Amount,
			"description":          transaction.Description,
			"member_id":            transaction.MemberID,
			"external_contributor": transaction.ExternalContributor,
			"payment_method":       transaction.PaymentMethod,
			"version":              transaction.Version,
			"updated_at":           transaction.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a transaction
func (r *GormTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Delete(&models.TransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)

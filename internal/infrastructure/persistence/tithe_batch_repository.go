package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/tithe"
	"github.com/churchops/backend/internal/infrastructure/persistence/models"
)

// GormTitheBatchRepository implements tithe.TitheBatchRepository using GORM
type GormTitheBatchRepository struct {
	db *gorm.DB
}

// NewGormTitheBatchRepository creates a new GormTitheBatchRepository
func NewGormTitheBatchRepository(db *gorm.DB) *GormTitheBatchRepository {
	return &GormTitheBatchRepository{db: db}
}

// FindByID finds a tithe batch by its ID
func (r *GormTitheBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*tithe.TitheBatch, error) {
	var model models.TitheBatchModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists tithe batches with pagination and returns the total count
func (r *GormTitheBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]tithe.TitheBatch, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Model(&models.TitheBatchModel{})

	if filter.Search != "" {
		query = query.Where("period ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "received_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var batchModels []models.TitheBatchModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&batchModels).Error; err != nil {
		return nil, 0, err
	}

	batches := make([]tithe.TitheBatch, len(batchModels))
	for i, model := range batchModels {
		batches[i] = *model.ToDomain()
	}
	return batches, total, nil
}

// Save creates or updates a tithe batch
func (r *GormTitheBatchRepository) Save(ctx context.Context, batch *tithe.TitheBatch) error {
	var model models.TitheBatchModel
	model.FromDomain(batch)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormTitheBatchRepository) SaveWithLock(ctx context.Context, batch *tithe.TitheBatch) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.TitheBatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"total_received":      batch.TotalReceived,
			"tithe_of_tithe":      batch.Breakdown.TitheOfTithe,
			"finance_committee":   batch.Breakdown.FinanceCommittee,
			"pastoral_tithe":      batch.Breakdown.PastoralTithe,
			"pastoral_sustenance": batch.Breakdown.PastoralSustenance,
			"distributed":         batch.Distributed,
			"distributed_at":      batch.DistributedAt,
			"distributed_by":      batch.DistributedBy,
			"version":             batch.Version,
			"updated_at":          batch.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// AddEntry links a transaction to a batch. The unique index on
// transaction_id rejects linking the same transaction twice.
func (r *GormTitheBatchRepository) AddEntry(ctx context.Context, batchID, transactionID uuid.UUID) error {
	entry := models.TitheBatchEntryModel{
		BatchID:       batchID,
		TransactionID: transactionID,
		CreatedAt:     time.Now(),
	}
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&entry).Error
}

// RemoveEntry unlinks a transaction from a batch
func (r *GormTitheBatchRepository) RemoveEntry(ctx context.Context, batchID, transactionID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Delete(&models.TitheBatchEntryModel{}, "batch_id = ? AND transaction_id = ?", batchID, transactionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// EntryTransactionIDs returns the IDs of the transactions linked to a batch
func (r *GormTitheBatchRepository) EntryTransactionIDs(ctx context.Context, batchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.TitheBatchEntryModel{}).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Pluck("transaction_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// HasEntry reports whether a transaction is linked to the given batch
func (r *GormTitheBatchRepository) HasEntry(ctx context.Context, batchID, transactionID uuid.UUID) (bool, error) {
	var count int64
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.TitheBatchEntryModel{}).
		Where("batch_id = ? AND transaction_id = ?", batchID, transactionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ tithe.TitheBatchRepository = (*GormTitheBatchRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/treasury"
	"github.com/churchops/backend/internal/infrastructure/persistence/models"
)

// GormPettyCashBoxRepository implements treasury.PettyCashBoxRepository using GORM
type GormPettyCashBoxRepository struct {
	db *gorm.DB
}

// NewGormPettyCashBoxRepository creates a new GormPettyCashBoxRepository
func NewGormPettyCashBoxRepository(db *gorm.DB) *GormPettyCashBoxRepository {
	return &GormPettyCashBoxRepository{db: db}
}

// FindByID finds a petty cash box by its ID
func (r *GormPettyCashBoxRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.PettyCashBox, error) {
	var model models.PettyCashBoxModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists petty cash boxes with pagination and returns the total count
func (r *GormPettyCashBoxRepository) FindAll(ctx context.Context, filter shared.Filter) ([]treasury.PettyCashBox, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Model(&models.PettyCashBoxModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BoxSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}

	var boxModels []models.PettyCashBoxModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&boxModels).Error; err != nil {
		return nil, 0, err
	}

	boxes := make([]treasury.PettyCashBox, len(boxModels))
	for i, model := range boxModels {
		boxes[i] = *model.ToDomain()
	}
	return boxes, total, nil
}

// Save creates or updates a petty cash box
func (r *GormPettyCashBoxRepository) Save(ctx context.Context, box *treasury.PettyCashBox) error {
	var model models.PettyCashBoxModel
	model.FromDomain(box)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves metadata fields with optimistic locking (checks version).
// The balance is deliberately excluded: it only moves through Debit/Credit.
func (r *GormPettyCashBoxRepository) SaveWithLock(ctx context.Context, box *treasury.PettyCashBox) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.PettyCashBoxModel{}).
		Where("id = ? AND version = ?", box.ID, box.Version-1).
		Updates(map[string]interface{}{
			"name":                  box.Name,
			"description":           box.Description,
			"society_id":            box.SocietyID,
			"assigned_amount":       box.AssignedAmount,
			"period_start":          box.PeriodStart,
			"responsible_member_id": box.ResponsibleMemberID,
			"status":                box.Status,
			"version":               box.Version,
			"updated_at":            box.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Debit atomically subtracts from the balance of an active box with enough
// funds. The guard lives in the WHERE clause, so a concurrent debit can never
// push the balance below zero.
func (r *GormPettyCashBoxRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	db := dbFromContext(ctx, r.db)
	result := db.WithContext(ctx).
		Model(&models.PettyCashBoxModel{}).
		Where("id = ? AND status = ? AND available_amount >= ?", id, treasury.BoxStatusActive, amount).
		Updates(map[string]interface{}{
			"available_amount": gorm.Expr("available_amount - ?", amount),
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.debitFailureReason(ctx, id)
	}
	return nil
}

// debitFailureReason tells apart the three ways a conditional debit can miss
func (r *GormPettyCashBoxRepository) debitFailureReason(ctx context.Context, id uuid.UUID) error {
	box, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !box.IsActive() {
		return shared.ErrInvalidState
	}
	return shared.ErrInsufficientBalance
}

// Credit atomically adds to the balance of an existing box
func (r *GormPettyCashBoxRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	db := dbFromContext(ctx, r.db)
	result := db.WithContext(ctx).
		Model(&models.PettyCashBoxModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"available_amount": gorm.Expr("available_amount + ?", amount),
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ treasury.PettyCashBoxRepository = (*GormPettyCashBoxRepository)(nil)

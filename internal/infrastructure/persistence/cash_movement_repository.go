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

// GormCashMovementRepository implements treasury.CashMovementRepository using GORM
type GormCashMovementRepository struct {
	db *gorm.DB
}

// NewGormCashMovementRepository creates a new GormCashMovementRepository
func NewGormCashMovementRepository(db *gorm.DB) *GormCashMovementRepository {
	return &GormCashMovementRepository{db: db}
}

// Save inserts a cash movement. Movements are append-only.
func (r *GormCashMovementRepository) Save(ctx context.Context, movement *treasury.CashMovement) error {
	var model models.CashMovementModel
	model.FromDomain(movement)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// FindByID finds a cash movement by its ID
func (r *GormCashMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.CashMovement, error) {
	var model models.CashMovementModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBox lists the movements of one box, newest first by default
func (r *GormCashMovementRepository) FindByBox(ctx context.Context, boxID uuid.UUID, filter shared.Filter) ([]treasury.CashMovement, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).
		Model(&models.CashMovementModel{}).
		Where("box_id = ?", boxID)

	if filter.Search != "" {
		query = query.Where("concept ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, MovementSortFields, "occurred_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var movementModels []models.CashMovementModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movementModels).Error; err != nil {
		return nil, 0, err
	}

	movements := make([]treasury.CashMovement, len(movementModels))
	for i, model := range movementModels {
		movements[i] = *model.ToDomain()
	}
	return movements, total, nil
}

// TotalsByPeriod sums inbound and outbound cash movement amounts in [from, to)
func (r *GormCashMovementRepository) TotalsByPeriod(ctx context.Context, from, to time.Time) (treasury.MovementTotals, error) {
	db := dbFromContext(ctx, r.db)

	type row struct {
		Inbound  decimal.Decimal
		Outbound decimal.Decimal
	}
	var result row
	err := db.WithContext(ctx).
		Model(&models.CashMovementModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN type IN ? THEN amount ELSE 0 END), 0) AS inbound, "+
				"COALESCE(SUM(CASE WHEN type IN ? THEN amount ELSE 0 END), 0) AS outbound",
			[]treasury.MovementType{treasury.MovementTypeReplenishment, treasury.MovementTypeTransferIn},
			[]treasury.MovementType{treasury.MovementTypeExpense, treasury.MovementTypeTransferOut, treasury.MovementTypeBankDeposit},
		).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Scan(&result).Error
	if err != nil {
		return treasury.MovementTotals{}, err
	}

	return treasury.MovementTotals{
		Inbound:  result.Inbound,
		Outbound: result.Outbound,
	}, nil
}

var _ treasury.CashMovementRepository = (*GormCashMovementRepository)(nil)

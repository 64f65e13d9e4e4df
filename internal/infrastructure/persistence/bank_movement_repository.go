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

// GormBankMovementRepository implements treasury.BankMovementRepository using GORM
type GormBankMovementRepository struct {
	db *gorm.DB
}

// NewGormBankMovementRepository creates a new GormBankMovementRepository
func NewGormBankMovementRepository(db *gorm.DB) *GormBankMovementRepository {
	return &GormBankMovementRepository{db: db}
}

// Save inserts a bank movement. Movements are append-only.
func (r *GormBankMovementRepository) Save(ctx context.Context, movement *treasury.BankMovement) error {
	var model models.BankMovementModel
	model.FromDomain(movement)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&model).Error
}

// FindByID finds a bank movement by its ID
func (r *GormBankMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.BankMovement, error) {
	var model models.BankMovementModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccount lists the movements of one account, newest first by default
func (r *GormBankMovementRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]treasury.BankMovement, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).
		Model(&models.BankMovementModel{}).
		Where("account_id = ?", accountID)

	if filter.Search != "" {
		query = query.Where("description ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, MovementSortFields, "occurred_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var movementModels []models.BankMovementModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&movementModels).Error; err != nil {
		return nil, 0, err
	}

	movements := make([]treasury.BankMovement, len(movementModels))
	for i, model := range movementModels {
		movements[i] = *model.ToDomain()
	}
	return movements, total, nil
}

// TotalsByPeriod sums inbound and outbound bank movement amounts in [from, to)
func (r *GormBankMovementRepository) TotalsByPeriod(ctx context.Context, from, to time.Time) (treasury.MovementTotals, error) {
	db := dbFromContext(ctx, r.db)

	type row struct {
		Inbound  decimal.Decimal
		Outbound decimal.Decimal
	}
	var result row
	err := db.WithContext(ctx).
		Model(&models.BankMovementModel{}).
		Select(
			"COALESCE(SUM(CASE WHEN type IN ? THEN amount ELSE 0 END), 0) AS inbound, "+
				"COALESCE(SUM(CASE WHEN type IN ? THEN amount ELSE 0 END), 0) AS outbound",
			[]treasury.BankMovementType{treasury.BankMovementTypeDeposit, treasury.BankMovementTypeTransferIn},
			[]treasury.BankMovementType{treasury.BankMovementTypeWithdrawal, treasury.BankMovementTypeTransferOut},
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

var _ treasury.BankMovementRepository = (*GormBankMovementRepository)(nil)

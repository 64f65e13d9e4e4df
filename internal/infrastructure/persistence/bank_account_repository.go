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

// GormBankAccountRepository implements treasury.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by its ID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.BankAccount, error) {
	var model models.BankAccountModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists bank accounts with pagination and returns the total count
func (r *GormBankAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]treasury.BankAccount, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Model(&models.BankAccountModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR bank_name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, AccountSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}

	var accountModels []models.BankAccountModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&accountModels).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]treasury.BankAccount, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, total, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *treasury.BankAccount) error {
	var model models.BankAccountModel
	model.FromDomain(account)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

// SaveWithLock saves metadata fields with optimistic locking (checks version).
// The balance only moves through Debit/Credit.
func (r *GormBankAccountRepository) SaveWithLock(ctx context.Context, account *treasury.BankAccount) error {
	result := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]interface{}{
			"name":           account.Name,
			"bank_name":      account.BankName,
			"account_number": account.AccountNumber,
			"account_type":   account.AccountType,
			"status":         account.Status,
			"version":        account.Version,
			"updated_at":     account.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Debit atomically subtracts from the balance of an active account with
// enough funds, guarded in the WHERE clause.
func (r *GormBankAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	db := dbFromContext(ctx, r.db)
	result := db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("id = ? AND status = ? AND current_balance >= ?", id, treasury.AccountStatusActive, amount).
		Updates(map[string]interface{}{
			"current_balance": gorm.Expr("current_balance - ?", amount),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.debitFailureReason(ctx, id)
	}
	return nil
}

func (r *GormBankAccountRepository) debitFailureReason(ctx context.Context, id uuid.UUID) error {
	account, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !account.IsActive() {
		return shared.ErrInvalidState
	}
	return shared.ErrInsufficientBalance
}

// Credit atomically adds to the balance of an existing account
func (r *GormBankAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	db := dbFromContext(ctx, r.db)
	result := db.WithContext(ctx).
		Model(&models.BankAccountModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_balance": gorm.Expr("current_balance + ?", amount),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ treasury.BankAccountRepository = (*GormBankAccountRepository)(nil)

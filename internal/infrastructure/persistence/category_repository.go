package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchops/backend/internal/domain/ledger"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements ledger.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Category, error) {
	var model models.CategoryModel
	db := dbFromContext(ctx, r.db)
	if err := db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a category by its unique code
func (r *GormCategoryRepository) FindByCode(ctx context.Context, code string) (*ledger.Category, error) {
	var model models.CategoryModel
	db := dbFromContext(ctx, r.db)
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists categories with pagination and returns the total count
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Category, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Model(&models.CategoryModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CategorySortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" {
		orderDir = "ASC"
	}

	var categoryModels []models.CategoryModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&categoryModels).Error; err != nil {
		return nil, 0, err
	}

	categories := make([]ledger.Category, len(categoryModels))
	for i, model := range categoryModels {
		categories[i] = *model.ToDomain()
	}
	return categories, total, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *ledger.Category) error {
	var model models.CategoryModel
	model.FromDomain(category)
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(&model).Error
}

var _ ledger.CategoryRepository = (*GormCategoryRepository)(nil)

package ledger

import (
	"strings"

	"github.com/churchops/backend/internal/domain/shared"
)

// CategoryKind splits categories into the two sides of the ledger
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "INCOME"
	CategoryKindExpense CategoryKind = "EXPENSE"
)

// Well-known category codes. The tithe category must exist before tithe
// batches can be registered; registration fails closed without it.
const (
	CategoryCodeTithe = "TITHE"
)

// ErrCategoryNotConfigured is returned when a required well-known category
// is missing from the ledger
var ErrCategoryNotConfigured = shared.NewDomainError("CATEGORY_NOT_CONFIGURED", "Required ledger category is not configured")

// Category classifies ledger transactions
type Category struct {
	shared.BaseAggregateRoot
	Code string
	Name string
	Kind CategoryKind
}

// NewCategory creates a validated category
func NewCategory(code, name string, kind CategoryKind) (*Category, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Category code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Category name is required")
	}
	if kind != CategoryKindIncome && kind != CategoryKindExpense {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown category kind")
	}
	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Kind:              kind,
	}, nil
}

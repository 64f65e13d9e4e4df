package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/churchops/backend/internal/domain/shared"
)

// CategoryRepository persists ledger categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByCode(ctx context.Context, code string) (*Category, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, int64, error)
	Save(ctx context.Context, category *Category) error
}

// TransactionRepository persists ledger transactions
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Transaction, error)
	Save(ctx context.Context, transaction *Transaction) error
	SaveWithLock(ctx context.Context, transaction *Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
}

package tithe

import (
	"context"

	"github.com/google/uuid"

	"github.com/churchops/backend/internal/domain/shared"
)

// TitheBatchRepository persists tithe batches and their entry links.
// An entry link ties one ledger transaction to one batch; removing the link
// does not delete the transaction.
type TitheBatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TitheBatch, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]TitheBatch, int64, error)
	Save(ctx context.Context, batch *TitheBatch) error
	SaveWithLock(ctx context.Context, batch *TitheBatch) error
	AddEntry(ctx context.Context, batchID, transactionID uuid.UUID) error
	RemoveEntry(ctx context.Context, batchID, transactionID uuid.UUID) error
	EntryTransactionIDs(ctx context.Context, batchID uuid.UUID) ([]uuid.UUID, error)
	HasEntry(ctx context.Context, batchID, transactionID uuid.UUID) (bool, error)
}

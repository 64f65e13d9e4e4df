package tithe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/domain/ledger"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/tithe"
)

// TitheService orchestrates tithe batch registration, distribution and entry
// maintenance. Batch registration is all-or-nothing: the batch row, every
// transaction and every batch link land in one database transaction, so a
// failure at any step leaves no partial batch behind.
type TitheService struct {
	batches      tithe.TitheBatchRepository
	transactions ledger.TransactionRepository
	categories   ledger.CategoryRepository
	calculator   *tithe.Calculator
	uow          shared.UnitOfWork
	authorizer   authz.Authorizer
}

// NewTitheService creates a new TitheService
func NewTitheService(
	batches tithe.TitheBatchRepository,
	transactions ledger.TransactionRepository,
	categories ledger.CategoryRepository,
	calculator *tithe.Calculator,
	uow shared.UnitOfWork,
	authorizer authz.Authorizer,
) *TitheService {
	return &TitheService{
		batches:      batches,
		transactions: transactions,
		categories:   categories,
		calculator:   calculator,
		uow:          uow,
		authorizer:   authorizer,
	}
}

// ===================== Requests and responses =====================

// TitheEntryInput is one tither's contribution within a batch. Exactly one of
// MemberID or ExternalName identifies the contributor.
type TitheEntryInput struct {
	MemberID      *uuid.UUID      `json:"member_id"`
	ExternalName  string          `json:"external_name"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method"`
}

// RegisterBatchRequest registers the tithes collected in one period
type RegisterBatchRequest struct {
	ReceivedAt time.Time         `json:"received_at"`
	PeriodType string            `json:"period_type" binding:"required"`
	Entries    []TitheEntryInput `json:"entries" binding:"required,min=1"`
}

// UpdateEntryRequest changes the amount of one batch entry
type UpdateEntryRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// BatchResponse represents a tithe batch in API responses
type BatchResponse struct {
	ID            uuid.UUID       `json:"id"`
	Period        string          `json:"period"`
	PeriodType    string          `json:"period_type"`
	ReceivedAt    time.Time       `json:"received_at"`
	TotalReceived decimal.Decimal `json:"total_received"`
	Breakdown     tithe.Breakdown `json:"breakdown"`
	Distributed   bool            `json:"distributed"`
	DistributedAt *time.Time      `json:"distributed_at,omitempty"`
	DistributedBy *uuid.UUID      `json:"distributed_by,omitempty"`
	RegisteredBy  uuid.UUID       `json:"registered_by"`
	CreatedAt     time.Time       `json:"created_at"`
	Version       int             `json:"version"`
}

// EntryResponse represents one batch entry in API responses
type EntryResponse struct {
	TransactionID       uuid.UUID       `json:"transaction_id"`
	MemberID            *uuid.UUID      `json:"member_id,omitempty"`
	ExternalContributor string          `json:"external_contributor,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	PaymentMethod       string          `json:"payment_method,omitempty"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

// BatchDetailResponse is a batch with its entries
type BatchDetailResponse struct {
	BatchResponse
	Entries []EntryResponse `json:"entries"`
}

func toBatchResponse(b *tithe.TitheBatch) BatchResponse {
	return BatchResponse{
		ID:            b.ID,
		Period:        b.Period,
		PeriodType:    string(b.PeriodType),
		ReceivedAt:    b.ReceivedAt,
		TotalReceived: b.TotalReceived,
		Breakdown:     b.Breakdown,
		Distributed:   b.Distributed,
		DistributedAt: b.DistributedAt,
		DistributedBy: b.DistributedBy,
		RegisteredBy:  b.RegisteredBy,
		CreatedAt:     b.CreatedAt,
		Version:       b.Version,
	}
}

func toEntryResponse(t *ledger.Transaction) EntryResponse {
	return EntryResponse{
		TransactionID:       t.ID,
		MemberID:            t.MemberID,
		ExternalContributor: t.ExternalContributor,
		Amount:              t.Amount,
		PaymentMethod:       t.PaymentMethod,
		OccurredAt:          t.OccurredAt,
	}
}

// ===================== Operations =====================

// RegisterBatch registers a tithe batch and its entries. The tithe income
// category must exist; registration fails closed without it.
func (s *TitheService) RegisterBatch(ctx context.Context, actor authz.Actor, req RegisterBatchRequest) (*BatchDetailResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheRegister); err != nil {
		return nil, err
	}
	periodType := tithe.PeriodType(req.PeriodType)
	if !periodType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Unknown period type")
	}
	if len(req.Entries) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "At least one entry is required")
	}
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	period := receivedAt.Format("2006-01")

	total := decimal.Zero
	for _, entry := range req.Entries {
		if !entry.Amount.IsPositive() {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Entry amounts must be positive")
		}
		total = total.Add(entry.Amount)
	}
	breakdown, err := s.calculator.Distribute(total)
	if err != nil {
		return nil, err
	}

	var resp *BatchDetailResponse
	err = s.uow.InTransaction(ctx, func(ctx context.Context) error {
		category, err := s.categories.FindByCode(ctx, ledger.CategoryCodeTithe)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ledger.ErrCategoryNotConfigured
			}
			return err
		}

		batch, err := tithe.NewTitheBatch(period, periodType, receivedAt, total, breakdown, actor.UserID)
		if err != nil {
			return err
		}
		if err := s.batches.Save(ctx, batch); err != nil {
			return err
		}

		entries := make([]EntryResponse, 0, len(req.Entries))
		for _, input := range req.Entries {
			description := fmt.Sprintf("Diezmo %s", period)
			transaction, err := ledger.NewTransaction(ledger.TransactionTypeIncome, category.ID, input.Amount, description, receivedAt, actor.UserID)
			if err != nil {
				return err
			}
			if err := transaction.SetContributor(input.MemberID, input.ExternalName); err != nil {
				return err
			}
			transaction.SetPaymentMethod(input.PaymentMethod)

			if err := s.transactions.Save(ctx, transaction); err != nil {
				return err
			}
			if err := s.batches.AddEntry(ctx, batch.ID, transaction.ID); err != nil {
				return err
			}
			entries = append(entries, toEntryResponse(transaction))
		}

		resp = &BatchDetailResponse{
			BatchResponse: toBatchResponse(batch),
			Entries:       entries,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ExecuteDistribution marks a batch as distributed. A second attempt fails
// with the already-distributed error and never rewrites the original stamp.
func (s *TitheService) ExecuteDistribution(ctx context.Context, actor authz.Actor, batchID uuid.UUID) (*BatchResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheDistribute); err != nil {
		return nil, err
	}
	var resp *BatchResponse
	err := s.uow.InTransaction(ctx, func(ctx context.Context) error {
		batch, err := s.batches.FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if err := batch.Distribute(actor.UserID, time.Now()); err != nil {
			return err
		}
		if err := s.batches.SaveWithLock(ctx, batch); err != nil {
			return err
		}
		r := toBatchResponse(batch)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateEntry changes the amount of one batch entry and recomputes the batch
// total and breakdown. The distributed flag is never touched.
func (s *TitheService) UpdateEntry(ctx context.Context, actor authz.Actor, batchID, transactionID uuid.UUID, req UpdateEntryRequest) (*BatchResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheEdit); err != nil {
		return nil, err
	}
	var resp *BatchResponse
	err := s.uow.InTransaction(ctx, func(ctx context.Context) error {
		linked, err := s.batches.HasEntry(ctx, batchID, transactionID)
		if err != nil {
			return err
		}
		if !linked {
			return shared.ErrNotFound
		}
		batch, err := s.batches.FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		transaction, err := s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}

		oldAmount := transaction.Amount
		if err := transaction.ChangeAmount(req.Amount); err != nil {
			return err
		}
		if err := s.transactions.SaveWithLock(ctx, transaction); err != nil {
			return err
		}

		newTotal := batch.TotalReceived.Sub(oldAmount).Add(req.Amount)
		if err := s.recompute(batch, newTotal); err != nil {
			return err
		}
		if err := s.batches.SaveWithLock(ctx, batch); err != nil {
			return err
		}
		r := toBatchResponse(batch)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteEntry removes one entry from a batch, deletes its transaction and
// recomputes the batch total and breakdown
func (s *TitheService) DeleteEntry(ctx context.Context, actor authz.Actor, batchID, transactionID uuid.UUID) (*BatchResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheEdit); err != nil {
		return nil, err
	}
	var resp *BatchResponse
	err := s.uow.InTransaction(ctx, func(ctx context.Context) error {
		linked, err := s.batches.HasEntry(ctx, batchID, transactionID)
		if err != nil {
			return err
		}
		if !linked {
			return shared.ErrNotFound
		}
		batch, err := s.batches.FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		transaction, err := s.transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}

		if err := s.batches.RemoveEntry(ctx, batchID, transactionID); err != nil {
			return err
		}
		if err := s.transactions.Delete(ctx, transactionID); err != nil {
			return err
		}

		newTotal := batch.TotalReceived.Sub(transaction.Amount)
		if err := s.recompute(batch, newTotal); err != nil {
			return err
		}
		if err := s.batches.SaveWithLock(ctx, batch); err != nil {
			return err
		}
		r := toBatchResponse(batch)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBatch returns a batch with its entries
func (s *TitheService) GetBatch(ctx context.Context, actor authz.Actor, batchID uuid.UUID) (*BatchDetailResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheRead); err != nil {
		return nil, err
	}
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	ids, err := s.batches.EntryTransactionIDs(ctx, batchID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries := make([]EntryResponse, len(transactions))
	for i := range transactions {
		entries[i] = toEntryResponse(&transactions[i])
	}
	return &BatchDetailResponse{
		BatchResponse: toBatchResponse(batch),
		Entries:       entries,
	}, nil
}

// ListBatches returns a paginated list of batches
func (s *TitheService) ListBatches(ctx context.Context, actor authz.Actor, filter shared.Filter) (*shared.Paginated[BatchResponse], error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTitheRead); err != nil {
		return nil, err
	}
	batches, total, err := s.batches.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BatchResponse, len(batches))
	for i := range batches {
		items[i] = toBatchResponse(&batches[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

func (s *TitheService) recompute(batch *tithe.TitheBatch, newTotal decimal.Decimal) error {
	breakdown, err := s.calculator.Distribute(newTotal)
	if err != nil {
		return err
	}
	return batch.Recompute(newTotal, breakdown)
}

package treasury

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/treasury"
)

// ResourceLocker serializes operations touching the same box or account.
// Acquire blocks until every key is held and returns the release function.
// Implementations must order acquisition so overlapping key sets cannot
// deadlock.
type ResourceLocker interface {
	Acquire(keys ...string) (release func())
}

// MovementService orchestrates balance-changing operations: cash movements,
// bank deposits and transfers. Every operation authorizes first, then runs
// its writes inside one database transaction while holding the per-resource
// locks, so balances can never go negative and no partial transfer is ever
// persisted.
type MovementService struct {
	boxes          treasury.PettyCashBoxRepository
	accounts       treasury.BankAccountRepository
	cashMovements  treasury.CashMovementRepository
	bankMovements  treasury.BankMovementRepository
	uow            shared.UnitOfWork
	authorizer     authz.Authorizer
	locker         ResourceLocker
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	opTimeout      time.Duration
}

// MovementServiceOption configures optional MovementService behavior
type MovementServiceOption func(*MovementService)

// WithIdempotencyStore enables duplicate-operation rejection for requests
// carrying an operation key
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) MovementServiceOption {
	return func(s *MovementService) {
		s.idempotency = store
		s.idempotencyTTL = ttl
	}
}

// WithOperationTimeout bounds how long a single orchestrated operation may run
func WithOperationTimeout(timeout time.Duration) MovementServiceOption {
	return func(s *MovementService) {
		s.opTimeout = timeout
	}
}

// NewMovementService creates a new MovementService
func NewMovementService(
	boxes treasury.PettyCashBoxRepository,
	accounts treasury.BankAccountRepository,
	cashMovements treasury.CashMovementRepository,
	bankMovements treasury.BankMovementRepository,
	uow shared.UnitOfWork,
	authorizer authz.Authorizer,
	locker ResourceLocker,
	opts ...MovementServiceOption,
) *MovementService {
	s := &MovementService{
		boxes:          boxes,
		accounts:       accounts,
		cashMovements:  cashMovements,
		bankMovements:  bankMovements,
		uow:            uow,
		authorizer:     authorizer,
		locker:         locker,
		idempotencyTTL: 24 * time.Hour,
		opTimeout:      10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and responses =====================

// RegisterMovementRequest registers a direct expense or replenishment on a box
type RegisterMovementRequest struct {
	BoxID        uuid.UUID       `json:"box_id" binding:"required"`
	Type         string          `json:"type" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Concept      string          `json:"concept" binding:"required"`
	OccurredAt   time.Time       `json:"occurred_at"`
	OperationKey string          `json:"operation_key"`
}

// DepositToBankRequest moves cash from a box into a bank account
type DepositToBankRequest struct {
	BoxID        uuid.UUID       `json:"box_id" binding:"required"`
	AccountID    uuid.UUID       `json:"account_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Concept      string          `json:"concept" binding:"required"`
	OccurredAt   time.Time       `json:"occurred_at"`
	OperationKey string          `json:"operation_key"`
}

// BoxTransferRequest moves cash between two boxes
type BoxTransferRequest struct {
	SourceBoxID      uuid.UUID       `json:"source_box_id" binding:"required"`
	DestinationBoxID uuid.UUID       `json:"destination_box_id" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Concept          string          `json:"concept" binding:"required"`
	OccurredAt       time.Time       `json:"occurred_at"`
	OperationKey     string          `json:"operation_key"`
}

// AccountTransferRequest moves funds between two bank accounts
type AccountTransferRequest struct {
	SourceAccountID      uuid.UUID       `json:"source_account_id" binding:"required"`
	DestinationAccountID uuid.UUID       `json:"destination_account_id" binding:"required"`
	Amount               decimal.Decimal `json:"amount" binding:"required"`
	Description          string          `json:"description" binding:"required"`
	OccurredAt           time.Time       `json:"occurred_at"`
	OperationKey         string          `json:"operation_key"`
}

// MovementResponse represents a cash movement in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	BoxID         uuid.UUID       `json:"box_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Concept       string          `json:"concept"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RecordedBy    uuid.UUID       `json:"recorded_by"`
	CounterpartID *uuid.UUID      `json:"counterpart_id,omitempty"`
	TransferID    *uuid.UUID      `json:"transfer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BankMovementResponse represents a bank movement in API responses
type BankMovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	OccurredAt    time.Time       `json:"occurred_at"`
	RecordedBy    uuid.UUID       `json:"recorded_by"`
	CounterpartID *uuid.UUID      `json:"counterpart_id,omitempty"`
	TransferID    *uuid.UUID      `json:"transfer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BoxTransferResponse carries both legs of a box-to-box transfer
type BoxTransferResponse struct {
	TransferID  uuid.UUID        `json:"transfer_id"`
	Source      MovementResponse `json:"source"`
	Destination MovementResponse `json:"destination"`
}

// DepositResponse carries both legs of a box-to-bank deposit
type DepositResponse struct {
	TransferID   uuid.UUID            `json:"transfer_id"`
	CashMovement MovementResponse     `json:"cash_movement"`
	BankMovement BankMovementResponse `json:"bank_movement"`
}

// AccountTransferResponse carries both legs of an account-to-account transfer
type AccountTransferResponse struct {
	TransferID  uuid.UUID            `json:"transfer_id"`
	Source      BankMovementResponse `json:"source"`
	Destination BankMovementResponse `json:"destination"`
}

func toMovementResponse(m *treasury.CashMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		BoxID:         m.BoxID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		Concept:       m.Concept,
		OccurredAt:    m.OccurredAt,
		RecordedBy:    m.RecordedBy,
		CounterpartID: m.CounterpartID,
		TransferID:    m.TransferID,
		CreatedAt:     m.CreatedAt,
	}
}

func toBankMovementResponse(m *treasury.BankMovement) BankMovementResponse {
	return BankMovementResponse{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		Description:   m.Description,
		OccurredAt:    m.OccurredAt,
		RecordedBy:    m.RecordedBy,
		CounterpartID: m.CounterpartID,
		TransferID:    m.TransferID,
		CreatedAt:     m.CreatedAt,
	}
}

// ===================== Operations =====================

// RegisterMovement records a direct expense or replenishment on a box.
// Expenses validate the available balance; replenishments do not.
func (s *MovementService) RegisterMovement(ctx context.Context, actor authz.Actor, req RegisterMovementRequest) (*MovementResponse, error) {
	movementType := treasury.MovementType(req.Type)
	if movementType != treasury.MovementTypeExpense && movementType != treasury.MovementTypeReplenishment {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Type must be EXPENSE or REPLENISHMENT")
	}
	releaseKey, err := s.claimOperation(ctx, req.OperationKey)
	if err != nil {
		return nil, err
	}

	release := s.locker.Acquire(req.BoxID.String())
	defer release()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp *MovementResponse
	err = s.uow.InTransaction(ctx, func(ctx context.Context) error {
		box, err := s.boxes.FindByID(ctx, req.BoxID)
		if err != nil {
			return err
		}
		if err := s.authorizer.AuthorizeBox(ctx, actor, box, authz.CapMovementCreate); err != nil {
			return err
		}
		if !box.IsActive() {
			return shared.ErrInvalidState
		}

		movement, err := treasury.NewCashMovement(box.ID, movementType, req.Amount, req.Concept, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}

		if movementType.IsOutbound() {
			if err := box.CanWithdraw(req.Amount); err != nil {
				return err
			}
			if err := s.boxes.Debit(ctx, box.ID, req.Amount); err != nil {
				return err
			}
		} else {
			if err := s.boxes.Credit(ctx, box.ID, req.Amount); err != nil {
				return err
			}
		}
		if err := s.cashMovements.Save(ctx, movement); err != nil {
			return err
		}

		r := toMovementResponse(movement)
		resp = &r
		return nil
	})
	if err != nil {
		releaseKey()
		return nil, err
	}
	return resp, nil
}

// DepositToBank moves cash from a box into a bank account. The cash leg is
// written before the bank leg; a bank-leg failure surfaces as a partial
// transfer while the transaction rolls both legs back.
func (s *MovementService) DepositToBank(ctx context.Context, actor authz.Actor, req DepositToBankRequest) (*DepositResponse, error) {
	releaseKey, err := s.claimOperation(ctx, req.OperationKey)
	if err != nil {
		return nil, err
	}

	release := s.locker.Acquire(req.BoxID.String(), req.AccountID.String())
	defer release()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp *DepositResponse
	err = s.uow.InTransaction(ctx, func(ctx context.Context) error {
		box, err := s.boxes.FindByID(ctx, req.BoxID)
		if err != nil {
			return err
		}
		if err := s.authorizer.AuthorizeBox(ctx, actor, box, authz.CapTransferExecute); err != nil {
			return err
		}
		account, err := s.accounts.FindByID(ctx, req.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive() {
			return shared.ErrInvalidState
		}
		if err := box.CanWithdraw(req.Amount); err != nil {
			return err
		}

		transferID := uuid.New()
		cash, err := treasury.NewCashMovement(box.ID, treasury.MovementTypeBankDeposit, req.Amount, req.Concept, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		cash.LinkTransfer(transferID, account.ID)
		bank, err := treasury.NewBankMovement(account.ID, treasury.BankMovementTypeDeposit, req.Amount, req.Concept, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		bank.LinkTransfer(transferID, box.ID)

		// Outbound leg first
		if err := s.boxes.Debit(ctx, box.ID, req.Amount); err != nil {
			return err
		}
		if err := s.cashMovements.Save(ctx, cash); err != nil {
			return err
		}

		// Inbound leg; failures here mean the debit already happened inside
		// this transaction, so surface the critical category
		if err := s.accounts.Credit(ctx, account.ID, req.Amount); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}
		if err := s.bankMovements.Save(ctx, bank); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}

		resp = &DepositResponse{
			TransferID:   transferID,
			CashMovement: toMovementResponse(cash),
			BankMovement: toBankMovementResponse(bank),
		}
		return nil
	})
	if err != nil {
		releaseKey()
		return nil, err
	}
	return resp, nil
}

// TransferBetweenBoxes moves cash between two boxes
func (s *MovementService) TransferBetweenBoxes(ctx context.Context, actor authz.Actor, req BoxTransferRequest) (*BoxTransferResponse, error) {
	if req.SourceBoxID == req.DestinationBoxID {
		return nil, treasury.ErrSameSourceDestination
	}
	releaseKey, err := s.claimOperation(ctx, req.OperationKey)
	if err != nil {
		return nil, err
	}

	release := s.locker.Acquire(req.SourceBoxID.String(), req.DestinationBoxID.String())
	defer release()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp *BoxTransferResponse
	err = s.uow.InTransaction(ctx, func(ctx context.Context) error {
		source, err := s.boxes.FindByID(ctx, req.SourceBoxID)
		if err != nil {
			return err
		}
		if err := s.authorizer.AuthorizeBox(ctx, actor, source, authz.CapTransferExecute); err != nil {
			return err
		}
		destination, err := s.boxes.FindByID(ctx, req.DestinationBoxID)
		if err != nil {
			return err
		}
		if !destination.IsActive() {
			return shared.ErrInvalidState
		}
		if err := source.CanWithdraw(req.Amount); err != nil {
			return err
		}

		transferID := uuid.New()
		out, err := treasury.NewCashMovement(source.ID, treasury.MovementTypeTransferOut, req.Amount, req.Concept, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		out.LinkTransfer(transferID, destination.ID)
		in, err := treasury.NewCashMovement(destination.ID, treasury.MovementTypeTransferIn, req.Amount, req.Concept, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		in.LinkTransfer(transferID, source.ID)

		if err := s.boxes.Debit(ctx, source.ID, req.Amount); err != nil {
			return err
		}
		if err := s.cashMovements.Save(ctx, out); err != nil {
			return err
		}

		if err := s.boxes.Credit(ctx, destination.ID, req.Amount); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}
		if err := s.cashMovements.Save(ctx, in); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}

		resp = &BoxTransferResponse{
			TransferID:  transferID,
			Source:      toMovementResponse(out),
			Destination: toMovementResponse(in),
		}
		return nil
	})
	if err != nil {
		releaseKey()
		return nil, err
	}
	return resp, nil
}

// TransferBetweenAccounts moves funds between two bank accounts
func (s *MovementService) TransferBetweenAccounts(ctx context.Context, actor authz.Actor, req AccountTransferRequest) (*AccountTransferResponse, error) {
	if req.SourceAccountID == req.DestinationAccountID {
		return nil, treasury.ErrSameSourceDestination
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTransferExecute); err != nil {
		return nil, err
	}
	releaseKey, err := s.claimOperation(ctx, req.OperationKey)
	if err != nil {
		return nil, err
	}

	release := s.locker.Acquire(req.SourceAccountID.String(), req.DestinationAccountID.String())
	defer release()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp *AccountTransferResponse
	err = s.uow.InTransaction(ctx, func(ctx context.Context) error {
		source, err := s.accounts.FindByID(ctx, req.SourceAccountID)
		if err != nil {
			return err
		}
		destination, err := s.accounts.FindByID(ctx, req.DestinationAccountID)
		if err != nil {
			return err
		}
		if !destination.IsActive() {
			return shared.ErrInvalidState
		}
		if err := source.CanWithdraw(req.Amount); err != nil {
			return err
		}

		transferID := uuid.New()
		out, err := treasury.NewBankMovement(source.ID, treasury.BankMovementTypeTransferOut, req.Amount, req.Description, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		out.LinkTransfer(transferID, destination.ID)
		in, err := treasury.NewBankMovement(destination.ID, treasury.BankMovementTypeTransferIn, req.Amount, req.Description, req.OccurredAt, actor.UserID)
		if err != nil {
			return err
		}
		in.LinkTransfer(transferID, source.ID)

		if err := s.accounts.Debit(ctx, source.ID, req.Amount); err != nil {
			return err
		}
		if err := s.bankMovements.Save(ctx, out); err != nil {
			return err
		}

		if err := s.accounts.Credit(ctx, destination.ID, req.Amount); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}
		if err := s.bankMovements.Save(ctx, in); err != nil {
			return errors.Join(treasury.ErrPartialTransfer, err)
		}

		resp = &AccountTransferResponse{
			TransferID:  transferID,
			Source:      toBankMovementResponse(out),
			Destination: toBankMovementResponse(in),
		}
		return nil
	})
	if err != nil {
		releaseKey()
		return nil, err
	}
	return resp, nil
}

// ===================== Helpers =====================

// claimOperation atomically claims the operation key so concurrent retries
// cannot double-post. The returned release must be called when the operation
// fails: nothing was applied, so a corrected retry with the same key is
// accepted again.
func (s *MovementService) claimOperation(ctx context.Context, operationKey string) (release func(), err error) {
	if operationKey == "" || s.idempotency == nil {
		return func() {}, nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, operationKey, s.idempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, shared.ErrDuplicateOperation
	}
	return func() {
		// Best effort: the key expires via TTL if the release itself fails
		_ = s.idempotency.Release(context.WithoutCancel(ctx), operationKey)
	}, nil
}

func (s *MovementService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchops/backend/internal/application/authz"
	"github.com/churchops/backend/internal/domain/shared"
	"github.com/churchops/backend/internal/domain/treasury"
)

// TreasuryService manages boxes and bank accounts and serves treasury queries
type TreasuryService struct {
	boxes         treasury.PettyCashBoxRepository
	accounts      treasury.BankAccountRepository
	cashMovements treasury.CashMovementRepository
	bankMovements treasury.BankMovementRepository
	authorizer    authz.Authorizer
}

// NewTreasuryService creates a new TreasuryService
func NewTreasuryService(
	boxes treasury.PettyCashBoxRepository,
	accounts treasury.BankAccountRepository,
	cashMovements treasury.CashMovementRepository,
	bankMovements treasury.BankMovementRepository,
	authorizer authz.Authorizer,
) *TreasuryService {
	return &TreasuryService{
		boxes:         boxes,
		accounts:      accounts,
		cashMovements: cashMovements,
		bankMovements: bankMovements,
		authorizer:    authorizer,
	}
}

// ===================== Requests and responses =====================

// CreateBoxRequest creates a petty cash box
type CreateBoxRequest struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	SocietyID           *uuid.UUID      `json:"society_id"`
	OpeningAmount       decimal.Decimal `json:"opening_amount"`
	AssignedAmount      decimal.Decimal `json:"assigned_amount"`
	PeriodStart         *time.Time      `json:"period_start"`
	ResponsibleMemberID *uuid.UUID      `json:"responsible_member_id"`
}

// UpdateBoxRequest renames a petty cash box, reassigns its budget or toggles
// its status
type UpdateBoxRequest struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	AssignedAmount      decimal.Decimal `json:"assigned_amount"`
	PeriodStart         *time.Time      `json:"period_start"`
	ResponsibleMemberID *uuid.UUID      `json:"responsible_member_id"`
	Active              *bool           `json:"active"`
}

// CreateBankAccountRequest creates a bank account
type CreateBankAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	BankName       string          `json:"bank_name" binding:"required"`
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// BoxResponse represents a petty cash box in API responses
type BoxResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	SocietyID           *uuid.UUID      `json:"society_id,omitempty"`
	AvailableAmount     decimal.Decimal `json:"available_amount"`
	AssignedAmount      decimal.Decimal `json:"assigned_amount"`
	PeriodStart         *time.Time      `json:"period_start,omitempty"`
	ResponsibleMemberID *uuid.UUID      `json:"responsible_member_id,omitempty"`
	Status              string          `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	BankName       string          `json:"bank_name"`
	AccountNumber  string          `json:"account_number,omitempty"`
	AccountType    string          `json:"account_type"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// PeriodTotalsResponse aggregates movement amounts over a period
type PeriodTotalsResponse struct {
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

// SummaryResponse is the treasury overview: balances plus period totals
type SummaryResponse struct {
	From       time.Time             `json:"from"`
	To         time.Time             `json:"to"`
	Boxes      []BoxResponse         `json:"boxes"`
	Accounts   []BankAccountResponse `json:"accounts"`
	CashTotals PeriodTotalsResponse  `json:"cash_totals"`
	BankTotals PeriodTotalsResponse  `json:"bank_totals"`
	TotalCash  decimal.Decimal       `json:"total_cash"`
	TotalBank  decimal.Decimal       `json:"total_bank"`
}

func toBoxResponse(b *treasury.PettyCashBox) BoxResponse {
	return BoxResponse{
		ID:                  b.ID,
		Name:                b.Name,
		Description:         b.Description,
		SocietyID:           b.SocietyID,
		AvailableAmount:     b.AvailableAmount,
		AssignedAmount:      b.AssignedAmount,
		PeriodStart:         b.PeriodStart,
		ResponsibleMemberID: b.ResponsibleMemberID,
		Status:              string(b.Status),
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
		Version:             b.Version,
	}
}

func toBankAccountResponse(a *treasury.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		BankName:       a.BankName,
		AccountNumber:  a.AccountNumber,
		AccountType:    string(a.AccountType),
		CurrentBalance: a.CurrentBalance,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Version:        a.Version,
	}
}

// ===================== Box operations =====================

// CreateBox creates a petty cash box with an opening balance
func (s *TreasuryService) CreateBox(ctx context.Context, actor authz.Actor, req CreateBoxRequest) (*BoxResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapBoxManage); err != nil {
		return nil, err
	}
	box, err := treasury.NewPettyCashBox(req.Name, req.Description, req.SocietyID, req.OpeningAmount)
	if err != nil {
		return nil, err
	}
	if err := box.AssignBudget(req.AssignedAmount, req.PeriodStart, req.ResponsibleMemberID); err != nil {
		return nil, err
	}
	if err := s.boxes.Save(ctx, box); err != nil {
		return nil, err
	}
	resp := toBoxResponse(box)
	return &resp, nil
}

// UpdateBox renames a box and optionally toggles its status
func (s *TreasuryService) UpdateBox(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdateBoxRequest) (*BoxResponse, error) {
	box, err := s.boxes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.AuthorizeBox(ctx, actor, box, authz.CapBoxManage); err != nil {
		return nil, err
	}
	if err := box.Rename(req.Name, req.Description); err != nil {
		return nil, err
	}
	if err := box.AssignBudget(req.AssignedAmount, req.PeriodStart, req.ResponsibleMemberID); err != nil {
		return nil, err
	}
	if req.Active != nil {
		if *req.Active {
			box.Activate()
		} else {
			box.Deactivate()
		}
	}
	if err := s.boxes.SaveWithLock(ctx, box); err != nil {
		return nil, err
	}
	resp := toBoxResponse(box)
	return &resp, nil
}

// GetBox returns a single box
func (s *TreasuryService) GetBox(ctx context.Context, actor authz.Actor, id uuid.UUID) (*BoxResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	box, err := s.boxes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBoxResponse(box)
	return &resp, nil
}

// ListBoxes returns a paginated list of boxes
func (s *TreasuryService) ListBoxes(ctx context.Context, actor authz.Actor, filter shared.Filter) (*shared.Paginated[BoxResponse], error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	boxes, total, err := s.boxes.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BoxResponse, len(boxes))
	for i := range boxes {
		items[i] = toBoxResponse(&boxes[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ListBoxMovements returns the movement history of a box
func (s *TreasuryService) ListBoxMovements(ctx context.Context, actor authz.Actor, boxID uuid.UUID, filter shared.Filter) (*shared.Paginated[MovementResponse], error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	if _, err := s.boxes.FindByID(ctx, boxID); err != nil {
		return nil, err
	}
	movements, total, err := s.cashMovements.FindByBox(ctx, boxID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]MovementResponse, len(movements))
	for i := range movements {
		items[i] = toMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ===================== Bank account operations =====================

// CreateBankAccount creates a bank account with an opening balance
func (s *TreasuryService) CreateBankAccount(ctx context.Context, actor authz.Actor, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapAccountManage); err != nil {
		return nil, err
	}
	accountType := treasury.AccountType(req.AccountType)
	if req.AccountType == "" {
		accountType = treasury.AccountTypeChecking
	}
	account, err := treasury.NewBankAccount(req.Name, req.BankName, req.AccountNumber, accountType, req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	resp := toBankAccountResponse(account)
	return &resp, nil
}

// GetBankAccount returns a single bank account
func (s *TreasuryService) GetBankAccount(ctx context.Context, actor authz.Actor, id uuid.UUID) (*BankAccountResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBankAccountResponse(account)
	return &resp, nil
}

// ListBankAccounts returns a paginated list of bank accounts
func (s *TreasuryService) ListBankAccounts(ctx context.Context, actor authz.Actor, filter shared.Filter) (*shared.Paginated[BankAccountResponse], error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	accounts, total, err := s.accounts.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		items[i] = toBankAccountResponse(&accounts[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ListAccountMovements returns the movement history of a bank account
func (s *TreasuryService) ListAccountMovements(ctx context.Context, actor authz.Actor, accountID uuid.UUID, filter shared.Filter) (*shared.Paginated[BankMovementResponse], error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		return nil, err
	}
	movements, total, err := s.bankMovements.FindByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]BankMovementResponse, len(movements))
	for i := range movements {
		items[i] = toBankMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// ===================== Summary =====================

// GetSummary returns the treasury overview for a period: every balance plus
// aggregated inbound/outbound totals
func (s *TreasuryService) GetSummary(ctx context.Context, actor authz.Actor, from, to time.Time) (*SummaryResponse, error) {
	if err := s.authorizer.Authorize(ctx, actor, authz.CapTreasuryRead); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	if from.After(to) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Period start must be before period end")
	}

	filter := shared.Filter{Page: 1, PageSize: 500, OrderBy: "name", OrderDir: "asc"}
	boxes, _, err := s.boxes.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	accounts, _, err := s.accounts.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	cashTotals, err := s.cashMovements.TotalsByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}
	bankTotals, err := s.bankMovements.TotalsByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{
		From:       from,
		To:         to,
		Boxes:      make([]BoxResponse, len(boxes)),
		Accounts:   make([]BankAccountResponse, len(accounts)),
		CashTotals: PeriodTotalsResponse{Inbound: cashTotals.Inbound, Outbound: cashTotals.Outbound},
		BankTotals: PeriodTotalsResponse{Inbound: bankTotals.Inbound, Outbound: bankTotals.Outbound},
		TotalCash:  decimal.Zero,
		TotalBank:  decimal.Zero,
	}
	for i := range boxes {
		resp.Boxes[i] = toBoxResponse(&boxes[i])
		resp.TotalCash = resp.TotalCash.Add(boxes[i].AvailableAmount)
	}
	for i := range accounts {
		resp.Accounts[i] = toBankAccountResponse(&accounts[i])
		resp.TotalBank = resp.TotalBank.Add(accounts[i].CurrentBalance)
	}
	return resp, nil
}

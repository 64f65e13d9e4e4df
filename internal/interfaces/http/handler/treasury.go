package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	treasuryapp "github.com/churchops/backend/internal/application/treasury"
	"github.com/churchops/backend/internal/interfaces/http/dto"
)

// TreasuryHandler handles petty cash box and bank account API endpoints
type TreasuryHandler struct {
	BaseHandler
	treasuryService *treasuryapp.TreasuryService
	movementService *treasuryapp.MovementService
}

// NewTreasuryHandler creates a new TreasuryHandler
func NewTreasuryHandler(treasuryService *treasuryapp.TreasuryService, movementService *treasuryapp.MovementService) *TreasuryHandler {
	return &TreasuryHandler{
		treasuryService: treasuryService,
		movementService: movementService,
	}
}

// CreateBox handles POST /treasury/boxes
func (h *TreasuryHandler) CreateBox(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	box, err := h.treasuryService.CreateBox(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, box)
}

// UpdateBox handles PUT /treasury/boxes/:id
func (h *TreasuryHandler) UpdateBox(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid box ID format")
		return
	}

	var req treasuryapp.UpdateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	box, err := h.treasuryService.UpdateBox(c.Request.Context(), actor, boxID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, box)
}

// GetBox handles GET /treasury/boxes/:id
func (h *TreasuryHandler) GetBox(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid box ID format")
		return
	}

	box, err := h.treasuryService.GetBox(c.Request.Context(), actor, boxID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, box)
}

// ListBoxes handles GET /treasury/boxes
func (h *TreasuryHandler) ListBoxes(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	page, err := h.treasuryService.ListBoxes(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListBoxMovements handles GET /treasury/boxes/:id/movements
func (h *TreasuryHandler) ListBoxMovements(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid box ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	page, err := h.treasuryService.ListBoxMovements(c.Request.Context(), actor, boxID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// CreateBankAccount handles POST /treasury/accounts
func (h *TreasuryHandler) CreateBankAccount(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.treasuryService.CreateBankAccount(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// GetBankAccount handles GET /treasury/accounts/:id
func (h *TreasuryHandler) GetBankAccount(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.treasuryService.GetBankAccount(c.Request.Context(), actor, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// ListBankAccounts handles GET /treasury/accounts
func (h *TreasuryHandler) ListBankAccounts(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	page, err := h.treasuryService.ListBankAccounts(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListAccountMovements handles GET /treasury/accounts/:id/movements
func (h *TreasuryHandler) ListAccountMovements(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := req.ToFilter()

	page, err := h.treasuryService.ListAccountMovements(c.Request.Context(), actor, accountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterMovement handles POST /treasury/movements
func (h *TreasuryHandler) RegisterMovement(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.RegisterMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movement, err := h.movementService.RegisterMovement(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, movement)
}

// DepositToBank handles POST /treasury/deposits
func (h *TreasuryHandler) DepositToBank(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.DepositToBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	deposit, err := h.movementService.DepositToBank(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, deposit)
}

// TransferBetweenBoxes handles POST /treasury/transfers/boxes
func (h *TreasuryHandler) TransferBetweenBoxes(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.BoxTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transfer, err := h.movementService.TransferBetweenBoxes(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transfer)
}

// TransferBetweenAccounts handles POST /treasury/transfers/accounts
func (h *TreasuryHandler) TransferBetweenAccounts(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req treasuryapp.AccountTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transfer, err := h.movementService.TransferBetweenAccounts(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transfer)
}

// GetSummary handles GET /treasury/summary
func (h *TreasuryHandler) GetSummary(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req dto.PeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var from, to time.Time
	var err error
	if req.From != "" {
		from, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			h.BadRequest(c, "Invalid from date")
			return
		}
	}
	if req.To != "" {
		to, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			h.BadRequest(c, "Invalid to date")
			return
		}
	}

	summary, err := h.treasuryService.GetSummary(c.Request.Context(), actor, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

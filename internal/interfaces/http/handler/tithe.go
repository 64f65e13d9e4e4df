package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	titheapp "github.com/churchops/backend/internal/application/tithe"
	"github.com/churchops/backend/internal/domain/tithe"
	"github.com/churchops/backend/internal/interfaces/http/dto"
)

// TitheHandler handles tithe batch API endpoints
type TitheHandler struct {
	BaseHandler
	titheService *titheapp.TitheService
	calculator   *tithe.Calculator
}

// NewTitheHandler creates a new TitheHandler
func NewTitheHandler(titheService *titheapp.TitheService, calculator *tithe.Calculator) *TitheHandler {
	return &TitheHandler{
		titheService: titheService,
		calculator:   calculator,
	}
}

// RegisterBatch handles POST /tithes/batches
func (h *TitheHandler) RegisterBatch(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req titheapp.RegisterBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.titheService.RegisterBatch(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// ListBatches handles GET /tithes/batches
func (h *TitheHandler) ListBatches(c *gin.Context) {
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

	page, err := h.titheService.ListBatches(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetBatch handles GET /tithes/batches/:id
func (h *TitheHandler) GetBatch(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.titheService.GetBatch(c.Request.Context(), actor, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// ExecuteDistribution handles POST /tithes/batches/:id/distribute
func (h *TitheHandler) ExecuteDistribution(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.titheService.ExecuteDistribution(c.Request.Context(), actor, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// UpdateEntry handles PUT /tithes/batches/:id/entries/:transaction_id
func (h *TitheHandler) UpdateEntry(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}
	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	var req titheapp.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.titheService.UpdateEntry(c.Request.Context(), actor, batchID, transactionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// DeleteEntry handles DELETE /tithes/batches/:id/entries/:transaction_id
func (h *TitheHandler) DeleteEntry(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}
	transactionID, err := uuid.Parse(c.Param("transaction_id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	batch, err := h.titheService.DeleteEntry(c.Request.Context(), actor, batchID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// CalculateRequest previews a distribution for a given total
type CalculateRequest struct {
	Total decimal.Decimal `json:"total" binding:"required"`
}

// CalculateResponse is the previewed breakdown, nothing is persisted
type CalculateResponse struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown tithe.Breakdown `json:"breakdown"`
}

// Calculate handles POST /tithes/calculator. It runs the configured
// percentage table against a total without touching any batch.
func (h *TitheHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	breakdown, err := h.calculator.Distribute(req.Total)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CalculateResponse{Total: req.Total, Breakdown: breakdown})
}

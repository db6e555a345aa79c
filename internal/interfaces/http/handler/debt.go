package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/debt"
)

// DebtHandler handles receivables, payables and their payments
type DebtHandler struct {
	BaseHandler
	debts        *appdebt.DebtService
	orchestrator *sales.Orchestrator
	now          func() time.Time
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debts *appdebt.DebtService, orchestrator *sales.Orchestrator) *DebtHandler {
	return &DebtHandler{debts: debts, orchestrator: orchestrator, now: time.Now}
}

// WriteOffRequest is the body of a debt write-off
type WriteOffRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// SyncDebtsRequest selects the partner whose debts are reconciled
type SyncDebtsRequest struct {
	DebtorID   uuid.UUID `json:"debtor_id" binding:"required"`
	DebtorType string    `json:"debtor_type" binding:"required,oneof=Customer Supplier"`
}

// Create godoc
// @Summary      Open a manual debt
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        request body appdebt.CreateDebtCommand true "Debt"
// @Success      201 {object} dto.Response{data=DebtResponse}
// @Security     BearerAuth
// @Router       /debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd appdebt.CreateDebtCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	d, err := h.debts.CreateDebt(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDebtResponse(d))
}

// List godoc
// @Summary      List debts
// @Tags         debts
// @Produce      json
// @Param        debtor_id query string false "Debtor ID" format(uuid)
// @Param        debtor_type query string false "Customer or Supplier"
// @Param        status query string false "Debt status"
// @Param        due_from query string false "Due from (YYYY-MM-DD)"
// @Param        due_to query string false "Due to (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]DebtResponse}
// @Security     BearerAuth
// @Router       /debts [get]
func (h *DebtHandler) List(c *gin.Context) {
	debtorID, err := queryUUID(c, "debtor_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	dueFrom, err := queryDate(c, "due_from")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	dueTo, err := queryDate(c, "due_to")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	debts, total, err := h.debts.ListDebts(c.Request.Context(), debt.Filter{
		DebtorID:   debtorID,
		DebtorType: debt.DebtorType(c.Query("debtor_type")),
		Status:     debt.Status(c.Query("status")),
		DueFrom:    dueFrom,
		DueTo:      dueTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toDebtResponses(debts), total, page, pageSize)
}

// GetByID godoc
// @Summary      Get a debt with its payments
// @Tags         debts
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Success      200 {object} dto.Response{data=DebtDetailResponse}
// @Security     BearerAuth
// @Router       /debts/{id} [get]
func (h *DebtHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.debts.GetDebt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtDetailResponse(detail))
}

// Overview godoc
// @Summary      Aging overview of receivables and payables
// @Tags         debts
// @Produce      json
// @Success      200 {object} dto.Response{data=debt.Overview}
// @Security     BearerAuth
// @Router       /debts/overview [get]
func (h *DebtHandler) Overview(c *gin.Context) {
	overview, err := h.debts.GetDebtOverview(c.Request.Context(), h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// CreateInstallments godoc
// @Summary      Split a debt into installments
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Param        request body appdebt.InstallmentPlanCommand true "Plan"
// @Success      200 {object} dto.Response{data=DebtResponse}
// @Security     BearerAuth
// @Router       /debts/{id}/installments [post]
func (h *DebtHandler) CreateInstallments(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var cmd appdebt.InstallmentPlanCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.DebtID = id

	d, err := h.debts.CreateInstallmentPlan(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// RecordPayment godoc
// @Summary      Pay a debt
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Param        request body appdebt.PaymentCommand true "Payment"
// @Success      201 {object} dto.Response{data=PaymentResultResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /debts/{id}/payments [post]
func (h *DebtHandler) RecordPayment(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var cmd appdebt.PaymentCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.DebtID = id
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.debts.RecordPayment(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResultResponse(result))
}

// WriteOff godoc
// @Summary      Write off the remaining balance of a debt
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        id path string true "Debt ID" format(uuid)
// @Param        request body WriteOffRequest true "Reason"
// @Success      200 {object} dto.Response{data=DebtResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /debts/{id}/write-off [post]
func (h *DebtHandler) WriteOff(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req WriteOffRequest
	if !h.bindJSON(c, &req) {
		return
	}
	d, err := h.debts.WriteOff(c.Request.Context(), id, req.Reason, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDebtResponse(d))
}

// Settle godoc
// @Summary      Settle a receivable or payable by document or debt ID
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        request body sales.SettleDebtCommand true "Settlement"
// @Success      201 {object} dto.Response{data=PaymentResultResponse}
// @Security     BearerAuth
// @Router       /debts/settle [post]
func (h *DebtHandler) Settle(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd sales.SettleDebtCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.orchestrator.SettleDebt(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResultResponse(result))
}

// Sync godoc
// @Summary      Reconcile a partner's debts with their credit documents
// @Tags         debts
// @Accept       json
// @Produce      json
// @Param        request body SyncDebtsRequest true "Partner"
// @Success      200 {object} dto.Response{data=appdebt.SyncReport}
// @Security     BearerAuth
// @Router       /debts/sync [post]
func (h *DebtHandler) Sync(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var req SyncDebtsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	report, err := h.debts.SyncDebts(c.Request.Context(), req.DebtorID, debt.DebtorType(req.DebtorType), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

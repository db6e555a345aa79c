package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
)

// maxCashboxRange bounds the period of a cashbox listing
const maxCashboxRange = 366 * 24 * time.Hour

// TreasuryHandler handles the cash position, manual cash movements and the daily cashbox
type TreasuryHandler struct {
	BaseHandler
	treasury *apptreasury.TreasuryService
	now      func() time.Time
}

// NewTreasuryHandler creates a new TreasuryHandler
func NewTreasuryHandler(treasuryService *apptreasury.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasuryService, now: time.Now}
}

// BalanceResponse is the current treasury balance
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// UndoTransactionRequest is the body of a transaction undo
type UndoTransactionRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// GetBalance godoc
// @Summary      Current treasury balance
// @Tags         treasury
// @Produce      json
// @Success      200 {object} dto.Response{data=BalanceResponse}
// @Security     BearerAuth
// @Router       /treasury/balance [get]
func (h *TreasuryHandler) GetBalance(c *gin.Context) {
	balance, err := h.treasury.GetCurrentBalance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{Balance: balance})
}

// AddIncome godoc
// @Summary      Record manual cash income
// @Tags         treasury
// @Accept       json
// @Produce      json
// @Param        request body apptreasury.ManualCashCommand true "Income"
// @Success      201 {object} dto.Response{data=ManualCashResponse}
// @Security     BearerAuth
// @Router       /treasury/income [post]
func (h *TreasuryHandler) AddIncome(c *gin.Context) {
	h.addManual(c, h.treasury.AddManualIncome)
}

// AddExpense godoc
// @Summary      Record a manual cash expense
// @Description  Rejected with INSUFFICIENT_FUNDS when the treasury cannot cover it
// @Tags         treasury
// @Accept       json
// @Produce      json
// @Param        request body apptreasury.ManualCashCommand true "Expense"
// @Success      201 {object} dto.Response{data=ManualCashResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /treasury/expenses [post]
func (h *TreasuryHandler) AddExpense(c *gin.Context) {
	h.addManual(c, h.treasury.AddManualExpense)
}

type manualCashFunc func(ctx context.Context, cmd apptreasury.ManualCashCommand, userID uuid.UUID) (*apptreasury.ManualCashResult, error)

func (h *TreasuryHandler) addManual(c *gin.Context, op manualCashFunc) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd apptreasury.ManualCashCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := op(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toManualCashResponse(result))
}

// GetCashbox godoc
// @Summary      Daily cashbox
// @Tags         treasury
// @Produce      json
// @Param        date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success      200 {object} dto.Response{data=CashboxResponse}
// @Security     BearerAuth
// @Router       /treasury/cashbox [get]
func (h *TreasuryHandler) GetCashbox(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	day := h.now()
	if date != nil {
		day = *date
	}
	box, err := h.treasury.GetDailyCashbox(c.Request.Context(), day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCashboxResponse(box))
}

// ListCashboxes godoc
// @Summary      Cashboxes over a period
// @Tags         treasury
// @Produce      json
// @Param        from query string true "From (YYYY-MM-DD)"
// @Param        to query string true "To (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]CashboxResponse}
// @Security     BearerAuth
// @Router       /treasury/cashboxes [get]
func (h *TreasuryHandler) ListCashboxes(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if from == nil || to == nil {
		h.BadRequest(c, "from and to are required")
		return
	}
	if to.Before(*from) || to.Sub(*from) > maxCashboxRange {
		h.HandleError(c, shared.NewValidationError("INVALID_RANGE", "to must follow from and span at most a year"))
		return
	}

	boxes, err := h.treasury.ListCashboxes(c.Request.Context(), *from, *to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]*CashboxResponse, len(boxes))
	for i, b := range boxes {
		out[i] = toCashboxResponse(b)
	}
	h.Success(c, out)
}

// Reconcile godoc
// @Summary      Reconcile a day's cashbox against counted cash
// @Tags         treasury
// @Accept       json
// @Produce      json
// @Param        request body apptreasury.ReconcileCommand true "Counted closing"
// @Success      200 {object} dto.Response{data=CashboxResponse}
// @Security     BearerAuth
// @Router       /treasury/cashbox/reconcile [post]
func (h *TreasuryHandler) Reconcile(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd apptreasury.ReconcileCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	box, err := h.treasury.ReconcileCashbox(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCashboxResponse(box))
}

// ListTransactions godoc
// @Summary      List treasury transactions
// @Tags         treasury
// @Produce      json
// @Param        type query string false "INCOME or EXPENSE"
// @Param        from query string false "From (YYYY-MM-DD)"
// @Param        to query string false "To (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]TransactionResponse}
// @Security     BearerAuth
// @Router       /treasury/transactions [get]
func (h *TreasuryHandler) ListTransactions(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	txs, total, err := h.treasury.ListTransactions(c.Request.Context(), treasury.TransactionFilter{
		From:     from,
		To:       to,
		Type:     treasury.TransactionType(c.Query("type")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTransactionResponses(txs), total, page, pageSize)
}

// GetTransaction godoc
// @Summary      Get a treasury transaction
// @Tags         treasury
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} dto.Response{data=TransactionResponse}
// @Security     BearerAuth
// @Router       /treasury/transactions/{id} [get]
func (h *TreasuryHandler) GetTransaction(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.treasury.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(tx))
}

// UndoTransaction godoc
// @Summary      Undo a manual treasury transaction
// @Tags         treasury
// @Accept       json
// @Produce      json
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body UndoTransactionRequest true "Reason"
// @Success      200 {object} dto.Response{data=TransactionResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /treasury/transactions/{id}/undo [post]
func (h *TreasuryHandler) UndoTransaction(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UndoTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tx, err := h.treasury.UndoTransaction(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(tx))
}

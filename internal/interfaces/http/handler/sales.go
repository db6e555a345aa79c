package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/trade"
)

// SalesHandler handles sales, reversals, returns and customer payments
type SalesHandler struct {
	BaseHandler
	orchestrator *sales.Orchestrator
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(orchestrator *sales.Orchestrator) *SalesHandler {
	return &SalesHandler{orchestrator: orchestrator}
}

// ReverseSaleRequest is the body of a sale reversal
type ReverseSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// RecordSale godoc
// @Summary      Record a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key that makes retries safe"
// @Param        request body sales.RecordSaleCommand true "Sale"
// @Success      201 {object} dto.Response{data=SaleResponse}
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SalesHandler) RecordSale(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd sales.RecordSaleCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.orchestrator.RecordSale(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSaleResponse(result))
}

// ListInvoices godoc
// @Summary      List invoices
// @Tags         sales
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        payment_type query string false "cash, bank or credit"
// @Param        payment_status query string false "paid, partial or unpaid"
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]InvoiceResponse}
// @Security     BearerAuth
// @Router       /sales/invoices [get]
func (h *SalesHandler) ListInvoices(c *gin.Context) {
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
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

	invoices, total, err := h.orchestrator.ListInvoices(c.Request.Context(), trade.InvoiceFilter{
		CustomerID:    customerID,
		PaymentType:   trade.PaymentType(c.Query("payment_type")),
		PaymentStatus: trade.PaymentStatus(c.Query("payment_status")),
		From:          from,
		To:            to,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toInvoiceResponses(invoices), total, page, pageSize)
}

// GetInvoice godoc
// @Summary      Get an invoice with its returns
// @Tags         sales
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=InvoiceDetailResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/invoices/{id} [get]
func (h *SalesHandler) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.orchestrator.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInvoiceDetailResponse(detail))
}

// ReverseSale godoc
// @Summary      Reverse a sale
// @Description  Restores stock, reverses the ledger entries, refunds collected cash and cancels the debt
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body ReverseSaleRequest true "Reason"
// @Success      200 {object} dto.Response{data=ReversalResponse}
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /sales/invoices/{id}/reverse [post]
func (h *SalesHandler) ReverseSale(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ReverseSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orchestrator.ReverseSale(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReversalResponse(result))
}

// RecordPayment godoc
// @Summary      Take a payment against a credit invoice
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body sales.DocumentPaymentCommand true "Payment"
// @Success      201 {object} dto.Response{data=PaymentResultResponse}
// @Security     BearerAuth
// @Router       /sales/invoices/{id}/payments [post]
func (h *SalesHandler) RecordPayment(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var cmd sales.DocumentPaymentCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.DocumentID = id
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.orchestrator.RecordCustomerPayment(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResultResponse(result))
}

// ProcessReturn godoc
// @Summary      Return goods against an invoice
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body sales.SaleReturnCommand true "Return"
// @Success      201 {object} dto.Response{data=SaleReturnResponse}
// @Security     BearerAuth
// @Router       /sales/returns [post]
func (h *SalesHandler) ProcessReturn(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd sales.SaleReturnCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.orchestrator.ProcessSaleReturn(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSaleReturnResponse(result))
}

// GetReturn godoc
// @Summary      Get a sales return
// @Tags         sales
// @Produce      json
// @Param        id path string true "Return ID" format(uuid)
// @Success      200 {object} dto.Response{data=SalesReturnResponse}
// @Security     BearerAuth
// @Router       /sales/returns/{id} [get]
func (h *SalesHandler) GetReturn(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ret, err := h.orchestrator.GetSalesReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSalesReturnResponse(ret))
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/trade"
)

// PurchaseHandler handles purchase orders, receipts and supplier payments
type PurchaseHandler struct {
	BaseHandler
	orchestrator *sales.Orchestrator
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(orchestrator *sales.Orchestrator) *PurchaseHandler {
	return &PurchaseHandler{orchestrator: orchestrator}
}

// Create godoc
// @Summary      Place a purchase order
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        request body sales.CreatePurchaseOrderCommand true "Order"
// @Success      201 {object} dto.Response{data=PurchaseOrderResponse}
// @Security     BearerAuth
// @Router       /purchases [post]
func (h *PurchaseHandler) Create(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd sales.CreatePurchaseOrderCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	po, err := h.orchestrator.CreatePurchaseOrder(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPurchaseOrderResponse(po))
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchases
// @Produce      json
// @Param        supplier_id query string false "Supplier ID" format(uuid)
// @Param        status query string false "pending, received or cancelled"
// @Success      200 {object} dto.Response{data=[]PurchaseOrderResponse}
// @Security     BearerAuth
// @Router       /purchases [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	supplierID, err := queryUUID(c, "supplier_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	orders, total, err := h.orchestrator.ListPurchaseOrders(c.Request.Context(), trade.PurchaseOrderFilter{
		SupplierID: supplierID,
		Status:     trade.PurchaseOrderStatus(c.Query("status")),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toPurchaseOrderResponses(orders), total, page, pageSize)
}

// GetByID godoc
// @Summary      Get a purchase order
// @Tags         purchases
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=PurchaseOrderResponse}
// @Security     BearerAuth
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	po, err := h.orchestrator.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(po))
}

// Cancel godoc
// @Summary      Cancel a pending purchase order
// @Tags         purchases
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Success      200 {object} dto.Response{data=PurchaseOrderResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchases/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	po, err := h.orchestrator.CancelPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPurchaseOrderResponse(po))
}

// Receive godoc
// @Summary      Receive a purchase order into stock
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body sales.ReceiveCommand true "Receipt"
// @Success      200 {object} dto.Response{data=ReceiveResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /purchases/{id}/receive [post]
func (h *PurchaseHandler) Receive(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var cmd sales.ReceiveCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.PurchaseOrderID = id
	cmd.IdempotencyKey = idempotencyKey(c, cmd.IdempotencyKey)

	result, err := h.orchestrator.RecordPurchaseReceive(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReceiveResponse(result))
}

// RecordPayment godoc
// @Summary      Pay a supplier against a credit purchase order
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        id path string true "Purchase order ID" format(uuid)
// @Param        request body sales.DocumentPaymentCommand true "Payment"
// @Success      201 {object} dto.Response{data=PaymentResultResponse}
// @Security     BearerAuth
// @Router       /purchases/{id}/payments [post]
func (h *PurchaseHandler) RecordPayment(c *gin.Context) {
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

	result, err := h.orchestrator.RecordSupplierPayment(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResultResponse(result))
}

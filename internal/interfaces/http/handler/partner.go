package handler

import (
	"github.com/gin-gonic/gin"
	apppartner "github.com/retail/backoffice/internal/application/partner"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PartnerHandler handles customers and suppliers
type PartnerHandler struct {
	BaseHandler
	customers *apppartner.CustomerService
	suppliers *apppartner.SupplierService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(customers *apppartner.CustomerService, suppliers *apppartner.SupplierService) *PartnerHandler {
	return &PartnerHandler{customers: customers, suppliers: suppliers}
}

// SetCreditLimitRequest is the body of a credit limit change. Zero removes the limit.
type SetCreditLimitRequest struct {
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

func partnerFilter(c *gin.Context) (partner.Filter, int, int) {
	page, pageSize := pageParams(c)
	return partner.Filter{
		Search:   c.Query("search"),
		Status:   partner.Status(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	}, page, pageSize
}

// CreateCustomer godoc
// @Summary      Create a customer
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        request body apppartner.CreateCustomerCommand true "Customer"
// @Success      201 {object} dto.Response{data=CustomerResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /customers [post]
func (h *PartnerHandler) CreateCustomer(c *gin.Context) {
	var cmd apppartner.CreateCustomerCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	customer, err := h.customers.Create(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// ListCustomers godoc
// @Summary      List customers
// @Tags         partners
// @Produce      json
// @Param        search query string false "Code, name or phone"
// @Param        status query string false "active or archived"
// @Success      200 {object} dto.Response{data=[]CustomerResponse}
// @Security     BearerAuth
// @Router       /customers [get]
func (h *PartnerHandler) ListCustomers(c *gin.Context) {
	filter, page, pageSize := partnerFilter(c)
	customers, total, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]*CustomerResponse, len(customers))
	for i, cu := range customers {
		out[i] = toCustomerResponse(cu)
	}
	h.SuccessWithMeta(c, out, total, page, pageSize)
}

// GetCustomer godoc
// @Summary      Get a customer
// @Tags         partners
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=CustomerResponse}
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *PartnerHandler) GetCustomer(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// SetCreditLimit godoc
// @Summary      Change a customer's credit limit
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body SetCreditLimitRequest true "Limit"
// @Success      200 {object} dto.Response{data=CustomerResponse}
// @Security     BearerAuth
// @Router       /customers/{id}/credit-limit [put]
func (h *PartnerHandler) SetCreditLimit(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SetCreditLimitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	customer, err := h.customers.SetCreditLimit(c.Request.Context(), id, req.CreditLimit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// ArchiveCustomer godoc
// @Summary      Archive a customer
// @Tags         partners
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=CustomerResponse}
// @Security     BearerAuth
// @Router       /customers/{id}/archive [post]
func (h *PartnerHandler) ArchiveCustomer(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCustomerResponse(customer))
}

// CreateSupplier godoc
// @Summary      Create a supplier
// @Tags         partners
// @Accept       json
// @Produce      json
// @Param        request body apppartner.CreateSupplierCommand true "Supplier"
// @Success      201 {object} dto.Response{data=SupplierResponse}
// @Security     BearerAuth
// @Router       /suppliers [post]
func (h *PartnerHandler) CreateSupplier(c *gin.Context) {
	var cmd apppartner.CreateSupplierCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	supplier, err := h.suppliers.Create(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toSupplierResponse(supplier))
}

// ListSuppliers godoc
// @Summary      List suppliers
// @Tags         partners
// @Produce      json
// @Success      200 {object} dto.Response{data=[]SupplierResponse}
// @Security     BearerAuth
// @Router       /suppliers [get]
func (h *PartnerHandler) ListSuppliers(c *gin.Context) {
	filter, page, pageSize := partnerFilter(c)
	suppliers, total, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]*SupplierResponse, len(suppliers))
	for i, s := range suppliers {
		out[i] = toSupplierResponse(s)
	}
	h.SuccessWithMeta(c, out, total, page, pageSize)
}

// GetSupplier godoc
// @Summary      Get a supplier
// @Tags         partners
// @Produce      json
// @Param        id path string true "Supplier ID" format(uuid)
// @Success      200 {object} dto.Response{data=SupplierResponse}
// @Security     BearerAuth
// @Router       /suppliers/{id} [get]
func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.suppliers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSupplierResponse(supplier))
}

// ArchiveSupplier godoc
// @Summary      Archive a supplier
// @Tags         partners
// @Produce      json
// @Param        id path string true "Supplier ID" format(uuid)
// @Success      200 {object} dto.Response{data=SupplierResponse}
// @Security     BearerAuth
// @Router       /suppliers/{id}/archive [post]
func (h *PartnerHandler) ArchiveSupplier(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.suppliers.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSupplierResponse(supplier))
}

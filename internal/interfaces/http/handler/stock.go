package handler

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/retail/backoffice/internal/application/stock"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/infrastructure/csvimport"
	"github.com/shopspring/decimal"
)

// maxBulkMoves bounds a bulk movement request
const maxBulkMoves = 200

// StockHandler handles products, availability checks and stock movements
type StockHandler struct {
	BaseHandler
	stock *appstock.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *appstock.StockService) *StockHandler {
	return &StockHandler{stock: stockService}
}

// AvailabilityLine is one product/quantity pair of an availability check
type AvailabilityLine struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Location  string          `json:"location" binding:"omitempty,oneof=warehouse shop"`
}

// AvailabilityRequest checks several lines at once
type AvailabilityRequest struct {
	Items []AvailabilityLine `json:"items" binding:"required,min=1,dive"`
}

// AvailabilityResponse reports whether every line can be served and what each falls short by
type AvailabilityResponse struct {
	Available bool                 `json:"available"`
	Items     []stock.Availability `json:"items"`
}

// BulkMoveRequest applies several movements atomically
type BulkMoveRequest struct {
	Moves []appstock.MoveStockCommand `json:"moves" binding:"required,min=1"`
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appstock.CreateProductCommand true "Product"
// @Success      201 {object} dto.Response{data=ProductResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /products [post]
func (h *StockHandler) CreateProduct(c *gin.Context) {
	var cmd appstock.CreateProductCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	product, err := h.stock.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// ListProducts godoc
// @Summary      List products
// @Tags         stock
// @Produce      json
// @Param        search query string false "Code or name"
// @Param        category query string false "Category"
// @Param        status query string false "active or archived"
// @Param        include_archived query bool false "Include archived products"
// @Success      200 {object} dto.Response{data=[]ProductResponse}
// @Security     BearerAuth
// @Router       /products [get]
func (h *StockHandler) ListProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	products, total, err := h.stock.ListProducts(c.Request.Context(), stock.ProductFilter{
		Search:          c.Query("search"),
		Category:        c.Query("category"),
		Status:          stock.ProductStatus(c.Query("status")),
		IncludeArchived: c.Query("include_archived") == "true",
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toProductResponses(products), total, page, pageSize)
}

// LowStock godoc
// @Summary      Products at or below their minimum level
// @Tags         stock
// @Produce      json
// @Success      200 {object} dto.Response{data=[]ProductResponse}
// @Security     BearerAuth
// @Router       /products/low-stock [get]
func (h *StockHandler) LowStock(c *gin.Context) {
	products, err := h.stock.LowStockProducts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponses(products))
}

// GetProduct godoc
// @Summary      Get a product
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=ProductResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *StockHandler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.stock.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// ArchiveProduct godoc
// @Summary      Archive a product
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=ProductResponse}
// @Security     BearerAuth
// @Router       /products/{id}/archive [post]
func (h *StockHandler) ArchiveProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.stock.ArchiveProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// RegisterInitialBalance godoc
// @Summary      Register a product's opening stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body appstock.InitialBalanceCommand true "Opening quantities"
// @Success      201 {object} dto.Response{data=InitialBalanceResponse}
// @Security     BearerAuth
// @Router       /products/{id}/initial-balance [post]
func (h *StockHandler) RegisterInitialBalance(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var cmd appstock.InitialBalanceCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	cmd.ProductID = id

	result, err := h.stock.RegisterInitialBalance(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInitialBalanceResponse(result))
}

// ImportProducts godoc
// @Summary      Import products with opening stock from CSV
// @Description  Columns: code, name (required), category, unit, min_level, buy_price, sell_price, wholesale_price, warehouse_qty, shop_qty.
// @Description  Send the file as the request body (text/csv) or as the multipart field "file".
// @Tags         stock
// @Accept       text/csv
// @Accept       multipart/form-data
// @Produce      json
// @Success      201 {object} dto.Response{data=ImportResponse}
// @Success      200 {object} dto.Response{data=ImportResponse} "No product was created"
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /products/import [post]
func (h *StockHandler) ImportProducts(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}

	body := c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			h.BadRequest(c, "Multipart uploads need a \"file\" field")
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	rows, failed, err := csvimport.ParseProducts(body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := ImportResponse{Failed: failed}
	if len(rows) > 0 || len(failed) == 0 {
		result, err := h.stock.ImportProducts(c.Request.Context(), rows, userID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Products = toProductResponses(result.Created)
		resp.Failed = append(resp.Failed, result.Failed...)
	}
	resp.Created = len(resp.Products)
	sort.Slice(resp.Failed, func(i, j int) bool { return resp.Failed[i].Line < resp.Failed[j].Line })
	if resp.Created == 0 {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// CheckAvailability godoc
// @Summary      Check whether stock can serve the given lines
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body AvailabilityRequest true "Lines"
// @Success      200 {object} dto.Response{data=AvailabilityResponse}
// @Security     BearerAuth
// @Router       /stock/availability [post]
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	reqs := make([]stock.Requirement, len(req.Items))
	for i, it := range req.Items {
		reqs[i] = stock.Requirement{ProductID: it.ProductID, Quantity: it.Quantity, Location: stock.Location(it.Location)}
	}

	items, err := h.stock.ValidateStockAvailability(c.Request.Context(), reqs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	available := true
	for _, it := range items {
		if !it.Sufficient() {
			available = false
			break
		}
	}
	h.Success(c, AvailabilityResponse{Available: available, Items: items})
}

// MoveStock godoc
// @Summary      Record a stock movement
// @Description  Receipts, transfers between warehouse and shop, and adjustments
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body appstock.MoveStockCommand true "Movement"
// @Success      201 {object} dto.Response{data=[]MovementResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/movements [post]
func (h *StockHandler) MoveStock(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd appstock.MoveStockCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	movements, err := h.stock.MoveStock(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMovementResponses(movements))
}

// BulkMoveStock godoc
// @Summary      Record several stock movements atomically
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body BulkMoveRequest true "Movements"
// @Success      201 {object} dto.Response{data=[]MovementResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /stock/movements/bulk [post]
func (h *StockHandler) BulkMoveStock(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var req BulkMoveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if len(req.Moves) > maxBulkMoves {
		h.BadRequest(c, "Too many movements in one request")
		return
	}
	movements, err := h.stock.BulkMoveStock(c.Request.Context(), req.Moves, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toMovementResponses(movements))
}

// ListMovements godoc
// @Summary      List stock movements
// @Tags         stock
// @Produce      json
// @Param        product_id query string false "Product ID" format(uuid)
// @Param        type query string false "Movement type"
// @Param        location query string false "warehouse or shop"
// @Param        since query string false "Since (YYYY-MM-DD)"
// @Param        until query string false "Until (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]MovementResponse}
// @Security     BearerAuth
// @Router       /stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	since, err := queryDate(c, "since")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	until, err := queryDate(c, "until")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	movements, total, err := h.stock.ListMovements(c.Request.Context(), stock.MovementFilter{
		ProductID: productID,
		Type:      stock.MovementType(c.Query("type")),
		Location:  stock.Location(c.Query("location")),
		Since:     since,
		Until:     until,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toMovementResponses(movements), total, page, pageSize)
}

package handler

import (
	"github.com/gin-gonic/gin"
	appcount "github.com/retail/backoffice/internal/application/inventorycount"
	"github.com/retail/backoffice/internal/domain/inventorycount"
)

// CountHandler handles physical inventory counts
type CountHandler struct {
	BaseHandler
	counts *appcount.CountService
}

// NewCountHandler creates a new CountHandler
func NewCountHandler(counts *appcount.CountService) *CountHandler {
	return &CountHandler{counts: counts}
}

// UpdateItemsRequest carries counted quantities
type UpdateItemsRequest struct {
	Items []appcount.ActualItem `json:"items" binding:"required,min=1"`
}

// UnlockCountRequest re-authenticates the user reopening a completed count
type UnlockCountRequest struct {
	Password string `json:"password" binding:"required"`
}

// CompletionResponse is the outcome of completing a count
type CompletionResponse struct {
	Count       *CountResponse        `json:"count"`
	Adjustments []appcount.Adjustment `json:"adjustments"`
	Entries     []*EntryResponse      `json:"entries"`
}

func toCountView(v *appcount.CountView) *CountResponse {
	return toCountResponse(v.Count, v.Items, v.ExpectedHidden)
}

// Create godoc
// @Summary      Start a count and snapshot expected quantities
// @Tags         inventory-counts
// @Accept       json
// @Produce      json
// @Param        request body appcount.CreateCountCommand true "Count"
// @Success      201 {object} dto.Response{data=CountResponse}
// @Security     BearerAuth
// @Router       /inventory-counts [post]
func (h *CountHandler) Create(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd appcount.CreateCountCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	view, err := h.counts.CreateCount(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCountView(view))
}

// List godoc
// @Summary      List counts
// @Tags         inventory-counts
// @Produce      json
// @Param        status query string false "DRAFT or COMPLETED"
// @Success      200 {object} dto.Response{data=[]CountResponse}
// @Security     BearerAuth
// @Router       /inventory-counts [get]
func (h *CountHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	counts, total, err := h.counts.ListCounts(c.Request.Context(), inventorycount.Filter{
		Status:   inventorycount.Status(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]*CountResponse, len(counts))
	for i, cnt := range counts {
		out[i] = toCountResponse(cnt, nil, cnt.IsBlind)
	}
	h.SuccessWithMeta(c, out, total, page, pageSize)
}

// GetByID godoc
// @Summary      Get a count
// @Tags         inventory-counts
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=CountResponse}
// @Security     BearerAuth
// @Router       /inventory-counts/{id} [get]
func (h *CountHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.counts.GetCount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCountView(view))
}

// UpdateItems godoc
// @Summary      Record counted quantities
// @Tags         inventory-counts
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        request body UpdateItemsRequest true "Counted quantities"
// @Success      200 {object} dto.Response{data=CountResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory-counts/{id}/items [put]
func (h *CountHandler) UpdateItems(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.counts.UpdateActualQuantities(c.Request.Context(), id, req.Items, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCountView(view))
}

// Complete godoc
// @Summary      Complete a count and post its adjustments
// @Tags         inventory-counts
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=CompletionResponse}
// @Security     BearerAuth
// @Router       /inventory-counts/{id}/complete [post]
func (h *CountHandler) Complete(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.counts.CompleteCount(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	adjustments := result.Adjustments
	if adjustments == nil {
		adjustments = []appcount.Adjustment{}
	}
	h.Success(c, CompletionResponse{
		Count:       toCountResponse(result.Count, result.Count.Items, false),
		Adjustments: adjustments,
		Entries:     toEntryResponses(result.Entries),
	})
}

// Unlock godoc
// @Summary      Reopen a completed count
// @Description  Managers and admins only; the user's password is checked again
// @Tags         inventory-counts
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        request body UnlockCountRequest true "Password"
// @Success      200 {object} dto.Response{data=CountResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /inventory-counts/{id}/unlock [post]
func (h *CountHandler) Unlock(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UnlockCountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.counts.UnlockCount(c.Request.Context(), id, req.Password, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCountView(view))
}

// RecentMovements godoc
// @Summary      Stock movements since the count's snapshot
// @Tags         inventory-counts
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]MovementResponse}
// @Security     BearerAuth
// @Router       /inventory-counts/{id}/movements [get]
func (h *CountHandler) RecentMovements(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	movements, err := h.counts.GetRecentMovementsSince(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toMovementResponses(movements))
}

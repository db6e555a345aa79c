package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/retail/backoffice/internal/application/identity"
	"github.com/retail/backoffice/internal/domain/identity"
)

// UserHandler handles back-office accounts
type UserHandler struct {
	BaseHandler
	users *appidentity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *appidentity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ChangeRoleRequest is the body of a role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin manager cashier storekeeper"`
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body appidentity.CreateUserCommand true "User"
// @Success      201 {object} dto.Response{data=UserResponse}
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actorID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd appidentity.CreateUserCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), cmd, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toUserResponse(user))
}

// Me godoc
// @Summary      The authenticated user
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=UserResponse}
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// GetByID godoc
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=UserResponse}
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// ChangeRole godoc
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body ChangeRoleRequest true "Role"
// @Success      200 {object} dto.Response{data=UserResponse}
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	actorID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), id, identity.Role(req.Role), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// Deactivate godoc
// @Summary      Deactivate a user
// @Tags         users
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	actorID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.DeactivateUser(c.Request.Context(), id, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

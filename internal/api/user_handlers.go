package api

import (
	"net/http"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), callerIdentity(c))
	if err != nil {
		h.respondError(c, "ListUsers", err)
		return
	}
	list(c, "Users fetched", users)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid user details")
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), callerIdentity(c), userID, req)
	if err != nil {
		h.respondError(c, "UpdateUser", err)
		return
	}
	respond(c, http.StatusOK, "User updated", user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), callerIdentity(c), userID); err != nil {
		h.respondError(c, "DeleteUser", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Msg: "User deleted"})
}

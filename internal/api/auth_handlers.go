package api

import (
	"net/http"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required")
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout only acknowledges; bearer credentials are stateless and the client drops its copy
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Msg: "Logged out"})
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Name, a valid email, a password of at least 6 characters and a role are required")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "Register", err)
		return
	}
	respond(c, http.StatusCreated, "User created", user)
}

package api

import (
	"net/http"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTokens(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	tokens, err := h.svc.ListTokens(c.Request.Context(), callerIdentity(c), userID)
	if err != nil {
		h.respondError(c, "ListTokens", err)
		return
	}
	list(c, "Tokens fetched", tokens)
}

func (h *Handler) ListAllTokens(c *gin.Context) {
	tokens, err := h.svc.ListAllTokens(c.Request.Context(), callerIdentity(c))
	if err != nil {
		h.respondError(c, "ListAllTokens", err)
		return
	}
	list(c, "Tokens fetched", tokens)
}

func (h *Handler) CreateToken(c *gin.Context) {
	var req models.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Customer name, material type and user are required")
		return
	}
	token, err := h.svc.CreateToken(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "CreateToken", err)
		return
	}
	respond(c, http.StatusCreated, "Token created", token)
}

func (h *Handler) UpdateToken(c *gin.Context) {
	var req models.UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Token id is required")
		return
	}
	token, err := h.svc.UpdateToken(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "UpdateToken", err)
		return
	}
	respond(c, http.StatusOK, "Token updated", token)
}

func (h *Handler) ConfirmToken(c *gin.Context) {
	var req models.ConfirmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Token id is required")
		return
	}
	token, err := h.svc.ConfirmToken(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "ConfirmToken", err)
		return
	}
	respond(c, http.StatusOK, "Token confirmed", token)
}

func (h *Handler) DeleteToken(c *gin.Context) {
	tokenID, ok := pathID(c, "tokenId")
	if !ok {
		return
	}
	if err := h.svc.DeleteToken(c.Request.Context(), callerIdentity(c), tokenID); err != nil {
		h.respondError(c, "DeleteToken", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Msg: "Token deleted"})
}

package api

import (
	"net/http"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	summary, err := h.svc.GetBalance(c.Request.Context(), callerIdentity(c), userID)
	if err != nil {
		h.respondError(c, "GetBalance", err)
		return
	}
	respond(c, http.StatusOK, "Balance fetched", summary)
}

func (h *Handler) AddBalance(c *gin.Context) {
	var req models.AddBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please fill required fields")
		return
	}
	tx, err := h.svc.AddBalance(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "AddBalance", err)
		return
	}
	respond(c, http.StatusCreated, "Balance added", tx)
}

func (h *Handler) EditBalance(c *gin.Context) {
	transactionID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}
	var req models.EditBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid balance details")
		return
	}
	tx, err := h.svc.EditBalance(c.Request.Context(), callerIdentity(c), transactionID, req)
	if err != nil {
		h.respondError(c, "EditBalance", err)
		return
	}
	respond(c, http.StatusOK, "Balance updated", tx)
}

func (h *Handler) DeleteBalance(c *gin.Context) {
	transactionID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}
	if err := h.svc.DeleteBalance(c.Request.Context(), callerIdentity(c), transactionID); err != nil {
		h.respondError(c, "DeleteBalance", err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Msg: "Transaction deleted"})
}

func (h *Handler) AdminBalance(c *gin.Context) {
	rows, err := h.svc.AdminBalance(c.Request.Context(), callerIdentity(c))
	if err != nil {
		h.respondError(c, "AdminBalance", err)
		return
	}
	list(c, "Balances fetched", rows)
}

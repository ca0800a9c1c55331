package api

import (
	"net/http"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListBedash(c *gin.Context) {
	items, err := h.svc.ListBedash(c.Request.Context(), callerIdentity(c))
	if err != nil {
		h.respondError(c, "ListBedash", err)
		return
	}
	list(c, "Messages fetched", items)
}

func (h *Handler) AddBedash(c *gin.Context) {
	var req models.AddBedashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please fill all required fields.")
		return
	}
	item, err := h.svc.AddBedash(c.Request.Context(), callerIdentity(c), req)
	if err != nil {
		h.respondError(c, "AddBedash", err)
		return
	}
	respond(c, http.StatusCreated, "Message added", item)
}

func (h *Handler) ConfirmBedash(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.ConfirmBedash(c.Request.Context(), callerIdentity(c), id)
	if err != nil {
		h.respondError(c, "ConfirmBedash", err)
		return
	}
	respond(c, http.StatusOK, "Message confirmed", item)
}

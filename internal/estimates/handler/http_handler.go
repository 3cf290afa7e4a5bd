// Package handler exposes the estimates HTTP API.
package handler

import (
	"net/http"

	"renewalwatch_backend/internal/estimates/service"
	"renewalwatch_backend/internal/estimates/transport"
	"renewalwatch_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListByAccount)
	rg.POST("", h.Upsert)
	rg.POST("/:id/archive", h.Archive)
}

func (h *HTTPHandler) ListByAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Query("account_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "account_id is required", nil)
		return
	}

	items, err := h.svc.ListByAccount(c.Request.Context(), accountID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items})
}

func (h *HTTPHandler) Upsert(c *gin.Context) {
	var req transport.UpsertEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	e, err := h.svc.Upsert(c.Request.Context(), req.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, e)
}

func (h *HTTPHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if err := h.svc.Archive(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

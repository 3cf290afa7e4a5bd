// Package handler exposes the risk HTTP API.
package handler

import (
	"net/http"
	"time"

	"renewalwatch_backend/internal/risk/service"
	"renewalwatch_backend/internal/risk/transport"
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
	rg.GET("/accounts/:id", h.AccountRisk)
	rg.POST("/accounts/:id/recompute", h.Recompute)
	rg.GET("/at-risk", h.AtRiskList)
}

func (h *HTTPHandler) AccountRisk(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid account id", nil)
		return
	}

	status, err := h.svc.GetAccountRisk(c.Request.Context(), accountID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromDomain(status))
}

// Recompute forces a fresh pipeline run for one account, bypassing the
// cache. Useful after a bulk import.
func (h *HTTPHandler) Recompute(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid account id", nil)
		return
	}

	status, err := h.svc.Recompute(c.Request.Context(), accountID, time.Now().UTC())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromDomain(status))
}

func (h *HTTPHandler) AtRiskList(c *gin.Context) {
	items, err := h.svc.AtRiskList(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": transport.FromDomainList(items)})
}

// Package handler exposes the accounts HTTP API.
package handler

import (
	"net/http"
	"time"

	"renewalwatch_backend/internal/accounts/domain"
	"renewalwatch_backend/internal/accounts/service"
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
	rg.GET("/:id", h.Get)
	rg.POST("/:id/interactions", h.LogInteraction)
}

func (h *HTTPHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid account id", nil)
		return
	}

	account, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, account)
}

// LogInteractionRequest records a touch-point with an account. OccurredAt
// defaults to now when omitted.
type LogInteractionRequest struct {
	Kind       string     `json:"kind" binding:"required"`
	OccurredAt *time.Time `json:"occurredAt"`
}

func (h *HTTPHandler) LogInteraction(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid account id", nil)
		return
	}

	var req LogInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	interaction := domain.Interaction{AccountID: accountID, Kind: req.Kind}
	if req.OccurredAt != nil {
		interaction.OccurredAt = *req.OccurredAt
	}

	id, err := h.svc.LogInteraction(c.Request.Context(), interaction)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"id": id})
}

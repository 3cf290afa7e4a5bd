// Package handler exposes the notification HTTP API: the merged feed
// (per-entity rows plus the bulk document), read-state transitions, and
// snooze management.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"renewalwatch_backend/internal/notification/bulk"
	"renewalwatch_backend/internal/notification/inapp"
	"renewalwatch_backend/internal/notification/snooze"
	"renewalwatch_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HTTPHandler struct {
	inapp    *inapp.Repository
	bulkFeed *bulk.Repository
	snoozes  *snooze.Repository
}

func NewHTTPHandler(inappRepo *inapp.Repository, bulkRepo *bulk.Repository, snoozeRepo *snooze.Repository) *HTTPHandler {
	return &HTTPHandler{inapp: inappRepo, bulkFeed: bulkRepo, snoozes: snoozeRepo}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/snoozes", h.Snooze)
	rg.DELETE("/snoozes/:targetId", h.Unsnooze)
}

// List returns a user's per-entity notifications alongside the bulk feed.
// The two kinds keep separate shapes: merging them into one list would lose
// the wholesale-replacement semantics of the bulk document.
func (h *HTTPHandler) List(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 100", nil)
			return
		}
		limit = parsed
	}
	unreadOnly := c.Query("unread_only") == "true"

	items, err := h.inapp.List(c.Request.Context(), userID, limit, unreadOnly)
	if httpkit.HandleError(c, err) {
		return
	}
	feed, err := h.bulkFeed.Get(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"notifications": items,
		"feed":          feed,
	})
}

func (h *HTTPHandler) UnreadCount(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}

	count, err := h.inapp.CountUnread(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"count": count})
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if err := h.inapp.MarkRead(c.Request.Context(), userID, id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *HTTPHandler) MarkAllRead(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}

	if err := h.inapp.MarkAllRead(c.Request.Context(), userID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}

	if err := h.inapp.Delete(c.Request.Context(), userID, id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

// SnoozeRequest suppresses notifications for one target entity until the
// given instant. The target may be an account or a task.
type SnoozeRequest struct {
	UserID       uuid.UUID `json:"userId" binding:"required"`
	TargetID     uuid.UUID `json:"targetId" binding:"required"`
	SnoozedUntil time.Time `json:"snoozedUntil" binding:"required"`
}

func (h *HTTPHandler) Snooze(c *gin.Context) {
	var req SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !req.SnoozedUntil.After(time.Now()) {
		httpkit.Error(c, http.StatusBadRequest, "snoozedUntil must be in the future", nil)
		return
	}

	err := h.snoozes.Upsert(c.Request.Context(), snooze.Snooze{
		UserID:       req.UserID,
		TargetID:     req.TargetID,
		SnoozedUntil: req.SnoozedUntil,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *HTTPHandler) Unsnooze(c *gin.Context) {
	userID, ok := userIDFromQuery(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("targetId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid targetId", nil)
		return
	}

	if err := h.snoozes.Delete(c.Request.Context(), userID, targetID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}

func userIDFromQuery(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "user_id is required", nil)
		return uuid.Nil, false
	}
	return userID, true
}

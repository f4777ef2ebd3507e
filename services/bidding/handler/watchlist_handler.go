package handler

import (
	"context"
	"net/http"

	"auction-house/internal/models"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type WatchlistServiceInterface interface {
	Watch(ctx context.Context, userID, itemID string) (models.WatchlistEntry, error)
	Unwatch(ctx context.Context, userID, itemID string) error
	ListForUser(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
}

type WatchlistHandler struct {
	service WatchlistServiceInterface
}

func NewWatchlistHandler(service WatchlistServiceInterface) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

// WatchHandler handles POST /watchlist
func (h *WatchlistHandler) WatchHandler(c *gin.Context) {
	userID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "WatchHandler", err, nil)
		return
	}

	var req helpers.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "WatchHandler", err)
		return
	}

	entry, err := h.service.Watch(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		helpers.RespondError(c, "WatchHandler", err, map[string]any{"user_id": userID, "item_id": req.ItemID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewWatchlistResponse(entry), "item added to watchlist")
	helpers.LogSuccess("WatchHandler", "item added to watchlist", map[string]any{"user_id": userID, "item_id": req.ItemID})
}

// UnwatchHandler handles DELETE /watchlist/:item_id
func (h *WatchlistHandler) UnwatchHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	userID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "UnwatchHandler", err, map[string]any{"item_id": itemID})
		return
	}

	if err := h.service.Unwatch(c.Request.Context(), userID, itemID); err != nil {
		helpers.RespondError(c, "UnwatchHandler", err, map[string]any{"user_id": userID, "item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "item removed from watchlist")
	helpers.LogSuccess("UnwatchHandler", "item removed from watchlist", map[string]any{"user_id": userID, "item_id": itemID})
}

// ListWatchlistHandler handles GET /users/:user_id/watchlist
func (h *WatchlistHandler) ListWatchlistHandler(c *gin.Context) {
	userID := c.Param("user_id")
	entries, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "ListWatchlistHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewWatchlistResponses(entries), "watchlist retrieved successfully")
	helpers.LogSuccess("ListWatchlistHandler", "watchlist retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(entries),
	})
}

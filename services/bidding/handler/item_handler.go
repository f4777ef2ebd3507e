package handler

import (
	"context"
	"net/http"

	"auction-house/internal/catalog"
	"auction-house/internal/models"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CatalogServiceInterface interface {
	CreateItem(ctx context.Context, ownerID, name, description string, price decimal.Decimal) (models.Item, error)
	GetItem(ctx context.Context, itemID string) (models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID string, changes models.ItemChanges) (models.Item, error)
	DeleteItem(ctx context.Context, ownerID, itemID string) error
	CreateAuction(ctx context.Context, ownerID, itemID string, req catalog.AuctionRequest) (models.Auction, error)
}

type ItemHandler struct {
	service CatalogServiceInterface
}

func NewItemHandler(service CatalogServiceInterface) *ItemHandler {
	return &ItemHandler{service: service}
}

// CreateItemHandler handles POST /items
func (h *ItemHandler) CreateItemHandler(c *gin.Context) {
	ownerID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "CreateItemHandler", err, nil)
		return
	}

	var req helpers.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateItemHandler", err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), ownerID, req.Name, req.Description, req.Price)
	if err != nil {
		helpers.RespondError(c, "CreateItemHandler", err, map[string]any{"owner_id": ownerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewItemResponse(item), "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id":  item.ItemID,
		"owner_id": ownerID,
	})
}

// ListItemsHandler handles GET /items
func (h *ItemHandler) ListItemsHandler(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListItemsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponses(items), "items retrieved successfully")
	helpers.LogSuccess("ListItemsHandler", "items retrieved successfully", map[string]any{"count": len(items)})
}

// GetItemHandler handles GET /items/:item_id
func (h *ItemHandler) GetItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "item retrieved successfully")
	helpers.LogSuccess("GetItemHandler", "item retrieved successfully", map[string]any{"item_id": itemID})
}

// UpdateItemHandler handles PATCH /items/:item_id
func (h *ItemHandler) UpdateItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	ownerID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "UpdateItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	var req helpers.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateItemHandler", err)
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), ownerID, itemID, models.ItemChanges{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		helpers.RespondError(c, "UpdateItemHandler", err, map[string]any{
			"item_id":  itemID,
			"owner_id": ownerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "item updated successfully")
	helpers.LogSuccess("UpdateItemHandler", "item updated successfully", map[string]any{
		"item_id":  itemID,
		"owner_id": ownerID,
	})
}

// DeleteItemHandler handles DELETE /items/:item_id
func (h *ItemHandler) DeleteItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	ownerID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "DeleteItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), ownerID, itemID); err != nil {
		helpers.RespondError(c, "DeleteItemHandler", err, map[string]any{
			"item_id":  itemID,
			"owner_id": ownerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"item_id": itemID}, "item deleted successfully")
	helpers.LogSuccess("DeleteItemHandler", "item deleted successfully", map[string]any{
		"item_id":  itemID,
		"owner_id": ownerID,
	})
}

// CreateAuctionHandler handles POST /items/:item_id/auction
func (h *ItemHandler) CreateAuctionHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	ownerID, err := helpers.CallerID(c)
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{"item_id": itemID})
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	a, err := h.service.CreateAuction(c.Request.Context(), ownerID, itemID, catalog.AuctionRequest{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BasePrice:    req.BasePrice,
		BidIncrement: req.BidIncrement,
		MaxBidders:   req.MaxBidders,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{
			"item_id":  itemID,
			"owner_id": ownerID,
		})
		return
	}

	resp := helpers.NewAuctionResponse(a, a.State, a.TimeRemaining(a.CreatedAt))
	utils.JSONResponse(c, http.StatusCreated, resp, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": a.AuctionID,
		"item_id":    itemID,
		"state":      string(a.State),
	})
}

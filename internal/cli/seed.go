package cli

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/catalog"
	"auction-house/internal/models"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// seedItem is a sample listing created by serve --seed
type seedItem struct {
	name        string
	description string
	price       string
}

var seedItems = []seedItem{
	{name: "title1", description: "description1", price: "100.00"},
	{name: "title2", description: "Description2", price: "200.00"},
	{name: "title3", description: "Description3", price: "150.00"},
}

// seed registers a demo seller and opens a day-long auction on each sample
// item, starting now
func seed(ctx context.Context, a *app, clock utils.Clock) error {
	seller, err := a.users.Register(ctx, "demo-seller", "seller@example.com", models.RoleSeller)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	sellerID := seller.User.UserID

	now := clock.Now()
	for _, s := range seedItems {
		item, err := a.catalog.CreateItem(ctx, sellerID, s.name, s.description, decimal.RequireFromString(s.price))
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		auction, err := a.catalog.CreateAuction(ctx, sellerID, item.ItemID, catalog.AuctionRequest{
			StartTime:    now,
			EndTime:      now.Add(24 * time.Hour),
			BidIncrement: decimal.RequireFromString("1.00"),
		})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		utils.Info("seed: sample auction opened", map[string]any{
			"item_id":    item.ItemID,
			"auction_id": auction.AuctionID,
			"seller_id":  sellerID,
		})
	}
	return nil
}

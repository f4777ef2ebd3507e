package catalog

import (
	"context"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/lifecycle"
	"auction-house/internal/locker"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

// Store is the storage the catalog needs
type Store interface {
	repository.ItemStore
	repository.AuctionStore
}

// AuctionRequest are the owner-supplied settings of a new auction. A zero
// BasePrice falls back to the item price and a zero MaxBidders to the
// default cap.
type AuctionRequest struct {
	StartTime    time.Time
	EndTime      time.Time
	BasePrice    decimal.Decimal
	BidIncrement decimal.Decimal
	MaxBidders   int
}

// Service lists items and opens auctions on them. Edits of an item and
// the creation of its auction are serialized per item.
type Service struct {
	repo  Store
	locks *locker.Keyed
	clock utils.Clock
}

// NewService creates a new catalog Service
func NewService(repo Store, clock utils.Clock) *Service {
	return &Service{
		repo:  repo,
		locks: locker.New(),
		clock: clock,
	}
}

// CreateItem lists a new item owned by ownerID
func (s *Service) CreateItem(ctx context.Context, ownerID, name, description string, price decimal.Decimal) (models.Item, error) {
	item, err := models.NewItem(utils.GenerateID(), ownerID, name, description, price, s.clock.Now())
	if err != nil {
		return models.Item{}, fmt.Errorf("catalog: %w", err)
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return models.Item{}, fmt.Errorf("catalog: failed to create item %q: %w", name, err)
	}

	utils.Info("catalog: item listed", map[string]any{
		"item_id":  item.ItemID,
		"owner_id": ownerID,
		"price":    price.StringFixed(2),
	})
	return item, nil
}

// GetItem returns an item by id
func (s *Service) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	if itemID == "" {
		return models.Item{}, fmt.Errorf("catalog: %w - empty item ID", auctionerrors.ErrInvalidItem)
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return models.Item{}, fmt.Errorf("catalog: failed to get item %s: %w", itemID, err)
	}
	return item, nil
}

// ListItems returns all items, newest first
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list items: %w", err)
	}
	return items, nil
}

// UpdateItem changes the listing of an item. Only the owner may, and only
// until an auction is created for it.
func (s *Service) UpdateItem(ctx context.Context, ownerID, itemID string, changes models.ItemChanges) (models.Item, error) {
	unlock, item, err := s.lockOwnedItem(ctx, ownerID, itemID, "update")
	if err != nil {
		return models.Item{}, err
	}
	defer unlock()

	changed, err := changes.Apply(item)
	if err != nil {
		return models.Item{}, fmt.Errorf("catalog: %w", err)
	}

	updated, err := s.repo.UpdateItem(ctx, changed)
	if err != nil {
		return models.Item{}, fmt.Errorf("catalog: failed to update item %s: %w", itemID, err)
	}

	utils.Info("catalog: item updated", map[string]any{
		"item_id":  itemID,
		"owner_id": ownerID,
		"price":    updated.StartingPrice.StringFixed(2),
	})
	return updated, nil
}

// DeleteItem withdraws an item that has no auction. Only the owner may.
func (s *Service) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	unlock, _, err := s.lockOwnedItem(ctx, ownerID, itemID, "delete")
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("catalog: failed to delete item %s: %w", itemID, err)
	}

	utils.Info("catalog: item withdrawn", map[string]any{
		"item_id":  itemID,
		"owner_id": ownerID,
	})
	return nil
}

// lockOwnedItem locks itemID and loads it, checking that ownerID owns it.
// The returned unlock is nil when an error is returned.
func (s *Service) lockOwnedItem(ctx context.Context, ownerID, itemID, action string) (func(), models.Item, error) {
	if ownerID == "" || itemID == "" {
		return nil, models.Item{}, fmt.Errorf("catalog: %w - missing ownerID or itemID", auctionerrors.ErrInvalidItem)
	}

	unlock := s.locks.Lock(itemID)
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		unlock()
		return nil, models.Item{}, fmt.Errorf("catalog: failed to get item %s: %w", itemID, err)
	}
	if item.OwnerID != ownerID {
		unlock()
		return nil, models.Item{}, fmt.Errorf("catalog: %s item %s: %w", action, itemID, auctionerrors.ErrNotOwner)
	}
	return unlock, item, nil
}

// CreateAuction opens the auction of an item. Only the item's owner may
// do so and an item holds at most one auction.
func (s *Service) CreateAuction(ctx context.Context, ownerID, itemID string, req AuctionRequest) (models.Auction, error) {
	if ownerID == "" || itemID == "" {
		return models.Auction{}, fmt.Errorf("catalog: %w - missing ownerID or itemID", auctionerrors.ErrInvalidAuction)
	}

	unlock := s.locks.Lock(itemID)
	defer unlock()

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("catalog: failed to get item %s: %w", itemID, err)
	}
	if item.OwnerID != ownerID {
		return models.Auction{}, fmt.Errorf("catalog: create auction for item %s: %w", itemID, auctionerrors.ErrNotOwner)
	}

	now := s.clock.Now()
	a, err := models.NewAuction(utils.GenerateID(), item, models.AuctionParams{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BasePrice:    req.BasePrice,
		BidIncrement: req.BidIncrement,
		MaxBidders:   req.MaxBidders,
	}, now)
	if err != nil {
		return models.Auction{}, fmt.Errorf("catalog: %w", err)
	}
	if !a.EndTime.After(now) {
		return models.Auction{}, fmt.Errorf("catalog: %w: end time is in the past", auctionerrors.ErrInvalidAuction)
	}
	a.State = lifecycle.StateAt(a, now)

	if err := s.repo.CreateAuction(ctx, a); err != nil {
		return models.Auction{}, fmt.Errorf("catalog: failed to create auction for item %s: %w", itemID, err)
	}

	utils.Info("catalog: auction created", map[string]any{
		"auction_id": a.AuctionID,
		"item_id":    itemID,
		"state":      string(a.State),
		"start_time": a.StartTime.Format(time.RFC3339),
		"end_time":   a.EndTime.Format(time.RFC3339),
	})
	return a, nil
}

package watchlist

import (
	"context"
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// Service manages user watchlists and tells watchers about auction
// transitions. Notifications are only logged.
type Service struct {
	repo  repository.WatchlistStore
	clock utils.Clock
}

// NewService creates a new watchlist Service
func NewService(repo repository.WatchlistStore, clock utils.Clock) *Service {
	return &Service{
		repo:  repo,
		clock: clock,
	}
}

// Watch adds itemID to the user's watchlist
func (s *Service) Watch(ctx context.Context, userID, itemID string) (models.WatchlistEntry, error) {
	if userID == "" || itemID == "" {
		return models.WatchlistEntry{}, fmt.Errorf("watchlist: %w - missing userID or itemID", auctionerrors.ErrInvalidWatchlist)
	}

	entry := models.WatchlistEntry{
		UserID:  userID,
		ItemID:  itemID,
		AddedOn: s.clock.Now(),
	}
	if err := s.repo.AddWatch(ctx, entry); err != nil {
		return models.WatchlistEntry{}, fmt.Errorf("watchlist: failed to watch item %s for user %s: %w", itemID, userID, err)
	}
	return entry, nil
}

// Unwatch removes itemID from the user's watchlist
func (s *Service) Unwatch(ctx context.Context, userID, itemID string) error {
	if userID == "" || itemID == "" {
		return fmt.Errorf("watchlist: %w - missing userID or itemID", auctionerrors.ErrInvalidWatchlist)
	}

	if err := s.repo.RemoveWatch(ctx, userID, itemID); err != nil {
		return fmt.Errorf("watchlist: failed to unwatch item %s for user %s: %w", itemID, userID, err)
	}
	return nil
}

// ListForUser returns the user's watchlist, most recently added first
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("watchlist: %w - empty user ID", auctionerrors.ErrInvalidWatchlist)
	}

	entries, err := s.repo.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("watchlist: failed to list watchlist for user %s: %w", userID, err)
	}
	return entries, nil
}

// AuctionTransitioned logs one notification per watcher of the auction's
// item. A failed lookup is logged and dropped; it never fails the transition.
func (s *Service) AuctionTransitioned(ctx context.Context, auction models.Auction, from, to models.AuctionState) {
	watchers, err := s.repo.ListWatchers(ctx, auction.ItemID)
	if err != nil {
		utils.Warn("watchlist: failed to look up watchers", map[string]any{
			"auction_id": auction.AuctionID,
			"item_id":    auction.ItemID,
			"error":      err.Error(),
		})
		return
	}

	for _, userID := range watchers {
		fields := map[string]any{
			"user_id":    userID,
			"auction_id": auction.AuctionID,
			"item_id":    auction.ItemID,
			"from":       string(from),
			"to":         string(to),
		}
		if auction.HighestBid.Valid {
			fields["highest_bid"] = auction.HighestBid.Decimal.StringFixed(2)
		}
		utils.Info("watchlist: notify watcher", fields)
	}
}

package bidding

import (
	"context"
	"errors"
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

// DefaultMaxBidAttempts bounds how often a bid is re-validated after
// losing a version race before ErrConcurrentUpdate is returned
const DefaultMaxBidAttempts = 3

// Closer closes an expired auction
type Closer interface {
	CloseAuction(ctx context.Context, auctionID string) (models.Auction, error)
}

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo        repository.AuctionDB
	locks       *locker.Keyed
	closer      Closer
	clock       utils.Clock
	maxAttempts int
}

// NewBiddingService creates a new BiddingService instance. locks must be
// the locker shared with the lifecycle machine. closer may be nil.
func NewBiddingService(repo repository.AuctionDB, locks *locker.Keyed, closer Closer, clock utils.Clock, maxAttempts int) *BiddingService {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxBidAttempts
	}
	return &BiddingService{
		repo:        repo,
		locks:       locks,
		closer:      closer,
		clock:       clock,
		maxAttempts: maxAttempts,
	}
}

// PlaceBid validates and records a bid on an auction
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	if err := validateBid(auctionID, bidderID, amount); err != nil {
		return models.Bid{}, err
	}

	bid, err := s.admit(ctx, auctionID, bidderID, amount)
	if errors.Is(err, auctionerrors.ErrAuctionExpired) {
		s.closeExpired(ctx, auctionID)
	}
	return bid, err
}

// PlaceBidForItem places a bid on the auction of itemID
func (s *BiddingService) PlaceBidForItem(ctx context.Context, itemID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	if err := validateBid(itemID, bidderID, amount); err != nil {
		return models.Bid{}, err
	}

	a, err := s.repo.GetAuctionByItem(ctx, itemID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to find auction for item %s: %w", itemID, err)
	}

	return s.PlaceBid(ctx, a.AuctionID, bidderID, amount)
}

// admit runs the admission checks and the compare-and-swap write under
// the auction's lock. A lost race re-reads and re-validates, so a bid made
// stale by the winner is rejected by the ordinary checks.
func (s *BiddingService) admit(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	unlock := s.locks.Lock(auctionID)
	defer unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		a, err := s.repo.GetAuction(ctx, auctionID)
		if err != nil {
			return models.Bid{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
		}

		now := s.clock.Now()
		if err := checkAdmission(a, bidderID, amount, now); err != nil {
			return models.Bid{}, err
		}

		seen, err := s.repo.HasBidderBid(ctx, auctionID, bidderID)
		if err != nil {
			return models.Bid{}, fmt.Errorf("service: failed to check bidder %s on auction %s: %w", bidderID, auctionID, err)
		}
		if !seen && a.BidderCount >= a.MaxBidders {
			return models.Bid{}, fmt.Errorf("service: %w - limit is %d", auctionerrors.ErrBidderCapExceeded, a.MaxBidders)
		}

		bid := models.Bid{
			BidID:     utils.GenerateID(),
			AuctionID: a.AuctionID,
			ItemID:    a.ItemID,
			BidderID:  bidderID,
			Amount:    amount,
			CreatedAt: now,
		}

		_, err = s.repo.RecordBid(ctx, bid, a.WithBid(bid, !seen, now), a.Version)
		if errors.Is(err, auctionerrors.ErrVersionConflict) {
			utils.Debug("service: bid lost version race, retrying", map[string]any{
				"auction_id": auctionID,
				"bidder_id":  bidderID,
				"attempt":    attempt,
			})
			continue
		}
		if err != nil {
			return models.Bid{}, fmt.Errorf("service: failed to record bid on auction %s by user %s: %w", auctionID, bidderID, err)
		}

		utils.Info("service: bid accepted", map[string]any{
			"bid_id":     bid.BidID,
			"auction_id": auctionID,
			"bidder_id":  bidderID,
			"amount":     amount.StringFixed(2),
		})
		return bid, nil
	}

	return models.Bid{}, fmt.Errorf("service: auction %s after %d attempts: %w", auctionID, s.maxAttempts, auctionerrors.ErrConcurrentUpdate)
}

// closeExpired closes an auction a bid found expired. The bid is already
// rejected, so a failure is only logged.
func (s *BiddingService) closeExpired(ctx context.Context, auctionID string) {
	if s.closer == nil {
		return
	}
	if _, err := s.closer.CloseAuction(ctx, auctionID); err != nil {
		utils.Warn("service: lazy close failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
}

// validateBid checks the input before any state is read
func validateBid(id, bidderID string, amount decimal.Decimal) error {
	if id == "" || bidderID == "" {
		return fmt.Errorf("service: %w - missing target or bidder ID", auctionerrors.ErrInvalidBid)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("service: %w - more than two decimal places", auctionerrors.ErrInvalidBid)
	}
	return nil
}

// checkAdmission applies the auction rules in order: state and window,
// self bidding, then the minimum amount
func checkAdmission(a models.Auction, bidderID string, amount decimal.Decimal, now time.Time) error {
	switch lifecycle.StateAt(a, now) {
	case models.StateActive:
	case models.StatePending:
		return fmt.Errorf("service: %w - auction starts at %s", auctionerrors.ErrAuctionNotActive, a.StartTime.Format(time.RFC3339))
	case models.StateCancelled:
		return fmt.Errorf("service: %w - auction was cancelled", auctionerrors.ErrAuctionNotActive)
	default:
		return fmt.Errorf("service: %w - auction ended at %s", auctionerrors.ErrAuctionExpired, a.EndTime.Format(time.RFC3339))
	}

	if bidderID == a.OwnerID {
		return fmt.Errorf("service: %w", auctionerrors.ErrSelfBidNotAllowed)
	}

	if minimum := a.MinimumBid(); amount.LessThan(minimum) {
		return fmt.Errorf("service: %w - minimum bid is %s", auctionerrors.ErrBidTooLow, minimum.StringFixed(2))
	}
	return nil
}

// GetBidsForItem returns all bids for a specific item, newest first
func (s *BiddingService) GetBidsForItem(ctx context.Context, itemID string) ([]models.Bid, error) {
	if itemID == "" {
		return nil, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for item %s: %w", itemID, err)
	}

	return bids, nil
}

// GetBidsForAuction returns all bids for a specific auction, newest first
func (s *BiddingService) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	return bids, nil
}

// GetWinningBid returns the highest bid for a specific item
func (s *BiddingService) GetWinningBid(ctx context.Context, itemID string) (models.Bid, error) {
	if itemID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidBid)
	}

	winningBid, err := s.repo.GetWinningBid(ctx, itemID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for item %s: %w", itemID, err)
	}

	return winningBid, nil
}

// GetItemsByUser returns all items a user has placed bids on
func (s *BiddingService) GetItemsByUser(ctx context.Context, userID string) ([]models.Item, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	items, err := s.repo.GetItemsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get items for user %s: %w", userID, err)
	}

	return items, nil
}

package models

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/shopspring/decimal"
)

// AuctionState is the position of an auction in its lifecycle
type AuctionState string

const (
	StatePending      AuctionState = "pending"
	StateActive       AuctionState = "active"
	StateClosed       AuctionState = "closed"
	StateSettled      AuctionState = "settled"
	StateClosedUnsold AuctionState = "closed_unsold"
	StateCancelled    AuctionState = "cancelled"
)

// DefaultMaxBidders applies when an auction is created without a cap
const DefaultMaxBidders = 100

// IsTerminal reports whether no further transition can leave the state
func (s AuctionState) IsTerminal() bool {
	switch s {
	case StateSettled, StateClosedUnsold, StateCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known state
func (s AuctionState) Valid() bool {
	switch s {
	case StatePending, StateActive, StateClosed, StateSettled, StateClosedUnsold, StateCancelled:
		return true
	}
	return false
}

// Auction is the timed sale of exactly one item. The highest bid fields
// are a cache of the bid log maintained by the bidding engine; Version
// increases on every write and guards compare-and-swap updates.
type Auction struct {
	AuctionID       string              `json:"auction_id" db:"id"`
	ItemID          string              `json:"item_id" db:"item_id"`
	OwnerID         string              `json:"owner_id" db:"owner_id"`
	StartTime       time.Time           `json:"start_time" db:"start_time"`
	EndTime         time.Time           `json:"end_time" db:"end_time"`
	BasePrice       decimal.Decimal     `json:"base_price" db:"base_price"`
	BidIncrement    decimal.Decimal     `json:"bid_increment" db:"bid_increment"`
	MaxBidders      int                 `json:"max_bidders" db:"max_bidders"`
	State           AuctionState        `json:"state" db:"state"`
	HighestBid      decimal.NullDecimal `json:"highest_bid" db:"highest_bid"`
	HighestBidderID string              `json:"highest_bidder_id,omitempty" db:"highest_bidder_id"`
	HighestBidID    string              `json:"highest_bid_id,omitempty" db:"highest_bid_id"`
	BidCount        int                 `json:"bid_count" db:"bid_count"`
	BidderCount     int                 `json:"bidder_count" db:"bidder_count"`
	PaymentID       string              `json:"payment_id,omitempty" db:"payment_id"`
	Version         int64               `json:"version" db:"version"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// AuctionParams are the owner-supplied settings of a new auction
type AuctionParams struct {
	StartTime    time.Time
	EndTime      time.Time
	BasePrice    decimal.Decimal
	BidIncrement decimal.Decimal
	MaxBidders   int
}

// NewAuction builds an auction for item. A zero base price falls back to
// the item's starting price and a zero cap to DefaultMaxBidders.
func NewAuction(id string, item Item, p AuctionParams, now time.Time) (Auction, error) {
	if p.BasePrice.IsZero() {
		p.BasePrice = item.StartingPrice
	}
	if p.MaxBidders == 0 {
		p.MaxBidders = DefaultMaxBidders
	}
	if p.BasePrice.LessThan(item.StartingPrice) {
		return Auction{}, fmt.Errorf("%w: base price %s is below the item price %s",
			auctionerrors.ErrInvalidAuction, p.BasePrice.StringFixed(2), item.StartingPrice.StringFixed(2))
	}

	a := Auction{
		AuctionID:    id,
		ItemID:       item.ItemID,
		OwnerID:      item.OwnerID,
		StartTime:    p.StartTime.UTC(),
		EndTime:      p.EndTime.UTC(),
		BasePrice:    p.BasePrice,
		BidIncrement: p.BidIncrement,
		MaxBidders:   p.MaxBidders,
		State:        StatePending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Validate(); err != nil {
		return Auction{}, err
	}
	return a, nil
}

// Validate checks the auction invariants. Every write path calls it.
func (a Auction) Validate() error {
	switch {
	case a.AuctionID == "" || a.ItemID == "" || a.OwnerID == "":
		return fmt.Errorf("%w: missing auction, item or owner id", auctionerrors.ErrInvalidAuction)
	case !a.EndTime.After(a.StartTime):
		return fmt.Errorf("%w: end time must be after start time", auctionerrors.ErrInvalidAuction)
	case !ValidMoney(a.BasePrice):
		return fmt.Errorf("%w: base price must be positive with at most two decimals", auctionerrors.ErrInvalidAuction)
	case !ValidMoney(a.BidIncrement):
		return fmt.Errorf("%w: bid increment must be positive with at most two decimals", auctionerrors.ErrInvalidAuction)
	case a.MaxBidders <= 0:
		return fmt.Errorf("%w: max bidders must be positive", auctionerrors.ErrInvalidAuction)
	case !a.State.Valid():
		return fmt.Errorf("%w: unknown state %q", auctionerrors.ErrInvalidAuction, a.State)
	case a.BidCount > 0 && (!a.HighestBid.Valid || a.HighestBid.Decimal.LessThan(a.BasePrice)):
		return fmt.Errorf("%w: highest bid below base price", auctionerrors.ErrInvalidAuction)
	case a.BidderCount > a.MaxBidders:
		return fmt.Errorf("%w: bidder count exceeds cap", auctionerrors.ErrInvalidAuction)
	}
	return nil
}

// HasBids reports whether any bid has been accepted
func (a Auction) HasBids() bool {
	return a.BidCount > 0
}

// MinimumBid is the lowest amount the next bid may offer
func (a Auction) MinimumBid() decimal.Decimal {
	if !a.HasBids() {
		return a.BasePrice
	}
	return a.HighestBid.Decimal.Add(a.BidIncrement)
}

// TimeRemaining is the time left until EndTime, zero once it has passed
func (a Auction) TimeRemaining(now time.Time) time.Duration {
	if !now.Before(a.EndTime) {
		return 0
	}
	return a.EndTime.Sub(now)
}

// WithBid returns the auction as it looks after bid is accepted
func (a Auction) WithBid(bid Bid, newBidder bool, now time.Time) Auction {
	a.HighestBid = decimal.NewNullDecimal(bid.Amount)
	a.HighestBidderID = bid.BidderID
	a.HighestBidID = bid.BidID
	a.BidCount++
	if newBidder {
		a.BidderCount++
	}
	a.UpdatedAt = now
	return a
}

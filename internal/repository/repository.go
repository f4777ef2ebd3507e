package repository

import (
	"context"
	"time"

	model "auction-house/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository auction-house/internal/repository AuctionDB

// UserStore persists registered users together with their profiles
type UserStore interface {
	CreateUser(ctx context.Context, user model.User, profile model.Profile) error
	GetUser(ctx context.Context, userID string) (model.User, model.Profile, error)
}

// ItemStore persists item listings. An item is editable until an auction
// is created for it; UpdateItem and DeleteItem then fail with
// ErrItemHasAuction.
type ItemStore interface {
	CreateItem(ctx context.Context, item model.Item) error
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	UpdateItem(ctx context.Context, item model.Item) (model.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItemsByUser(ctx context.Context, userID string) ([]model.Item, error)
}

// AuctionStore persists auctions. Writes are compare-and-swap on the
// auction version and fail with ErrVersionConflict when it moved.
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	GetAuctionByItem(ctx context.Context, itemID string) (model.Auction, error)
	ListOpenAuctions(ctx context.Context) ([]model.Auction, error)
	UpdateAuction(ctx context.Context, auction model.Auction, expectedVersion int64) (model.Auction, error)
}

// BidStore persists the append-only bid log
type BidStore interface {
	// RecordBid stores bid and the auction state derived from it in one
	// atomic write, and refreshes the item's cached highest bid.
	RecordBid(ctx context.Context, bid model.Bid, auction model.Auction, expectedVersion int64) (model.Auction, error)
	HasBidderBid(ctx context.Context, auctionID, bidderID string) (bool, error)
	GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error)
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, itemID string) (model.Bid, error)
}

// PaymentStore persists settlement obligations, at most one per auction
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment model.Payment) error
	GetPayment(ctx context.Context, paymentID string) (model.Payment, error)
	GetPaymentByAuction(ctx context.Context, auctionID string) (model.Payment, error)
	CompletePayment(ctx context.Context, paymentID string, method model.PaymentMethod, paidAt time.Time) (model.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error)
}

// WatchlistStore persists (user, item) watch entries
type WatchlistStore interface {
	AddWatch(ctx context.Context, entry model.WatchlistEntry) error
	RemoveWatch(ctx context.Context, userID, itemID string) error
	ListWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error)
	ListWatchers(ctx context.Context, itemID string) ([]string, error)
}

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	UserStore
	ItemStore
	AuctionStore
	BidStore
	PaymentStore
	WatchlistStore
}

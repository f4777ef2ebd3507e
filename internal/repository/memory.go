package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu sync.RWMutex

	users     map[string]model.User    // key: userID -> value: user
	profiles  map[string]model.Profile // key: userID -> value: profile
	usernames map[string]string        // key: username -> value: userID

	items     map[string]model.Item // key: itemID -> value: item
	itemOrder []string              // itemIDs in insertion order
	userItems map[string][]string   // key: userID -> value: list of itemIDs user has bid on

	auctions      map[string]model.Auction       // key: auctionID -> value: auction
	auctionByItem map[string]string              // key: itemID -> value: auctionID
	bids          map[string][]model.Bid         // key: auctionID -> value: list of bids
	bidKeys       map[bidKey]struct{}            // (auction, bidder, amount) uniqueness
	bidders       map[string]map[string]struct{} // key: auctionID -> value: set of bidderIDs

	payments         map[string]model.Payment // key: paymentID -> value: payment
	paymentOrder     []string                 // paymentIDs in insertion order
	paymentByAuction map[string]string        // key: auctionID -> value: paymentID

	watch map[string][]model.WatchlistEntry // key: userID -> value: entries in insertion order
}

type bidKey struct {
	auctionID string
	bidderID  string
	amount    string
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:            make(map[string]model.User),
		profiles:         make(map[string]model.Profile),
		usernames:        make(map[string]string),
		items:            make(map[string]model.Item),
		userItems:        make(map[string][]string),
		auctions:         make(map[string]model.Auction),
		auctionByItem:    make(map[string]string),
		bids:             make(map[string][]model.Bid),
		bidKeys:          make(map[bidKey]struct{}),
		bidders:          make(map[string]map[string]struct{}),
		payments:         make(map[string]model.Payment),
		paymentByAuction: make(map[string]string),
		watch:            make(map[string][]model.WatchlistEntry),
	}
}

// CreateUser stores a user and its profile together
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User, profile model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.usernames[user.Username]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUserExists)
	}
	if _, ok := r.users[user.UserID]; ok {
		return fmt.Errorf("create user %s: %w", user.UserID, auctionerrors.ErrUserExists)
	}
	r.users[user.UserID] = user
	r.profiles[user.UserID] = profile
	r.usernames[user.Username] = user.UserID
	return nil
}

// GetUser returns a user and its profile
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, model.Profile{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, r.profiles[userID], nil
}

// CreateItem stores a new item listing
func (r *MemoryRepo) CreateItem(_ context.Context, item model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ItemID == "" {
		return fmt.Errorf("create item: %w", auctionerrors.ErrInvalidItem)
	}
	if _, ok := r.items[item.ItemID]; ok {
		return fmt.Errorf("create item %s: %w: duplicate id", item.ItemID, auctionerrors.ErrInvalidItem)
	}
	r.items[item.ItemID] = item
	r.itemOrder = append(r.itemOrder, item.ItemID)
	return nil
}

// GetItem returns an item by id
func (r *MemoryRepo) GetItem(_ context.Context, itemID string) (model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("get item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return item, nil
}

// UpdateItem replaces the listing fields of an item without an auction
func (r *MemoryRepo) UpdateItem(_ context.Context, item model.Item) (model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.editableItemLocked(item.ItemID)
	if err != nil {
		return model.Item{}, fmt.Errorf("update item %s: %w", item.ItemID, err)
	}
	stored.Name = item.Name
	stored.Description = item.Description
	stored.StartingPrice = item.StartingPrice
	r.items[item.ItemID] = stored
	return stored, nil
}

// DeleteItem removes an item without an auction along with its watchlist
// entries
func (r *MemoryRepo) DeleteItem(_ context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.editableItemLocked(itemID); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	delete(r.items, itemID)
	for i, id := range r.itemOrder {
		if id == itemID {
			r.itemOrder = append(r.itemOrder[:i], r.itemOrder[i+1:]...)
			break
		}
	}
	for userID, entries := range r.watch {
		kept := entries[:0]
		for _, e := range entries {
			if e.ItemID != itemID {
				kept = append(kept, e)
			}
		}
		r.watch[userID] = kept
	}
	return nil
}

func (r *MemoryRepo) editableItemLocked(itemID string) (model.Item, error) {
	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, auctionerrors.ErrItemNotFound
	}
	if _, ok := r.auctionByItem[itemID]; ok {
		return model.Item{}, auctionerrors.ErrItemHasAuction
	}
	return item, nil
}

// ListItems returns all items, newest first
func (r *MemoryRepo) ListItems(_ context.Context) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Item, 0, len(r.itemOrder))
	for i := len(r.itemOrder) - 1; i >= 0; i-- {
		items = append(items, r.items[r.itemOrder[i]])
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// GetItemsByUser returns all items a user has bid on, newest first
func (r *MemoryRepo) GetItemsByUser(_ context.Context, userID string) ([]model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemIDs := r.userItems[userID]
	items := make([]model.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		if item, exists := r.items[id]; exists {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// CreateAuction stores a new auction; an item holds at most one
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	if err := auction.Validate(); err != nil {
		return fmt.Errorf("create auction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[auction.ItemID]; !ok {
		return fmt.Errorf("create auction for item %s: %w", auction.ItemID, auctionerrors.ErrItemNotFound)
	}
	if _, ok := r.auctionByItem[auction.ItemID]; ok {
		return fmt.Errorf("create auction for item %s: %w", auction.ItemID, auctionerrors.ErrAuctionExists)
	}
	r.auctions[auction.AuctionID] = auction
	r.auctionByItem[auction.ItemID] = auction.AuctionID
	return nil
}

// GetAuction returns an auction by id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// GetAuctionByItem returns the auction of an item
func (r *MemoryRepo) GetAuctionByItem(_ context.Context, itemID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.auctionByItem[itemID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction for item %s: %w", itemID, auctionerrors.ErrAuctionNotFound)
	}
	return r.auctions[id], nil
}

// ListOpenAuctions returns the auctions that are not in a terminal state
func (r *MemoryRepo) ListOpenAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]model.Auction, 0)
	for _, a := range r.auctions {
		if !a.State.IsTerminal() {
			open = append(open, a)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].EndTime.Before(open[j].EndTime) })
	return open, nil
}

// UpdateAuction replaces the auction if its stored version still equals
// expectedVersion and returns the stored copy with the bumped version
func (r *MemoryRepo) UpdateAuction(_ context.Context, auction model.Auction, expectedVersion int64) (model.Auction, error) {
	if err := auction.Validate(); err != nil {
		return model.Auction{}, fmt.Errorf("update auction: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkVersionLocked(auction.AuctionID, expectedVersion); err != nil {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, err)
	}
	auction.Version = expectedVersion + 1
	r.auctions[auction.AuctionID] = auction
	return auction, nil
}

func (r *MemoryRepo) checkVersionLocked(auctionID string, expectedVersion int64) error {
	stored, ok := r.auctions[auctionID]
	if !ok {
		return auctionerrors.ErrAuctionNotFound
	}
	if stored.Version != expectedVersion {
		return auctionerrors.ErrVersionConflict
	}
	return nil
}

// RecordBid appends bid and stores the auction state derived from it
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid, auction model.Auction, expectedVersion int64) (model.Auction, error) {
	if err := auction.Validate(); err != nil {
		return model.Auction{}, fmt.Errorf("record bid: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[bid.ItemID]
	if !ok {
		return model.Auction{}, fmt.Errorf("record bid for item %s: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
	}
	if err := r.checkVersionLocked(bid.AuctionID, expectedVersion); err != nil {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
	}
	key := bidKey{auctionID: bid.AuctionID, bidderID: bid.BidderID, amount: bid.Amount.String()}
	if _, dup := r.bidKeys[key]; dup {
		return model.Auction{}, fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrDuplicateBid)
	}

	r.bidKeys[key] = struct{}{}
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	if r.bidders[bid.AuctionID] == nil {
		r.bidders[bid.AuctionID] = make(map[string]struct{})
	}
	r.bidders[bid.AuctionID][bid.BidderID] = struct{}{}

	auction.Version = expectedVersion + 1
	r.auctions[auction.AuctionID] = auction

	item.HighestBid = auction.HighestBid
	item.BidCount++
	r.items[item.ItemID] = item

	for _, id := range r.userItems[bid.BidderID] {
		if id == bid.ItemID {
			return auction, nil
		}
	}
	r.userItems[bid.BidderID] = append(r.userItems[bid.BidderID], bid.ItemID)

	return auction, nil
}

// HasBidderBid reports whether bidderID already bid on the auction
func (r *MemoryRepo) HasBidderBid(_ context.Context, auctionID, bidderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bidders[auctionID][bidderID]
	return ok, nil
}

// GetBidsByItem returns all bids for an item, newest first
func (r *MemoryRepo) GetBidsByItem(_ context.Context, itemID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.items[itemID]; !ok {
		return nil, fmt.Errorf("get bids for item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	auctionID, ok := r.auctionByItem[itemID]
	if !ok {
		return []model.Bid{}, nil
	}
	return newestFirst(r.bids[auctionID]), nil
}

// GetBidsByAuction returns all bids for an auction, newest first
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return newestFirst(r.bids[auctionID]), nil
}

func newestFirst(bids []model.Bid) []model.Bid {
	out := make([]model.Bid, 0, len(bids))
	for i := len(bids) - 1; i >= 0; i-- {
		out = append(out, bids[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// GetWinningBid returns the highest bid for an item
func (r *MemoryRepo) GetWinningBid(_ context.Context, itemID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctionID, ok := r.auctionByItem[itemID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for item %s: %w", itemID, auctionerrors.ErrNoBids)
	}
	winningID := r.auctions[auctionID].HighestBidID
	for _, b := range r.bids[auctionID] {
		if b.BidID == winningID {
			return b, nil
		}
	}
	return model.Bid{}, fmt.Errorf("get winning bid for item %s: %w", itemID, auctionerrors.ErrNoBids)
}

// CreatePayment stores an obligation; an auction holds at most one
func (r *MemoryRepo) CreatePayment(_ context.Context, payment model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[payment.AuctionID]; !ok {
		return fmt.Errorf("create payment for auction %s: %w", payment.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if _, ok := r.paymentByAuction[payment.AuctionID]; ok {
		return fmt.Errorf("create payment for auction %s: %w", payment.AuctionID, auctionerrors.ErrPaymentExists)
	}
	r.payments[payment.PaymentID] = payment
	r.paymentOrder = append(r.paymentOrder, payment.PaymentID)
	r.paymentByAuction[payment.AuctionID] = payment.PaymentID
	return nil
}

// GetPayment returns a payment by id
func (r *MemoryRepo) GetPayment(_ context.Context, paymentID string) (model.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[paymentID]
	if !ok {
		return model.Payment{}, fmt.Errorf("get payment %s: %w", paymentID, auctionerrors.ErrPaymentNotFound)
	}
	return p, nil
}

// GetPaymentByAuction returns the obligation of an auction
func (r *MemoryRepo) GetPaymentByAuction(_ context.Context, auctionID string) (model.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.paymentByAuction[auctionID]
	if !ok {
		return model.Payment{}, fmt.Errorf("get payment for auction %s: %w", auctionID, auctionerrors.ErrPaymentNotFound)
	}
	return r.payments[id], nil
}

// CompletePayment flips is_completed exactly once
func (r *MemoryRepo) CompletePayment(_ context.Context, paymentID string, method model.PaymentMethod, paidAt time.Time) (model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[paymentID]
	if !ok {
		return model.Payment{}, fmt.Errorf("complete payment %s: %w", paymentID, auctionerrors.ErrPaymentNotFound)
	}
	if p.IsCompleted {
		return model.Payment{}, fmt.Errorf("complete payment %s: %w", paymentID, auctionerrors.ErrAlreadyPaid)
	}
	p.IsCompleted = true
	p.Method = method
	p.PaidAt = &paidAt
	r.payments[paymentID] = p
	return p, nil
}

// ListPaymentsByUser returns the payments owed by userID, newest first
func (r *MemoryRepo) ListPaymentsByUser(_ context.Context, userID string) ([]model.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Payment, 0)
	for i := len(r.paymentOrder) - 1; i >= 0; i-- {
		if p := r.payments[r.paymentOrder[i]]; p.PayerID == userID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddWatch adds an item to a user's watchlist
func (r *MemoryRepo) AddWatch(_ context.Context, entry model.WatchlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[entry.ItemID]; !ok {
		return fmt.Errorf("watch item %s: %w", entry.ItemID, auctionerrors.ErrItemNotFound)
	}
	for _, e := range r.watch[entry.UserID] {
		if e.ItemID == entry.ItemID {
			return fmt.Errorf("watch item %s: %w", entry.ItemID, auctionerrors.ErrAlreadyWatching)
		}
	}
	r.watch[entry.UserID] = append(r.watch[entry.UserID], entry)
	return nil
}

// RemoveWatch removes an item from a user's watchlist
func (r *MemoryRepo) RemoveWatch(_ context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.watch[userID]
	for i, e := range entries {
		if e.ItemID == itemID {
			r.watch[userID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unwatch item %s: %w", itemID, auctionerrors.ErrWatchNotFound)
}

// ListWatchlist returns a user's watchlist, most recently added first
func (r *MemoryRepo) ListWatchlist(_ context.Context, userID string) ([]model.WatchlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.watch[userID]
	out := make([]model.WatchlistEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedOn.After(out[j].AddedOn) })
	return out, nil
}

// ListWatchers returns the ids of users watching itemID
func (r *MemoryRepo) ListWatchers(_ context.Context, itemID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	watchers := make([]string, 0)
	for userID, entries := range r.watch {
		for _, e := range entries {
			if e.ItemID == itemID {
				watchers = append(watchers, userID)
				break
			}
		}
	}
	sort.Strings(watchers)
	return watchers, nil
}

// AddItem adds an item to the repository. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddItem(item model.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ItemID]; !ok {
		r.itemOrder = append(r.itemOrder, item.ItemID)
	}
	r.items[item.ItemID] = item
}

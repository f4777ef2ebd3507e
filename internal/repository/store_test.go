package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, money(want).Equal(got), "want %s, got %s", want, got)
}

// Helper to create a new Item
func newItem(t *testing.T, itemID, ownerID, price string, createdAt time.Time) model.Item {
	t.Helper()
	item, err := model.NewItem(itemID, ownerID, "Item "+itemID, fmt.Sprintf("%s description", itemID), money(price), createdAt)
	require.NoError(t, err)
	return item
}

// Helper to create an auction running from t0 for one hour
func newAuction(t *testing.T, auctionID string, item model.Item) model.Auction {
	t.Helper()
	a, err := model.NewAuction(auctionID, item, model.AuctionParams{
		StartTime:    t0,
		EndTime:      t0.Add(time.Hour),
		BidIncrement: money("0.50"),
	}, t0)
	require.NoError(t, err)
	return a
}

// Helper to create a new Bid
func newBid(bidID string, a model.Auction, bidderID, amount string, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: a.AuctionID,
		ItemID:    a.ItemID,
		BidderID:  bidderID,
		Amount:    money(amount),
		CreatedAt: createdAt,
	}
}

// seed stores an item with an auction and returns both
func seed(t *testing.T, repo AuctionDB, itemID, ownerID string) (model.Item, model.Auction) {
	t.Helper()
	ctx := context.Background()
	item := newItem(t, itemID, ownerID, "10.00", t0)
	require.NoError(t, repo.CreateItem(ctx, item))
	a := newAuction(t, "auction-"+itemID, item)
	require.NoError(t, repo.CreateAuction(ctx, a))
	return item, a
}

// place records a bid against the current stored auction
func place(t *testing.T, repo AuctionDB, bid model.Bid) model.Auction {
	t.Helper()
	ctx := context.Background()
	a, err := repo.GetAuction(ctx, bid.AuctionID)
	require.NoError(t, err)
	seen, err := repo.HasBidderBid(ctx, a.AuctionID, bid.BidderID)
	require.NoError(t, err)
	updated, err := repo.RecordBid(ctx, bid, a.WithBid(bid, !seen, bid.CreatedAt), a.Version)
	require.NoError(t, err)
	return updated
}

// runStoreSuite checks the behavior every AuctionDB implementation shares
func runStoreSuite(t *testing.T, newRepo func(t *testing.T) AuctionDB) {
	t.Run("users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user, err := model.NewUser("u1", "alice", "alice@example.com", t0)
		require.NoError(t, err)
		profile, err := model.NewProfile("u1", model.RoleSeller, t0)
		require.NoError(t, err)
		require.NoError(t, repo.CreateUser(ctx, user, profile))

		gotUser, gotProfile, err := repo.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "alice", gotUser.Username)
		require.Equal(t, "alice@example.com", gotUser.Email)
		require.Equal(t, model.RoleSeller, gotProfile.Role)
		require.True(t, t0.Equal(gotUser.CreatedAt))

		dup, err := model.NewUser("u2", "alice", "", t0)
		require.NoError(t, err)
		dupProfile, err := model.NewProfile("u2", "", t0)
		require.NoError(t, err)
		require.ErrorIs(t, repo.CreateUser(ctx, dup, dupProfile), auctionerrors.ErrUserExists)

		_, _, err = repo.GetUser(ctx, "u2")
		require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
	})

	t.Run("items", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		older := newItem(t, "item1", "owner", "10.00", t0)
		newer := newItem(t, "item2", "owner", "25.50", t0.Add(time.Minute))
		require.NoError(t, repo.CreateItem(ctx, older))
		require.NoError(t, repo.CreateItem(ctx, newer))

		got, err := repo.GetItem(ctx, "item2")
		require.NoError(t, err)
		require.Equal(t, "Item item2", got.Name)
		requireMoney(t, "25.50", got.StartingPrice)
		require.False(t, got.HighestBid.Valid)
		require.Zero(t, got.BidCount)

		items, err := repo.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "item2", items[0].ItemID)
		require.Equal(t, "item1", items[1].ItemID)

		_, err = repo.GetItem(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	})

	t.Run("items_by_user_newest_first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		older := newItem(t, "old", "owner", "10.00", t0)
		newer := newItem(t, "new", "owner", "10.00", t0.Add(time.Minute))
		require.NoError(t, repo.CreateItem(ctx, older))
		require.NoError(t, repo.CreateItem(ctx, newer))
		olderAuction := newAuction(t, "auction-old", older)
		newerAuction := newAuction(t, "auction-new", newer)
		require.NoError(t, repo.CreateAuction(ctx, olderAuction))
		require.NoError(t, repo.CreateAuction(ctx, newerAuction))

		// bid order is the reverse of listing order
		place(t, repo, newBid("b1", olderAuction, "u", "10.00", t0.Add(2*time.Minute)))
		place(t, repo, newBid("b2", newerAuction, "u", "10.00", t0.Add(3*time.Minute)))

		items, err := repo.GetItemsByUser(ctx, "u")
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "new", items[0].ItemID)
		require.Equal(t, "old", items[1].ItemID)
	})

	t.Run("update_item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		item := newItem(t, "item1", "owner", "10.00", t0)
		require.NoError(t, repo.CreateItem(ctx, item))

		item.Name = "Renamed"
		item.Description = "new description"
		item.StartingPrice = money("12.25")
		updated, err := repo.UpdateItem(ctx, item)
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Name)
		requireMoney(t, "12.25", updated.StartingPrice)

		got, err := repo.GetItem(ctx, "item1")
		require.NoError(t, err)
		require.Equal(t, "new description", got.Description)
		requireMoney(t, "12.25", got.StartingPrice)
		require.Equal(t, "owner", got.OwnerID)
		require.True(t, t0.Equal(got.CreatedAt))

		_, err = repo.UpdateItem(ctx, newItem(t, "missing", "owner", "10.00", t0))
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

		require.NoError(t, repo.CreateAuction(ctx, newAuction(t, "auction-item1", got)))
		got.StartingPrice = money("1.00")
		_, err = repo.UpdateItem(ctx, got)
		require.ErrorIs(t, err, auctionerrors.ErrItemHasAuction)

		unchanged, err := repo.GetItem(ctx, "item1")
		require.NoError(t, err)
		requireMoney(t, "12.25", unchanged.StartingPrice)
	})

	t.Run("delete_item", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		loose := newItem(t, "loose", "owner", "10.00", t0)
		require.NoError(t, repo.CreateItem(ctx, loose))
		seed(t, repo, "auctioned", "owner")
		require.NoError(t, repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "loose", AddedOn: t0}))
		require.NoError(t, repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "auctioned", AddedOn: t0}))

		require.ErrorIs(t, repo.DeleteItem(ctx, "auctioned"), auctionerrors.ErrItemHasAuction)
		require.NoError(t, repo.DeleteItem(ctx, "loose"))
		require.ErrorIs(t, repo.DeleteItem(ctx, "loose"), auctionerrors.ErrItemNotFound)

		_, err := repo.GetItem(ctx, "loose")
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

		items, err := repo.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "auctioned", items[0].ItemID)

		entries, err := repo.ListWatchlist(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "auctioned", entries[0].ItemID)
	})

	t.Run("empty_lists", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		items, err := repo.ListItems(ctx)
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)

		byUser, err := repo.GetItemsByUser(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, byUser)

		open, err := repo.ListOpenAuctions(ctx)
		require.NoError(t, err)
		require.Empty(t, open)

		payments, err := repo.ListPaymentsByUser(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, payments)

		entries, err := repo.ListWatchlist(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("auctions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		item, a := seed(t, repo, "item1", "owner")

		got, err := repo.GetAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, item.ItemID, got.ItemID)
		require.Equal(t, model.StatePending, got.State)
		require.Equal(t, int64(1), got.Version)
		requireMoney(t, "10", got.BasePrice)
		requireMoney(t, "0.5", got.BidIncrement)
		require.Equal(t, model.DefaultMaxBidders, got.MaxBidders)
		require.True(t, a.EndTime.Equal(got.EndTime))

		byItem, err := repo.GetAuctionByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, a.AuctionID, byItem.AuctionID)

		second := newAuction(t, "auction-second", item)
		require.ErrorIs(t, repo.CreateAuction(ctx, second), auctionerrors.ErrAuctionExists)

		orphan := newAuction(t, "auction-orphan", newItem(t, "ghost", "owner", "10.00", t0))
		require.ErrorIs(t, repo.CreateAuction(ctx, orphan), auctionerrors.ErrItemNotFound)

		_, err = repo.GetAuction(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
		_, err = repo.GetAuctionByItem(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})

	t.Run("update_auction_compare_and_swap", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, a := seed(t, repo, "item1", "owner")

		active := a
		active.State = model.StateActive
		active.UpdatedAt = t0.Add(time.Second)
		updated, err := repo.UpdateAuction(ctx, active, a.Version)
		require.NoError(t, err)
		require.Equal(t, int64(2), updated.Version)

		// a second writer holding the old version loses
		cancelled := a
		cancelled.State = model.StateCancelled
		_, err = repo.UpdateAuction(ctx, cancelled, a.Version)
		require.ErrorIs(t, err, auctionerrors.ErrVersionConflict)

		got, err := repo.GetAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, model.StateActive, got.State)
		require.Equal(t, int64(2), got.Version)

		ghost := a
		ghost.AuctionID = "missing"
		_, err = repo.UpdateAuction(ctx, ghost, 1)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)

		invalid := got
		invalid.MaxBidders = 0
		_, err = repo.UpdateAuction(ctx, invalid, got.Version)
		require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction)
	})

	t.Run("list_open_auctions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, open := seed(t, repo, "item1", "owner")
		_, done := seed(t, repo, "item2", "owner")

		done.State = model.StateCancelled
		_, err := repo.UpdateAuction(ctx, done, done.Version)
		require.NoError(t, err)

		auctions, err := repo.ListOpenAuctions(ctx)
		require.NoError(t, err)
		require.Len(t, auctions, 1)
		require.Equal(t, open.AuctionID, auctions[0].AuctionID)
	})

	t.Run("record_bid", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		item, a := seed(t, repo, "item1", "owner")

		first := newBid("bid1", a, "user1", "10.00", t0.Add(time.Minute))
		after := place(t, repo, first)
		require.Equal(t, int64(2), after.Version)
		require.Equal(t, 1, after.BidCount)
		require.Equal(t, 1, after.BidderCount)
		require.Equal(t, "user1", after.HighestBidderID)

		second := newBid("bid2", a, "user2", "10.50", t0.Add(2*time.Minute))
		after = place(t, repo, second)
		require.Equal(t, int64(3), after.Version)
		require.Equal(t, 2, after.BidderCount)

		third := newBid("bid3", a, "user1", "11.00", t0.Add(3*time.Minute))
		after = place(t, repo, third)
		require.Equal(t, 3, after.BidCount)
		require.Equal(t, 2, after.BidderCount)

		stored, err := repo.GetAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, int64(4), stored.Version)
		require.Equal(t, "bid3", stored.HighestBidID)
		requireMoney(t, "11", stored.HighestBid.Decimal)

		gotItem, err := repo.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, 3, gotItem.BidCount)
		require.True(t, gotItem.HighestBid.Valid)
		requireMoney(t, "11.00", gotItem.HighestBid.Decimal)

		bids, err := repo.GetBidsByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Len(t, bids, 3)
		require.Equal(t, []string{"bid3", "bid2", "bid1"}, []string{bids[0].BidID, bids[1].BidID, bids[2].BidID})

		byAuction, err := repo.GetBidsByAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Len(t, byAuction, 3)
		requireMoney(t, "11", byAuction[0].Amount)

		winning, err := repo.GetWinningBid(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, "bid3", winning.BidID)
		require.Equal(t, "user1", winning.BidderID)

		seen, err := repo.HasBidderBid(ctx, a.AuctionID, "user2")
		require.NoError(t, err)
		require.True(t, seen)
		seen, err = repo.HasBidderBid(ctx, a.AuctionID, "user3")
		require.NoError(t, err)
		require.False(t, seen)

		items, err := repo.GetItemsByUser(ctx, "user1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, item.ItemID, items[0].ItemID)
	})

	t.Run("record_bid_rejections_leave_no_trace", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		item, a := seed(t, repo, "item1", "owner")
		place(t, repo, newBid("bid1", a, "user1", "12.00", t0.Add(time.Minute)))

		current, err := repo.GetAuction(ctx, a.AuctionID)
		require.NoError(t, err)

		tests := []struct {
			name    string
			bid     model.Bid
			version int64
			wantErr error
		}{
			{
				name:    "stale_version",
				bid:     newBid("bid2", a, "user2", "13.00", t0.Add(2*time.Minute)),
				version: current.Version - 1,
				wantErr: auctionerrors.ErrVersionConflict,
			},
			{
				name:    "duplicate_bidder_amount",
				bid:     newBid("bid3", a, "user1", "12.00", t0.Add(2*time.Minute)),
				version: current.Version,
				wantErr: auctionerrors.ErrDuplicateBid,
			},
			{
				name:    "duplicate_with_different_scale",
				bid:     newBid("bid4", a, "user1", "12", t0.Add(2*time.Minute)),
				version: current.Version,
				wantErr: auctionerrors.ErrDuplicateBid,
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := repo.RecordBid(ctx, tc.bid, current.WithBid(tc.bid, false, tc.bid.CreatedAt), tc.version)
				require.ErrorIs(t, err, tc.wantErr)

				stored, err := repo.GetAuction(ctx, a.AuctionID)
				require.NoError(t, err)
				require.Equal(t, current.Version, stored.Version)
				require.Equal(t, "bid1", stored.HighestBidID)

				bids, err := repo.GetBidsByItem(ctx, item.ItemID)
				require.NoError(t, err)
				require.Len(t, bids, 1)

				gotItem, err := repo.GetItem(ctx, item.ItemID)
				require.NoError(t, err)
				require.Equal(t, 1, gotItem.BidCount)
			})
		}
	})

	t.Run("bids_lookup_errors", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		item, _ := seed(t, repo, "item1", "owner")

		_, err := repo.GetBidsByItem(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

		_, err = repo.GetBidsByAuction(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)

		bids, err := repo.GetBidsByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Empty(t, bids)

		_, err = repo.GetWinningBid(ctx, item.ItemID)
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
		_, err = repo.GetWinningBid(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
	})

	t.Run("payments", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		_, a := seed(t, repo, "item1", "owner")
		_, b := seed(t, repo, "item2", "owner")

		p, err := model.NewPayment("pay1", a.AuctionID, "winner", money("11.00"), t0)
		require.NoError(t, err)
		require.NoError(t, repo.CreatePayment(ctx, p))

		again, err := model.NewPayment("pay2", a.AuctionID, "winner", money("11.00"), t0)
		require.NoError(t, err)
		require.ErrorIs(t, repo.CreatePayment(ctx, again), auctionerrors.ErrPaymentExists)

		orphan, err := model.NewPayment("pay3", "missing", "winner", money("11.00"), t0)
		require.NoError(t, err)
		require.ErrorIs(t, repo.CreatePayment(ctx, orphan), auctionerrors.ErrAuctionNotFound)

		other, err := model.NewPayment("pay4", b.AuctionID, "winner", money("20.00"), t0.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.CreatePayment(ctx, other))

		got, err := repo.GetPayment(ctx, "pay1")
		require.NoError(t, err)
		require.False(t, got.IsCompleted)
		require.Nil(t, got.PaidAt)
		requireMoney(t, "11", got.Amount)

		byAuction, err := repo.GetPaymentByAuction(ctx, a.AuctionID)
		require.NoError(t, err)
		require.Equal(t, "pay1", byAuction.PaymentID)

		paidAt := t0.Add(time.Hour)
		paid, err := repo.CompletePayment(ctx, "pay1", model.MethodPayPal, paidAt)
		require.NoError(t, err)
		require.True(t, paid.IsCompleted)
		require.Equal(t, model.MethodPayPal, paid.Method)
		require.NotNil(t, paid.PaidAt)
		require.True(t, paidAt.Equal(*paid.PaidAt))

		_, err = repo.CompletePayment(ctx, "pay1", model.MethodCredit, paidAt)
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyPaid)

		stored, err := repo.GetPayment(ctx, "pay1")
		require.NoError(t, err)
		require.Equal(t, model.MethodPayPal, stored.Method)

		_, err = repo.CompletePayment(ctx, "missing", model.MethodCredit, paidAt)
		require.ErrorIs(t, err, auctionerrors.ErrPaymentNotFound)
		_, err = repo.GetPayment(ctx, "missing")
		require.ErrorIs(t, err, auctionerrors.ErrPaymentNotFound)
		_, err = repo.GetPaymentByAuction(ctx, b.AuctionID+"-missing")
		require.ErrorIs(t, err, auctionerrors.ErrPaymentNotFound)

		owed, err := repo.ListPaymentsByUser(ctx, "winner")
		require.NoError(t, err)
		require.Len(t, owed, 2)
		require.Equal(t, "pay4", owed[0].PaymentID)
		require.Equal(t, "pay1", owed[1].PaymentID)
	})

	t.Run("watchlist", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		seed(t, repo, "item1", "owner")
		seed(t, repo, "item2", "owner")

		require.NoError(t, repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "item1", AddedOn: t0}))
		require.NoError(t, repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "item2", AddedOn: t0.Add(time.Minute)}))
		require.NoError(t, repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u2", ItemID: "item1", AddedOn: t0}))

		err := repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "item1", AddedOn: t0})
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyWatching)
		err = repo.AddWatch(ctx, model.WatchlistEntry{UserID: "u1", ItemID: "missing", AddedOn: t0})
		require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

		entries, err := repo.ListWatchlist(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "item2", entries[0].ItemID)

		watchers, err := repo.ListWatchers(ctx, "item1")
		require.NoError(t, err)
		require.Equal(t, []string{"u1", "u2"}, watchers)

		require.NoError(t, repo.RemoveWatch(ctx, "u1", "item1"))
		require.ErrorIs(t, repo.RemoveWatch(ctx, "u1", "item1"), auctionerrors.ErrWatchNotFound)

		watchers, err = repo.ListWatchers(ctx, "item1")
		require.NoError(t, err)
		require.Equal(t, []string{"u2"}, watchers)
	})
}

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_CreateItem(t *testing.T) {
	tests := []struct {
		name          string
		ownerID       string
		itemName      string
		price         string
		expectedError error
	}{
		{name: "valid_item", ownerID: "seller", itemName: "Lamp", price: "10.00"},
		{name: "missing_owner", ownerID: "", itemName: "Lamp", price: "10.00", expectedError: auctionerrors.ErrInvalidItem},
		{name: "blank_name", ownerID: "seller", itemName: "   ", price: "10.00", expectedError: auctionerrors.ErrInvalidItem},
		{name: "zero_price", ownerID: "seller", itemName: "Lamp", price: "0", expectedError: auctionerrors.ErrInvalidItem},
		{name: "sub_cent_price", ownerID: "seller", itemName: "Lamp", price: "1.001", expectedError: auctionerrors.ErrInvalidItem},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewService(repository.NewMemoryRepo(), utils.NewManualClock(now))
			item, err := s.CreateItem(context.Background(), tc.ownerID, tc.itemName, "desc", money(tc.price))
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.True(t, utils.IsID(item.ItemID))
			require.Equal(t, tc.ownerID, item.OwnerID)
			require.Equal(t, now, item.CreatedAt)

			got, err := s.GetItem(context.Background(), item.ItemID)
			require.NoError(t, err)
			require.Equal(t, item.Name, got.Name)
		})
	}
}

func TestService_ListItemsNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := utils.NewManualClock(now)
	s := NewService(repository.NewMemoryRepo(), clock)

	first, err := s.CreateItem(ctx, "seller", "First", "", money("1.00"))
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := s.CreateItem(ctx, "seller", "Second", "", money("2.00"))
	require.NoError(t, err)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, second.ItemID, items[0].ItemID)
	require.Equal(t, first.ItemID, items[1].ItemID)

	_, err = s.GetItem(ctx, "")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidItem)
	_, err = s.GetItem(ctx, "missing")
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
}

func TestService_CreateAuction(t *testing.T) {
	tests := []struct {
		name          string
		requester     string
		req           AuctionRequest
		wantState     models.AuctionState
		wantBase      string
		expectedError error
	}{
		{
			name:      "starts_now_is_active",
			requester: "seller",
			req:       AuctionRequest{StartTime: now, EndTime: now.Add(time.Hour), BidIncrement: money("1.00")},
			wantState: models.StateActive,
			wantBase:  "25.00",
		},
		{
			name:      "future_start_is_pending",
			requester: "seller",
			req:       AuctionRequest{StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), BasePrice: money("30.00"), BidIncrement: money("1.00")},
			wantState: models.StatePending,
			wantBase:  "30.00",
		},
		{
			name:          "not_owner",
			requester:     "mallory",
			req:           AuctionRequest{StartTime: now, EndTime: now.Add(time.Hour), BidIncrement: money("1.00")},
			expectedError: auctionerrors.ErrNotOwner,
		},
		{
			name:          "base_below_item_price",
			requester:     "seller",
			req:           AuctionRequest{StartTime: now, EndTime: now.Add(time.Hour), BasePrice: money("20.00"), BidIncrement: money("1.00")},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "end_before_start",
			requester:     "seller",
			req:           AuctionRequest{StartTime: now, EndTime: now.Add(-time.Hour), BidIncrement: money("1.00")},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "already_ended",
			requester:     "seller",
			req:           AuctionRequest{StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), BidIncrement: money("1.00")},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "zero_increment",
			requester:     "seller",
			req:           AuctionRequest{StartTime: now, EndTime: now.Add(time.Hour)},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
		{
			name:          "negative_cap",
			requester:     "seller",
			req:           AuctionRequest{StartTime: now, EndTime: now.Add(time.Hour), BidIncrement: money("1.00"), MaxBidders: -1},
			expectedError: auctionerrors.ErrInvalidAuction,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			repo := repository.NewMemoryRepo()
			s := NewService(repo, utils.NewManualClock(now))
			item, err := s.CreateItem(ctx, "seller", "Lamp", "", money("25.00"))
			require.NoError(t, err)

			a, err := s.CreateAuction(ctx, tc.requester, item.ItemID, tc.req)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantState, a.State)
			require.True(t, money(tc.wantBase).Equal(a.BasePrice))
			require.Equal(t, models.DefaultMaxBidders, a.MaxBidders)
			require.Equal(t, "seller", a.OwnerID)

			// one auction per item
			_, err = s.CreateAuction(ctx, "seller", item.ItemID, tc.req)
			require.ErrorIs(t, err, auctionerrors.ErrAuctionExists)
		})
	}
}

func TestService_CreateAuctionStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionDB(ctrl)
	s := NewService(mockRepo, utils.NewManualClock(now))

	item := models.Item{ItemID: "item1", OwnerID: "seller", StartingPrice: money("5.00")}
	mockRepo.EXPECT().GetItem(gomock.Any(), "item1").Return(item, nil)
	mockRepo.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(auctionerrors.NewStorageError("create auction", errors.New("connection reset")))

	_, err := s.CreateAuction(context.Background(), "seller", "item1", AuctionRequest{
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		BidIncrement: money("1.00"),
	})
	require.True(t, auctionerrors.IsStorageError(err))

	mockRepo.EXPECT().GetItem(gomock.Any(), "missing").Return(models.Item{}, auctionerrors.ErrItemNotFound)
	_, err = s.CreateAuction(context.Background(), "seller", "missing", AuctionRequest{})
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)

	_, err = s.CreateAuction(context.Background(), "", "item1", AuctionRequest{})
	require.ErrorIs(t, err, auctionerrors.ErrInvalidAuction)
}

func TestService_UpdateItem(t *testing.T) {
	name := "Brass lamp"
	price := money("30.00")
	tooPrecise := money("30.001")

	tests := []struct {
		name          string
		requester     string
		changes       models.ItemChanges
		withAuction   bool
		expectedError error
	}{
		{name: "rename_and_reprice", requester: "seller", changes: models.ItemChanges{Name: &name, Price: &price}},
		{name: "not_owner", requester: "mallory", changes: models.ItemChanges{Name: &name}, expectedError: auctionerrors.ErrNotOwner},
		{name: "no_changes", requester: "seller", expectedError: auctionerrors.ErrInvalidItem},
		{name: "invalid_price", requester: "seller", changes: models.ItemChanges{Price: &tooPrecise}, expectedError: auctionerrors.ErrInvalidItem},
		{name: "auction_exists", requester: "seller", changes: models.ItemChanges{Price: &price}, withAuction: true, expectedError: auctionerrors.ErrItemHasAuction},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := NewService(repository.NewMemoryRepo(), utils.NewManualClock(now))
			item, err := s.CreateItem(ctx, "seller", "Lamp", "desc", money("25.00"))
			require.NoError(t, err)
			if tc.withAuction {
				_, err := s.CreateAuction(ctx, "seller", item.ItemID, AuctionRequest{
					StartTime:    now,
					EndTime:      now.Add(time.Hour),
					BidIncrement: money("1.00"),
				})
				require.NoError(t, err)
			}

			updated, err := s.UpdateItem(ctx, tc.requester, item.ItemID, tc.changes)
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)

				stored, err := s.GetItem(ctx, item.ItemID)
				require.NoError(t, err)
				require.Equal(t, "Lamp", stored.Name)
				require.True(t, money("25.00").Equal(stored.StartingPrice))
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Brass lamp", updated.Name)
			require.Equal(t, "desc", updated.Description)
			require.True(t, money("30.00").Equal(updated.StartingPrice))

			// the new price becomes the default base price
			a, err := s.CreateAuction(ctx, "seller", item.ItemID, AuctionRequest{
				StartTime:    now,
				EndTime:      now.Add(time.Hour),
				BidIncrement: money("1.00"),
			})
			require.NoError(t, err)
			require.True(t, money("30.00").Equal(a.BasePrice))
		})
	}
}

func TestService_DeleteItem(t *testing.T) {
	ctx := context.Background()
	s := NewService(repository.NewMemoryRepo(), utils.NewManualClock(now))

	withdrawn, err := s.CreateItem(ctx, "seller", "Lamp", "", money("25.00"))
	require.NoError(t, err)
	auctioned, err := s.CreateItem(ctx, "seller", "Chair", "", money("40.00"))
	require.NoError(t, err)
	_, err = s.CreateAuction(ctx, "seller", auctioned.ItemID, AuctionRequest{
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		BidIncrement: money("1.00"),
	})
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteItem(ctx, "mallory", withdrawn.ItemID), auctionerrors.ErrNotOwner)
	require.ErrorIs(t, s.DeleteItem(ctx, "seller", auctioned.ItemID), auctionerrors.ErrItemHasAuction)
	require.ErrorIs(t, s.DeleteItem(ctx, "", withdrawn.ItemID), auctionerrors.ErrInvalidItem)

	require.NoError(t, s.DeleteItem(ctx, "seller", withdrawn.ItemID))
	_, err = s.GetItem(ctx, withdrawn.ItemID)
	require.ErrorIs(t, err, auctionerrors.ErrItemNotFound)
	require.ErrorIs(t, s.DeleteItem(ctx, "seller", withdrawn.ItemID), auctionerrors.ErrItemNotFound)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, auctioned.ItemID, items[0].ItemID)
}

func TestService_UpdateItemStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionDB(ctrl)
	s := NewService(mockRepo, utils.NewManualClock(now))

	name := "Lamp v2"
	item := models.Item{ItemID: "item1", OwnerID: "seller", Name: "Lamp", StartingPrice: money("5.00")}
	mockRepo.EXPECT().GetItem(gomock.Any(), "item1").Return(item, nil)
	mockRepo.EXPECT().UpdateItem(gomock.Any(), gomock.Any()).Return(models.Item{}, auctionerrors.NewStorageError("update item", errors.New("connection reset")))

	_, err := s.UpdateItem(context.Background(), "seller", "item1", models.ItemChanges{Name: &name})
	require.True(t, auctionerrors.IsStorageError(err))
}

package handler

import (
	"net/http"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/lifecycle"
	"auction-house/internal/models"
	"auction-house/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newAuctionRouter(service AuctionServiceInterface) *gin.Engine {
	h := NewAuctionHandler(service)
	router := gin.New()
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", helpers.RequireIdentity, h.CancelAuctionHandler)
	return router
}

func sampleAuction() models.Auction {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Auction{
		AuctionID:       "a1",
		ItemID:          "item1",
		OwnerID:         "seller",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		BasePrice:       money("10"),
		BidIncrement:    money("0.5"),
		MaxBidders:      100,
		State:           models.StateActive,
		HighestBid:      decimal.NewNullDecimal(money("10.5")),
		HighestBidderID: "bob",
		BidCount:        2,
		BidderCount:     2,
		Version:         3,
	}
}

// Test GetAuctionHandler
func TestGetAuctionHandler(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data helpers.AuctionResponse)
	}{
		{
			name: "active_auction",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().GetAuction(gomock.Any(), "a1").Return(lifecycle.AuctionView{
					Auction:       sampleAuction(),
					State:         models.StateActive,
					TimeRemaining: 90 * time.Second,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validateData: func(t *testing.T, data helpers.AuctionResponse) {
				require.Equal(t, "active", data.State)
				require.Equal(t, int64(90), data.TimeRemainingSeconds)
				require.Equal(t, "11.00", data.MinimumBid)
				require.Equal(t, "10.50", *data.HighestBid)
				require.Equal(t, "bob", data.HighestBidderID)
				require.Equal(t, "2026-03-01T13:00:00Z", data.EndTime)
			},
		},
		{
			name: "effective_state_differs_from_stored",
			mockSetup: func(m *MockAuctionServiceInterface) {
				a := sampleAuction()
				a.State = models.StatePending
				m.EXPECT().GetAuction(gomock.Any(), "a1").Return(lifecycle.AuctionView{
					Auction:       a,
					State:         models.StateActive,
					TimeRemaining: time.Minute,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction retrieved successfully",
			validateData: func(t *testing.T, data helpers.AuctionResponse) {
				require.Equal(t, "active", data.State)
			},
		},
		{
			name: "not_found",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().GetAuction(gomock.Any(), "a1").Return(lifecycle.AuctionView{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, newAuctionRouter(mockService), http.MethodGet, "/auctions/a1", "", nil)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp.Message, tc.expectedMsg)
			if tc.validateData != nil {
				tc.validateData(t, decodeData[helpers.AuctionResponse](t, resp))
			}
		})
	}
}

// Test CancelAuctionHandler
func TestCancelAuctionHandler(t *testing.T) {
	tests := []struct {
		name           string
		caller         string
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "owner_cancels",
			caller: "seller",
			mockSetup: func(m *MockAuctionServiceInterface) {
				a := sampleAuction()
				a.State = models.StateCancelled
				a.BidCount, a.BidderCount, a.HighestBid = 0, 0, decimal.NullDecimal{}
				m.EXPECT().CancelAuction(gomock.Any(), "a1", "seller").Return(a, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction cancelled successfully",
		},
		{
			name:           "missing_identity",
			mockSetup:      func(m *MockAuctionServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "caller identity missing",
		},
		{
			name:   "not_owner",
			caller: "mallory",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CancelAuction(gomock.Any(), "a1", "mallory").Return(models.Auction{}, auctionerrors.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "only the item owner",
		},
		{
			name:   "has_bids",
			caller: "seller",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CancelAuction(gomock.Any(), "a1", "seller").Return(models.Auction{}, auctionerrors.ErrAuctionHasBids)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction with bids cannot be cancelled",
		},
		{
			name:   "already_terminal",
			caller: "seller",
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CancelAuction(gomock.Any(), "a1", "seller").Return(models.Auction{}, auctionerrors.ErrAuctionNotActive)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not active",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)

			w, resp := doRequest(t, newAuctionRouter(mockService), http.MethodPost, "/auctions/a1/cancel", tc.caller, nil)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp.Message, tc.expectedMsg)
			if w.Code == http.StatusOK {
				data := decodeData[helpers.AuctionResponse](t, resp)
				require.Equal(t, "cancelled", data.State)
				require.Zero(t, data.TimeRemainingSeconds)
			}
		})
	}
}

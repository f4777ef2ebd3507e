package helpers

import (
	"time"

	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs. Money is accepted as a JSON number or string and
// always returned as a string with two decimals.

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	ItemID    string `json:"item_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

func NewBidResponse(b models.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: b.AuctionID,
		ItemID:    b.ItemID,
		BidderID:  b.BidderID,
		Amount:    b.Amount.StringFixed(2),
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func NewBidResponses(bids []models.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

type CreateItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// UpdateItemRequest carries the fields to change; omitted fields are kept
type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

type ItemResponse struct {
	ItemID        string  `json:"item_id"`
	OwnerID       string  `json:"owner_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	StartingPrice string  `json:"starting_price"`
	HighestBid    *string `json:"highest_bid"`
	BidCount      int     `json:"bid_count"`
	CreatedAt     string  `json:"created_at"`
}

func NewItemResponse(item models.Item) ItemResponse {
	return ItemResponse{
		ItemID:        item.ItemID,
		OwnerID:       item.OwnerID,
		Name:          item.Name,
		Description:   item.Description,
		StartingPrice: item.StartingPrice.StringFixed(2),
		HighestBid:    nullMoney(item.HighestBid),
		BidCount:      item.BidCount,
		CreatedAt:     formatTime(item.CreatedAt),
	}
}

func NewItemResponses(items []models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewItemResponse(item))
	}
	return out
}

type CreateAuctionRequest struct {
	StartTime    time.Time       `json:"start_time" binding:"required"`
	EndTime      time.Time       `json:"end_time" binding:"required"`
	BasePrice    decimal.Decimal `json:"base_price"`
	BidIncrement decimal.Decimal `json:"bid_increment"`
	MaxBidders   int             `json:"max_bidders" binding:"gte=0"`
}

type AuctionResponse struct {
	AuctionID            string  `json:"auction_id"`
	ItemID               string  `json:"item_id"`
	OwnerID              string  `json:"owner_id"`
	State                string  `json:"state"`
	StartTime            string  `json:"start_time"`
	EndTime              string  `json:"end_time"`
	BasePrice            string  `json:"base_price"`
	BidIncrement         string  `json:"bid_increment"`
	MinimumBid           string  `json:"minimum_bid"`
	HighestBid           *string `json:"highest_bid"`
	HighestBidderID      string  `json:"highest_bidder_id,omitempty"`
	BidCount             int     `json:"bid_count"`
	BidderCount          int     `json:"bidder_count"`
	MaxBidders           int     `json:"max_bidders"`
	PaymentID            string  `json:"payment_id,omitempty"`
	TimeRemainingSeconds int64   `json:"time_remaining_seconds"`
}

// NewAuctionResponse renders a in its effective state
func NewAuctionResponse(a models.Auction, state models.AuctionState, remaining time.Duration) AuctionResponse {
	return AuctionResponse{
		AuctionID:            a.AuctionID,
		ItemID:               a.ItemID,
		OwnerID:              a.OwnerID,
		State:                string(state),
		StartTime:            formatTime(a.StartTime),
		EndTime:              formatTime(a.EndTime),
		BasePrice:            a.BasePrice.StringFixed(2),
		BidIncrement:         a.BidIncrement.StringFixed(2),
		MinimumBid:           a.MinimumBid().StringFixed(2),
		HighestBid:           nullMoney(a.HighestBid),
		HighestBidderID:      a.HighestBidderID,
		BidCount:             a.BidCount,
		BidderCount:          a.BidderCount,
		MaxBidders:           a.MaxBidders,
		PaymentID:            a.PaymentID,
		TimeRemainingSeconds: int64(remaining / time.Second),
	}
}

type PayRequest struct {
	Method string `json:"method" binding:"required"`
}

type PaymentResponse struct {
	PaymentID   string  `json:"payment_id"`
	AuctionID   string  `json:"auction_id"`
	PayerID     string  `json:"payer_id"`
	Amount      string  `json:"amount"`
	Method      string  `json:"method,omitempty"`
	IsCompleted bool    `json:"is_completed"`
	CreatedAt   string  `json:"created_at"`
	PaidAt      *string `json:"paid_at,omitempty"`
}

func NewPaymentResponse(p models.Payment) PaymentResponse {
	resp := PaymentResponse{
		PaymentID:   p.PaymentID,
		AuctionID:   p.AuctionID,
		PayerID:     p.PayerID,
		Amount:      p.Amount.StringFixed(2),
		Method:      string(p.Method),
		IsCompleted: p.IsCompleted,
		CreatedAt:   formatTime(p.CreatedAt),
	}
	if p.PaidAt != nil {
		paid := formatTime(*p.PaidAt)
		resp.PaidAt = &paid
	}
	return resp
}

func NewPaymentResponses(payments []models.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"omitempty,oneof=bidder seller"`
}

type WatchRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

type WatchlistResponse struct {
	UserID  string `json:"user_id"`
	ItemID  string `json:"item_id"`
	AddedOn string `json:"added_on"`
}

func NewWatchlistResponses(entries []models.WatchlistEntry) []WatchlistResponse {
	out := make([]WatchlistResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewWatchlistResponse(e))
	}
	return out
}

func NewWatchlistResponse(e models.WatchlistEntry) WatchlistResponse {
	return WatchlistResponse{UserID: e.UserID, ItemID: e.ItemID, AddedOn: formatTime(e.AddedOn)}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

package models

import (
	"fmt"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/shopspring/decimal"
)

// Role is the marketplace role chosen at registration
type Role string

const (
	RoleBidder Role = "bidder"
	RoleSeller Role = "seller"
)

// User represents a participant in the auction
type User struct {
	UserID    string    `json:"user_id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Profile holds the marketplace settings of a user
type Profile struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Item represents an auction item. HighestBid and BidCount are derived
// from accepted bids and are never set by clients.
type Item struct {
	ItemID        string              `json:"item_id" db:"id"`
	Name          string              `json:"name" db:"name"`
	Description   string              `json:"description" db:"description"`
	StartingPrice decimal.Decimal     `json:"starting_price" db:"price"`
	OwnerID       string              `json:"owner_id" db:"owner_id"`
	HighestBid    decimal.NullDecimal `json:"highest_bid" db:"highest_bid"`
	BidCount      int                 `json:"bid_count" db:"bid_count"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}

// Bid represents a user's bid on an auction. Bids are append-only.
type Bid struct {
	BidID     string          `json:"bid_id" db:"id"`
	AuctionID string          `json:"auction_id" db:"auction_id"`
	ItemID    string          `json:"item_id" db:"item_id"`
	BidderID  string          `json:"bidder_id" db:"bidder_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// WatchlistEntry is a (user, item) pair
type WatchlistEntry struct {
	UserID  string    `json:"user_id" db:"user_id"`
	ItemID  string    `json:"item_id" db:"item_id"`
	AddedOn time.Time `json:"added_on" db:"added_on"`
}

const maxNameLength = 255

// ValidMoney reports whether d is a positive amount with at most two
// fractional digits.
func ValidMoney(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2))
}

// NewUser builds a user after validating its fields
func NewUser(id, username, email string, now time.Time) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if id == "" {
		return User{}, fmt.Errorf("%w: empty id", auctionerrors.ErrInvalidUser)
	}
	if username == "" || len(username) > 150 {
		return User{}, fmt.Errorf("%w: username is required and at most 150 characters", auctionerrors.ErrInvalidUser)
	}
	if email != "" && !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: malformed email %q", auctionerrors.ErrInvalidUser, email)
	}
	return User{UserID: id, Username: username, Email: email, CreatedAt: now}, nil
}

// NewProfile builds the profile of a freshly registered user. An empty
// role defaults to bidder.
func NewProfile(userID string, role Role, now time.Time) (Profile, error) {
	if role == "" {
		role = RoleBidder
	}
	if role != RoleBidder && role != RoleSeller {
		return Profile{}, fmt.Errorf("%w: unknown role %q", auctionerrors.ErrInvalidUser, role)
	}
	return Profile{UserID: userID, Role: role, CreatedAt: now, UpdatedAt: now}, nil
}

// ItemChanges are the owner-editable fields of an item; a nil field is
// left unchanged
type ItemChanges struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// IsEmpty reports whether no field is set
func (c ItemChanges) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Price == nil
}

// Apply returns item with the changes applied and revalidated. Identity,
// ownership and bid state are kept.
func (c ItemChanges) Apply(item Item) (Item, error) {
	if c.IsEmpty() {
		return Item{}, fmt.Errorf("%w: nothing to update", auctionerrors.ErrInvalidItem)
	}

	name, description, price := item.Name, item.Description, item.StartingPrice
	if c.Name != nil {
		name = *c.Name
	}
	if c.Description != nil {
		description = *c.Description
	}
	if c.Price != nil {
		price = *c.Price
	}

	updated, err := NewItem(item.ItemID, item.OwnerID, name, description, price, item.CreatedAt)
	if err != nil {
		return Item{}, err
	}
	updated.HighestBid = item.HighestBid
	updated.BidCount = item.BidCount
	return updated, nil
}

// NewItem builds an item listing
func NewItem(id, ownerID, name, description string, price decimal.Decimal, now time.Time) (Item, error) {
	name = strings.TrimSpace(name)
	switch {
	case id == "" || ownerID == "":
		return Item{}, fmt.Errorf("%w: missing id or owner", auctionerrors.ErrInvalidItem)
	case name == "" || len(name) > maxNameLength:
		return Item{}, fmt.Errorf("%w: name is required and at most %d characters", auctionerrors.ErrInvalidItem, maxNameLength)
	case !ValidMoney(price):
		return Item{}, fmt.Errorf("%w: price must be positive with at most two decimals", auctionerrors.ErrInvalidItem)
	}
	return Item{
		ItemID:        id,
		Name:          name,
		Description:   description,
		StartingPrice: price,
		OwnerID:       ownerID,
		CreatedAt:     now,
	}, nil
}

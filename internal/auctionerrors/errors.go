package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrItemNotFound     = errors.New("item not found")
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNoBids           = errors.New("no bids found for item")
	ErrVersionConflict  = errors.New("auction was modified concurrently")
	ErrDuplicateBid     = errors.New("identical bid already placed by this bidder")
	ErrAuctionExists    = errors.New("item already has an auction")
	ErrItemHasAuction   = errors.New("item with an auction cannot be changed")
	ErrPaymentExists    = errors.New("auction already has a payment obligation")
	ErrUserExists       = errors.New("username already taken")
	ErrAlreadyWatching  = errors.New("item already on watchlist")
	ErrWatchNotFound    = errors.New("item not on watchlist")
	ErrInvalidAuction   = errors.New("invalid auction")
	ErrInvalidItem      = errors.New("invalid item")
	ErrInvalidUser      = errors.New("invalid user")
	ErrInvalidPayment   = errors.New("invalid payment")
	ErrInvalidWatchlist = errors.New("invalid watchlist entry")
)

// business logic errors
var (
	ErrInvalidBid        = errors.New("invalid bid")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrAuctionExpired    = errors.New("auction has expired")
	ErrAuctionNotExpired = errors.New("auction has not reached its end time")
	ErrSelfBidNotAllowed = errors.New("owner cannot bid on own item")
	ErrBidderCapExceeded = errors.New("auction reached its maximum number of bidders")
	ErrConcurrentUpdate  = errors.New("auction is under heavy contention, resubmit the bid")
	ErrAuctionHasBids    = errors.New("auction with bids cannot be cancelled")
	ErrNotOwner          = errors.New("only the item owner may perform this action")
	ErrAlreadyPaid       = errors.New("payment already completed")
	ErrNotPayer          = errors.New("only the payer may complete this payment")
	ErrMissingIdentity   = errors.New("caller identity missing")
)

// StorageError reports a persistence failure. It is fatal to the single
// operation that hit it; nothing written by that operation is visible.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader carries the caller identity set by the authentication proxy
	UserIDHeader = "X-User-ID"

	callerKey = "caller_id"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrMissingIdentity):
		return http.StatusUnauthorized, "caller identity missing"

	case errors.Is(err, auctionerrors.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrPaymentNotFound):
		return http.StatusNotFound, "payment not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusNotFound, "no bids found for item"
	case errors.Is(err, auctionerrors.ErrWatchNotFound):
		return http.StatusNotFound, "item not on watchlist"

	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidItem):
		return http.StatusBadRequest, "invalid item details"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, auctionerrors.ErrInvalidUser):
		return http.StatusBadRequest, "invalid user details"
	case errors.Is(err, auctionerrors.ErrInvalidPayment):
		return http.StatusBadRequest, "invalid payment details"
	case errors.Is(err, auctionerrors.ErrInvalidWatchlist):
		return http.StatusBadRequest, "invalid watchlist entry"

	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "only the item owner may perform this action"
	case errors.Is(err, auctionerrors.ErrNotPayer):
		return http.StatusForbidden, "only the payer may complete this payment"
	case errors.Is(err, auctionerrors.ErrSelfBidNotAllowed):
		return http.StatusForbidden, "owner cannot bid on own item"

	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrAuctionExpired):
		return http.StatusConflict, "auction has expired"
	case errors.Is(err, auctionerrors.ErrBidderCapExceeded):
		return http.StatusConflict, "auction reached its maximum number of bidders"
	case errors.Is(err, auctionerrors.ErrConcurrentUpdate):
		return http.StatusConflict, "auction is busy, resubmit the bid"
	case errors.Is(err, auctionerrors.ErrDuplicateBid):
		return http.StatusConflict, "identical bid already placed"
	case errors.Is(err, auctionerrors.ErrAuctionHasBids):
		return http.StatusConflict, "auction with bids cannot be cancelled"
	case errors.Is(err, auctionerrors.ErrAuctionExists):
		return http.StatusConflict, "item already has an auction"
	case errors.Is(err, auctionerrors.ErrItemHasAuction):
		return http.StatusConflict, "item with an auction cannot be changed"
	case errors.Is(err, auctionerrors.ErrAlreadyPaid):
		return http.StatusConflict, "payment already completed"
	case errors.Is(err, auctionerrors.ErrUserExists):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, auctionerrors.ErrAlreadyWatching):
		return http.StatusConflict, "item already on watchlist"

	case auctionerrors.IsStorageError(err):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes the mapped error response and logs it. Server side
// failures log at error level, client errors at warn.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// RequireIdentity rejects requests without a caller identity and stores it
// for CallerID
func RequireIdentity(c *gin.Context) {
	callerID := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if callerID == "" {
		utils.AbortWithJSONError(c, http.StatusUnauthorized, auctionerrors.ErrMissingIdentity, "caller identity missing")
		return
	}
	c.Set(callerKey, callerID)
	c.Next()
}

// CallerID returns the identity stored by RequireIdentity
func CallerID(c *gin.Context) (string, error) {
	if id := c.GetString(callerKey); id != "" {
		return id, nil
	}
	return "", auctionerrors.ErrMissingIdentity
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/locker"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Hook is told about every persisted state transition
type Hook interface {
	AuctionTransitioned(ctx context.Context, auction models.Auction, from, to models.AuctionState)
}

// Ledger records the settlement obligation of a won auction
type Ledger interface {
	RecordObligation(ctx context.Context, auctionID, payerID string, amount decimal.Decimal) (models.Payment, error)
	GetPaymentForAuction(ctx context.Context, auctionID string) (models.Payment, error)
}

// AuctionView is an auction as seen at a point in time
type AuctionView struct {
	Auction       models.Auction
	State         models.AuctionState
	TimeRemaining time.Duration
}

// Machine drives auctions through pending, active, closed and their
// terminal states. It shares the per-auction lock with the bidding engine.
type Machine struct {
	repo   repository.AuctionStore
	ledger Ledger
	hook   Hook
	locks  *locker.Keyed
	clock  utils.Clock
}

// NewMachine creates a new lifecycle Machine. hook may be nil.
func NewMachine(repo repository.AuctionStore, ledger Ledger, hook Hook, locks *locker.Keyed, clock utils.Clock) *Machine {
	return &Machine{
		repo:   repo,
		ledger: ledger,
		hook:   hook,
		locks:  locks,
		clock:  clock,
	}
}

// StateAt is the effective state of a at now. Terminal and closed states
// are returned as stored; otherwise the state follows the auction window.
func StateAt(a models.Auction, now time.Time) models.AuctionState {
	if a.State.IsTerminal() || a.State == models.StateClosed {
		return a.State
	}
	switch {
	case now.Before(a.StartTime):
		return models.StatePending
	case now.Before(a.EndTime):
		return models.StateActive
	default:
		return models.StateClosed
	}
}

// StateAt is the effective state of a on the machine's clock
func (m *Machine) StateAt(a models.Auction) models.AuctionState {
	return StateAt(a, m.clock.Now())
}

// GetAuction returns the auction with its effective state and time
// remaining. An expired auction is closed first.
func (m *Machine) GetAuction(ctx context.Context, auctionID string) (AuctionView, error) {
	if auctionID == "" {
		return AuctionView{}, fmt.Errorf("lifecycle: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	a, err := m.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return AuctionView{}, fmt.Errorf("lifecycle: failed to get auction %s: %w", auctionID, err)
	}

	if !a.State.IsTerminal() && m.StateAt(a) == models.StateClosed {
		closed, err := m.CloseAuction(ctx, auctionID)
		if err != nil {
			utils.Warn("lifecycle: lazy close failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		} else {
			a = closed
		}
	}

	now := m.clock.Now()
	return AuctionView{
		Auction:       a,
		State:         StateAt(a, now),
		TimeRemaining: a.TimeRemaining(now),
	}, nil
}

// ActivateAuction persists pending -> active once the start time passed
func (m *Machine) ActivateAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	unlock := m.locks.Lock(auctionID)
	defer unlock()

	a, err := m.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("lifecycle: failed to get auction %s: %w", auctionID, err)
	}
	if a.State != models.StatePending {
		return a, nil
	}

	switch m.StateAt(a) {
	case models.StatePending:
		return models.Auction{}, fmt.Errorf("lifecycle: auction %s starts at %s: %w",
			auctionID, a.StartTime.Format(time.RFC3339), auctionerrors.ErrAuctionNotActive)
	case models.StateClosed:
		return models.Auction{}, fmt.Errorf("lifecycle: auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}

	return m.transitionLocked(ctx, a, models.StateActive)
}

// CloseAuction closes an expired auction and settles it: a payment
// obligation for the highest bidder, or closed_unsold without bids.
// Calling it on a terminal auction returns the auction unchanged.
func (m *Machine) CloseAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	unlock := m.locks.Lock(auctionID)
	defer unlock()

	a, err := m.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("lifecycle: failed to get auction %s: %w", auctionID, err)
	}
	if a.State.IsTerminal() {
		return a, nil
	}

	if a.State != models.StateClosed {
		if m.StateAt(a) != models.StateClosed {
			return models.Auction{}, fmt.Errorf("lifecycle: auction %s ends at %s: %w",
				auctionID, a.EndTime.Format(time.RFC3339), auctionerrors.ErrAuctionNotExpired)
		}
		if a, err = m.transitionLocked(ctx, a, models.StateClosed); err != nil {
			return models.Auction{}, err
		}
	}

	return m.settleLocked(ctx, a)
}

// settleLocked moves a closed auction to its terminal state. An
// obligation recorded by an interrupted earlier attempt is reused.
func (m *Machine) settleLocked(ctx context.Context, a models.Auction) (models.Auction, error) {
	if !a.HasBids() {
		return m.transitionLocked(ctx, a, models.StateClosedUnsold)
	}

	p, err := m.ledger.RecordObligation(ctx, a.AuctionID, a.HighestBidderID, a.HighestBid.Decimal)
	if errors.Is(err, auctionerrors.ErrPaymentExists) {
		p, err = m.ledger.GetPaymentForAuction(ctx, a.AuctionID)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("lifecycle: failed to settle auction %s: %w", a.AuctionID, err)
	}

	a.PaymentID = p.PaymentID
	return m.transitionLocked(ctx, a, models.StateSettled)
}

// CancelAuction cancels a pending or active auction that has no bids.
// Only the owner may cancel.
func (m *Machine) CancelAuction(ctx context.Context, auctionID, requesterID string) (models.Auction, error) {
	if auctionID == "" || requesterID == "" {
		return models.Auction{}, fmt.Errorf("lifecycle: %w - missing auctionID or requesterID", auctionerrors.ErrInvalidAuction)
	}

	unlock := m.locks.Lock(auctionID)
	defer unlock()

	a, err := m.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("lifecycle: failed to get auction %s: %w", auctionID, err)
	}
	if a.OwnerID != requesterID {
		return models.Auction{}, fmt.Errorf("lifecycle: cancel auction %s: %w", auctionID, auctionerrors.ErrNotOwner)
	}

	switch state := m.StateAt(a); {
	case state.IsTerminal():
		return models.Auction{}, fmt.Errorf("lifecycle: cancel auction %s in state %s: %w", auctionID, state, auctionerrors.ErrAuctionNotActive)
	case state == models.StateClosed:
		return models.Auction{}, fmt.Errorf("lifecycle: cancel auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}
	if a.HasBids() {
		return models.Auction{}, fmt.Errorf("lifecycle: cancel auction %s: %w", auctionID, auctionerrors.ErrAuctionHasBids)
	}

	return m.transitionLocked(ctx, a, models.StateCancelled)
}

// CloseExpiredAuctions activates the auctions whose start passed, closes
// the expired ones and resumes interrupted settlements. It returns how
// many auctions reached a terminal state. A failing auction never stops
// the sweep; all failures are returned together.
func (m *Machine) CloseExpiredAuctions(ctx context.Context) (int, error) {
	open, err := m.repo.ListOpenAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: failed to list open auctions: %w", err)
	}

	var (
		closed int
		errs   error
	)
	for _, a := range open {
		if ctx.Err() != nil {
			return closed, multierr.Append(errs, ctx.Err())
		}

		switch m.StateAt(a) {
		case models.StateActive:
			if a.State == models.StatePending {
				_, err := m.ActivateAuction(ctx, a.AuctionID)
				errs = multierr.Append(errs, err)
			}
		case models.StateClosed:
			done, err := m.CloseAuction(ctx, a.AuctionID)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if done.State.IsTerminal() {
				closed++
			}
		}
	}

	if errs != nil {
		utils.Warn("lifecycle: sweep finished with errors", map[string]any{
			"closed": closed,
			"failed": len(multierr.Errors(errs)),
		})
	}
	return closed, errs
}

// transitionLocked persists a in state to and notifies the hook. The
// caller holds the auction's lock.
func (m *Machine) transitionLocked(ctx context.Context, a models.Auction, to models.AuctionState) (models.Auction, error) {
	from := a.State
	a.State = to
	a.UpdatedAt = m.clock.Now()

	updated, err := m.repo.UpdateAuction(ctx, a, a.Version)
	if err != nil {
		return models.Auction{}, fmt.Errorf("lifecycle: failed to move auction %s from %s to %s: %w", a.AuctionID, from, to, err)
	}

	utils.Info("lifecycle: auction transitioned", map[string]any{
		"auction_id": a.AuctionID,
		"item_id":    a.ItemID,
		"from":       string(from),
		"to":         string(to),
	})
	if m.hook != nil {
		m.hook.AuctionTransitioned(ctx, updated, from, to)
	}
	return updated, nil
}

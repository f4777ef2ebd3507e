package perftests

import (
	"context"
	"fmt"
	"time"

	bidding "auction-house/internal/biddingService"
	"auction-house/internal/ledger"
	"auction-house/internal/lifecycle"
	"auction-house/internal/locker"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"

	"github.com/shopspring/decimal"
)

var opening = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// uncapped keeps the bidder cap out of the measurements
const uncapped = 1 << 30

// engine is the bidding service and lifecycle machine over one memory
// store, sharing one locker and one clock
type engine struct {
	repo    *repository.MemoryRepo
	clock   *utils.ManualClock
	machine *lifecycle.Machine
	svc     *bidding.BiddingService
}

// setupEngine creates numAuctions running auctions over a memory store.
// Item i is "item_i" and its auction "auction_i"; the clock sits inside
// every auction window.
func setupEngine(numAuctions int, basePrice int64) (*repository.MemoryRepo, *bidding.BiddingService) {
	e := newEngine(numAuctions, basePrice)
	return e.repo, e.svc
}

func newEngine(numAuctions int, basePrice int64) *engine {
	ctx := context.Background()
	repo := repository.NewMemoryRepo()
	clock := utils.NewManualClock(opening.Add(time.Minute))
	locks := locker.New()
	machine := lifecycle.NewMachine(repo, ledger.NewLedger(repo, clock), nil, locks, clock)
	svc := bidding.NewBiddingService(repo, locks, machine, clock, bidding.DefaultMaxBidAttempts)

	for i := 0; i < numAuctions; i++ {
		item, err := model.NewItem(fmt.Sprintf("item_%d", i), "seller", fmt.Sprintf("title_%d", i), "Load test item", decimal.NewFromInt(basePrice), opening)
		if err != nil {
			panic(err)
		}
		repo.AddItem(item)

		a, err := model.NewAuction(fmt.Sprintf("auction_%d", i), item, model.AuctionParams{
			StartTime:    opening,
			EndTime:      opening.Add(24 * time.Hour),
			BidIncrement: decimal.NewFromInt(1),
			MaxBidders:   uncapped,
		}, opening)
		if err != nil {
			panic(err)
		}
		if err := repo.CreateAuction(ctx, a); err != nil {
			panic(err)
		}
	}
	return &engine{repo: repo, clock: clock, machine: machine, svc: svc}
}

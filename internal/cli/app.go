package cli

import (
	"context"
	"fmt"

	bidding "auction-house/internal/biddingService"
	"auction-house/internal/catalog"
	"auction-house/internal/config"
	"auction-house/internal/ledger"
	"auction-house/internal/lifecycle"
	"auction-house/internal/locker"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/users"
	"auction-house/internal/watchlist"
	"auction-house/utils"
)

// app is the wired engine over one store
type app struct {
	repo      repository.AuctionDB
	machine   *lifecycle.Machine
	bidding   *bidding.BiddingService
	catalog   *catalog.Service
	users     *users.Service
	ledger    *ledger.Ledger
	watchlist *watchlist.Service
	close     func() error
}

// openStore opens the configured store. SQL stores are migrated first.
func openStore(ctx context.Context, cfg config.Config) (repository.AuctionDB, func() error, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		return repository.NewMemoryRepo(), func() error { return nil }, nil
	}

	repo, err := repository.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

// newApp wires every service over the configured store. The bidding
// engine and the lifecycle machine share one locker.
func newApp(ctx context.Context, cfg config.Config, clock utils.Clock) (*app, error) {
	repo, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	locks := locker.New()
	l := ledger.NewLedger(repo, clock)
	w := watchlist.NewService(repo, clock)
	m := lifecycle.NewMachine(repo, l, w, locks, clock)

	utils.Info("app: engine ready", map[string]any{"driver": cfg.DatabaseDriver})
	return &app{
		repo:      repo,
		machine:   m,
		bidding:   bidding.NewBiddingService(repo, locks, m, clock, cfg.MaxBidAttempts),
		catalog:   catalog.NewService(repo, clock),
		users:     users.NewService(repo, clock),
		ledger:    l,
		watchlist: w,
		close:     closeFn,
	}, nil
}

// services exposes the app to the REST layer
func (a *app) services() server.Services {
	return server.Services{
		Bidding:   a.bidding,
		Auctions:  a.machine,
		Catalog:   a.catalog,
		Payments:  a.ledger,
		Users:     a.users,
		Watchlist: a.watchlist,
	}
}

// Close releases the store
func (a *app) Close() error {
	if err := a.close(); err != nil {
		return fmt.Errorf("app: close store: %w", err)
	}
	return nil
}

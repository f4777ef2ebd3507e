package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

// goose keeps its dialect and filesystem in package globals
var gooseMu sync.Mutex

const (
	itemColumns    = `id, name, description, price, owner_id, highest_bid, bid_count, created_at`
	auctionColumns = `id, item_id, owner_id, start_time, end_time, base_price, bid_increment, max_bidders, state,
		highest_bid, highest_bidder_id, highest_bid_id, bid_count, bidder_count, payment_id, version, created_at, updated_at`
	bidColumns     = `id, auction_id, item_id, bidder_id, amount, created_at`
	paymentColumns = `id, auction_id, payer_id, amount, method, is_completed, created_at, paid_at`
)

// SQLRepo implements AuctionDB on top of postgres or sqlite through sqlx
type SQLRepo struct {
	db *sqlx.DB
}

// NewSQLRepo wraps an open connection
func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

// OpenSQL connects to the database behind dsn
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepo, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("open database: unsupported driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, auctionerrors.NewStorageError("connect", err)
	}
	if driver == DriverSQLite {
		// one writer at a time, transactions must not wait on each other
		db.SetMaxOpenConns(1)
	}
	return NewSQLRepo(db), nil
}

// Close releases the connection pool
func (r *SQLRepo) Close() error {
	return r.db.Close()
}

// Migrate applies the embedded schema migrations for the current driver
func (r *SQLRepo) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dialect := r.db.DriverName()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(utils.Logger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, r.db.DB, path.Join("migrations", dialect)); err != nil {
		return auctionerrors.NewStorageError("migrate", err)
	}
	return nil
}

func (r *SQLRepo) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return auctionerrors.NewStorageError(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			utils.Warn("repository: rollback failed", map[string]any{"op": op, "error": rbErr.Error()})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return auctionerrors.NewStorageError(op, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// translate maps driver errors to domain errors: missing rows become
// notFound, unique violations become conflict, everything else a StorageError
func translate(op string, err, notFound, conflict error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, notFound)
	case conflict != nil && isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, conflict)
	default:
		return auctionerrors.NewStorageError(op, err)
	}
}

// CreateUser stores a user and its profile in one transaction
func (r *SQLRepo) CreateUser(ctx context.Context, user model.User, profile model.Profile) error {
	return r.withTx(ctx, "create user", func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO users (id, username, email, created_at) VALUES (?, ?, ?, ?)`),
			user.UserID, user.Username, user.Email, user.CreatedAt)
		if err != nil {
			return translate("create user "+user.Username, err, nil, auctionerrors.ErrUserExists)
		}
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO profiles (user_id, role, created_at, updated_at) VALUES (?, ?, ?, ?)`),
			profile.UserID, profile.Role, profile.CreatedAt, profile.UpdatedAt)
		return translate("create profile "+user.UserID, err, nil, auctionerrors.ErrUserExists)
	})
}

// GetUser returns a user and its profile
func (r *SQLRepo) GetUser(ctx context.Context, userID string) (model.User, model.Profile, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT id, username, email, created_at FROM users WHERE id = ?`), userID)
	if err != nil {
		return model.User{}, model.Profile{}, translate("get user "+userID, err, auctionerrors.ErrUserNotFound, nil)
	}
	var profile model.Profile
	err = r.db.GetContext(ctx, &profile, r.db.Rebind(`SELECT user_id, role, created_at, updated_at FROM profiles WHERE user_id = ?`), userID)
	if err != nil {
		return model.User{}, model.Profile{}, translate("get profile "+userID, err, auctionerrors.ErrUserNotFound, nil)
	}
	return user, profile, nil
}

// CreateItem stores a new item listing
func (r *SQLRepo) CreateItem(ctx context.Context, item model.Item) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		item.ItemID, item.Name, item.Description, item.StartingPrice, item.OwnerID, item.HighestBid, item.BidCount, item.CreatedAt)
	return translate("create item "+item.ItemID, err, nil, auctionerrors.ErrInvalidItem)
}

// GetItem returns an item by id
func (r *SQLRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	var item model.Item
	err := r.db.GetContext(ctx, &item, r.db.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), itemID)
	if err != nil {
		return model.Item{}, translate("get item "+itemID, err, auctionerrors.ErrItemNotFound, nil)
	}
	return item, nil
}

// UpdateItem replaces the listing fields of an item without an auction
func (r *SQLRepo) UpdateItem(ctx context.Context, item model.Item) (model.Item, error) {
	var updated model.Item
	err := r.withTx(ctx, "update item", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE items SET name = ?, description = ?, price = ?
			WHERE id = ? AND NOT EXISTS (SELECT 1 FROM auctions WHERE item_id = ?)`),
			item.Name, item.Description, item.StartingPrice, item.ItemID, item.ItemID)
		if err != nil {
			return translate("update item "+item.ItemID, err, nil, nil)
		}
		if err := checkItemEditable(ctx, tx, res, item.ItemID); err != nil {
			return err
		}
		err = tx.GetContext(ctx, &updated, tx.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), item.ItemID)
		return translate("update item "+item.ItemID, err, auctionerrors.ErrItemNotFound, nil)
	})
	if err != nil {
		return model.Item{}, err
	}
	return updated, nil
}

// DeleteItem removes an item without an auction along with its watchlist
// entries
func (r *SQLRepo) DeleteItem(ctx context.Context, itemID string) error {
	return r.withTx(ctx, "delete item", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM watchlist WHERE item_id = ?`), itemID); err != nil {
			return translate("delete watchlist of item "+itemID, err, nil, nil)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			DELETE FROM items
			WHERE id = ? AND NOT EXISTS (SELECT 1 FROM auctions WHERE item_id = ?)`), itemID, itemID)
		if err != nil {
			return translate("delete item "+itemID, err, nil, nil)
		}
		return checkItemEditable(ctx, tx, res, itemID)
	})
}

// checkItemEditable tells an item guarded by its auction apart from a
// missing one when a guarded write touched no row
func checkItemEditable(ctx context.Context, tx *sqlx.Tx, res sql.Result, itemID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return auctionerrors.NewStorageError("rows affected", err)
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(1) FROM items WHERE id = ?`), itemID); err != nil {
		return translate("check item "+itemID, err, nil, nil)
	}
	if exists == 0 {
		return fmt.Errorf("item %s: %w", itemID, auctionerrors.ErrItemNotFound)
	}
	return fmt.Errorf("item %s: %w", itemID, auctionerrors.ErrItemHasAuction)
}

// ListItems returns all items, newest first
func (r *SQLRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate("list items", err, nil, nil)
	}
	return items, nil
}

// GetItemsByUser returns all items a user has bid on, newest first
func (r *SQLRepo) GetItemsByUser(ctx context.Context, userID string) ([]model.Item, error) {
	items := []model.Item{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT `+itemColumns+` FROM items
		WHERE id IN (SELECT item_id FROM bids WHERE bidder_id = ?)
		ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, translate("get items for user "+userID, err, nil, nil)
	}
	return items, nil
}

// CreateAuction stores a new auction; an item holds at most one
func (r *SQLRepo) CreateAuction(ctx context.Context, a model.Auction) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("create auction: %w", err)
	}
	return r.withTx(ctx, "create auction", func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(1) FROM items WHERE id = ?`), a.ItemID)
		if err != nil {
			return translate("create auction", err, nil, nil)
		}
		if exists == 0 {
			return fmt.Errorf("create auction for item %s: %w", a.ItemID, auctionerrors.ErrItemNotFound)
		}
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO auctions (`+auctionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			a.AuctionID, a.ItemID, a.OwnerID, a.StartTime, a.EndTime, a.BasePrice, a.BidIncrement, a.MaxBidders, a.State,
			a.HighestBid, a.HighestBidderID, a.HighestBidID, a.BidCount, a.BidderCount, a.PaymentID, a.Version, a.CreatedAt, a.UpdatedAt)
		return translate("create auction for item "+a.ItemID, err, nil, auctionerrors.ErrAuctionExists)
	})
}

// GetAuction returns an auction by id
func (r *SQLRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	var a model.Auction
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+auctionColumns+` FROM auctions WHERE id = ?`), auctionID)
	if err != nil {
		return model.Auction{}, translate("get auction "+auctionID, err, auctionerrors.ErrAuctionNotFound, nil)
	}
	return a, nil
}

// GetAuctionByItem returns the auction of an item
func (r *SQLRepo) GetAuctionByItem(ctx context.Context, itemID string) (model.Auction, error) {
	var a model.Auction
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+auctionColumns+` FROM auctions WHERE item_id = ?`), itemID)
	if err != nil {
		return model.Auction{}, translate("get auction for item "+itemID, err, auctionerrors.ErrAuctionNotFound, nil)
	}
	return a, nil
}

// ListOpenAuctions returns the auctions that are not in a terminal state
func (r *SQLRepo) ListOpenAuctions(ctx context.Context) ([]model.Auction, error) {
	auctions := []model.Auction{}
	err := r.db.SelectContext(ctx, &auctions, r.db.Rebind(`
		SELECT `+auctionColumns+` FROM auctions
		WHERE state IN (?, ?, ?)
		ORDER BY end_time`), model.StatePending, model.StateActive, model.StateClosed)
	if err != nil {
		return nil, translate("list open auctions", err, nil, nil)
	}
	return auctions, nil
}

// UpdateAuction persists the lifecycle fields of an auction if its stored
// version still equals expectedVersion
func (r *SQLRepo) UpdateAuction(ctx context.Context, a model.Auction, expectedVersion int64) (model.Auction, error) {
	if err := a.Validate(); err != nil {
		return model.Auction{}, fmt.Errorf("update auction: %w", err)
	}
	a.Version = expectedVersion + 1
	err := r.withTx(ctx, "update auction", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE auctions SET state = ?, payment_id = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?`),
			a.State, a.PaymentID, a.Version, a.UpdatedAt, a.AuctionID, expectedVersion)
		if err != nil {
			return translate("update auction "+a.AuctionID, err, nil, nil)
		}
		return checkSwapped(ctx, tx, res, a.AuctionID)
	})
	if err != nil {
		return model.Auction{}, err
	}
	return a, nil
}

// checkSwapped tells a lost compare-and-swap apart from a missing auction
func checkSwapped(ctx context.Context, tx *sqlx.Tx, res sql.Result, auctionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return auctionerrors.NewStorageError("rows affected", err)
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(1) FROM auctions WHERE id = ?`), auctionID); err != nil {
		return translate("check auction "+auctionID, err, nil, nil)
	}
	if exists == 0 {
		return fmt.Errorf("auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return fmt.Errorf("auction %s: %w", auctionID, auctionerrors.ErrVersionConflict)
}

// RecordBid appends bid and stores the auction state derived from it in
// one transaction. The auction row is written first so concurrent writers
// queue on its lock.
func (r *SQLRepo) RecordBid(ctx context.Context, bid model.Bid, a model.Auction, expectedVersion int64) (model.Auction, error) {
	if err := a.Validate(); err != nil {
		return model.Auction{}, fmt.Errorf("record bid: %w", err)
	}
	a.Version = expectedVersion + 1
	err := r.withTx(ctx, "record bid", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE auctions SET state = ?, highest_bid = ?, highest_bidder_id = ?, highest_bid_id = ?,
				bid_count = ?, bidder_count = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?`),
			a.State, a.HighestBid, a.HighestBidderID, a.HighestBidID,
			a.BidCount, a.BidderCount, a.Version, a.UpdatedAt, a.AuctionID, expectedVersion)
		if err != nil {
			return translate("record bid: update auction "+a.AuctionID, err, nil, nil)
		}
		if err := checkSwapped(ctx, tx, res, a.AuctionID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO bids (`+bidColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			bid.BidID, bid.AuctionID, bid.ItemID, bid.BidderID, bid.Amount, bid.CreatedAt)
		if err != nil {
			return translate("record bid: insert bid", err, nil, auctionerrors.ErrDuplicateBid)
		}

		res, err = tx.ExecContext(ctx,
			tx.Rebind(`UPDATE items SET highest_bid = ?, bid_count = bid_count + 1 WHERE id = ?`),
			a.HighestBid, bid.ItemID)
		if err != nil {
			return translate("record bid: update item "+bid.ItemID, err, nil, nil)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("record bid for item %s: %w", bid.ItemID, auctionerrors.ErrItemNotFound)
		}
		return nil
	})
	if err != nil {
		return model.Auction{}, err
	}
	return a, nil
}

// HasBidderBid reports whether bidderID already bid on the auction
func (r *SQLRepo) HasBidderBid(ctx context.Context, auctionID, bidderID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(1) FROM bids WHERE auction_id = ? AND bidder_id = ?`), auctionID, bidderID)
	if err != nil {
		return false, translate("check bidder "+bidderID, err, nil, nil)
	}
	return n > 0, nil
}

// GetBidsByItem returns all bids for an item, newest first
func (r *SQLRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	if _, err := r.GetItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}
	bids := []model.Bid{}
	err := r.db.SelectContext(ctx, &bids, r.db.Rebind(`SELECT `+bidColumns+` FROM bids WHERE item_id = ? ORDER BY created_at DESC`), itemID)
	if err != nil {
		return nil, translate("get bids for item "+itemID, err, nil, nil)
	}
	return bids, nil
}

// GetBidsByAuction returns all bids for an auction, newest first
func (r *SQLRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}
	bids := []model.Bid{}
	err := r.db.SelectContext(ctx, &bids, r.db.Rebind(`SELECT `+bidColumns+` FROM bids WHERE auction_id = ? ORDER BY created_at DESC`), auctionID)
	if err != nil {
		return nil, translate("get bids for auction "+auctionID, err, nil, nil)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for an item
func (r *SQLRepo) GetWinningBid(ctx context.Context, itemID string) (model.Bid, error) {
	var bid model.Bid
	err := r.db.GetContext(ctx, &bid, r.db.Rebind(`
		SELECT b.id, b.auction_id, b.item_id, b.bidder_id, b.amount, b.created_at
		FROM bids b JOIN auctions a ON a.highest_bid_id = b.id
		WHERE a.item_id = ?`), itemID)
	if err != nil {
		return model.Bid{}, translate("get winning bid for item "+itemID, err, auctionerrors.ErrNoBids, nil)
	}
	return bid, nil
}

// CreatePayment stores an obligation; an auction holds at most one
func (r *SQLRepo) CreatePayment(ctx context.Context, p model.Payment) error {
	return r.withTx(ctx, "create payment", func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(1) FROM auctions WHERE id = ?`), p.AuctionID)
		if err != nil {
			return translate("create payment", err, nil, nil)
		}
		if exists == 0 {
			return fmt.Errorf("create payment for auction %s: %w", p.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			p.PaymentID, p.AuctionID, p.PayerID, p.Amount, p.Method, p.IsCompleted, p.CreatedAt, p.PaidAt)
		return translate("create payment for auction "+p.AuctionID, err, nil, auctionerrors.ErrPaymentExists)
	})
}

// GetPayment returns a payment by id
func (r *SQLRepo) GetPayment(ctx context.Context, paymentID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+paymentColumns+` FROM payments WHERE id = ?`), paymentID)
	if err != nil {
		return model.Payment{}, translate("get payment "+paymentID, err, auctionerrors.ErrPaymentNotFound, nil)
	}
	return p, nil
}

// GetPaymentByAuction returns the obligation of an auction
func (r *SQLRepo) GetPaymentByAuction(ctx context.Context, auctionID string) (model.Payment, error) {
	var p model.Payment
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+paymentColumns+` FROM payments WHERE auction_id = ?`), auctionID)
	if err != nil {
		return model.Payment{}, translate("get payment for auction "+auctionID, err, auctionerrors.ErrPaymentNotFound, nil)
	}
	return p, nil
}

// CompletePayment flips is_completed exactly once
func (r *SQLRepo) CompletePayment(ctx context.Context, paymentID string, method model.PaymentMethod, paidAt time.Time) (model.Payment, error) {
	var p model.Payment
	err := r.withTx(ctx, "complete payment", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE payments SET is_completed = ?, method = ?, paid_at = ?
			WHERE id = ? AND is_completed = ?`),
			true, method, paidAt, paymentID, false)
		if err != nil {
			return translate("complete payment "+paymentID, err, nil, nil)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return auctionerrors.NewStorageError("rows affected", err)
		}
		err = tx.GetContext(ctx, &p, tx.Rebind(`SELECT `+paymentColumns+` FROM payments WHERE id = ?`), paymentID)
		if err != nil {
			return translate("complete payment "+paymentID, err, auctionerrors.ErrPaymentNotFound, nil)
		}
		if n == 0 {
			return fmt.Errorf("complete payment %s: %w", paymentID, auctionerrors.ErrAlreadyPaid)
		}
		return nil
	})
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// ListPaymentsByUser returns the payments owed by userID, newest first
func (r *SQLRepo) ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	payments := []model.Payment{}
	err := r.db.SelectContext(ctx, &payments,
		r.db.Rebind(`SELECT `+paymentColumns+` FROM payments WHERE payer_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, translate("list payments for user "+userID, err, nil, nil)
	}
	return payments, nil
}

// AddWatch adds an item to a user's watchlist
func (r *SQLRepo) AddWatch(ctx context.Context, e model.WatchlistEntry) error {
	if _, err := r.GetItem(ctx, e.ItemID); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO watchlist (user_id, item_id, added_on) VALUES (?, ?, ?)`),
		e.UserID, e.ItemID, e.AddedOn)
	return translate("watch item "+e.ItemID, err, nil, auctionerrors.ErrAlreadyWatching)
}

// RemoveWatch removes an item from a user's watchlist
func (r *SQLRepo) RemoveWatch(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM watchlist WHERE user_id = ? AND item_id = ?`), userID, itemID)
	if err != nil {
		return translate("unwatch item "+itemID, err, nil, nil)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("unwatch item %s: %w", itemID, auctionerrors.ErrWatchNotFound)
	}
	return nil
}

// ListWatchlist returns a user's watchlist, most recently added first
func (r *SQLRepo) ListWatchlist(ctx context.Context, userID string) ([]model.WatchlistEntry, error) {
	entries := []model.WatchlistEntry{}
	err := r.db.SelectContext(ctx, &entries,
		r.db.Rebind(`SELECT user_id, item_id, added_on FROM watchlist WHERE user_id = ? ORDER BY added_on DESC`), userID)
	if err != nil {
		return nil, translate("list watchlist for user "+userID, err, nil, nil)
	}
	return entries, nil
}

// ListWatchers returns the ids of users watching itemID
func (r *SQLRepo) ListWatchers(ctx context.Context, itemID string) ([]string, error) {
	watchers := []string{}
	err := r.db.SelectContext(ctx, &watchers,
		r.db.Rebind(`SELECT user_id FROM watchlist WHERE item_id = ? ORDER BY user_id`), itemID)
	if err != nil {
		return nil, translate("list watchers of item "+itemID, err, nil, nil)
	}
	return watchers, nil
}

package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-house/internal/biddingService"
	"auction-house/internal/catalog"
	"auction-house/internal/ledger"
	"auction-house/internal/lifecycle"
	"auction-house/internal/locker"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/internal/users"
	"auction-house/internal/watchlist"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// opening is the frozen wall clock every test starts at
var opening = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv is the fully wired engine behind the router
type testEnv struct {
	router *gin.Engine
	clock  *utils.ManualClock
	repo   repository.AuctionDB
}

// backends lists the stores the API tests run against
var backends = []struct {
	name string
	open func(t *testing.T) repository.AuctionDB
}{
	{
		name: "memory",
		open: func(t *testing.T) repository.AuctionDB { return repository.NewMemoryRepo() },
	},
	{
		name: "sqlite",
		open: func(t *testing.T) repository.AuctionDB {
			ctx := context.Background()
			dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
			repo, err := repository.OpenSQL(ctx, repository.DriverSQLite, dsn)
			require.NoError(t, err)
			require.NoError(t, repo.Migrate(ctx))
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	},
}

// SetupTestEnv wires every service over repo the way serve does
func SetupTestEnv(t *testing.T, repo repository.AuctionDB) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := utils.NewManualClock(opening)
	locks := locker.New()
	l := ledger.NewLedger(repo, clock)
	w := watchlist.NewService(repo, clock)
	m := lifecycle.NewMachine(repo, l, w, locks, clock)

	router := server.SetupRouter(server.Services{
		Bidding:   bidding.NewBiddingService(repo, locks, m, clock, bidding.DefaultMaxBidAttempts),
		Auctions:  m,
		Catalog:   catalog.NewService(repo, clock),
		Payments:  l,
		Users:     users.NewService(repo, clock),
		Watchlist: w,
	})
	return &testEnv{router: router, clock: clock, repo: repo}
}

// ExecuteRequestAndParse executes an HTTP request on the env router as caller
// and parses the response envelope. An empty caller sends no identity.
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, caller string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(helpers.UserIDHeader, caller)
	}
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// data returns the data object of a success envelope
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return d
}

// register creates a user and returns its id
func (e *testEnv) register(t *testing.T, username, role string) string {
	t.Helper()
	resp, w := e.ExecuteRequestAndParse(t, "POST", "/users", "", helpers.RegisterRequest{Username: username, Role: role})
	require.Equal(t, 201, w.Code, "register %s: %v", username, resp)
	return data(t, resp)["user"].(map[string]any)["user_id"].(string)
}

// listAuction creates an item owned by sellerID and an auction running
// [opening, opening+1h) with a 1.00 increment. It returns the item and
// auction ids.
func (e *testEnv) listAuction(t *testing.T, sellerID, price string) (string, string) {
	t.Helper()
	resp, w := e.ExecuteRequestAndParse(t, "POST", "/items", sellerID, map[string]any{"name": "Lamp", "price": price})
	require.Equal(t, 201, w.Code, "create item: %v", resp)
	itemID := data(t, resp)["item_id"].(string)

	resp, w = e.ExecuteRequestAndParse(t, "POST", "/items/"+itemID+"/auction", sellerID, map[string]any{
		"start_time":    opening,
		"end_time":      opening.Add(time.Hour),
		"bid_increment": "1.00",
	})
	require.Equal(t, 201, w.Code, "create auction: %v", resp)
	return itemID, data(t, resp)["auction_id"].(string)
}

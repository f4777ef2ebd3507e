package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-house/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope is the response shape written by utils.JSONResponse and utils.JSONError
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// doRequest serves one request through router. body is marshalled unless
// it is a string, which is sent verbatim. An empty caller sends no identity.
func doRequest(t *testing.T, router http.Handler, method, path, caller string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(helpers.UserIDHeader, caller)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

// decodeData unmarshals the data field of a success envelope
func decodeData[T any](t *testing.T, resp envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// amountEq matches a decimal by value, so 100 and 100.00 are equal
type amountEq string

func (a amountEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(decimal.RequireFromString(string(a)))
}

func (a amountEq) String() string {
	return fmt.Sprintf("is amount %s", string(a))
}

var _ gomock.Matcher = amountEq("")

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleJSON = `{"quoteSummary":{"result":[{
  "price":{"longName":"Apple Inc.","exchangeName":"NasdaqGS","marketCap":{"raw":3400000000000,"fmt":"3.4T"}},
  "assetProfile":{"industry":"Consumer Electronics"},
  "summaryDetail":{"dividendYield":{"raw":0.0044,"fmt":"0.44%"}}
}],"error":null}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())
}

func TestLookup(t *testing.T) {
	var gotPath, gotModules string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotModules = r.URL.Query().Get("modules")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(appleJSON))
	})

	sum, err := c.Lookup(context.Background(), " AAPL ")
	require.NoError(t, err)
	assert.Equal(t, "/v10/finance/quoteSummary/AAPL", gotPath)
	assert.Equal(t, "price,assetProfile,summaryDetail", gotModules)
	assert.Equal(t, Summary{
		Name:          "Apple Inc.",
		Market:        "NasdaqGS",
		Industry:      "Consumer Electronics",
		MarketCap:     "3400000000000",
		DividendYield: "0.0044",
	}, sum)
}

func TestLookupMissingFieldsAreNA(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"price":{"shortName":"Tiny Co","marketCap":{}}}],"error":null}}`))
	})

	sum, err := c.Lookup(context.Background(), "TINY")
	require.NoError(t, err)
	assert.Equal(t, "Tiny Co", sum.Name)
	assert.Equal(t, notAvailable, sum.Market)
	assert.Equal(t, notAvailable, sum.Industry)
	assert.Equal(t, notAvailable, sum.MarketCap)
	assert.Equal(t, notAvailable, sum.DividendYield)
}

func TestLookupNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for symbol: ZZZZ"}}}`))
	})

	_, err := c.Lookup(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Lookup(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "502")
}

func TestLookupEmptyTicker(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := c.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseSummaryErrorPayload(t *testing.T) {
	_, err := parseSummary([]byte(`{"quoteSummary":{"result":[],"error":null}}`), "X")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = parseSummary([]byte(`not json`), "X")
	assert.Error(t, err)
}

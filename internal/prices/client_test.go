package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchQuotes(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"symbol":"TSM","price":229.60},{"symbol":"NVDA","price":1250.5}]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL + "/api/v3/quote/"})
	require.NoError(t, err)

	quotes, err := client.FetchQuotes(context.Background(), []string{"TSM", "NVDA"})
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/quote/TSM,NVDA", gotPath)
	assert.Equal(t, "apikey=test-key", gotQuery)
	require.Len(t, quotes, 2)
	assert.True(t, quotes["TSM"].Equal(decimal.RequireFromString("229.60")))
	assert.True(t, quotes["NVDA"].Equal(decimal.RequireFromString("1250.5")))
}

func TestFetchQuotesOmitsUnknownTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"symbol":"TSM","price":229.60}]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	quotes, err := client.FetchQuotes(context.Background(), []string{"TSM", "NOPE"})
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	_, ok := quotes["NOPE"]
	assert.False(t, ok)
}

func TestFetchQuotesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"Error Message":"Invalid API key"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "bad", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	_, err = client.FetchQuotes(context.Background(), []string{"TSM"})
	assert.Error(t, err)
}

func TestFetchQuotesNoTickers(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)

	quotes, err := client.FetchQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

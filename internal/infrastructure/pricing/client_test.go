package pricing_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/internal/infrastructure/pricing"
	"arbscan/pkg/errcodes"
)

const productJSON = `{
	"products": [{
		"upc": "0123456789",
		"asin": "B000TEST42",
		"title": "Widget",
		"brand": "Acme",
		"buyBoxPrice": 2499,
		"salesRanks": [900],
		"variation": {"size":"M"},
		"hazmat": false
	}]
}`

func newTestClient(url string) *pricing.Client {
	return pricing.NewClient(url, "test-key", 2*time.Second, 100)
}

func TestFetch(t *testing.T) {
	rq := require.New(t)

	var calls atomic.Int64

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		rq.Equal("/product", r.URL.Path)
		rq.Equal("test-key", r.URL.Query().Get("key"))
		rq.Equal("3", r.URL.Query().Get("domain"))
		rq.Equal("0123456789", r.URL.Query().Get("code"))

		w.Write([]byte(productJSON)) //nolint:errcheck
	}))
	defer testServer.Close()

	snapshot, err := newTestClient(testServer.URL).Fetch(t.Context(), "0123456789", entity.MarketDE)
	rq.NoError(err)

	rq.Equal("0123456789", snapshot.ProductID)
	rq.Equal(entity.MarketDE, snapshot.Market)
	rq.Equal("B000TEST42", snapshot.ExternalRef)
	rq.Equal(int64(2499), snapshot.Price)
	rq.Equal(int64(900), snapshot.Rank)
	rq.Equal(`{"size":"M"}`, snapshot.VariationHash)
	rq.False(snapshot.Hazmat)

	// Exactly one HTTP call per invocation.
	rq.Equal(int64(1), calls.Load())
}

func TestFetchMissingRankNormalizesToSentinel(t *testing.T) {
	rq := require.New(t)

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"products":[{"asin":"B000TEST42","buyBoxPrice":2499}]}`)) //nolint:errcheck
	}))
	defer testServer.Close()

	snapshot, err := newTestClient(testServer.URL).Fetch(t.Context(), "0123456789", entity.MarketUS)
	rq.NoError(err)
	rq.Equal(int64(entity.RankSentinel), snapshot.Rank)
}

func TestFetchErrors(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name        string
		handlerFunc http.HandlerFunc
		code        string
		retryable   bool
	}{
		{
			name: "Empty catalog means not found",
			handlerFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"products":[]}`)) //nolint:errcheck
			},
			code:      string(errcodes.ProductNotFound),
			retryable: false,
		},
		{
			name: "Rate limited",
			handlerFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			code:      string(errcodes.RateLimited),
			retryable: true,
		},
		{
			name: "Server error",
			handlerFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			code:      string(errcodes.TransientFailure),
			retryable: true,
		},
		{
			name: "Garbage body",
			handlerFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("<html>not json</html>")) //nolint:errcheck
			},
			code:      string(errcodes.MalformedResponse),
			retryable: false,
		},
		{
			name: "Record without a price",
			handlerFunc: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"products":[{"asin":"B000TEST42"}]}`)) //nolint:errcheck
			},
			code:      string(errcodes.MalformedResponse),
			retryable: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testServer := httptest.NewServer(tc.handlerFunc)
			defer testServer.Close()

			_, err := newTestClient(testServer.URL).Fetch(t.Context(), "0123456789", entity.MarketUS)
			rq.Error(err)

			code, ok := domain.GetCode(err)
			rq.True(ok)
			rq.Equal(tc.code, string(code))
			rq.Equal(tc.retryable, domain.IsRetryable(err))
		})
	}
}

func TestFetchUnreachableHostIsTransient(t *testing.T) {
	rq := require.New(t)

	client := pricing.NewClient("http://127.0.0.1:1", "test-key", 500*time.Millisecond, 100)

	_, err := client.Fetch(t.Context(), "0123456789", entity.MarketUS)
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.TransientFailure))
	rq.True(domain.IsRetryable(err))
}

func TestFetchBatch(t *testing.T) {
	rq := require.New(t)

	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rq.Equal("0123456789,9876543210", r.URL.Query().Get("code"))

		// The second product is absent from the catalog.
		w.Write([]byte(`{"products":[{"upc":"0123456789","asin":"B000TEST42","buyBoxPrice":2499,"salesRanks":[900]}]}`)) //nolint:errcheck
	}))
	defer testServer.Close()

	snapshots, err := newTestClient(testServer.URL).FetchBatch(t.Context(), []string{"0123456789", "9876543210"}, entity.MarketUS)
	rq.NoError(err)

	rq.Len(snapshots, 1)
	rq.Equal("0123456789", snapshots[0].ProductID)
}

func TestFetchBatchLimits(t *testing.T) {
	rq := require.New(t)

	client := pricing.NewClient("http://127.0.0.1:1", "test-key", time.Second, 2)

	snapshots, err := client.FetchBatch(t.Context(), nil, entity.MarketUS)
	rq.NoError(err)
	rq.Nil(snapshots)

	_, err = client.FetchBatch(t.Context(), []string{"a", "b", "c"}, entity.MarketUS)
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.ValidationError))
}

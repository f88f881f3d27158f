// Package pricing is the client for the rate-limited external pricing API.
// One HTTP call per invocation; retries are the worker pool's responsibility.
package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
	"arbscan/pkg/httpx"
	"arbscan/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBatch = 100
)

type Client struct {
	baseURL   string
	accessKey string
	maxBatch  int
	client    *http.Client
	now       func() time.Time
}

func NewClient(baseURL, accessKey string, timeout time.Duration, maxBatch int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		accessKey: accessKey,
		maxBatch:  maxBatch,
		client: &http.Client{
			Timeout: timeout,
			Transport: httpx.NewLoggingRoundTripper(
				http.DefaultTransport,
				httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
				httpx.WithLogFieldMaxLen(2048),
			),
		},
		now: time.Now,
	}
}

// MaxBatch is the per-request identifier limit the API enforces.
func (c *Client) MaxBatch() int {
	return c.maxBatch
}

// Fetch queries one market for one product.
func (c *Client) Fetch(ctx context.Context, productID string, market entity.Market) (*entity.ProductSnapshot, error) {
	response, err := c.call(ctx, market, productID)
	if err != nil {
		return nil, err
	}

	if len(response.Products) == 0 {
		return nil, domain.NewError(errcodes.ProductNotFound, "product not in "+market.String()+" catalog")
	}

	snapshot := response.Products[0].toSnapshot(productID, market, c.now())
	if snapshot.Price <= 0 {
		return nil, domain.NewError(errcodes.MalformedResponse, "product record without a price")
	}

	return snapshot, nil
}

// FetchBatch queries one market for up to MaxBatch products in a single
// request. Products absent from the catalog are simply missing from the
// result, not an error.
func (c *Client) FetchBatch(ctx context.Context, productIDs []string, market entity.Market) ([]*entity.ProductSnapshot, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	if len(productIDs) > c.maxBatch {
		return nil, domain.NewError(errcodes.ValidationError,
			fmt.Sprintf("batch of %d exceeds the per-request maximum of %d", len(productIDs), c.maxBatch))
	}

	response, err := c.call(ctx, market, productIDs...)
	if err != nil {
		return nil, err
	}

	now := c.now()

	snapshots := make([]*entity.ProductSnapshot, 0, len(response.Products))
	for _, product := range response.Products {
		snapshot := product.toSnapshot("", market, now)
		if snapshot.Price <= 0 {
			continue
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func (c *Client) call(ctx context.Context, market entity.Market, productIDs ...string) (*apiResponse, error) {
	params := url.Values{}
	params.Set("key", c.accessKey)
	params.Set("domain", strconv.Itoa(market.CatalogDomain()))
	params.Set("code", strings.Join(productIDs, ","))

	endpoint := c.baseURL + "/product?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection failures alike: retryable.
		return nil, domain.WrapError(err, errcodes.TransientFailure, "pricing API unreachable")
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.NewError(errcodes.RateLimited, "pricing API rate limit hit")
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, domain.NewError(errcodes.TransientFailure, "pricing API returned "+resp.Status)
	default:
		return nil, domain.NewError(errcodes.MalformedResponse, "unexpected status "+resp.Status)
	}

	var response apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, domain.WrapError(err, errcodes.MalformedResponse, "decode pricing response")
	}

	return &response, nil
}

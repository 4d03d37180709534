// Package binance adapts the exchange's REST/WebSocket surface to the
// domain and parser packages: building stream URLs and fetching depth
// snapshots.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantumflow/market-data/business/marketdata/domain"
	"github.com/quantumflow/market-data/business/marketdata/infra/parser"
	"github.com/quantumflow/market-data/internal/apperror"
	"github.com/quantumflow/market-data/internal/httpclient"
)

// RESTClient fetches order book snapshots over HTTPS.
type RESTClient struct {
	http     httpclient.Client
	endpoint string
}

// NewRESTClient builds a REST client against endpoint (e.g.
// https://api.binance.com/api/v3), with a bounded request timeout.
func NewRESTClient(endpoint string, opts ...httpclient.ClientOption) (*RESTClient, error) {
	allOpts := append([]httpclient.ClientOption{
		httpclient.WithBaseURL(endpoint),
		httpclient.WithProviderName("binance-rest"),
	}, opts...)

	client, err := httpclient.NewInstrumentedClient(allOpts...)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithMessage("failed to build REST client"), apperror.WithCause(err))
	}
	return &RESTClient{http: client, endpoint: endpoint}, nil
}

// FetchSnapshot fetches the depth snapshot for symbol, capped at limit
// levels. GET <endpoint>/depth?symbol=<symbol>&limit=<limit>.
func (c *RESTClient) FetchSnapshot(ctx context.Context, symbol string, limit int) (domain.Snapshot, error) {
	url := fmt.Sprintf("%s/depth", c.endpoint)

	resp, err := c.http.NewRequest().
		SetQueryParam("symbol", strings.ToUpper(symbol)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get(ctx, url)
	if err != nil {
		return domain.Snapshot{}, apperror.New(apperror.CodeRestAPIError, apperror.WithMessage("snapshot request failed"), apperror.WithContext(symbol), apperror.WithCause(err))
	}
	if resp.IsError() {
		return domain.Snapshot{}, apperror.New(apperror.CodeBinanceAPIError,
			apperror.WithMessage(fmt.Sprintf("snapshot request returned status %d", resp.StatusCode)),
			apperror.WithContext(symbol))
	}

	snap, err := parser.ParseSnapshot(resp.Body())
	if err != nil {
		return domain.Snapshot{}, apperror.New(apperror.CodeOrderbookFetchFailed, apperror.WithMessage("failed to decode snapshot"), apperror.WithContext(symbol), apperror.WithCause(err))
	}
	return snap, nil
}

// StreamURL builds the combined-stream WebSocket URL for symbols, each
// subscribed to both its depth diff and trade streams:
// <endpoint>/stream?streams=<s1>@depth@100ms/<s1>@trade/<s2>@depth@100ms/...
func StreamURL(endpoint string, symbols []string) string {
	streams := make([]string, 0, len(symbols)*2)
	for _, s := range symbols {
		lower := strings.ToLower(s)
		streams = append(streams, lower+"@depth@100ms", lower+"@trade")
	}
	return fmt.Sprintf("%s/stream?streams=%s", endpoint, strings.Join(streams, "/"))
}

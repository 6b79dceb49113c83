package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	apperrors "whale-copytrader/internal/errors"
	"whale-copytrader/internal/logging"
	"whale-copytrader/internal/models"
)

// DefaultURL is the whale-watch transaction list endpoint.
const DefaultURL = "https://swap-api.assetdash.com/api/api_v5/whalewatch/transactions/list"

// AssetDashConfig configures the whale-watch client.
type AssetDashConfig struct {
	URL         string
	AccessToken string
	Timeout     time.Duration
}

// AssetDashClient polls the AssetDash whale-watch list for the latest buy.
type AssetDashClient struct {
	client *resty.Client
	url    string
	logger zerolog.Logger
}

var _ Client = (*AssetDashClient)(nil)

// NewAssetDashClient creates a whale-watch client.
func NewAssetDashClient(cfg AssetDashConfig, logger zerolog.Logger) *AssetDashClient {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetAuthToken(cfg.AccessToken)
	client.SetHeaders(map[string]string{
		"Accept":        "application/json, text/plain, */*",
		"Cache-Control": "no-cache, no-store, must-revalidate",
		"Origin":        "https://swap.assetdash.com",
		"Referer":       "https://swap.assetdash.com/",
		"User-Agent":    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	})
	client.SetQueryParams(map[string]string{
		"page":              "1",
		"limit":             "1",
		"transaction_types": "buy",
	})

	return &AssetDashClient{
		client: client,
		url:    cfg.URL,
		logger: logging.WithComponent(logger, "feed"),
	}
}

// FetchLatest implements Client.
func (c *AssetDashClient) FetchLatest(ctx context.Context) (*models.TransactionRecord, error) {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get(c.url)
	logging.LogAPICall(c.logger, "GET", c.url, time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return nil, apperrors.NewFeedError("fetch", 0, fmt.Errorf("%w: %v", apperrors.ErrTimeout, err))
		}
		return nil, apperrors.NewFeedError("fetch", 0, err)
	}
	if resp.IsError() {
		return nil, apperrors.NewFeedError("fetch", resp.StatusCode(), fmt.Errorf("%s", resp.Status()))
	}

	return ParseList(resp.Body())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

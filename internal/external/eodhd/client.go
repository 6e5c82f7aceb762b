package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/httputil"
	"github.com/wonny/factorpanel/pkg/logger"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultRateLimit is the default rate limit (requests per second)
	DefaultRateLimit = 5
)

// Client is an EODHD API client
// ⭐ SSOT: EODHD API 호출은 여기서만
type Client struct {
	baseURL  string
	apiKey   string
	exchange string
	http     *httputil.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewClient creates a new EODHD client
func NewClient(cfg config.EODHDConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		exchange: cfg.Exchange,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   log.WithField("source", "eodhd"),
	}
}

// Ticker maps a symbol to the API ticker format (TICKER.EXCHANGE)
func (c *Client) Ticker(symbol contracts.Symbol) string {
	s := symbol.String()
	if strings.Contains(s, ".") || c.exchange == "" {
		return s
	}
	return s + "." + c.exchange
}

// get performs a rate-limited GET and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	c.logger.WithField("path", path).Debug("EODHD API request")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	if err := c.http.GetJSON(ctx, reqURL, result); err != nil {
		return fmt.Errorf("eodhd %s: %w", path, err)
	}
	return nil
}

// GetEOD retrieves end-of-day bars in ascending date order
func (c *Client) GetEOD(ctx context.Context, symbol contracts.Symbol, from, to time.Time) ([]EODBar, error) {
	params := url.Values{}
	params.Set("from", from.Format(contracts.DateLayout))
	params.Set("to", to.Format(contracts.DateLayout))
	params.Set("period", "d")
	params.Set("order", "a")

	var bars []EODBar
	if err := c.get(ctx, "/eod/"+url.PathEscape(c.Ticker(symbol)), params, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// GetMarketCap retrieves historical market capitalization in ascending date order
func (c *Client) GetMarketCap(ctx context.Context, symbol contracts.Symbol, from, to time.Time) ([]MarketCapPoint, error) {
	params := url.Values{}
	params.Set("from", from.Format(contracts.DateLayout))
	params.Set("to", to.Format(contracts.DateLayout))

	// 응답은 {"0": {...}, "1": {...}} 형태의 객체
	var raw map[string]MarketCapPoint
	if err := c.get(ctx, "/historical-market-cap/"+url.PathEscape(c.Ticker(symbol)), params, &raw); err != nil {
		return nil, err
	}

	points := make([]MarketCapPoint, 0, len(raw))
	for _, p := range raw {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// GetFundamentals retrieves the General and Financials sections of a symbol
func (c *Client) GetFundamentals(ctx context.Context, symbol contracts.Symbol) (*FundamentalsResponse, error) {
	params := url.Values{}
	params.Set("filter", "General,Financials")

	var result FundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+url.PathEscape(c.Ticker(symbol)), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSector retrieves only the sector label of a symbol
func (c *Client) GetSector(ctx context.Context, symbol contracts.Symbol) (string, error) {
	params := url.Values{}
	params.Set("filter", "General::Sector")

	var sector *string
	if err := c.get(ctx, "/fundamentals/"+url.PathEscape(c.Ticker(symbol)), params, &sector); err != nil {
		return "", err
	}
	if sector == nil {
		return "", nil
	}
	return *sector, nil
}

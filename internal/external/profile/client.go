package profile

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/factorpanel/internal/contracts"
	"github.com/wonny/factorpanel/pkg/config"
	"github.com/wonny/factorpanel/pkg/httputil"
	"github.com/wonny/factorpanel/pkg/logger"
)

// Client scrapes the sector label from company profile pages
// ⭐ SSOT: 프로필 페이지 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new profile page client
func NewClient(cfg config.ProfileConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "profile"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// FetchOne implements contracts.SectorSource. A page without a sector gives an empty label.
func (c *Client) FetchOne(ctx context.Context, symbol contracts.Symbol) (string, error) {
	html, err := c.fetchHTML(ctx, symbol)
	if err != nil {
		return "", err
	}

	sector, err := parseSector(html)
	if err != nil {
		return "", fmt.Errorf("parse profile of %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol.String(),
		"sector": sector,
	}).Debug("Fetched sector")
	return sector, nil
}

// fetchHTML fetches the profile page of a symbol
func (c *Client) fetchHTML(ctx context.Context, symbol contracts.Symbol) ([]byte, error) {
	fullURL := fmt.Sprintf("%s/%s/profile", c.baseURL, url.PathEscape(symbol.String()))

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}

var sectorLabelRe = regexp.MustCompile(`(?i)^sector(\(s\))?\s*:?$`)

// parseSector finds a "Sector" caption and returns the text that follows it.
// Profile pages render it as dt/dd, th/td or label/value spans.
func parseSector(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}

	var sector string
	doc.Find("dt, th, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 && goquery.NodeName(s) == "div" {
			return true
		}
		if !sectorLabelRe.MatchString(strings.TrimSpace(s.Text())) {
			return true
		}
		value := strings.TrimSpace(s.Next().Text())
		if strings.Trim(value, "-") == "" || strings.EqualFold(value, "n/a") {
			return true
		}
		sector = strings.Join(strings.Fields(value), " ")
		return false
	})
	return sector, nil
}

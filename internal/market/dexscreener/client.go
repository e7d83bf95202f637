// Package dexscreener reads pair listings from the DexScreener API, either by polling the
// search endpoint or by following a pairs stream over websocket.
package dexscreener

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/market"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/models"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com"
	searchPath     = "/latest/dex/search"
	sourceName     = "dexscreener"
)

type Client struct {
	baseURL    string
	query      string
	httpClient *http.Client
	log        *logger.Logger
}

var _ market.Source = (*Client)(nil)

func New(baseURL, query string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		query:   query,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("dexscreener")
}

// FetchPairs runs one search request. Any failure is a *market.DataSourceError.
func (c *Client) FetchPairs(ctx context.Context) ([]models.PairCandidate, error) {
	params := url.Values{}
	params.Set("q", c.query)

	var resp searchResponse
	if err := c.doRequest(ctx, http.MethodGet, searchPath, params, &resp); err != nil {
		return nil, &market.DataSourceError{Source: sourceName, Err: err}
	}

	c.logEntry().WithField("pairs", len(resp.Pairs)).Debug("Получен список пар.")
	return toCandidates(resp.Pairs), nil
}

// Package pricing estimates grocery item prices through a web search
// endpoint. Lookups fail soft: an item that cannot be priced stays unpriced
// and the list is flagged incomplete instead of aborting the session.
package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"mealbudget"
)

var (
	// priceRe extracts amounts like "$4.99" from search result text.
	priceRe = regexp.MustCompile(`\$?(\d+\.\d{2})`)
	// parenRe strips quantity notes like "Milk (1 gallon)" -> "Milk" for the
	// fallback query.
	parenRe = regexp.MustCompile(`\s*\([^)]*\)`)
)

// SearchClient answers price lookups by querying a web search service and
// scanning the results for a dollar amount.
type SearchClient struct {
	endpoint   string
	httpClient mealbudget.HTTPClient
}

type SearchClientOpts struct {
	BaseEndpoint string
	HTTPClient   mealbudget.HTTPClient
}

func NewSearchClient(opts SearchClientOpts) (*SearchClient, error) {
	if opts.BaseEndpoint == "" {
		return nil, fmt.Errorf("invalid search endpoint")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &SearchClient{
		endpoint:   opts.BaseEndpoint + "/v1/search",
		httpClient: opts.HTTPClient,
	}, nil
}

type wireRequest struct {
	Query string `json:"query"`
}

type wireResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// Price looks up the item at the given store/location. When the full item
// text (often "Milk (1 gallon)") yields nothing, it retries with the
// parenthetical stripped. A lookup that still finds no price returns an error
// wrapping mealbudget.ErrPriceUnavailable.
func (c *SearchClient) Price(ctx context.Context, item, store string) (float64, error) {
	amount, err := c.search(ctx, priceQuery(item, store))
	if err != nil {
		slog.Warn("PRICER: Search failed", "item", item, "error", err)
		return 0, fmt.Errorf("lookup %q: %w", item, mealbudget.ErrPriceUnavailable)
	}

	if amount == 0 {
		if stripped := stripQuantity(item); stripped != item {
			slog.Info("PRICER: Fallback search", "item", stripped)
			amount, err = c.search(ctx, priceQuery(stripped, store))
			if err != nil {
				return 0, fmt.Errorf("lookup %q: %w", item, mealbudget.ErrPriceUnavailable)
			}
		}
	}

	if amount == 0 {
		return 0, fmt.Errorf("no price found for %q: %w", item, mealbudget.ErrPriceUnavailable)
	}
	return amount, nil
}

func (c *SearchClient) search(ctx context.Context, query string) (float64, error) {
	reqBytes, err := json.Marshal(wireRequest{Query: query})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("search: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return 0, fmt.Errorf("search: failed to decode response: %w", err)
	}

	for _, res := range wr.Results {
		if p := parsePrice(res.Title); p > 0 {
			return p, nil
		}
		if p := parsePrice(res.Snippet); p > 0 {
			return p, nil
		}
	}
	return 0, nil
}

func priceQuery(item, store string) string {
	return fmt.Sprintf("Price of %s at %s", item, store)
}

// parsePrice extracts a float price from a string (e.g. "$4.99" -> 4.99), or
// 0 if none is found.
func parsePrice(text string) float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	p, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return p
}

func stripQuantity(item string) string {
	return strings.TrimSpace(parenRe.ReplaceAllString(item, ""))
}

// Package meta keeps the meta deck list fresh: it scrapes the tier list
// site, rewrites the meta.json data file, and mirrors the result into the
// SQLite cache so a later start without network still has candidates.
package meta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/minsukang/tft-guide/internal/engine"
)

const (
	// DefaultSourceURL is the tier list page scraped by default.
	DefaultSourceURL = "https://lolchess.gg/meta"

	// DefaultTimeout for scrape requests.
	DefaultTimeout = 15 * time.Second

	// userAgent presented to the tier list site. The site serves the
	// deck payload only to browser-looking clients.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DefaultRateLimit keeps scraping polite (1 request per 6 seconds).
var DefaultRateLimit = rate.Every(6 * time.Second)

// Scraper fetches and parses the meta deck tier list.
type Scraper struct {
	sourceURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ScraperOptions configures the scraper.
type ScraperOptions struct {
	// SourceURL is the page to scrape (default: DefaultSourceURL)
	SourceURL string

	// RateLimit controls request frequency (default: 1 req/6 seconds)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 15 seconds)
	Timeout time.Duration

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client
}

// DefaultScraperOptions returns default scraper options.
func DefaultScraperOptions() ScraperOptions {
	return ScraperOptions{
		SourceURL: DefaultSourceURL,
		RateLimit: DefaultRateLimit,
		Timeout:   DefaultTimeout,
	}
}

// NewScraper creates a scraper for the tier list site.
func NewScraper(options ScraperOptions) *Scraper {
	if options.SourceURL == "" {
		options.SourceURL = DefaultSourceURL
	}
	if options.RateLimit == 0 {
		options.RateLimit = DefaultRateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
		}
	}

	return &Scraper{
		sourceURL:  options.SourceURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
	}
}

// SourceURL returns the page this scraper fetches.
func (s *Scraper) SourceURL() string {
	return s.sourceURL
}

// Fetch downloads the tier list page and extracts the meta decks.
func (s *Scraper) Fetch(ctx context.Context) ([]engine.MetaDeck, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	decks, err := parseDecks(body)
	if err != nil {
		return nil, err
	}
	return decks, nil
}

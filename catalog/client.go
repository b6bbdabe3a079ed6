// Package catalog proxies the external media-metadata API (TMDB-compatible).
// Responses are decoded into explicit wire structs at this boundary and cached
// with per-concern TTLs so repeated lookups don't hammer the provider.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/ckarsten/watchdeck/config"
	"github.com/ckarsten/watchdeck/models"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("catalog: API key not configured")

// searchResultLimit caps combined movie+TV search results.
const searchResultLimit = 10

const requestTimeout = 10 * time.Second

// Client is an HTTP client for the catalog provider. Construct with New and
// inject where needed — it is not a package-level singleton.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client

	searchCache  *ttlcache.Cache[string, []models.SearchResult]
	detailsCache *ttlcache.Cache[string, models.Detail]
}

// New builds a catalog client from configuration. Call Stop on shutdown to
// end the cache eviction loops.
func New(cfg config.Config) *Client {
	searchCache := ttlcache.New[string, []models.SearchResult](
		ttlcache.WithTTL[string, []models.SearchResult](cfg.SearchCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, []models.SearchResult](),
	)
	detailsCache := ttlcache.New[string, models.Detail](
		ttlcache.WithTTL[string, models.Detail](cfg.DetailsCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, models.Detail](),
	)
	go searchCache.Start()
	go detailsCache.Start()

	return &Client{
		baseURL:      strings.TrimRight(cfg.CatalogBaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.CatalogImageBaseURL, "/"),
		apiKey:       cfg.CatalogAPIKey,
		httpClient:   &http.Client{Timeout: requestTimeout},
		searchCache:  searchCache,
		detailsCache: detailsCache,
	}
}

// Stop ends the background cache eviction loops.
func (c *Client) Stop() {
	c.searchCache.Stop()
	c.detailsCache.Stop()
}

// Search queries the provider's combined movie+TV search and returns at most
// searchResultLimit results. Entries that are neither movies nor TV shows
// (people, collections) or that carry no usable title are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	cacheKey := strings.ToLower(strings.TrimSpace(query))
	if item := c.searchCache.Get(cacheKey); item != nil {
		return item.Value(), nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")

	var resp searchResponse
	if err := c.getJSON(ctx, "/search/multi", q, &resp); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, searchResultLimit)
	for _, raw := range resp.Results {
		if raw.MediaType != string(models.MediaTypeMovie) && raw.MediaType != string(models.MediaTypeTV) {
			continue
		}
		if raw.Title == "" && raw.Name == "" {
			continue
		}
		results = append(results, raw.toResult(c.imageBaseURL))
		if len(results) == searchResultLimit {
			break
		}
	}

	c.searchCache.Set(cacheKey, results, ttlcache.DefaultTTL)
	return results, nil
}

// Details fetches the denormalized detail object for one title, with credits
// and external IDs appended in a single provider round trip.
func (c *Client) Details(ctx context.Context, externalMediaID int64, mediaType models.MediaType) (models.Detail, error) {
	if c.apiKey == "" {
		return models.Detail{}, ErrNotConfigured
	}
	if !mediaType.Valid() {
		return models.Detail{}, fmt.Errorf("catalog: invalid media type %q", mediaType)
	}

	cacheKey := string(mediaType) + ":" + strconv.FormatInt(externalMediaID, 10)
	if item := c.detailsCache.Get(cacheKey); item != nil {
		return item.Value(), nil
	}

	q := url.Values{}
	q.Set("append_to_response", "credits,external_ids")

	path := fmt.Sprintf("/%s/%d", mediaType, externalMediaID)
	var raw detailRaw
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return models.Detail{}, err
	}

	detail := raw.toDetail(mediaType, c.imageBaseURL)
	c.detailsCache.Set(cacheKey, detail, ttlcache.DefaultTTL)
	return detail, nil
}

// getJSON performs an authenticated GET against the provider and decodes the
// body into out. Non-2xx responses are returned as errors carrying the status.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("api_key", c.apiKey)
	u := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request to provider failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("catalog: provider returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decoding provider response: %w", err)
	}
	return nil
}

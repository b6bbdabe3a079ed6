// Package listview implements the synchronized watchlist view: a remote
// snapshot fetched with bounded retries, multi-dimensional filtering, stable
// sorting with pagination, optimistic mutations reconciled against server
// responses, and a role-gated column surface.
package listview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ckarsten/watchdeck/models"
)

var (
	// ErrNotFound is returned when the server does not know the entry ID.
	ErrNotFound = errors.New("listview: entry not found")
	// ErrConflict is returned when the server already holds an entry for the
	// same title. Callers treat it as informational, not a failure.
	ErrConflict = errors.New("listview: entry already in watchlist")
)

// fetchAttempts is the total number of list-read attempts: one initial call
// plus two retries with 1s and 2s backoff.
const fetchAttempts = 3

const clientTimeout = 15 * time.Second

// fetchBaseDelay is the delay before the first fetch retry; it doubles on
// each subsequent attempt. A variable so tests can shorten it.
var fetchBaseDelay = time.Second

// Client talks to the watchlist server API. Construct with NewClient and
// inject it into a View — it is deliberately not a package-level singleton.
type Client struct {
	baseURL    string
	httpClient *http.Client
	notify     Notifier
}

// NewClient builds a client for the server at baseURL. A nil notifier falls
// back to slog.
func NewClient(baseURL string, notify Notifier) *Client {
	if notify == nil {
		notify = slogNotifier{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
		notify:     notify,
	}
}

// wireEntry mirrors models.Entry with string-typed dates so malformed wire
// dates degrade to null instead of failing the whole decode.
type wireEntry struct {
	ID              int64            `json:"id"`
	ExternalMediaID int64            `json:"externalMediaId"`
	MediaType       models.MediaType `json:"mediaType"`
	Title           string           `json:"title"`
	Overview        string           `json:"overview"`
	PosterURL       string           `json:"posterUrl"`
	ReleaseDate     string           `json:"releaseDate"`
	Rating          float64          `json:"rating"`
	Watched         bool             `json:"watched"`
	DateWatched     *string          `json:"dateWatched"`
	DateAdded       string           `json:"dateAdded"`
	UserRating      *float64         `json:"userRating"`
	Priority        *int             `json:"priority"`
	Favorite        bool             `json:"favorite"`
	RecommendedBy   *string          `json:"recommendedBy"`
}

func (w wireEntry) toEntry() models.Entry {
	e := models.Entry{
		ID:              w.ID,
		ExternalMediaID: w.ExternalMediaID,
		MediaType:       w.MediaType,
		Title:           w.Title,
		Overview:        w.Overview,
		PosterURL:       w.PosterURL,
		ReleaseDate:     w.ReleaseDate,
		Rating:          w.Rating,
		Watched:         w.Watched,
		UserRating:      w.UserRating,
		Priority:        w.Priority,
		Favorite:        w.Favorite,
		RecommendedBy:   w.RecommendedBy,
	}
	e.DateAdded = parseWireDate(w.DateAdded, w.ID, "dateAdded")
	if w.DateWatched != nil {
		if t := parseWireDate(*w.DateWatched, w.ID, "dateWatched"); !t.IsZero() {
			e.DateWatched = &t
		}
	}
	return e
}

// parseWireDate parses an ISO-8601 wire date. Malformed values are logged and
// degrade to the zero time — a bad date must never take down the fetch.
func parseWireDate(s string, id int64, field string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		slog.Warn("malformed date in watchlist payload", "entry_id", id, "field", field, "value", s)
		return time.Time{}
	}
	return t
}

type listResponse struct {
	Items []wireEntry `json:"items"`
	Error string      `json:"error"`
}

// FetchAll retrieves the current watchlist snapshot. Transient failures are
// retried twice with 1s then 2s backoff, surfacing a notice before each
// retry. After the final failure the error is terminal and the caller must
// fall back to an empty list rather than showing stale data.
func (c *Client) FetchAll(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry

	err := retry.Do(
		func() error {
			list, err := c.fetchOnce(ctx)
			if err != nil {
				return err
			}
			entries = list
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			delay := fetchBaseDelay << n
			c.notify.Error(fmt.Sprintf("Loading failed, retrying in %ds...", int(delay.Seconds())))
			slog.Warn("watchlist fetch failed", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		c.notify.Error("Failed to load watchlist. Please refresh the page.")
		return nil, fmt.Errorf("listview: fetching watchlist: %w", err)
	}
	return entries, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]models.Entry, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	entries := make([]models.Entry, 0, len(resp.Items))
	for _, w := range resp.Items {
		entries = append(entries, w.toEntry())
	}
	return entries, nil
}

// CreateRequest is the body for adding a title to the watchlist.
type CreateRequest struct {
	ExternalMediaID int64            `json:"externalMediaId"`
	MediaType       models.MediaType `json:"mediaType"`
	Title           string           `json:"title"`
	Overview        string           `json:"overview,omitempty"`
	PosterURL       string           `json:"posterUrl,omitempty"`
	ReleaseDate     string           `json:"releaseDate,omitempty"`
	Rating          float64          `json:"rating,omitempty"`
	Watched         bool             `json:"watched,omitempty"`
	Favorite        bool             `json:"favorite,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	RecommendedBy   *string          `json:"recommendedBy,omitempty"`
}

type itemResponse struct {
	Success bool       `json:"success"`
	Item    *wireEntry `json:"item"`
	Error   string     `json:"error"`
}

// Create adds a title. A duplicate (externalMediaId, mediaType) pair returns
// the existing entry together with ErrConflict.
func (c *Client) Create(ctx context.Context, req CreateRequest) (models.Entry, error) {
	body, code, err := c.doRaw(ctx, http.MethodPost, "/api/watchlist", req)
	if err != nil {
		return models.Entry{}, err
	}

	var resp itemResponse
	if decErr := json.Unmarshal(body, &resp); decErr != nil {
		return models.Entry{}, fmt.Errorf("listview: decoding create response: %w", decErr)
	}

	switch {
	case code == http.StatusConflict:
		var existing models.Entry
		if resp.Item != nil {
			existing = resp.Item.toEntry()
		}
		return existing, ErrConflict
	case code != http.StatusCreated:
		return models.Entry{}, statusError(code, resp.Error)
	case resp.Item == nil:
		return models.Entry{}, errors.New("listview: create response missing item")
	}
	return resp.Item.toEntry(), nil
}

// Update applies a partial patch to one entry and returns the authoritative
// server copy.
func (c *Client) Update(ctx context.Context, id int64, patch models.Patch) (models.Entry, error) {
	body, code, err := c.doRaw(ctx, http.MethodPut, "/api/watchlist/"+strconv.FormatInt(id, 10), patch)
	if err != nil {
		return models.Entry{}, err
	}

	var resp itemResponse
	if decErr := json.Unmarshal(body, &resp); decErr != nil {
		return models.Entry{}, fmt.Errorf("listview: decoding update response: %w", decErr)
	}

	switch {
	case code == http.StatusNotFound:
		return models.Entry{}, ErrNotFound
	case code != http.StatusOK:
		return models.Entry{}, statusError(code, resp.Error)
	case resp.Item == nil:
		return models.Entry{}, errors.New("listview: update response missing item")
	}
	return resp.Item.toEntry(), nil
}

// Delete removes one entry.
func (c *Client) Delete(ctx context.Context, id int64) error {
	body, code, err := c.doRaw(ctx, http.MethodDelete, "/api/watchlist/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		var resp itemResponse
		_ = json.Unmarshal(body, &resp)
		return statusError(code, resp.Error)
	}
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
	Error   string                `json:"error"`
}

// Search queries the server's catalog search proxy.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp.Results, nil
}

type checkAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// CheckAdmin resolves the admin flag for an email. The result is an opaque
// boolean — authentication happens elsewhere.
func (c *Client) CheckAdmin(ctx context.Context, email string) (bool, error) {
	var resp checkAdminResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/check-admin", map[string]string{"email": email}, &resp)
	if err != nil {
		return false, err
	}
	return resp.IsAdmin, nil
}

// do performs a request expecting a 2xx response and decodes the body into out.
func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	body, code, err := c.doRaw(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		var er struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &er)
		return statusError(code, er.Error)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("listview: decoding response: %w", err)
		}
	}
	return nil
}

// doRaw performs a request and returns the buffered body with the status
// code. Network-level failures are returned as errors; HTTP-level failures
// are signalled via the status code.
func (c *Client) doRaw(ctx context.Context, method, path string, reqBody any) ([]byte, int, error) {
	var r io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, 0, fmt.Errorf("listview: encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, 0, fmt.Errorf("listview: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("listview: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("listview: reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func statusError(code int, msg string) error {
	if msg != "" {
		return fmt.Errorf("listview: server returned status %d: %s", code, msg)
	}
	return fmt.Errorf("listview: server returned status %d", code)
}

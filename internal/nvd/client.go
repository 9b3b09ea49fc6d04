package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cve-tools/cvemirror/internal/model"
)

// StatusError is a non-200 API response. It is transient by definition:
// the remote source answers 403/503 under rate pressure and recovers, so
// callers retry these up to their limit rather than failing the crawl.
type StatusError struct {
	// StatusCode is the HTTP status the API returned.
	StatusCode int
}

// Error returns a human-readable description.
func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned status %d", e.StatusCode)
}

// Page is one API response: the slice of records plus the pagination
// fields the crawl loop consumes.
type Page struct {
	// StartIndex is the offset the response starts at, as reported by
	// the remote source (not the requested value).
	StartIndex int

	// TotalResults is the remote source's total result count.
	TotalResults int

	// Records holds the mode-specific results array in source order.
	Records []model.Record
}

// Exhausted reports whether the crawl is past the end of the result set.
func (p *Page) Exhausted() bool {
	return p.StartIndex >= p.TotalResults
}

// Client talks to one endpoint of the NVD API in one mode.
//
// All requests made through one Client share a rate limiter, so bulk
// paging and delta fetches never exceed the configured request interval
// combined. The limiter admits the first request immediately.
type Client struct {
	// httpClient performs the requests. Injected so tests can use
	// httptest servers and transports stay configurable.
	httpClient *http.Client

	// endpoint is the API base URL, without query parameters.
	endpoint string

	// mode selects the results array key and the delta parameter names.
	mode model.Mode

	// limiter paces outbound requests.
	limiter *rate.Limiter

	// userAgent is sent with every request.
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestInterval sets the minimum spacing between requests.
// Zero disables pacing (used in tests).
func WithRequestInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the given endpoint and mode.
func NewClient(endpoint string, mode model.Mode, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   endpoint,
		mode:       mode,
		limiter:    rate.NewLimiter(rate.Every(6*time.Second), 1),
		userAgent:  "cvemirror/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchPage requests the bulk page starting at the given offset.
func (c *Client) FetchPage(ctx context.Context, startIndex int) (*Page, error) {
	query := url.Values{}
	query.Set("startIndex", strconv.Itoa(startIndex))
	return c.fetch(ctx, query)
}

// FetchWindow requests all records modified or created in [start, end].
// The remote source returns the full window in one response; there is no
// pagination on the delta path.
func (c *Client) FetchWindow(ctx context.Context, start, end string) (*Page, error) {
	query := url.Values{}
	if c.mode == model.ModeChanges {
		query.Set("changeStartDate", start)
		query.Set("changeEndDate", end)
	} else {
		query.Set("lastModStartDate", start)
		query.Set("lastModEndDate", end)
	}
	return c.fetch(ctx, query)
}

// fetch performs one paced GET against the endpoint.
func (c *Client) fetch(ctx context.Context, query url.Values) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.endpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response fully consumed below

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body struct {
		StartIndex      int            `json:"startIndex"`
		TotalResults    int            `json:"totalResults"`
		Vulnerabilities []model.Record `json:"vulnerabilities"`
		CVEChanges      []model.Record `json:"cveChanges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	page := &Page{
		StartIndex:   body.StartIndex,
		TotalResults: body.TotalResults,
		Records:      body.Vulnerabilities,
	}
	if c.mode == model.ModeChanges {
		page.Records = body.CVEChanges
	}
	return page, nil
}

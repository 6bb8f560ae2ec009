// Package federalregister provides a client for the Federal Register documents API.
package federalregister

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/tariff-impact/internal/resilience"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://www.federalregister.gov/api/v1"

// Client defines the Federal Register operations used by this application.
type Client interface {
	// Search returns documents matching a full-text term, newest first.
	Search(ctx context.Context, params SearchParams) (*SearchResponse, error)
}

// SearchParams filters a document search.
type SearchParams struct {
	Term    string
	PerPage int      // default 20, API max 1000
	Types   []string // RULE, PRORULE, NOTICE, PRESDOCU
	Since   string   // publication date lower bound, YYYY-MM-DD
}

// SearchResponse is the parsed documents.json response.
type SearchResponse struct {
	Count   int        `json:"count"`
	Results []Document `json:"results"`
}

// Document is one Federal Register document.
type Document struct {
	DocumentNumber  string `json:"document_number"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	Abstract        string `json:"abstract"`
	PublicationDate string `json:"publication_date"`
	HTMLURL         string `json:"html_url"`
}

var documentFields = []string{"document_number", "title", "type", "abstract", "publication_date", "html_url"}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetryPolicy overrides the retry policy for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a Federal Register client. Requests are throttled to
// 2 req/s by default and transient failures are retried.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(2, 1),
		retry:   resilience.DefaultPolicy("federalregister.search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.Term == "" {
		return nil, eris.New("federalregister: search term is required")
	}
	endpoint := c.baseURL + "/documents.json?" + searchQuery(params).Encode()

	return resilience.RetryValue(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "federalregister: rate limit wait")
			}
		}
		return c.get(ctx, endpoint)
	})
}

func (c *httpClient) get(ctx context.Context, endpoint string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "federalregister: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "federalregister: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, eris.Wrap(err, "federalregister: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("federalregister", resp.StatusCode, string(body))
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "federalregister: decode response")
	}
	return &out, nil
}

func searchQuery(params SearchParams) url.Values {
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	q := url.Values{}
	q.Set("conditions[term]", params.Term)
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("order", "newest")
	for _, t := range params.Types {
		q.Add("conditions[type][]", t)
	}
	if params.Since != "" {
		q.Set("conditions[publication_date][gte]", params.Since)
	}
	for _, f := range documentFields {
		q.Add("fields[]", f)
	}
	return q
}

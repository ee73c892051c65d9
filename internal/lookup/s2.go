package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// S2BaseURL is the Semantic Scholar Graph API base URL.
	S2BaseURL = "https://api.semanticscholar.org/graph/v1"

	// s2SearchFields are the paper fields requested for verification.
	s2SearchFields = "title,year,authors"

	// s2RateLimit matches the unauthenticated shared-pool allowance.
	s2RateLimit = 1.0
)

// S2Client is a rate-limited client for the Semantic Scholar Graph API.
type S2Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
}

// S2Option configures an S2Client.
type S2Option func(*S2Client)

// WithS2APIKey sets the API key for authenticated requests.
func WithS2APIKey(key string) S2Option {
	return func(c *S2Client) {
		c.apiKey = key
	}
}

// WithS2HTTPClient sets a custom HTTP client.
func WithS2HTTPClient(hc *http.Client) S2Option {
	return func(c *S2Client) {
		c.httpClient = hc
	}
}

// WithS2BaseURL sets a custom base URL (for testing).
func WithS2BaseURL(u string) S2Option {
	return func(c *S2Client) {
		c.baseURL = u
	}
}

// NewS2Client creates a new Semantic Scholar client.
// It reads S2_API_KEY from the environment unless an option overrides it.
func NewS2Client(opts ...S2Option) *S2Client {
	c := &S2Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(s2RateLimit), 1),
		baseURL:    S2BaseURL,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// s2SearchResponse mirrors the paper search payload.
type s2SearchResponse struct {
	Total int `json:"total"`
	Data  []struct {
		Title   string `json:"title"`
		Year    *int   `json:"year"` // null when unknown
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	} `json:"data"`
}

// Search queries Semantic Scholar for papers matching the query.
func (c *S2Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", s2SearchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus("s2", resp.StatusCode); err != nil {
		return nil, err
	}

	var payload s2SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	results := make([]Result, 0, len(payload.Data))
	for _, p := range payload.Data {
		r := Result{Title: p.Title}
		if p.Year != nil {
			r.Year = *p.Year
		}
		for _, a := range p.Authors {
			if a.Name != "" {
				r.Authors = append(r.Authors, a.Name)
			}
		}
		results = append(results, r)
	}

	return results, nil
}

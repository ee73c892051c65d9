package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DBLPBaseURL is the DBLP publication search API endpoint.
	DBLPBaseURL = "https://dblp.org/search/publ/api"

	// dblpRateLimit keeps well under DBLP's informal courtesy limit.
	dblpRateLimit = 2.0
)

// DBLPClient is a rate-limited client for the DBLP publication search API.
type DBLPClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// DBLPOption configures a DBLPClient.
type DBLPOption func(*DBLPClient)

// WithDBLPHTTPClient sets a custom HTTP client.
func WithDBLPHTTPClient(hc *http.Client) DBLPOption {
	return func(c *DBLPClient) {
		c.httpClient = hc
	}
}

// WithDBLPBaseURL sets a custom base URL (for testing).
func WithDBLPBaseURL(u string) DBLPOption {
	return func(c *DBLPClient) {
		c.baseURL = u
	}
}

// NewDBLPClient creates a new DBLP search client.
func NewDBLPClient(opts ...DBLPOption) *DBLPClient {
	c := &DBLPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(dblpRateLimit), 1),
		baseURL:    DBLPBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dblpAuthor is one author in a DBLP hit.
type dblpAuthor struct {
	Text string `json:"text"`
}

// dblpAuthorList unmarshals DBLP's author field, which is a single object
// for one author and an array for several.
type dblpAuthorList []dblpAuthor

func (l *dblpAuthorList) UnmarshalJSON(data []byte) error {
	var many []dblpAuthor
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var one dblpAuthor
	if err := json.Unmarshal(data, &one); err == nil {
		*l = dblpAuthorList{one}
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into author list", string(data))
}

// dblpResponse mirrors the relevant parts of the DBLP search payload.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info struct {
					Title   string `json:"title"`
					Year    string `json:"year"`
					Authors struct {
						Author dblpAuthorList `json:"author"`
					} `json:"authors"`
				} `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

// Search queries DBLP for publications matching the query.
func (c *DBLPClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("h", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkStatus("dblp", resp.StatusCode); err != nil {
		return nil, err
	}

	var payload dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	results := make([]Result, 0, len(payload.Result.Hits.Hit))
	for _, hit := range payload.Result.Hits.Hit {
		r := Result{Title: hit.Info.Title}
		if year, err := strconv.Atoi(hit.Info.Year); err == nil {
			r.Year = year
		}
		for _, a := range hit.Info.Authors.Author {
			if a.Text != "" {
				r.Authors = append(r.Authors, a.Text)
			}
		}
		results = append(results, r)
	}

	return results, nil
}

// Package isap provides an HTTP client for the ELI API of the Polish
// national register of legal acts (ISAP).
package isap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/velumlaw/counsel/internal/port/legal"
	"github.com/velumlaw/counsel/internal/resilience"
)

// searchPageSize caps one acts search so tool results stay prompt-sized.
const searchPageSize = 10

// Client talks to the ELI acts API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new ISAP client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type actItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Year      int    `json:"year"`
	Pos       int    `json:"pos"`
	InForce   int    `json:"inForce"`
}

// SearchActs queries the acts index by title keyword, optionally scoped to a
// publication year and to acts still in force.
func (c *Client) SearchActs(ctx context.Context, keyword string, year int, inForce bool) ([]legal.Act, error) {
	q := url.Values{}
	q.Set("title", keyword)
	q.Set("limit", strconv.Itoa(searchPageSize))
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if inForce {
		q.Set("inForce", "1")
	}

	data, err := c.doRequest(ctx, "/acts/search?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("search acts: %w", err)
	}

	var result struct {
		Items []actItem `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal acts: %w", err)
	}

	acts := make([]legal.Act, 0, len(result.Items))
	for _, it := range result.Items {
		acts = append(acts, legal.Act{
			Title:     it.Title,
			Publisher: it.Publisher,
			Year:      it.Year,
			Pos:       it.Pos,
			InForce:   it.InForce != 0,
		})
	}
	return acts, nil
}

// ActContent fetches the consolidated text of one act addressed by
// publisher/year/position.
func (c *Client) ActContent(ctx context.Context, publisher string, year, pos int) (string, error) {
	path := fmt.Sprintf("/acts/%s/%d/%d/text.html", url.PathEscape(publisher), year, pos)
	data, err := c.doRequest(ctx, path)
	if err != nil {
		return "", fmt.Errorf("act content %s/%d/%d: %w", publisher, year, pos, err)
	}
	return string(data), nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	var result []byte
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("isap API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Do(ctx, call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// Package saos provides an HTTP client for the SAOS court-rulings API.
package saos

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

// searchPageSize caps one rulings search so tool results stay prompt-sized.
const searchPageSize = 10

// Client talks to the SAOS judgments API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new SAOS client.
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

type judgmentItem struct {
	ID         int64  `json:"id"`
	CourtType  string `json:"courtType"`
	Href       string `json:"href"`
	TextLevel  string `json:"textLevel,omitempty"`
	Summary    string `json:"summary"`
	CourtCases []struct {
		CaseNumber string `json:"caseNumber"`
	} `json:"courtCases"`
}

// SearchRulings queries the judgment corpus by full-text phrase, optionally
// scoped to one court type (COMMON, SUPREME, ADMINISTRATIVE, CONSTITUTIONAL).
func (c *Client) SearchRulings(ctx context.Context, query, courtType string) ([]legal.Ruling, error) {
	q := url.Values{}
	q.Set("all", query)
	q.Set("pageSize", strconv.Itoa(searchPageSize))
	if courtType != "" {
		q.Set("courtType", courtType)
	}

	data, err := c.doRequest(ctx, "/search/judgments?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("search rulings: %w", err)
	}

	var result struct {
		Items []judgmentItem `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal rulings: %w", err)
	}

	rulings := make([]legal.Ruling, 0, len(result.Items))
	for _, it := range result.Items {
		r := legal.Ruling{
			ID:        strconv.FormatInt(it.ID, 10),
			CourtType: it.CourtType,
			Summary:   it.Summary,
			URL:       it.Href,
		}
		if len(it.CourtCases) > 0 {
			r.CaseSign = it.CourtCases[0].CaseNumber
		}
		rulings = append(rulings, r)
	}
	return rulings, nil
}

// JudgmentText fetches the full text content of one judgment.
func (c *Client) JudgmentText(ctx context.Context, judgmentID string) (string, error) {
	data, err := c.doRequest(ctx, "/judgments/"+url.PathEscape(judgmentID))
	if err != nil {
		return "", fmt.Errorf("judgment text %s: %w", judgmentID, err)
	}

	var result struct {
		Data struct {
			TextContent string `json:"textContent"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("unmarshal judgment %s: %w", judgmentID, err)
	}
	return result.Data.TextContent, nil
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
			return fmt.Errorf("saos API error %d: %s", resp.StatusCode, string(data))
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

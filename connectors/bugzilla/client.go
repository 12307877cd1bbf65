// Package bugzilla provides a minimal Bugzilla REST connector used by the
// report. It exposes a high-level search backed by GET /rest/bug and handles
// auth, pagination and transient-failure retries.
package bugzilla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	bz "github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/bugzilla"
)

const (
	acceptJSON   = "application/json"
	apiKeyHeader = "X-BUGZILLA-API-KEY"
	pageSize     = 500
	maxRetries   = 3
)

var retryBaseBackoff = 5 * time.Second

// Client is a thin wrapper over http.Client with auth and search helpers.
// Use New or NewWithClientCredentials to construct it.
type Client struct {
	c       *http.Client
	baseURL string
	apiKey  string
}

// New builds a Client authenticating with an API key (empty for anonymous
// access; the queried data is public). A nil http.Client gets a default
// with a 30s timeout.
func New(c *http.Client, baseURL, apiKey string) *Client {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{c: c, baseURL: baseURL, apiKey: apiKey}
}

// NewWithClientCredentials builds a Client whose requests carry an OAuth2
// bearer token obtained through the client-credentials flow.
func NewWithClientCredentials(ctx context.Context, baseURL string, creds clientcredentials.Config, timeout time.Duration) *Client {
	c := creds.Client(ctx)
	c.Timeout = timeout
	return &Client{c: c, baseURL: baseURL}
}

// Condition is one f/o/v search operator triple of the Bugzilla query
// language, e.g. {"creation_ts", "greaterthaneq", "2024-01-01T00:00:00Z"}.
type Condition struct {
	Field    string
	Operator string
	Value    string
}

// SearchParams describes one bug search.
type SearchParams struct {
	Fields     []string
	Products   []string
	Conditions []Condition
}

func (p SearchParams) values(limit, offset int) url.Values {
	v := url.Values{}
	if len(p.Fields) > 0 {
		for _, f := range p.Fields {
			v.Add("include_fields", f)
		}
	}
	for _, prod := range p.Products {
		v.Add("product", prod)
	}
	for i, c := range p.Conditions {
		n := strconv.Itoa(i + 1)
		v.Set("f"+n, c.Field)
		v.Set("o"+n, c.Operator)
		v.Set("v"+n, c.Value)
	}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(offset))
	return v
}

// SearchBugs runs a search and follows limit/offset pagination until a
// short page signals the end of the result set.
func (hc *Client) SearchBugs(ctx context.Context, params SearchParams) ([]bz.Bug, error) {
	var all []bz.Bug
	offset := 0
	for {
		rawURL := hc.baseURL + "/rest/bug?" + params.values(pageSize, offset).Encode()
		req, err := hc.newRequest(ctx, http.MethodGet, rawURL)
		if err != nil {
			return nil, err
		}
		resp, err := hc.do(ctx, req)
		if err != nil {
			return nil, err
		}
		var out struct {
			Bugs []bz.Bug `json:"bugs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("bugzilla: decoding search response: %w", err)
		}
		_ = resp.Body.Close()
		all = append(all, out.Bugs...)
		if len(out.Bugs) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

func (hc *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptJSON)
	if hc.apiKey != "" {
		req.Header.Set(apiKeyHeader, hc.apiKey)
	}
	return req, nil
}

// do sends the request, retrying 429 (honoring Retry-After) and 5xx
// responses with a capped backoff. Any other non-2xx response is a hard
// error carrying the response body.
func (hc *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempt := 0
	for {
		resp, err := hc.c.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		retriable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if retriable && attempt < maxRetries {
			wait := retryBaseBackoff << attempt
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if sec, err := strconv.Atoi(ra); err == nil && sec > 0 {
					wait = time.Duration(sec) * time.Second
				}
			}
			_ = drainAndClose(resp.Body)
			slog.Warn("bugzilla.retry.sleep", "status", resp.StatusCode, "wait", wait, "attempt", attempt+1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			attempt++
			continue
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("bugzilla API %s %s returned %d: %s", req.Method, req.URL.String(), resp.StatusCode, string(b))
	}
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}

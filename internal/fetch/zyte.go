// Package fetch provides the rendering fetch client used by the crawl
// engine. Pages are fetched through the Zyte extraction API, which returns
// browser-rendered HTML for JavaScript-heavy directory sites.
package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const zyteEndpoint = "https://api.zyte.com/v1/extract"

// ErrNotConfigured indicates the client was built without an API key.
var ErrNotConfigured = errors.New("zyte api key not configured")

// HTTPClient abstracts the underlying HTTP transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZyteClient fetches rendered markup through the Zyte API.
type ZyteClient struct {
	apiKey      string
	endpoint    string
	client      HTTPClient
	maxRetries  int
	retryDelay  time.Duration
	browserHTML bool
}

// ZyteOption configures optional client behaviour.
type ZyteOption func(*ZyteClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPClient) ZyteOption {
	return func(z *ZyteClient) {
		if client != nil {
			z.client = client
		}
	}
}

// WithMaxRetries sets how many attempts are made per page.
func WithMaxRetries(retries int) ZyteOption {
	return func(z *ZyteClient) {
		if retries > 0 {
			z.maxRetries = retries
		}
	}
}

// WithBrowserHTML toggles browser rendering; raw HTTP body otherwise.
func WithBrowserHTML(enabled bool) ZyteOption {
	return func(z *ZyteClient) {
		z.browserHTML = enabled
	}
}

// NewZyteClient builds a fetch client. The API key is required; callers
// without one should not construct a client at all and let the crawler
// report the unconfigured condition.
func NewZyteClient(apiKey string, opts ...ZyteOption) (*ZyteClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	z := &ZyteClient{
		apiKey:      apiKey,
		endpoint:    zyteEndpoint,
		client:      &http.Client{Timeout: 60 * time.Second},
		maxRetries:  3,
		retryDelay:  time.Second,
		browserHTML: true,
	}
	for _, opt := range opts {
		opt(z)
	}
	return z, nil
}

type zyteRequest struct {
	URL         string `json:"url"`
	BrowserHTML bool   `json:"browserHtml,omitempty"`
	HTTPBody    bool   `json:"httpResponseBody,omitempty"`
}

type zyteResponse struct {
	BrowserHTML string `json:"browserHtml"`
	HTTPBody    string `json:"httpResponseBody"`
}

// FetchPage implements scrape.PageFetcher. Transport errors and 5xx
// responses are retried up to the configured attempt count; a 4xx response
// fails immediately.
func (z *ZyteClient) FetchPage(ctx context.Context, pageURL string) (string, error) {
	payload, err := json.Marshal(zyteRequest{
		URL:         pageURL,
		BrowserHTML: z.browserHTML,
		HTTPBody:    !z.browserHTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshal zyte request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= z.maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("zyte retry url=%s attempt=%d err=%v", pageURL, attempt, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt-1) * z.retryDelay):
			}
		}

		markup, retryable, err := z.fetchOnce(ctx, pageURL, payload)
		if err == nil {
			return markup, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (z *ZyteClient) fetchOnce(ctx context.Context, pageURL string, payload []byte) (markup string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create zyte request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Zyte authenticates with the API key as the basic-auth username.
	req.SetBasicAuth(z.apiKey, "")

	resp, err := z.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("zyte request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", resp.StatusCode >= 500, fmt.Errorf("zyte status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded zyteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", false, fmt.Errorf("decode zyte response: %w", err)
	}
	if z.browserHTML {
		if decoded.BrowserHTML == "" {
			return "", false, errors.New("zyte response missing browserHtml")
		}
		return decoded.BrowserHTML, false, nil
	}
	if decoded.HTTPBody == "" {
		return "", false, errors.New("zyte response missing httpResponseBody")
	}
	// httpResponseBody is base64-encoded by the API.
	raw, err := base64.StdEncoding.DecodeString(decoded.HTTPBody)
	if err != nil {
		return "", false, fmt.Errorf("decode zyte body: %w", err)
	}
	return string(raw), false, nil
}

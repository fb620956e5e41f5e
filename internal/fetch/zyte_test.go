package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubHTTPClient struct {
	responses []stubResponse
	requests  []*http.Request
	bodies    []string
}

type stubResponse struct {
	status int
	body   string
	err    error
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(data))
	}
	s.requests = append(s.requests, req)
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		return nil, errors.New("no stubbed response")
	}
	r := s.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func TestNewZyteClientRequiresKey(t *testing.T) {
	if _, err := NewZyteClient(""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestFetchPageSuccess(t *testing.T) {
	stub := &stubHTTPClient{responses: []stubResponse{
		{status: http.StatusOK, body: `{"browserHtml":"<html><body>ok</body></html>"}`},
	}}
	client, err := NewZyteClient("key", WithHTTPClient(stub))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	markup, err := client.FetchPage(context.Background(), "https://www.yelp.ca/search?find_desc=Plumbers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markup, "ok") {
		t.Fatalf("unexpected markup: %q", markup)
	}

	req := stub.requests[0]
	if user, _, ok := req.BasicAuth(); !ok || user != "key" {
		t.Fatalf("expected basic auth with api key as username")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(stub.bodies[0]), &payload); err != nil {
		t.Fatalf("invalid request payload: %v", err)
	}
	if payload["url"] != "https://www.yelp.ca/search?find_desc=Plumbers" {
		t.Fatalf("unexpected payload url: %v", payload["url"])
	}
	if payload["browserHtml"] != true {
		t.Fatalf("expected browserHtml enabled by default")
	}
}

func TestFetchPageRetriesTransportErrors(t *testing.T) {
	stub := &stubHTTPClient{responses: []stubResponse{
		{err: errors.New("connection reset")},
		{status: http.StatusOK, body: `{"browserHtml":"<html></html>"}`},
	}}
	client, err := NewZyteClient("key", WithHTTPClient(stub))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.retryDelay = 0

	if _, err := client.FetchPage(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(stub.requests) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(stub.requests))
	}
}

func TestFetchPageDoesNotRetryClientErrors(t *testing.T) {
	stub := &stubHTTPClient{responses: []stubResponse{
		{status: http.StatusUnauthorized, body: `{"detail":"bad key"}`},
	}}
	client, err := NewZyteClient("key", WithHTTPClient(stub), WithMaxRetries(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.FetchPage(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected error")
	}
	if len(stub.requests) != 1 {
		t.Fatalf("expected no retry on 401, got %d attempts", len(stub.requests))
	}
}

func TestFetchPageMissingMarkup(t *testing.T) {
	stub := &stubHTTPClient{responses: []stubResponse{
		{status: http.StatusOK, body: `{}`},
	}}
	client, err := NewZyteClient("key", WithHTTPClient(stub))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.FetchPage(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected error for response without browserHtml")
	}
}

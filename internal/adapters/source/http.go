// Package source implements ports.Source: the places catalog documents are
// retrieved from.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 8 << 20

type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client whose transport emits otel spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewHTTPSource resolves keys against baseURL. Keys that are absolute URLs are
// fetched as-is.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSource) resolve(key string) string {
	if u, err := url.Parse(key); err == nil && u.IsAbs() {
		return key
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return s.baseURL + key
}

func (s *HTTPSource) Retrieve(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resolve(key), nil)
	if err != nil {
		return nil, &domain.RetrievalError{Key: key, Status: "bad request url", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Key: key, Status: "transport failure", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))
		return nil, &domain.RetrievalError{
			Key:        key,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, &domain.RetrievalError{Key: key, Status: "failed to read body", Err: err}
	}
	if len(body) > maxDocumentSize {
		return nil, &domain.RetrievalError{
			Key:    key,
			Status: "document too large",
			Err:    fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidInput, maxDocumentSize),
		}
	}
	return body, nil
}

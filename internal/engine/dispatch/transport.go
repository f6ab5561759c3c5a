package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/logging"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Transport performs one GET against the catalog API and returns the raw body.
type Transport interface {
	Request(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, path string, query url.Values) ([]byte, error)

// Request calls f.
func (f TransportFunc) Request(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return f(ctx, path, query)
}

// HTTPTransport is a Transport over net/http.
type HTTPTransport struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewHTTPTransport creates a transport rooted at baseURL. A nil client uses
// http.DefaultClient.
func NewHTTPTransport(baseURL, userAgent string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    client,
	}
}

// BaseURL returns the API root the transport talks to.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Request issues GET <base><path>?<query>. Non-2xx statuses, transport
// failures and bodies that are not JSON are reported as *catalog.NetworkError.
func (t *HTTPTransport) Request(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &catalog.NetworkError{Path: path, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &catalog.NetworkError{Path: path, Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "transport").
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request completed")
	if err != nil {
		return nil, &catalog.NetworkError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Timeout:    isTimeout(ctx, err),
			Err:        fmt.Errorf("read body: %w", err),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &catalog.NetworkError{Path: path, StatusCode: resp.StatusCode, Err: apiMessage(body)}
	}
	if !json.Valid(body) {
		return nil, &catalog.NetworkError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response body is not JSON"),
		}
	}
	return body, nil
}

// apiMessage extracts the error message of an error envelope, if any.
func apiMessage(body []byte) error {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return nil
	}
	switch {
	case env.Message != "":
		return errors.New(env.Message)
	case env.Error != "":
		return errors.New(env.Error)
	default:
		return nil
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// httpClient is shared across the HTTP-backed supervisor implementations.
// A generous timeout is applied per-request on top of whatever deadline ctx
// already carries.
var httpClient = &http.Client{Timeout: 90 * time.Second}

// isRetryableHTTPLike classifies a transport/HTTP error as retryable for
// quota-throttling purposes: timeouts, connection resets and 429/5xx are
// retryable; anything else (bad request, auth failure, malformed body) is
// not.
func isRetryableHTTPLike(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "status 5")
}

// doJSONChat issues a POST of body to url with the given headers and decodes
// the JSON response into out. It is the shared transport used by the
// OpenAI-compatible, Anthropic and custom supervisors, which differ only in
// request/response envelope shape.
func doJSONChat(ctx context.Context, url string, headers map[string]string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{status: resp.StatusCode, body: string(raw)}
	}
	return json.Unmarshal(raw, out)
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/protocol"
)

// SessionHeader is the header an MCP server uses to issue and receive
// its session token.
const SessionHeader = "Mcp-Session-Id"

// sessionErrorCode is the JSON-RPC error code servers return for a
// stale or invalid session.
const sessionErrorCode = -32600

// Backoff bases per retryable error class. The sleep is the base
// multiplied by the attempt number.
const (
	sessionBackoffBase = 500 * time.Millisecond
	networkBackoffBase = 1000 * time.Millisecond
)

// HTTPStatusError reports a non-2xx HTTP response. It is terminal for
// the call; verification maps 401 and 403 to the needs-auth status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return "unexpected HTTP status " + e.Status
}

// Unwrap ties the status error into the ErrHTTP class.
func (e *HTTPStatusError) Unwrap() error {
	return vererrors.ErrHTTP
}

// CallSpec sets the timeout tiering and retry budget for one request.
// Attempt n (0-based) runs under a timeout of Base + Step*n; retryable
// failures are retried until Retries extra attempts are spent.
type CallSpec struct {
	Base    time.Duration
	Step    time.Duration
	Retries int
}

// HTTP performs JSON-RPC exchanges against one server endpoint for the
// duration of one verification or discovery call. It owns the session
// token and is not safe for concurrent use.
type HTTP struct {
	client  *http.Client
	url     string
	headers map[string]string

	// auth holds an Authorization value moved out of the URL query
	// string before any request is sent.
	auth string

	// sessionID is captured from the first response that supplies one
	// and echoed on every subsequent request of the same call.
	sessionID string
}

// NewHTTP builds a transport for the configured URL and static
// headers. An Authorization query parameter is stripped from the URL
// and promoted to a header.
func NewHTTP(rawURL string, headers map[string]string) (*HTTP, error) {
	endpoint, auth, err := splitAuthQuery(rawURL)
	if err != nil {
		return nil, err
	}
	return &HTTP{
		client:  &http.Client{},
		url:     endpoint,
		headers: headers,
		auth:    auth,
	}, nil
}

// SessionID returns the currently held session token, if any.
func (t *HTTP) SessionID() string {
	return t.sessionID
}

// Call performs one JSON-RPC exchange, retrying session and connection
// failures within the spec's budget. The returned raw message is the
// response result field.
func (t *HTTP) Call(ctx context.Context, req *protocol.Request, spec CallSpec) (json.RawMessage, error) {
	body, err := req.Encode()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= spec.Retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoffFor(lastErr, attempt)); err != nil {
				return nil, err
			}
		}

		result, err := t.roundTrip(ctx, body, spec.Base+spec.Step*time.Duration(attempt))
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
		if isSessionError(err) {
			// A fresh session may be issued on the retried exchange.
			t.sessionID = ""
		}
		lastErr = err
	}
	return nil, lastErr
}

// Notify sends a notification. Transport delivery failures are
// surfaced; servers answer notifications with an empty or 202 body, so
// the response payload is ignored.
func (t *HTTP) Notify(ctx context.Context, req *protocol.Request, timeout time.Duration) error {
	body, err := req.Encode()
	if err != nil {
		return err
	}
	_, err = t.roundTrip(ctx, body, timeout)
	if errors.Is(err, vererrors.ErrParse) {
		return nil
	}
	return err
}

// roundTrip performs a single POST under its own timeout and decodes
// the JSON-RPC response.
func (t *HTTP) roundTrip(ctx context.Context, body []byte, timeout time.Duration) (json.RawMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	if t.auth != "" {
		httpReq.Header.Set("Authorization", t.auth)
	}
	if t.sessionID != "" {
		httpReq.Header.Set(SessionHeader, t.sessionID)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(vererrors.ErrTimeout, "request timed out")
		}
		return nil, errors.Wrapf(vererrors.ErrNetwork, "%v", err)
	}
	defer resp.Body.Close()

	if t.sessionID == "" {
		if sid := resp.Header.Get(SessionHeader); sid != "" {
			t.sessionID = sid
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(vererrors.ErrNetwork, "reading response body: %v", err)
	}

	decoded, err := protocol.DecodeBody(payload)
	if err != nil {
		return nil, errors.Wrapf(vererrors.ErrParse, "%v", err)
	}
	if decoded.Error != nil {
		wrapped := errors.Wrapf(decoded.Error, "server error %d", decoded.Error.Code)
		return nil, errors.Mark(wrapped, vererrors.ErrProtocol)
	}
	return decoded.Result, nil
}

// retryable reports whether the error belongs to one of the two
// retried classes: stale sessions and connection failures.
func retryable(err error) bool {
	return isSessionError(err) || errors.Is(err, vererrors.ErrNetwork)
}

// isSessionError matches a JSON-RPC error with the invalid-request
// code or a message mentioning "session".
func isSessionError(err error) bool {
	var rpcErr *protocol.Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == sessionErrorCode ||
		strings.Contains(strings.ToLower(rpcErr.Message), "session")
}

func backoffFor(err error, attempt int) time.Duration {
	if isSessionError(err) {
		return sessionBackoffBase * time.Duration(attempt)
	}
	return networkBackoffBase * time.Duration(attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// splitAuthQuery removes an Authorization parameter from the URL query
// string, returning the cleaned URL and the header value.
func splitAuthQuery(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, "parsing server URL")
	}

	q := u.Query()
	auth := q.Get("Authorization")
	if auth == "" {
		return rawURL, "", nil
	}
	q.Del("Authorization")
	u.RawQuery = q.Encode()
	return u.String(), auth, nil
}

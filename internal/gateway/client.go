package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/projetoecoscan/ecoscan/internal/schema"
)

// DefaultTimeout bounds every request when no client is supplied.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// Operation names, used in errors and logs.
const (
	OpLookup           = "lookup"
	OpCreateSuggestion = "create suggestion"
	OpListSuggestions  = "list suggestions"
	OpApprove          = "approve suggestion"
)

// Client talks to the product/suggestion backend. It performs exactly one
// HTTP request per call: no retries, no caching.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New returns a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: expected scheme://host[:port]", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// SuggestionReceipt is the create-suggestion response: the stored suggestion
// plus an optional confirmation message.
type SuggestionReceipt struct {
	schema.PendingSuggestion
	Message string `json:"message,omitempty"`
}

// Lookup resolves a barcode to product data or a "suggestion needed" signal.
func (c *Client) Lookup(ctx context.Context, barcode string) (*schema.ProductInfo, error) {
	q := url.Values{"barcode": {barcode}}
	status, body, err := c.do(ctx, OpLookup, http.MethodGet, "/api/productinfo?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		text := strings.TrimSpace(string(body))
		return nil, &ServerError{
			Op:      OpLookup,
			Status:  status,
			Message: fmt.Sprintf("Erro do servidor: %d - %s", status, truncate(text, 200)),
			Body:    text,
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &NetworkError{Op: OpLookup, Err: errNoProduct}
	}
	var info *schema.ProductInfo
	if err := decode(OpLookup, body, &info); err != nil {
		return nil, err
	}
	if info == nil {
		return nil, &NetworkError{Op: OpLookup, Err: errNoProduct}
	}
	return info, nil
}

// CreateSuggestion posts a new-product suggestion.
func (c *Client) CreateSuggestion(ctx context.Context, d schema.Draft) (*SuggestionReceipt, error) {
	status, body, err := c.do(ctx, OpCreateSuggestion, http.MethodPost, "/api/suggestions", d)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &ServerError{Op: OpCreateSuggestion, Status: status, Message: messageFromBody(status, body), Body: string(body)}
	}
	var r SuggestionReceipt
	if err := decode(OpCreateSuggestion, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListSuggestions fetches the pending suggestion queue.
func (c *Client) ListSuggestions(ctx context.Context) ([]schema.PendingSuggestion, error) {
	status, body, err := c.do(ctx, OpListSuggestions, http.MethodGet, "/api/suggestions", nil)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &ServerError{
			Op:      OpListSuggestions,
			Status:  status,
			Message: fmt.Sprintf("Erro ao buscar sugestões: %d", status),
			Body:    string(body),
		}
	}
	list := []schema.PendingSuggestion{}
	if err := decode(OpListSuggestions, body, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ApproveSuggestion approves suggestion id with the reviewed fields and
// returns the resulting product record.
func (c *Client) ApproveSuggestion(ctx context.Context, id int64, d schema.Draft) (*schema.ProductInfo, error) {
	path := "/api/suggestions/" + strconv.FormatInt(id, 10) + "/approve"
	status, body, err := c.do(ctx, OpApprove, http.MethodPost, path, d)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &ServerError{Op: OpApprove, Status: status, Message: messageFromBody(status, body), Body: string(body)}
	}
	var p schema.ProductInfo
	if len(bytes.TrimSpace(body)) == 0 {
		return &p, nil
	}
	if err := decode(OpApprove, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("backend request failed", "op", op, "request_id", reqID, "error", err)
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", err)}
	}
	slog.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)
	return resp.StatusCode, body, nil
}

// errNoProduct is a successful lookup that carried no product record.
var errNoProduct = errors.New("response carried no product")

func decode(op string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("parsing response JSON (body: %s): %w", truncate(string(body), 200), err)}
	}
	return nil
}

func ok(status int) bool { return status >= 200 && status < 300 }

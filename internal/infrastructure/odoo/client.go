package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

const (
	// maxResponseSize limits the response body size to prevent memory
	// exhaustion from a misbehaving remote.
	maxResponseSize = 10 * 1024 * 1024

	authenticatePath = "/web/session/authenticate"
	callKwPath       = "/web/dataset/call_kw"

	// sessionExpiredCode is Odoo's application error code for an
	// invalidated web session. Seeing it drops the cached identity so
	// the next call re-authenticates.
	sessionExpiredCode = 100
)

// rpcRequest is the JSON-RPC 2.0 envelope Odoo's web endpoints expect.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

// rpcError is the application error payload Odoo returns inside a
// well-formed response.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) detail() string {
	if len(e.Data) > 0 {
		// The data object usually carries the server-side traceback
		// summary; keep the short message plus the raw payload so
		// operators can see the real cause.
		return fmt.Sprintf("%s: %s", e.Message, string(e.Data))
	}
	return e.Message
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Client owns one authenticated identity against an Odoo instance and
// exposes the single invocation primitive every higher layer uses.
//
// The cached identity is mutable state: Client is not safe for
// concurrent use. Construct one client per request, or serialize access
// externally when sharing an instance.
type Client struct {
	cfg        *Config
	httpClient *http.Client

	uid           int64
	authenticated bool
	nextID        int64
}

// NewClient creates a client for the given configuration. The session
// is established lazily on first use.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Odoo tracks the web session via a cookie set by authenticate.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to create cookie jar: %w", err)
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Config returns the connection configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

// UID returns the cached remote user id, or 0 before authentication.
func (c *Client) UID() int64 {
	return c.uid
}

// EnsureAuthenticated establishes the remote session if there is none.
// Idempotent: a no-op once an identity is cached. The identity is only
// dropped by an explicit session-expired error from the remote side.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	if c.authenticated {
		return nil
	}

	params := map[string]any{
		"db":       c.cfg.Database,
		"login":    c.cfg.Username,
		"password": c.cfg.Password,
	}
	resp, err := c.post(ctx, authenticatePath, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return &checkout.AuthenticationError{Detail: resp.Error.detail()}
	}

	var result struct {
		UID int64 `json:"uid"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil || result.UID <= 0 {
		return &checkout.AuthenticationError{Detail: "no uid in authenticate response"}
	}

	c.uid = result.UID
	c.authenticated = true
	return nil
}

// CallKw invokes an arbitrary model method through /web/dataset/call_kw
// and classifies the outcome into exactly one of: transport failure,
// application failure, or success with the raw result value. No retry
// happens at this layer; retry policy belongs to callers and must
// respect idempotence.
func (c *Client) CallKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if err := c.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	params := map[string]any{
		"model":  model,
		"method": method,
		"args":   args,
		"kwargs": kwargs,
	}

	resp, err := c.post(ctx, callKwPath, params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		if resp.Error.Code == sessionExpiredCode {
			c.authenticated = false
			c.uid = 0
		}
		return nil, &checkout.RemoteCallError{
			Kind:   checkout.KindApplication,
			Detail: fmt.Sprintf("%s.%s: %s", model, method, resp.Error.detail()),
		}
	}
	return resp.Result, nil
}

// post sends one JSON-RPC envelope and decodes the response. Every
// network, HTTP-layer or decode failure comes back as a transport-kind
// RemoteCallError.
func (c *Client) post(ctx context.Context, path string, params any) (*rpcResponse, error) {
	c.nextID++
	envelope := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  params,
		ID:      c.nextID,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &checkout.RemoteCallError{
			Kind:   checkout.KindTransport,
			Detail: err.Error(),
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, &checkout.RemoteCallError{
			Kind:   checkout.KindTransport,
			Detail: "failed to read response: " + err.Error(),
		}
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, &checkout.RemoteCallError{
			Kind:   checkout.KindTransport,
			Detail: fmt.Sprintf("HTTP %d from %s", httpResp.StatusCode, path),
		}
	}

	var resp rpcResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &checkout.RemoteCallError{
			Kind:   checkout.KindTransport,
			Detail: "malformed response body: " + err.Error(),
		}
	}
	return &resp, nil
}

// Package syncer synchronises the workflows of a user-hosted bridge endpoint with a backend service.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/signature"
	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds each outbound call when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20
	maxMessageLength = 512
)

// emptyPayload is the signed payload of a discovery request, which carries no body.
var emptyPayload = []byte("{}")

// Client performs discovery and sync calls. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   Endpoint
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New initializes a Client. Without options it targets the bridge variant.
func New(opts ...Option) (*Client, error) {
	_inst := &Client{
		endpoint: variants[VariantBridge],
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.httpClient == nil {
		_inst.httpClient = &http.Client{Transport: NewLoggingTransport(http.DefaultTransport, _inst.logger)}
	}
	if err := _inst.endpoint.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid endpoint")
	}
	return _inst, nil
}

// Endpoint returns the endpoint template in use.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Synchronize validates req, runs discovery when the endpoint requires it, then reports the target
// to the backend and returns the backend's JSON response.
func (c *Client) Synchronize(ctx context.Context, req Request) (Result, error) {
	logger := c.logger.With(slog.Any("request", req))
	logger.Debug("validating request...")
	if err := req.Validate(); err != nil {
		logger.Warn("invalid request", slog.Any("error", err))
		return nil, err
	}

	body := map[string]any{c.endpoint.URLField: req.TargetURL}
	if c.endpoint.Discovers() {
		logger.Debug("discovering workflows...", slog.String("mode", string(c.endpoint.Discovery)))
		workflows, err := c.discover(ctx, req)
		if err != nil {
			logger.Warn("discovery failed", slog.Any("error", err))
			return nil, err
		}
		logger.Info("discovered workflows", slog.Int("count", len(workflows)))
		body["workflows"] = workflows
	}

	logger.Debug("syncing...", slog.String("path", c.endpoint.SyncPath))
	result, err := c.sync(ctx, req, body)
	if err != nil {
		logger.Warn("sync failed", slog.Any("error", err))
		return nil, err
	}
	logger.Info("sync complete")
	return result, nil
}

func (c *Client) discover(ctx context.Context, req Request) ([]json.RawMessage, error) {
	target, err := c.endpoint.DiscoveryURL(req.TargetURL)
	if err != nil {
		return nil, &Error{Kind: KindDiscovery, Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindDiscovery, Cause: errors.Wrap(err, "create request")}
	}
	sig := signature.SignAt(req.APIKey, c.now(), emptyPayload)
	httpReq.Header.Set(c.endpoint.SignatureHeader, sig.String())
	httpReq.Header.Set("Accept", "application/json")

	status, payload, err := c.do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindDiscovery, Message: "discovery request failed", Cause: err}
	}
	if !isSuccess(status) {
		return nil, &Error{Kind: KindDiscovery, StatusCode: status, Message: upstreamMessage(payload, status)}
	}

	var discovered discoveryResponse
	if len(bytes.TrimSpace(payload)) > 0 {
		if err = json.Unmarshal(payload, &discovered); err != nil {
			return nil, &Error{Kind: KindDiscovery, StatusCode: status, Message: "invalid discovery response", Cause: err}
		}
	}
	if discovered.Workflows == nil {
		return []json.RawMessage{}, nil
	}
	return discovered.Workflows, nil
}

func (c *Client) sync(ctx context.Context, req Request, body map[string]any) (Result, error) {
	target, err := c.endpoint.SyncURL(req.BackendURL)
	if err != nil {
		return nil, &Error{Kind: KindSync, Cause: err}
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindSync, Cause: errors.Wrap(err, "marshal sync body")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return nil, &Error{Kind: KindSync, Cause: errors.Wrap(err, "create request")}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "ApiKey "+req.APIKey)

	status, payload, err := c.do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindSync, Message: "sync request failed", Cause: err}
	}
	if !isSuccess(status) {
		return nil, &Error{Kind: KindSync, StatusCode: status, Message: upstreamMessage(payload, status)}
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return Result("{}"), nil
	}
	if !json.Valid(payload) {
		return nil, &Error{Kind: KindSync, StatusCode: status, Message: "invalid sync response: " + helpers.Truncate(string(payload), maxMessageLength)}
	}
	return Result(payload), nil
}

// do sends req and reads its body. Network failures, including deadline expiry, are transport errors.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, newTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, newTransportError(errors.Wrap(err, "read response body"))
	}
	return resp.StatusCode, payload, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// upstreamMessage extracts a human-readable message from an error response body.
func upstreamMessage(payload []byte, status int) string {
	var body struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		switch m := body.Message.(type) {
		case string:
			if m != "" {
				return m
			}
		case nil:
		default:
			if encoded, err := json.Marshal(m); err == nil {
				return string(encoded)
			}
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := string(bytes.TrimSpace(payload)); text != "" {
		return helpers.Truncate(text, maxMessageLength)
	}
	return http.StatusText(status)
}

// Package runtime adapts the handler to its hosts: AWS Lambda, a plain HTTP server and a GitHub Actions step.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/handler"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/sethvargo/go-githubactions"
)

// InvocationHeader carries the invocation id on HTTP responses.
const InvocationHeader = "X-Invocation-Id"

const maxBodyBytes = 1 << 20

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPayloadType selects the Lambda response shape. Defaults to API Gateway v2.
func WithPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		r.payloadType = payloadType
	}
}

type Runtime struct {
	*handler.Handler
	logger      *slog.Logger
	payloadType string
}

// NewRuntime creates a new runtime instance
func NewRuntime(h *handler.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{Handler: h, payloadType: config.PayloadAPIGatewayV2}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// HandleEvent is the Lambda handler for HTTP-style payloads. Failed synchronisations are reported in the
// response, not as invocation errors.
func (r *Runtime) HandleEvent(ctx context.Context, req models.Request) (response any, err error) {
	r.logger.Info("received Lambda request", slog.String("payloadType", r.payloadType))
	req.Headers = lowerCaseKeys(req.Headers)

	bus, err := r.Handler.Process(ctx, req)
	if err != nil {
		r.logger.Debug("trigger completed with error", slog.Any("error", err))
	}
	res := bus.Response

	switch r.payloadType {
	case config.PayloadAPIGatewayV1:
		return events.APIGatewayProxyResponse{
			Body:       res.Body,
			Headers:    res.Headers,
			StatusCode: res.StatusCode,
		}, nil
	case config.PayloadAPIGatewayV2:
		return events.APIGatewayV2HTTPResponse{
			Body:       res.Body,
			Headers:    res.Headers,
			StatusCode: res.StatusCode,
		}, nil
	case config.PayloadLambdaURL:
		return events.LambdaFunctionURLResponse{
			Body:       res.Body,
			Headers:    res.Headers,
			StatusCode: res.StatusCode,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", r.payloadType)
	}
}

// HandleScheduledEvent is the Lambda handler for EventBridge events. The event detail may override the target URL.
func (r *Runtime) HandleScheduledEvent(ctx context.Context, event models.Event) (syncer.Outcome, error) {
	r.logger.Info("received EventBridge event", slog.String("id", event.ID), slog.String("detailType", event.DetailType))
	bus, err := r.Handler.Process(ctx, event.Request())
	if err != nil {
		r.logger.Warn("scheduled synchronisation failed", slog.Any("error", err))
	}
	return bus.Outcome, nil
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), "reason", "method not allowed", slog.Any("method", req.Method))
		resp.Header().Set("Allow", http.MethodPost)
		helpers.RespondJSON(resp, http.StatusMethodNotAllowed, syncer.Report(nil, fmt.Errorf("method %s not allowed", req.Method)))
		return
	}

	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("path", req.URL.Path))
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(resp, req.Body, maxBodyBytes))
	if err != nil {
		r.logger.Warn("failed to read request body", slog.Any("error", err))
		helpers.RespondJSON(resp, http.StatusRequestEntityTooLarge, syncer.Report(nil, err))
		return
	}

	bus, err := r.Handler.Process(req.Context(), models.Request{Body: string(body), Headers: headers})
	if err != nil {
		r.logger.Debug("trigger completed with error", slog.Any("error", err))
	}
	for k, v := range bus.Response.Headers {
		resp.Header().Set(k, v)
	}
	resp.Header().Set(InvocationHeader, bus.InvocationID)
	resp.WriteHeader(bus.Response.StatusCode)
	_, _ = io.WriteString(resp, bus.Response.Body)
}

// RunAction runs one synchronisation as a GitHub Actions step: the outcome is written to the 'result' and
// 'success' outputs and a failure fails the step.
func (r *Runtime) RunAction(ctx context.Context, action *githubactions.Action) error {
	bus, err := r.Handler.Process(ctx, models.Request{})
	action.SetOutput("result", string(bus.Outcome.Result))
	action.SetOutput("success", strconv.FormatBool(bus.Outcome.Success))
	if err != nil {
		action.Errorf("%s", err)
		return err
	}
	action.Infof("workflows synchronised (invocation %s)", bus.InvocationID)
	return nil
}

func lowerCaseKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

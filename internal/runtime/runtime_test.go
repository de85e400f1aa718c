package runtime_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/bridge-sync/internal/config"
	"github.com/isometry/bridge-sync/internal/handler"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/runtime"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/sethvargo/go-githubactions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTarget = "https://app.example.com/api/novu"

func newRuntime(t *testing.T, status int, response string, opts ...runtime.Option) (*runtime.Runtime, *[]string) {
	t.Helper()
	return newRuntimeWithHandler(t, status, response, nil, opts...)
}

func newRuntimeWithHandler(t *testing.T, status int, response string, hdlOpts []handler.Option, opts ...runtime.Option) (*runtime.Runtime, *[]string) {
	t.Helper()
	var targets []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		targets = append(targets, body["bridgeUrl"])
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(backend.Close)

	client, err := syncer.New()
	require.NoError(t, err)
	h, err := handler.NewHandler(append([]handler.Option{
		handler.WithSyncer(client, "bridge"),
		handler.WithDefaults(syncer.Request{TargetURL: defaultTarget, APIKey: "nv-key", BackendURL: backend.URL}),
		handler.WithIDGenerator(func() string { return "inv-1" }),
	}, hdlOpts...)...)
	require.NoError(t, err)
	return runtime.NewRuntime(h, opts...), &targets
}

func TestHandleEvent(t *testing.T) {
	testCases := []struct {
		Name        string
		PayloadType string
		Extract     func(t *testing.T, res any) (int, string, map[string]string)
	}{
		{
			Name:        "api_gateway_v1",
			PayloadType: config.PayloadAPIGatewayV1,
			Extract: func(t *testing.T, res any) (int, string, map[string]string) {
				r, ok := res.(events.APIGatewayProxyResponse)
				require.True(t, ok)
				return r.StatusCode, r.Body, r.Headers
			},
		},
		{
			Name:        "api_gateway_v2",
			PayloadType: config.PayloadAPIGatewayV2,
			Extract: func(t *testing.T, res any) (int, string, map[string]string) {
				r, ok := res.(events.APIGatewayV2HTTPResponse)
				require.True(t, ok)
				return r.StatusCode, r.Body, r.Headers
			},
		},
		{
			Name:        "lambda_url",
			PayloadType: config.PayloadLambdaURL,
			Extract: func(t *testing.T, res any) (int, string, map[string]string) {
				r, ok := res.(events.LambdaFunctionURLResponse)
				require.True(t, ok)
				return r.StatusCode, r.Body, r.Headers
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rt, targets := newRuntimeWithHandler(t, http.StatusCreated, `{"data":true}`,
				[]handler.Option{handler.WithTargetOverride(true)}, runtime.WithPayloadType(tc.PayloadType))

			res, err := rt.HandleEvent(context.Background(), models.Request{Body: `{"bridgeUrl":"https://other.example.com"}`})
			require.NoError(t, err)

			status, body, headers := tc.Extract(t, res)
			assert.Equal(t, http.StatusOK, status)
			assert.JSONEq(t, `{"success":true,"result":{"data":true}}`, body)
			assert.Equal(t, "application/json", headers["Content-Type"])
			assert.Equal(t, []string{"https://other.example.com"}, *targets)
		})
	}
}

func TestHandleEvent_FailureIsAResponse(t *testing.T) {
	rt, _ := newRuntime(t, http.StatusUnauthorized, `{"message":"invalid key"}`)

	res, err := rt.HandleEvent(context.Background(), models.Request{})
	require.NoError(t, err)

	r, ok := res.(events.APIGatewayV2HTTPResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, r.StatusCode)
	assert.Contains(t, r.Body, `"success":false`)
	assert.Contains(t, r.Body, "invalid key")
}

func TestHandleEvent_UnsupportedPayloadType(t *testing.T) {
	rt, _ := newRuntime(t, http.StatusOK, `{}`, runtime.WithPayloadType("sqs"))

	_, err := rt.HandleEvent(context.Background(), models.Request{})
	assert.ErrorContains(t, err, "unsupported lambda payload type: sqs")
}

func TestHandleScheduledEvent(t *testing.T) {
	rt, targets := newRuntime(t, http.StatusOK, `{"ok":1}`)

	outcome, err := rt.HandleScheduledEvent(context.Background(), models.Event{ID: "e-1", DetailType: "Scheduled Event", Detail: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.JSONEq(t, `{"ok":1}`, string(outcome.Result))

	_, err = rt.HandleScheduledEvent(context.Background(), models.Event{Detail: json.RawMessage(`{"bridgeUrl":"https://scheduled.example.com"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{defaultTarget, "https://scheduled.example.com"}, *targets)
}

func TestHandleScheduledEvent_WithInboundSecret(t *testing.T) {
	rt, targets := newRuntimeWithHandler(t, http.StatusOK, `{"ok":1}`,
		[]handler.Option{handler.WithInboundSecret("trigger-secret", 5*time.Minute)})

	outcome, err := rt.HandleScheduledEvent(context.Background(), models.Event{ID: "e-1", DetailType: "Scheduled Event"})
	require.NoError(t, err)
	assert.True(t, outcome.Success)

	outcome, err = rt.HandleScheduledEvent(context.Background(), models.Event{Detail: json.RawMessage(`{"bridgeUrl":"https://scheduled.example.com"}`)})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, []string{defaultTarget, "https://scheduled.example.com"}, *targets)

	// HTTP triggers still need a signature
	res, err := rt.HandleEvent(context.Background(), models.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.(events.APIGatewayV2HTTPResponse).StatusCode)
	assert.Len(t, *targets, 2)
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		Name           string
		Method         string
		HandlerOptions []handler.Option
		Body           string
		BackendStatus  int
		ExpectedStatus int
		ExpectedBody   string
		ExpectedCalls  int
	}{
		{Name: "sync", Method: http.MethodPost, BackendStatus: http.StatusOK, ExpectedStatus: http.StatusOK, ExpectedBody: `{"success":true,"result":{"n":1}}`, ExpectedCalls: 1},
		{Name: "override", Method: http.MethodPost, HandlerOptions: []handler.Option{handler.WithTargetOverride(true)}, Body: `{"targetUrl":"https://x.example.com"}`, BackendStatus: http.StatusOK, ExpectedStatus: http.StatusOK, ExpectedBody: `{"success":true,"result":{"n":1}}`, ExpectedCalls: 1},
		{Name: "unsigned_override", Method: http.MethodPost, Body: `{"bridgeUrl":"https://attacker.example/hook"}`, BackendStatus: http.StatusOK, ExpectedStatus: http.StatusForbidden},
		{Name: "bad_body", Method: http.MethodPost, Body: `[`, BackendStatus: http.StatusOK, ExpectedStatus: http.StatusBadRequest},
		{Name: "method_not_allowed", Method: http.MethodGet, BackendStatus: http.StatusOK, ExpectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rt, targets := newRuntimeWithHandler(t, tc.BackendStatus, `{"n":1}`, tc.HandlerOptions)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.Method, "/", strings.NewReader(tc.Body))
			rt.ServeHTTP(rec, req)

			assert.Equal(t, tc.ExpectedStatus, rec.Code)
			assert.Len(t, *targets, tc.ExpectedCalls)
			if tc.ExpectedBody != "" {
				assert.JSONEq(t, tc.ExpectedBody, rec.Body.String())
				assert.Equal(t, "inv-1", rec.Header().Get(runtime.InvocationHeader))
			}
		})
	}
}

func newAction(t *testing.T) (*githubactions.Action, *bytes.Buffer, string) {
	t.Helper()
	output := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(output, nil, 0o600))
	var buf bytes.Buffer
	action := githubactions.New(
		githubactions.WithWriter(&buf),
		githubactions.WithGetenv(func(key string) string {
			if key == "GITHUB_OUTPUT" {
				return output
			}
			return ""
		}),
	)
	return action, &buf, output
}

func TestRunAction(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rt, _ := newRuntime(t, http.StatusOK, `{"data":{"synced":3}}`)
		action, _, output := newAction(t)

		require.NoError(t, rt.RunAction(context.Background(), action))

		content, err := os.ReadFile(output)
		require.NoError(t, err)
		assert.Contains(t, string(content), "result<<")
		assert.Contains(t, string(content), `{"data":{"synced":3}}`)
		assert.Contains(t, string(content), "success<<")
		assert.Contains(t, string(content), "\ntrue\n")
	})

	t.Run("failure", func(t *testing.T) {
		rt, _ := newRuntime(t, http.StatusInternalServerError, `{"message":"backend down"}`)
		action, buf, output := newAction(t)

		err := rt.RunAction(context.Background(), action)
		require.Error(t, err)
		assert.True(t, syncer.IsKind(err, syncer.KindSync))

		content, rErr := os.ReadFile(output)
		require.NoError(t, rErr)
		assert.Contains(t, string(content), "\n{}\n")
		assert.Contains(t, string(content), "\nfalse\n")
		assert.Contains(t, buf.String(), "::error::")
		assert.Contains(t, buf.String(), "backend down")
	})
}

package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isometry/bridge-sync/internal/controllers/github"
	"github.com/isometry/bridge-sync/internal/handler"
	"github.com/isometry/bridge-sync/internal/handler/processor"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/signature"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.UnixMilli(1_700_000_000_000)

type backendCall struct {
	Authorization string
	Source        string
	Body          map[string]any
}

func newBackend(t *testing.T, status int, response string) (*httptest.Server, *[]backendCall) {
	t.Helper()
	var calls []backendCall
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/bridge/sync", func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		call := backendCall{Authorization: r.Header.Get("Authorization"), Source: r.URL.Query().Get("source")}
		_ = json.Unmarshal(payload, &call.Body)
		calls = append(calls, call)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

func newHandler(t *testing.T, backendURL string, opts ...handler.Option) *handler.Handler {
	t.Helper()
	client, err := syncer.New()
	require.NoError(t, err)

	opts = append([]handler.Option{
		handler.WithSyncer(client, "bridge"),
		handler.WithDefaults(syncer.Request{TargetURL: "https://app.example.com/api/novu", APIKey: "nv-key", BackendURL: backendURL}),
		handler.WithIDGenerator(func() string { return "inv-1" }),
		handler.WithClock(func() time.Time { return testNow }),
	}, opts...)
	h, err := handler.NewHandler(opts...)
	require.NoError(t, err)
	return h
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) PutS3Object(_ context.Context, _, prefix, id string, _ []byte) (string, error) {
	key := prefix + "/" + id + ".json"
	f.keys = append(f.keys, key)
	return key, nil
}

type fakeSender struct {
	requests []github.StatusRequest
	err      error
}

func (f *fakeSender) SendCommitStatus(_ context.Context, req github.StatusRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

func TestNewHandler_RequiresSyncer(t *testing.T) {
	_, err := handler.NewHandler()
	var target *handler.NoSynchronizerError
	assert.ErrorAs(t, err, &target)
}

func TestHandler_Process(t *testing.T) {
	backend, calls := newBackend(t, http.StatusOK, `{"data":{"workflows":2}}`)
	uploader := &fakeUploader{}
	sender := &fakeSender{}
	h := newHandler(t, backend.URL,
		handler.WithReport(uploader, "reports", "bridge-sync"),
		handler.WithCommitStatus(sender, processorTarget()),
	)

	bus, err := h.Process(context.Background(), models.Request{})
	require.NoError(t, err)

	assert.Equal(t, "inv-1", bus.InvocationID)
	assert.True(t, bus.Outcome.Success)
	assert.JSONEq(t, `{"data":{"workflows":2}}`, string(bus.Outcome.Result))
	assert.Equal(t, http.StatusOK, bus.Response.StatusCode)
	assert.Equal(t, "application/json", bus.Response.Headers["Content-Type"])

	require.Len(t, *calls, 1)
	assert.Equal(t, "ApiKey nv-key", (*calls)[0].Authorization)
	assert.Equal(t, "githubAction", (*calls)[0].Source)
	assert.Equal(t, map[string]any{"bridgeUrl": "https://app.example.com/api/novu"}, (*calls)[0].Body)

	assert.Equal(t, []string{"bridge-sync/inv-1.json"}, uploader.keys)
	assert.Equal(t, "bridge-sync/inv-1.json", bus.ReportKey)
	require.Len(t, sender.requests, 1)
	assert.Equal(t, github.CommitStatusSuccess, sender.requests[0].State)
	assert.Equal(t, "bridge-sync/bridge", sender.requests[0].Context)
}

func TestHandler_Process_BodyOverride(t *testing.T) {
	body := `{"bridgeUrl":"https://other.example.com/api/novu"}`

	testCases := []struct {
		Name           string
		Options        []handler.Option
		Trigger        models.Request
		ExpectedStatus int
		ExpectedTarget string
	}{
		{
			Name:           "unsigned_refused",
			Trigger:        models.Request{Body: body},
			ExpectedStatus: http.StatusForbidden,
		},
		{
			Name:           "unsigned_allowed",
			Options:        []handler.Option{handler.WithTargetOverride(true)},
			Trigger:        models.Request{Body: body},
			ExpectedStatus: http.StatusOK,
			ExpectedTarget: "https://other.example.com/api/novu",
		},
		{
			Name:    "signed",
			Options: []handler.Option{handler.WithInboundSecret("inbound", 5*time.Minute)},
			Trigger: models.Request{Body: body, Headers: map[string]string{
				"x-novu-signature": signature.SignAt("inbound", testNow, []byte(body)).String(),
			}},
			ExpectedStatus: http.StatusOK,
			ExpectedTarget: "https://other.example.com/api/novu",
		},
		{
			Name:           "trusted",
			Trigger:        models.Request{Body: body, Trusted: true},
			ExpectedStatus: http.StatusOK,
			ExpectedTarget: "https://other.example.com/api/novu",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			backend, calls := newBackend(t, http.StatusOK, `{}`)
			h := newHandler(t, backend.URL, tc.Options...)

			bus, _ := h.Process(context.Background(), tc.Trigger)
			assert.Equal(t, tc.ExpectedStatus, bus.Response.StatusCode)
			if tc.ExpectedTarget == "" {
				assert.Empty(t, *calls)
				assert.False(t, bus.Attempted)
				return
			}
			require.Len(t, *calls, 1)
			assert.Equal(t, tc.ExpectedTarget, (*calls)[0].Body["bridgeUrl"])
		})
	}
}

func TestHandler_Process_BackendFailure(t *testing.T) {
	backend, _ := newBackend(t, http.StatusUnauthorized, `{"message":"API Key not found"}`)
	sender := &fakeSender{err: errors.New("github unavailable")}
	h := newHandler(t, backend.URL, handler.WithCommitStatus(sender, processorTarget()))

	bus, err := h.Process(context.Background(), models.Request{})
	require.Error(t, err)
	assert.True(t, syncer.IsKind(err, syncer.KindSync))

	assert.False(t, bus.Outcome.Success)
	assert.JSONEq(t, `{}`, string(bus.Outcome.Result))
	assert.Equal(t, http.StatusBadGateway, bus.Response.StatusCode)
	assert.Contains(t, bus.Response.Body, "API Key not found")

	require.Len(t, sender.requests, 1)
	assert.Equal(t, github.CommitStatusFailure, sender.requests[0].State)
}

func TestHandler_Process_Signature(t *testing.T) {
	body := `{"bridgeUrl":"https://app.example.com/api/novu"}`

	testCases := []struct {
		Name           string
		Headers        map[string]string
		ExpectedStatus int
		ExpectedCalls  int
	}{
		{
			Name:           "signed",
			Headers:        map[string]string{"x-novu-signature": signature.SignAt("inbound", testNow, []byte(body)).String()},
			ExpectedStatus: http.StatusOK,
			ExpectedCalls:  1,
		},
		{
			Name:           "expired",
			Headers:        map[string]string{"x-novu-signature": signature.SignAt("inbound", testNow.Add(-time.Hour), []byte(body)).String()},
			ExpectedStatus: http.StatusUnauthorized,
		},
		{
			Name:           "unsigned",
			ExpectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			backend, calls := newBackend(t, http.StatusOK, `{}`)
			uploader := &fakeUploader{}
			h := newHandler(t, backend.URL,
				handler.WithInboundSecret("inbound", 5*time.Minute),
				handler.WithReport(uploader, "reports", "p"),
			)

			bus, _ := h.Process(context.Background(), models.Request{Body: body, Headers: tc.Headers})
			assert.Equal(t, tc.ExpectedStatus, bus.Response.StatusCode)
			assert.Len(t, *calls, tc.ExpectedCalls)
			assert.Len(t, uploader.keys, tc.ExpectedCalls)
		})
	}
}

func TestHandler_Process_InvalidBase64(t *testing.T) {
	backend, calls := newBackend(t, http.StatusOK, `{}`)
	h := newHandler(t, backend.URL)

	bus, err := h.Process(context.Background(), models.Request{Body: "%%%", IsBase64Encoded: true})
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, bus.Response.StatusCode)
	assert.Empty(t, *calls)
}

func TestHandler_Process_MissingConfiguration(t *testing.T) {
	backend, calls := newBackend(t, http.StatusOK, `{}`)
	client, err := syncer.New()
	require.NoError(t, err)
	h, err := handler.NewHandler(
		handler.WithSyncer(client, "bridge"),
		handler.WithDefaults(syncer.Request{TargetURL: "https://app.example.com", BackendURL: backend.URL}),
	)
	require.NoError(t, err)

	bus, err := h.Process(context.Background(), models.Request{})
	assert.True(t, syncer.IsKind(err, syncer.KindConfiguration))
	assert.Equal(t, http.StatusUnprocessableEntity, bus.Response.StatusCode)
	assert.Empty(t, *calls)
}

func processorTarget() processor.CommitStatusTarget {
	return processor.CommitStatusTarget{
		Repository: "acme/notifications",
		SHA:        "0123456789abcdef",
		Context:    "bridge-sync/{variant}",
	}
}

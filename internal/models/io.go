// Package models provides the data structures passed between the runtimes, the handler and its processors.
package models

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// Request represents an incoming trigger containing a body and associated headers.
// It decodes API Gateway (v1, v2) and Lambda URL payloads as well as plain HTTP requests.
type Request struct {
	Body            string            `json:"body"`
	Headers         map[string]string `json:"headers"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	// Trusted marks triggers delivered by the platform itself, such as EventBridge schedules. They carry
	// no signature and are never decoded from a payload.
	Trusted bool `json:"-"`
}

// RawBody returns the request body, decoding it when the payload was base64 encoded.
func (r Request) RawBody() ([]byte, error) {
	if !r.IsBase64Encoded {
		return []byte(r.Body), nil
	}
	body, err := base64.StdEncoding.DecodeString(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 body")
	}
	return body, nil
}

// Response defines the structure for an HTTP response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}

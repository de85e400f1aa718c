package models

import (
	"encoding/json"
	"time"
)

// Event represents an AWS EventBridge event, such as a scheduled rule triggering a synchronisation.
// Detail may carry the same overrides as an HTTP trigger body.
type Event struct {
	ID         string          `json:"id"`
	Time       time.Time       `json:"time"`
	Region     string          `json:"region"`
	Source     string          `json:"source"`
	Account    string          `json:"account"`
	Version    string          `json:"version"`
	Detail     json.RawMessage `json:"detail"`
	DetailType string          `json:"detail-type"`
	Resources  []string        `json:"resources"`
}

// Request converts the event into a trigger request. An empty or null detail becomes an empty body.
func (e Event) Request() Request {
	detail := string(e.Detail)
	if detail == "null" || detail == "{}" {
		detail = ""
	}
	return Request{Body: detail, Trusted: true}
}

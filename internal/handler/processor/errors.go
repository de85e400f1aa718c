package processor

import (
	"encoding/json"
	"net/http"

	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// RejectionError is a trigger refused before any synchronisation was attempted.
type RejectionError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Reject records err on the bus as a failed outcome and sets the response.
func Reject(bus *models.Bus, err *RejectionError) error {
	bus.Error = err
	bus.Outcome = syncer.Report(nil, err)
	respond(bus, err.StatusCode)
	return err
}

// respond serialises the bus outcome as the response body.
func respond(bus *models.Bus, statusCode int) {
	body, err := json.Marshal(bus.Outcome)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body = []byte(`{"success":false,"result":{}}`)
	}
	bus.Response = models.Response{
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
		StatusCode: statusCode,
	}
}

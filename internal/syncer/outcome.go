package syncer

import (
	"encoding/json"
)

// Outcome is what a synchronisation reports to its host: a success flag and the backend result,
// or an empty object on failure.
type Outcome struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Kind    Kind            `json:"kind,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Report converts the return values of Synchronize into an Outcome. Partial results are discarded on failure.
func Report(result Result, err error) Outcome {
	if err != nil {
		return Outcome{
			Success: false,
			Result:  json.RawMessage("{}"),
			Kind:    KindOf(err),
			Error:   err.Error(),
		}
	}
	if len(result) == 0 {
		result = Result("{}")
	}
	return Outcome{Success: true, Result: json.RawMessage(result)}
}

package helpers

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes v as a JSON body with the given status. A zero status means 200.
func RespondJSON(rw http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(body)
}

package utils

import (
	"encoding/json"
	"net/http"

	"github.com/username/momosms/backend/src/logger"
)

// SendJSONError sends a JSON formatted error response with the conventional
// {"error": ..., "message": ...} shape.
func SendJSONError(w http.ResponseWriter, errorTitle, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON error to client", "error", errorTitle, "message", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": errorTitle, "message": message})
}

// SendJSON writes v as a JSON response body with the given status code.
func SendJSON(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger.L != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

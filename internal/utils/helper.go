package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"warehouse-be/internal/logger"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, r *http.Request, message string, code int) {
	WriteJSON(w, code, ErrorBody{
		Detail:    message,
		RequestID: logger.RequestIDFrom(r.Context()),
	})
}

// ParseID parses a positive int64 path identifier.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// errorBody is the error half of handler.MessageEnvelope, so a request
// rejected here reads the same as one rejected by a handler.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="band-notify"`)
	writeJSONError(w, http.StatusUnauthorized, msg)
}

// writeRateLimited answers 429 with Retry-After set to the time one token
// takes to refill, rounded up to whole seconds.
func writeRateLimited(w http.ResponseWriter, r rate.Limit) {
	wait := 1
	if r > 0 && r != rate.Inf {
		if s := int(math.Ceil(1 / float64(r))); s > wait {
			wait = s
		}
	}
	w.Header().Set("Retry-After", strconv.Itoa(wait))
	writeJSONError(w, http.StatusTooManyRequests, "too many requests")
}

// Package respond writes the uniform response envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Envelope is the shape of every response: an app-level code (200, 400 or
// 500) and a message that is either a string or a structured payload.
// unprocessedAdvice appears only on advice batch responses.
type Envelope struct {
	Code              int              `json:"code"`
	Message           any              `json:"message"`
	UnprocessedAdvice []map[string]any `json:"unprocessedAdvice,omitempty"`
}

// WriteJSON writes an envelope. The HTTP status is 200 for every outcome
// except the unauthorized path, which also sets status 400; the app-level
// code inside the envelope is what clients dispatch on.
func WriteJSON(w http.ResponseWriter, httpStatus int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("failed to encode response envelope")
	}
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, message any) {
	WriteJSON(w, http.StatusOK, Envelope{Code: 200, Message: message})
}

// Invalid writes the generic bad-request envelope for malformed requests
// and unknown actions.
func Invalid(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, Envelope{Code: 400, Message: "Invalid request"})
}

// Unauthorized writes the auth-failure envelope. This is the one path
// that also carries an HTTP-level 400.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusBadRequest, Envelope{Code: 400, Message: "Unauthorized access"})
}

// Failure writes an error envelope with the given app-level code and a
// caller-safe message.
func Failure(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Code: code, Message: message})
}

// Package respond writes the {success, response} JSON envelope every endpoint uses.
package respond

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/isdelr/member-accounts-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success  bool `json:"success"`
	Response any  `json:"response"`
}

// JSON writes a successful envelope around payload.
func JSON(w http.ResponseWriter, status int, payload any) {
	write(w, status, Envelope{Success: true, Response: payload})
}

// Error writes a failed envelope carrying only the safe message of err.
func Error(w http.ResponseWriter, err error) {
	write(w, apperr.KindOf(err).Status(), Envelope{Success: false, Response: apperr.SafeMessage(err)})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

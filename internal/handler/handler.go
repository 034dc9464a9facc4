// Package handler implements the HTTP surface: menu catalog CRUD and the
// order history endpoints. Handlers depend on narrow store interfaces so
// tests can swap in mocks.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/caisseresto/api/internal/ws"
)

// Notifier emits a refresh event after a mutation. Satisfied by *ws.Hub.
type Notifier interface {
	Broadcast(event ws.Event)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

package server

import (
	"net/http"

	"clipstream/internal/api"
)

// writeMiddlewareError normalises middleware error responses to the API JSON envelope.
func writeMiddlewareError(w http.ResponseWriter, status int, message string) {
	api.WriteFailure(w, status, message)
}

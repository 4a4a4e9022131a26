// internal/app/system/httpjson/httpjson.go

// Package httpjson shapes every API response: success payloads are encoded
// as-is, failures are {"error": reason} envelopes with a status code that
// reflects the failure kind (400 validation, 401/403 auth, 404 not found,
// 409 conflict, 500 unexpected).
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an {"error": msg} envelope.
func Error(w http.ResponseWriter, code int, msg string) {
	Write(w, code, map[string]string{"error": msg})
}

// Internal logs err and writes a generic 500 envelope. The underlying error
// never reaches the client.
func Internal(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	log.Error(op, zap.Error(err))
	Error(w, http.StatusInternalServerError, "error interno del servidor")
}

// Decode reads the request body into dst, rejecting unknown fields. Callers
// should respond with 400 when it returns an error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

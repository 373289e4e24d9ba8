// Package httpx holds small JSON response helpers shared by all handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body returned by every endpoint.
type ErrorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message"`
	Details      any    `json:"details,omitempty"`
}

// JSON writes payload as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"success":false,"error_message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes a {success:false, error_message} body.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{ErrorMessage: msg})
}

// ErrorDetails writes an error body with per-field details attached.
func ErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{ErrorMessage: msg, Details: details})
}

// Created writes a 201 response.
func Created(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusCreated, payload)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

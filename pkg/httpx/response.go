// Package httpx provides the JSON response envelope shared by every API
// endpoint.
package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes any payload as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

// OK writes a 200 success envelope with data.
func OK(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a 201 success envelope with data.
func Created(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

// OKMessage writes a 200 success envelope carrying only a message.
func OKMessage(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// Fail writes a failure envelope with the given status and error label.
func Fail(w http.ResponseWriter, status int, errMsg string) {
	RespondJSON(w, status, Response{Success: false, Error: errMsg})
}

// FailDetails writes a failure envelope with structured details, typically
// per-field validation errors or per-row import errors.
func FailDetails(w http.ResponseWriter, status int, errMsg string, details any) {
	RespondJSON(w, status, Response{Success: false, Error: errMsg, Details: details})
}

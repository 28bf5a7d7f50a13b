package api

import "github.com/spaceventure/server/internal/validation"

// RegisterResponse represents the response payload for a successful registration
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries the full per-field violation list
type ValidationErrorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Errors  validation.Violations `json:"errors"`
}

// ErrorResponse represents a generic failure response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SessionResponse represents the identity recovered from a session token
type SessionResponse struct {
	AccountID string `json:"account_id"`
}

// Package handlers wires the HTTP surface to the conversation engine.
package handlers

// ErrorResponse is the JSON error body for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

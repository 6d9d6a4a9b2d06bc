// Package handlers implements HTTP handlers for the effluent-watch API.
package handlers

// ErrorResponse is the error body of the plain echo endpoints.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

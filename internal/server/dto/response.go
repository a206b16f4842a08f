// Defines the response types returned by the HTTP API.

package dto

// Status is a bare JSON string acknowledging a mutation, e.g. "created".
type Status string

const (
	// StatusCreated acknowledges a create or update.
	StatusCreated Status = "created"
	// StatusDeleted acknowledges a delete.
	StatusDeleted Status = "deleted"
)

// HealthResponse is a response from a health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

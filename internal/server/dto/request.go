// Defines the request types accepted by the HTTP API.

package dto

// EditPageRequest creates or replaces a page.
//
// Path is the client supplied page identifier, not a filesystem path.
type EditPageRequest struct {
	Path *string `json:"path"`
	Body *string `json:"body"`
}

// Validate requires both fields to be present. Empty strings are allowed.
func (r *EditPageRequest) Validate() error {
	if r.Path == nil {
		return MissingField("path")
	}
	if r.Body == nil {
		return MissingField("body")
	}
	return nil
}

// DeletePageRequest deletes a page.
type DeletePageRequest struct {
	Path *string `json:"-" query:"path"`
}

// Validate requires the path query parameter to be present.
func (r *DeletePageRequest) Validate() error {
	if r.Path == nil {
		return MissingField("path")
	}
	return nil
}

// HealthRequest is a request to check system health.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}

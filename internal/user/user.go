// Package user defines the user entity managed by the service
// and persisted by every storage backend.
package user

// User represents a system user.
type User struct {
	// ID is assigned by the storage on the first save. Zero means
	// the user has not been persisted yet.
	ID int64 `json:"id,omitempty"`

	Name string `json:"name"`

	Email string `json:"email"`
}

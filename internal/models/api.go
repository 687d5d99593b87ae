package models

// APIResponse is the envelope every marketplace endpoint wraps its payload in.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
}

package models

import "errors"

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// InternalStatsResponse is the body of the internal statistics endpoint.
type InternalStatsResponse struct {
	Users int64 `json:"users"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

var ErrInvalidUserID = errors.New("the user ID must be an integer")

var ErrMissingUser = errors.New("the user payload is missing")

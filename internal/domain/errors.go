// internal/domain/errors.go
package domain

import "fmt"

// ValidationError reports a remote payload missing a required identifying
// field. These three fields are never silently defaulted.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s cannot be empty", e.Field)
}

// RemoteError carries a failure reported by the remote envelope, either the
// server-supplied message or a named fallback.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// NewRemoteError builds a RemoteError from the envelope error, falling back
// to a generic message when the server supplied none.
func NewRemoteError(serverMsg, fallback string) *RemoteError {
	if serverMsg == "" {
		return &RemoteError{Message: fallback}
	}
	return &RemoteError{Message: serverMsg}
}

// NotFoundError reports a success envelope with an empty or absent payload.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

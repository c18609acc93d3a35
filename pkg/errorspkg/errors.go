// Package errorspkg provides common app errors.
package errorspkg

import "errors"

var (
	// ErrInternal indicates internal server error.
	ErrInternal = errors.New("internal")
	// ErrPersistence indicates that the store failed and nothing was committed.
	// The operation may be retried.
	ErrPersistence = errors.New("persistence failure, retry later")
)

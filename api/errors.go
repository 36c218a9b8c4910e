// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values for the dispatch core. internal/executor returns
// ErrExecutorClosed and internal/httpstatic returns ErrDocRootMissing; no
// package in this module returns ErrUnknownHandle, ErrQueueFull or
// ErrInvalidPayload.

package api

import "errors"

// Common errors used across the dispatch core.
var (
	ErrExecutorClosed = errors.New("executor is closed")
	ErrUnknownHandle  = errors.New("connection handle not found")
	ErrQueueFull      = errors.New("ready queue at high-water mark")
	ErrInvalidPayload = errors.New("malformed payload")
	ErrDocRootMissing = errors.New("document root missing index.html")
)

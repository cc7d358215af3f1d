package errors

import "fmt"

var (
	// ErrAuthRequired means no valid credential could be obtained.
	// The caller decides whether to redirect to re-authentication.
	ErrAuthRequired = fmt.Errorf("authentication required")

	// ErrNetwork wraps transport failures that are retryable by the caller.
	ErrNetwork = fmt.Errorf("network failure")

	ErrNotConnected = fmt.Errorf("realtime connection is not open")
	ErrConnection   = fmt.Errorf("realtime connection failed")
	ErrDecodeFrame  = fmt.Errorf("malformed inbound frame")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrUnexpectedStatus   = fmt.Errorf("unexpected response status")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

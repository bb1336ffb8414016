package errors

import "fmt"

var (
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrFatal         = fmt.Errorf("fatal error")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Wire protocol
	ErrMalformedFrame  = fmt.Errorf("malformed frame")
	ErrFrameTooLarge   = fmt.Errorf("frame exceeds maximum size")
	ErrFrameDelimiter  = fmt.Errorf("frame contains a delimiter")
	ErrUnknownFrame    = fmt.Errorf("unknown frame type")
	ErrInvalidChecksum = fmt.Errorf("invalid checksum")

	// Registry
	ErrInvalidIdentity = fmt.Errorf("invalid identity")
	ErrAlreadyExists   = fmt.Errorf("identity already registered")
	ErrNotFound        = fmt.Errorf("identity not found")

	// Outbound handles
	ErrHandleClosed = fmt.Errorf("handle closed")
	ErrBackpressure = fmt.Errorf("outbound queue full")

	ErrListenerClosed = fmt.Errorf("listener closed")
	ErrInvalidPayload = fmt.Errorf("invalid audit payload")
)

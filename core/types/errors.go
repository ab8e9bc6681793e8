package types

import "fmt"

// ProtocolError is a numeric error code returned by the on-chain program
// when a submitted transaction violates a protocol invariant. It is
// propagated verbatim to the caller and never retried by the SDK.
type ProtocolError struct {
	// Code is the numeric on-chain error code.
	Code uint32
	// Message is the human-readable description attached to the code, if
	// the submitter resolved one.
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("protocol error %d", e.Code)
	}
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

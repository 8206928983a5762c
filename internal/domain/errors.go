package domain

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed interrogation.
type ErrorKind int

const (
	// SpawnFailure means the OS could not create the child process.
	SpawnFailure ErrorKind = iota + 1
	// NonZeroExit means the child ran but exited with a non-zero code.
	NonZeroExit
)

func (k ErrorKind) String() string {
	switch k {
	case SpawnFailure:
		return "spawn failure"
	case NonZeroExit:
		return "non-zero exit"
	default:
		return "unknown"
	}
}

// InterrogationError reports a child process that did not produce a record.
// For spawn failures Code holds the OS error number and Stderr its message.
type InterrogationError struct {
	Kind       ErrorKind
	Executable string
	Code       int
	Stdout     string
	Stderr     string
}

func (e *InterrogationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to query %s with code %d", e.Executable, e.Code)
	if e.Stdout != "" {
		fmt.Fprintf(&b, " out: %q", e.Stdout)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " err: %q", e.Stderr)
	}
	return b.String()
}

// DecodeError reports a payload or stored mapping that does not fit the Info
// schema.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode interpreter info: %s: %v", e.Reason, e.Err)
	}
	return "decode interpreter info: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

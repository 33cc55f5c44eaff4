package iriapi

import (
	"fmt"
	"strings"
)

type (
	// ErrValidation signals that the arguments of a command were rejected
	// before any request was sent.
	ErrValidation struct {
		Command string
		Hashes  []string
		Invalid []string
	}
	// ErrTransport signals that the HTTP exchange with the node did not
	// complete, or completed with a non-2xx status and no node error.
	ErrTransport struct {
		Command    string
		Endpoint   string
		StatusCode int
		Err        error
	}
	// ErrDecode signals that the response body could not be decoded into the
	// typed response of a command. NodeError is set when the body was an
	// error envelope returned by the node.
	ErrDecode struct {
		Command    string
		StatusCode int
		NodeError  string
		Err        error
	}
)

func (e ErrValidation) Error() string {
	if len(e.Hashes) == 0 {
		return fmt.Sprintf("%s: at least one hash must be specified", e.Command)
	}
	return fmt.Sprintf("%s: provided hashes are not valid: %s", e.Command, strings.Join(e.Invalid, ", "))
}

func (e ErrTransport) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: request to %s failed: %s", e.Command, e.Endpoint, e.Err.Error())
	}
	return fmt.Sprintf("%s: request to %s failed with status %d", e.Command, e.Endpoint, e.StatusCode)
}

func (e ErrTransport) Unwrap() error {
	return e.Err
}

func (e ErrDecode) Error() string {
	if e.IsNodeError() {
		return fmt.Sprintf("%s: node returned error (status %d): %s", e.Command, e.StatusCode, e.NodeError)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: failed to decode response: %s", e.Command, e.Err.Error())
	}
	return fmt.Sprintf("%s: failed to decode response", e.Command)
}

func (e ErrDecode) Unwrap() error {
	return e.Err
}

// IsNodeError reports whether the node answered with an error envelope as
// opposed to a body that is not valid for the command.
func (e ErrDecode) IsNodeError() bool {
	return e.NodeError != ""
}

package iriapi

import (
	"encoding/json"
	"fmt"
)

var _ json.Unmarshaler = (*GetTrytesResponse)(nil)

type (
	// GetTrytesResponse is the decoded response of a getTrytes command.
	//
	// Trytes are in the order of the requested hashes, but the node does not
	// guarantee one entry per requested hash.
	GetTrytesResponse struct {
		duration int64
		trytes   []string
	}

	// errorEnvelope is the body the node responds with when it fails to
	// process a command.
	errorEnvelope struct {
		Error     *string `json:"error"`
		Exception *string `json:"exception"`
	}
)

// Duration returns the time in milliseconds the node took to process the
// command.
func (r *GetTrytesResponse) Duration() int64 {
	return r.duration
}

// Trytes returns the raw transaction trytes. The returned slice is shared
// with r and must not be modified.
func (r *GetTrytesResponse) Trytes() []string {
	return r.trytes
}

// TakeTrytes transfers ownership of the trytes to the caller. After it
// returns, both Trytes and TakeTrytes return nil.
func (r *GetTrytesResponse) TakeTrytes() []string {
	t := r.trytes
	r.trytes = nil
	return t
}

// UnmarshalJSON decodes the response strictly: both duration and trytes
// must be present and well-typed. Unknown fields are ignored. On error r is
// left unchanged.
func (r *GetTrytesResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Duration *int64     `json:"duration"`
		Trytes   *[]*string `json:"trytes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Duration == nil {
		return errMissingField("duration")
	}
	if raw.Trytes == nil {
		return errMissingField("trytes")
	}
	trytes := make([]string, len(*raw.Trytes))
	for i, t := range *raw.Trytes {
		if t == nil {
			return fmt.Errorf("trytes element %d is null", i)
		}
		trytes[i] = *t
	}
	r.duration = *raw.Duration
	r.trytes = trytes
	return nil
}

func errMissingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// nodeError returns the message of the error envelope in b, if b is one.
func nodeError(b []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return "", false
	}
	switch {
	case env.Error != nil && *env.Error != "":
		return *env.Error, true
	case env.Exception != nil && *env.Exception != "":
		return *env.Exception, true
	default:
		return "", false
	}
}

package iriapi

import (
	"encoding/json"

	"github.com/tanglekit/iriapi/validate"
)

const getTrytesCommandName = "getTrytes"

var _ Command = (*GetTrytesCommand)(nil)

type (
	// Command is a request understood by the node's command API. The set of
	// implementations is closed; each variant marshals its own fixed field
	// set along with the command discriminator.
	Command interface {
		json.Marshaler
		// Name returns the value of the command discriminator.
		Name() string
		validate() error
	}

	// GetTrytesCommand requests the raw trytes of transactions by hash.
	GetTrytesCommand struct {
		Hashes []string
	}

	getTrytesEnvelope struct {
		Command string   `json:"command"`
		Hashes  []string `json:"hashes"`
	}
)

// NewGetTrytesCommand returns a getTrytes command for a copy of hashes.
func NewGetTrytesCommand(hashes []string) *GetTrytesCommand {
	return &GetTrytesCommand{
		Hashes: append([]string(nil), hashes...),
	}
}

func (c *GetTrytesCommand) Name() string {
	return getTrytesCommandName
}

func (c *GetTrytesCommand) MarshalJSON() ([]byte, error) {
	hashes := c.Hashes
	if hashes == nil {
		hashes = []string{}
	}
	return json.Marshal(getTrytesEnvelope{
		Command: getTrytesCommandName,
		Hashes:  hashes,
	})
}

func (c *GetTrytesCommand) validate() error {
	if validate.IsArrayOfHashes(c.Hashes) {
		return nil
	}
	return ErrValidation{
		Command: getTrytesCommandName,
		Hashes:  c.Hashes,
		Invalid: validate.InvalidHashes(c.Hashes),
	}
}

package gomessagebus

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

// newClientID returns a 32 character identifier laid out like a version 4
// UUID without its dashes. The identifier is only a correlation token, so any
// source of randomness will do.
func newClientID(r io.Reader) (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if r == nil {
		id, err = uuid.NewRandom()
	} else {
		id, err = uuid.NewRandomFromReader(r)
	}
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}

package api

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
)

// wireID is a Discord id as exchanged with the site API. The site stores ids as integers, so
// it is encoded as a JSON number. Decoding also accepts quoted ids and null.
type wireID snowflake.ID

// MarshalJSON ...
func (i wireID) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(i), 10), nil
}

// UnmarshalJSON ...
func (i *wireID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*i = wireID(n)
	return nil
}

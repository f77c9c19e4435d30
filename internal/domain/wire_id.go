package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// WireID is a record id as the remote service encodes it. Older deployments
// send numeric ids, newer ones strings; both decode to the same text.
type WireID string

func (w *WireID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*w = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*w = WireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*w = WireID(n.String())
	return nil
}

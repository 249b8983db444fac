package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bytes is a byte slice encoded as a JSON array of numbers rather than
// base64, matching what browser clients produce with Array.from(Uint8Array).
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	out = append(out, ']')
	return out, nil
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	var values []json.Number
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("expected an array of byte values: %w", err)
	}

	out := make([]byte, len(values))
	for i, v := range values {
		n, err := strconv.ParseUint(v.String(), 10, 8)
		if err != nil {
			return fmt.Errorf("element %d: %q is not a byte value", i, v)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

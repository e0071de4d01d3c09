package scheme

import (
	"encoding/json"
	"fmt"
)

// marshalEntry serializes one field payload (a single turn entry for
// append fields, the whole map for value fields). index is -1 for
// value fields and only used in error messages.
func marshalEntry(field string, index int, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		if index >= 0 {
			return nil, fmt.Errorf("marshal %s[%d]: %w", field, index, err)
		}
		return nil, fmt.Errorf("marshal %s: %w", field, err)
	}
	return data, nil
}

func unmarshalEntry(field string, index int, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		if index >= 0 {
			return fmt.Errorf("unmarshal %s[%d]: %w", field, index, err)
		}
		return fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return nil
}

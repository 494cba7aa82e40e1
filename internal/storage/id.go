package storage

import (
	"encoding/json"
	"math"
	"strconv"
)

// ID is a record key assigned by the store. Zero means "not assigned yet".
//
// When decoded from JSON, only numbers and numeric strings are accepted as
// keys. Any other value is dropped (left zero) so the store assigns a key on
// insert rather than rejecting the record.
type ID uint

func (id *ID) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*id = 0
	switch x := v.(type) {
	case float64:
		if x > 0 && x == math.Trunc(x) && x <= math.MaxUint32 {
			*id = ID(x)
		}
	case string:
		if n, err := strconv.ParseUint(x, 10, 32); err == nil {
			*id = ID(n)
		}
	}
	return nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a path parameter into an ID.
func ParseID(s string) (ID, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return ID(n), true
}

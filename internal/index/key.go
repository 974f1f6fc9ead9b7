package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Key orders index entries chronologically, then by slug. It marshals to the
// wire format [dateMillis, slug] so index files stay readable and diffable.
type Key struct {
	// Date is the item's date in epoch milliseconds.
	Date int64
	// Slug identifies the item within its content type.
	Slug string
}

var errBadKey = errors.New("index key must be a [dateMillis, slug] pair")

// Compare returns -1, 0 or 1 ordering k relative to o.
func (k Key) Compare(o Key) int {
	if k.Date != o.Date {
		if k.Date < o.Date {
			return -1
		}
		return 1
	}
	return strings.Compare(k.Slug, o.Slug)
}

// MarshalJSON encodes the key as [dateMillis, slug].
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{k.Date, k.Slug})
}

// UnmarshalJSON decodes a [dateMillis, slug] pair.
func (k *Key) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", errBadKey, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: got %d elements", errBadKey, len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.Date); err != nil {
		return fmt.Errorf("%w: bad date: %w", errBadKey, err)
	}
	if err := json.Unmarshal(raw[1], &k.Slug); err != nil {
		return fmt.Errorf("%w: bad slug: %w", errBadKey, err)
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("[%d %s]", k.Date, k.Slug)
}

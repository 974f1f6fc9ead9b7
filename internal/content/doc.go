package content

import "encoding/json"

// DocDate returns the document's "date" field as epoch milliseconds,
// tolerating the numeric types JSON decoding produces. Returns 0 when
// absent.
func DocDate(doc Document) int64 {
	switch v := doc["date"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// DocString returns a string field from the document, or "" when absent or
// not a string.
func DocString(doc Document, field string) string {
	s, _ := doc[field].(string)
	return s
}

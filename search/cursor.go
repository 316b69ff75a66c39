package search

import (
	"encoding/base64"
	"encoding/json"
)

// Cursor encodes the last-seen sort position of a result page: the sort
// mode it was issued under, the last item's sort key and its id as a
// tiebreaker. Clients treat it as opaque.
type Cursor struct {
	Sort      string  `json:"s"`
	Price     float64 `json:"p,omitempty"`
	CreatedAt int64   `json:"t,omitempty"` // unix nanos
	ID        string  `json:"id"`
}

// EncodeCursor serializes a cursor to its opaque wire form.
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor. Anything unparseable fails closed
// to the start of the result set (ok = false), never to an error, so stale
// or corrupted client tokens cannot break a search.
func DecodeCursor(s string) (Cursor, bool) {
	if s == "" {
		return Cursor{}, false
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, false
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, false
	}
	if c.ID == "" {
		return Cursor{}, false
	}
	return c, true
}

package storage

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrBadCursor = errors.New("malformed cursor")

// cursor marks the last row of a page. Listing orders by
// (date DESC, id DESC); the id breaks ties between same-instant rows
// so pagination never skips or repeats.
type cursor struct {
	Date int64  `json:"d"` // unix milliseconds
	ID   string `json:"id"`
}

func encodeCursor(dateMillis int64, id string) string {
	raw, _ := json.Marshal(cursor{Date: dateMillis, ID: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, ErrBadCursor
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return cursor{}, ErrBadCursor
	}
	return c, nil
}

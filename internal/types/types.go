// README: Common value types shared across modules.
package types

import (
	"crypto/rand"
	"encoding/hex"
)

// ID is an opaque entity identifier (32-char hex for generated keys, or an
// externally assigned user id).
type ID string

// NewID returns a random 32-char hex identifier.
func NewID() ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return ID(hex.EncodeToString(b[:]))
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location pairs a human-entered address with its geocoded coordinates.
type Location struct {
	Address  string `json:"address"`
	Position Point  `json:"position"`
}

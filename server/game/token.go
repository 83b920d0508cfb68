package game

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Token is an opaque 32-character lowercase-hex player authorization token.
type Token string

// newToken mints a fresh token from a random UUID's 16 raw bytes,
// hex-encoded to the 32-lowercase-hex-character shape the wire contract
// requires — a natural fit for google/uuid rather than hand-rolling a byte
// generator.
func newToken() Token {
	id := uuid.New()
	return Token(hex.EncodeToString(id[:]))
}

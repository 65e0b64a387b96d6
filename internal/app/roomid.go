package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"signalhub/internal/domain"
)

const roomIDBytes = 3

// NewRoomID draws a short uppercase hex token from the system's
// cryptographic random source. An entropy failure returns an error and
// never a partial identifier.
func NewRoomID() (domain.RoomID, error) {
	buf := make([]byte, roomIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("room id entropy: %w", err)
	}
	return domain.RoomID(strings.ToUpper(hex.EncodeToString(buf))), nil
}

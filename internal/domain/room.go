// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"time"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type RoomID string

// Room is the immutable record of a signaling room. ID, CreatedAt and TTL
// are set once at creation; membership lives in core.
type Room struct {
	ID        RoomID
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the room has outlived its TTL at the given time.
func (r *Room) Expired(now time.Time) bool {
	return now.Sub(r.CreatedAt) > r.TTL
}

// ValidateRoomID is for handshake and HTTP callers; the registry itself
// accepts any identifier.
func ValidateRoomID(id RoomID) error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}

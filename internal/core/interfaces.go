package core

import (
	"errors"

	"signalhub/internal/domain"
)

// Frame is one wire message: a newline-free UTF-8 JSON text payload.
// The relay never interprets it beyond well-formedness.
type Frame []byte

type SessionID string

var (
	// ErrBackpressure is returned by TrySend when the outbound queue is full.
	ErrBackpressure = errors.New("backpressure")
	// ErrConnClosed is returned by TrySend once the connection left the Open state.
	ErrConnClosed = errors.New("connection closed")
)

// SignalConnection abstracts the outbound half of a member's transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds presence meta and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID) (MemberSession, bool)
	Broadcast(from SessionID, data Frame) PublishResult
}

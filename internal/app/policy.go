package app

import "signalhub/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose outbound queue overflowed
// during a fan-out.
type Policy interface {
	OnBackpressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// KickSlowPolicy closes members that cannot keep up rather than letting
// them stall the fan-out.
type KickSlowPolicy struct{}

func (KickSlowPolicy) OnBackpressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return KickMember
}

package domain

// Role is a free-form label a connection declares at handshake time
// (e.g. "caller", "dispatcher"). It is shown in presence events and is
// never used for authorization.
type Role string

const RoleUnknown Role = "unknown"

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Role Role
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(role Role) *Member {
	if role == "" {
		role = RoleUnknown
	}
	return &Member{Role: role}
}

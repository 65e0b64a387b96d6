package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
	"signalhub/internal/metrics"
)

const (
	eventPeerJoin  = "peer-join"
	eventPeerLeave = "peer-leave"
)

// presenceEvent is one of the two message kinds this core generates into
// a room; everything else passes through opaquely.
type presenceEvent struct {
	Type string      `json:"type"`
	Role domain.Role `json:"role"`
}

// Orchestrator drives the join/relay/leave flow between transport adapters
// and rooms.
type Orchestrator struct {
	Registry *RoomRegistry
	Policy   Policy
}

// Join attaches the session to the room for roomID and announces it to
// everyone who was already there. Resolution and attach are one atomic
// registry operation, so the returned room is the one registered under
// roomID at the moment the member was counted. Returns the room and the
// member count including the newcomer.
func (o *Orchestrator) Join(roomID domain.RoomID, sid core.SessionID, sess core.MemberSession) (core.RoomService, int) {
	room := o.Registry.Attach(roomID, sid, sess)
	count := room.MemberCount()
	o.announce(room, sid, eventPeerJoin, sess.Meta().Role)
	return room, count
}

// Relay fans a validated inbound frame out to the sender's room-mates.
func (o *Orchestrator) Relay(room core.RoomService, sid core.SessionID, data core.Frame) {
	res := room.Broadcast(sid, data)
	metrics.MessagesRelayed.Add(float64(res.SentTo))
	o.enforce(room, res)
}

// Leave detaches the session and announces the departure to the remaining
// members. Safe to call twice; only the first removal announces.
func (o *Orchestrator) Leave(room core.RoomService, sid core.SessionID) {
	sess, ok := room.RemoveMember(sid)
	if !ok {
		return
	}
	o.announce(room, sid, eventPeerLeave, sess.Meta().Role)
}

// announce broadcasts a presence event, excluding the member it is about.
// Presence is best-effort: delivery failures are not retried.
func (o *Orchestrator) announce(room core.RoomService, origin core.SessionID, event string, role domain.Role) {
	data, err := json.Marshal(presenceEvent{Type: event, Role: role})
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("event", event).Msg("marshal presence event")
		return
	}
	res := room.Broadcast(origin, core.Frame(data))
	o.enforce(room, res)
}

func (o *Orchestrator) enforce(room core.RoomService, res core.PublishResult) {
	metrics.MessagesDropped.Add(float64(len(res.Dropped)))
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(room, slow) {
		case KickMember:
			// Closing the transport lets the connection's own read loop
			// unwind membership and emit the leave event.
			slow.Signal().Close()
			log.Warn().Str("module", "app.orchestrator").Str("room", string(room.Room().ID)).Msg("slow member kicked")
		case DropFrame, NoAction:
		}
	}
}

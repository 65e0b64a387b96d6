package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"signalhub/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	mu      sync.RWMutex
	members map[SessionID]MemberSession
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:    room,
		members: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Str("role", string(ms.Meta().Role)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) (MemberSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.members[sid]
	if !ok {
		return nil, false
	}
	delete(r.members, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
	return ms, true
}

// Broadcast delivers data to every member except from. Delivery is
// per-recipient: a full queue lands the member in Dropped, a member that
// closed mid-delivery is skipped. The membership snapshot is consistent
// for the whole fan-out.
func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.members {
		if sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			if errors.Is(err, ErrConnClosed) {
				continue
			}
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

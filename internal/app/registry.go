package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"signalhub/internal/core"
	"signalhub/internal/domain"
	"signalhub/internal/metrics"
)

// RoomInfo is a read-only registry view for APIs.
type RoomInfo struct {
	RoomID      domain.RoomID `json:"roomId"`
	MemberCount int           `json:"clients"`
}

// RoomRegistry maps room ids to live rooms. It is the only process-wide
// mutable map; constructed at startup, torn down with the process.
type RoomRegistry struct {
	ttl time.Duration

	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomRegistry(ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		ttl:   ttl,
		rooms: make(map[domain.RoomID]core.RoomService),
	}
}

// GetOrCreate returns the room for id, creating it on first reference.
// Creation is idempotent: concurrent calls for an unseen id settle on a
// single room record.
func (r *RoomRegistry) GetOrCreate(id domain.RoomID) core.RoomService {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(id)
}

// Attach resolves or creates the room and adds the member in one critical
// section. Joins must go through here: resolving first and adding later
// would let a sweep reap the room in between, stranding the member in a
// record the registry no longer knows.
func (r *RoomRegistry) Attach(id domain.RoomID, sid core.SessionID, ms core.MemberSession) core.RoomService {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.resolveLocked(id)
	room.AddMember(sid, ms)
	return room
}

func (r *RoomRegistry) resolveLocked(id domain.RoomID) core.RoomService {
	if room, ok := r.rooms[id]; ok {
		return room
	}
	room := core.NewRoomService(&domain.Room{
		ID:        id,
		CreatedAt: time.Now(),
		TTL:       r.ttl,
	})
	r.rooms[id] = room
	metrics.ActiveRooms.Inc()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	return room
}

// Get never creates; it is the status-query path.
func (r *RoomRegistry) Get(id domain.RoomID) (core.RoomService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *RoomRegistry) Remove(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[id]; !ok {
		return
	}
	delete(r.rooms, id)
	metrics.ActiveRooms.Dec()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room removed")
}

func (r *RoomRegistry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{RoomID: id, MemberCount: room.MemberCount()})
	}
	return out
}

// Sweep deletes every room that is empty or past its TTL and returns how
// many went. Each check is independent. The member count is read under the
// registry lock and Attach adds members under the same lock, so a join
// either lands before the count (and keeps the room) or resolves a fresh
// room after the delete.
func (r *RoomRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	reaped := 0
	for id, room := range r.rooms {
		if room.MemberCount() == 0 || room.Room().Expired(now) {
			delete(r.rooms, id)
			reaped++
			log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room reaped")
		}
	}
	if reaped > 0 {
		metrics.ActiveRooms.Sub(float64(reaped))
		metrics.RoomsReaped.Add(float64(reaped))
	}
	return reaped
}

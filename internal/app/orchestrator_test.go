package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"signalhub/internal/core"
	"signalhub/internal/domain"
)

func newTestOrchestrator() *Orchestrator {
	return &Orchestrator{
		Registry: NewRoomRegistry(10 * time.Minute),
		Policy:   KickSlowPolicy{},
	}
}

func joinSignal(orch *Orchestrator, sid core.SessionID, role domain.Role) (core.RoomService, int, *fakeSignal) {
	sig := &fakeSignal{}
	room, count := orch.Join("ROOM1", sid, core.NewMemberSession(domain.NewMember(role), sig))
	return room, count, sig
}

func decodePresence(t *testing.T, f core.Frame) (string, domain.Role) {
	t.Helper()
	var ev struct {
		Type string      `json:"type"`
		Role domain.Role `json:"role"`
	}
	if err := json.Unmarshal(f, &ev); err != nil {
		t.Fatalf("decode presence %q: %v", f, err)
	}
	return ev.Type, ev.Role
}

func TestJoinAnnouncesToExistingMembers(t *testing.T) {
	orch := newTestOrchestrator()

	_, _, a := joinSignal(orch, "a", "caller")
	_, count, b := joinSignal(orch, "b", "dispatcher")

	if count != 2 {
		t.Fatalf("Join count = %d, want 2", count)
	}
	got := a.received()
	if len(got) != 1 {
		t.Fatalf("existing member received %d frames, want 1", len(got))
	}
	if typ, role := decodePresence(t, got[0]); typ != "peer-join" || role != "dispatcher" {
		t.Fatalf("presence = %s/%s, want peer-join/dispatcher", typ, role)
	}
	if len(b.received()) != 0 {
		t.Fatalf("joiner received its own join event: %q", b.received())
	}
}

func TestLeaveAnnouncesToRemaining(t *testing.T) {
	orch := newTestOrchestrator()
	_, _, a := joinSignal(orch, "a", "caller")
	room, _, _ := joinSignal(orch, "b", "dispatcher")

	orch.Leave(room, "b")

	got := a.received()
	if len(got) != 2 {
		t.Fatalf("remaining member received %d frames, want join+leave", len(got))
	}
	if typ, role := decodePresence(t, got[1]); typ != "peer-leave" || role != "dispatcher" {
		t.Fatalf("presence = %s/%s, want peer-leave/dispatcher", typ, role)
	}

	// Leave is idempotent: a second call announces nothing.
	orch.Leave(room, "b")
	if len(a.received()) != 2 {
		t.Fatal("second Leave announced again")
	}
}

func TestRelayDeliversExactlyOnceToOthers(t *testing.T) {
	orch := newTestOrchestrator()
	sigs := map[core.SessionID]*fakeSignal{}
	var room core.RoomService
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		r, _, sig := joinSignal(orch, sid, "caller")
		room = r
		sigs[sid] = sig
	}

	payload := `{"type":"ice-candidate","candidate":"foo"}`
	orch.Relay(room, "a", core.Frame(payload))

	if n := countFrames(sigs["a"], payload); n != 0 {
		t.Fatalf("sender received its own relay %d times", n)
	}
	for _, sid := range []core.SessionID{"b", "c"} {
		if n := countFrames(sigs[sid], payload); n != 1 {
			t.Fatalf("member %s received payload %d times, want 1", sid, n)
		}
	}
}

func countFrames(sig *fakeSignal, payload string) int {
	n := 0
	for _, f := range sig.received() {
		if string(f) == payload {
			n++
		}
	}
	return n
}

func TestRelayKicksSlowConsumer(t *testing.T) {
	orch := newTestOrchestrator()
	room, _, _ := joinSignal(orch, "a", "caller")
	slow := &fakeSignal{err: core.ErrBackpressure}
	orch.Join("ROOM1", "b", core.NewMemberSession(domain.NewMember("dispatcher"), slow))
	_, _, c := joinSignal(orch, "c", "dispatcher")

	orch.Relay(room, "a", core.Frame(`{"type":"photo-payload"}`))

	if !slow.isClosed() {
		t.Fatal("slow consumer was not closed")
	}
	if n := countFrames(c, `{"type":"photo-payload"}`); n != 1 {
		t.Fatalf("healthy member received %d copies, want 1", n)
	}
}

func TestJoinNeverLandsInReapedRoom(t *testing.T) {
	orch := newTestOrchestrator()
	reg := orch.Registry

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				reg.Sweep(time.Now())
			}
		}
	}()

	// Each join must be visible in the room registered under its id, no
	// matter how the sweeps interleave; a member left behind in a record
	// the registry forgot would split the room id across two rooms.
	for i := 0; i < 200; i++ {
		sid := core.SessionID(fmt.Sprintf("s%d", i))
		room, _ := orch.Join("X", sid, core.NewMemberSession(domain.NewMember("caller"), &fakeSignal{}))
		got, ok := reg.Get("X")
		if !ok || got != room {
			t.Fatal("join landed in a room the registry no longer knows")
		}
		if room.MemberCount() == 0 {
			t.Fatal("member missing from its own room after join")
		}
		orch.Leave(room, sid)
	}
	close(stop)
	wg.Wait()
}

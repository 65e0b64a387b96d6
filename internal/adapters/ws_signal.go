package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"signalhub/internal/app"
	"signalhub/internal/config"
	"signalhub/internal/core"
	"signalhub/internal/domain"
	"signalhub/internal/metrics"
)

// Connection states. A connection is Open from the moment the handshake
// succeeds until Close, which runs exactly once.
const (
	connStateConnecting int32 = iota
	connStateOpen
	connStateClosed
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsSignalConn is the transport endpoint a room fans out to. The send
// channel is never closed; Close flips the state and the done channel so
// that an in-flight broadcast racing Close sees ErrConnClosed instead of
// a panic.
type wsSignalConn struct {
	conn  WSConn
	send  chan core.Frame
	done  chan struct{}
	state int32
	once  sync.Once
}

func newWSSignalConn(conn WSConn, buffer int) *wsSignalConn {
	return &wsSignalConn{
		conn:  conn,
		send:  make(chan core.Frame, buffer),
		done:  make(chan struct{}),
		state: connStateConnecting,
	}
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	if atomic.LoadInt32(&c.state) != connStateOpen {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	case <-c.done:
		return core.ErrConnClosed
	default:
		return core.ErrBackpressure
	}
}

func (c *wsSignalConn) Close() {
	c.once.Do(func() {
		atomic.StoreInt32(&c.state, connStateClosed)
		close(c.done)
		_ = c.conn.Close()
	})
}

type welcomeMessage struct {
	Type    string        `json:"type"`
	RoomID  domain.RoomID `json:"roomId"`
	Role    domain.Role   `json:"role"`
	Clients int           `json:"clients"`
}

type SignalController struct {
	Orch *app.Orchestrator
	Cfg  *config.Config
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection lifecycle:
// handshake validation, room attach, welcome, then the read/write pumps.
func (ctl *SignalController) HandleSignal(ctx context.Context, c *gin.Context) {
	roomID := domain.RoomID(c.Query("room"))
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleUnknown)))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}

	if err := domain.ValidateRoomID(roomID); err != nil {
		// Refused before any room side effects. Close code 1008 tells the
		// client apart from a normal closure.
		refuse(ws, err)
		return
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "adapters.signal").Str("sid", string(sid)).Str("room", string(roomID)).Str("role", string(role)).Msg("new signal connection")

	ws.SetReadLimit(ctl.Cfg.ReadLimit)
	conn := newWSSignalConn(ws, ctl.Cfg.SendBuffer)
	atomic.StoreInt32(&conn.state, connStateOpen)

	sess := core.NewMemberSession(domain.NewMember(role), conn)
	room, count := ctl.Orch.Join(roomID, sid, sess)
	metrics.ActiveConnections.Inc()

	ctl.sendWelcome(conn, roomID, role, count)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, room, conn)
}

func refuse(ws *websocket.Conn, err error) {
	reason := "room required"
	if errors.Is(err, domain.ErrRoomIDTooLong) {
		reason = "room id too long"
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = ws.Close()
	log.Warn().Str("module", "adapters.signal").Str("reason", reason).Msg("handshake refused")
}

func (ctl *SignalController) sendWelcome(conn *wsSignalConn, roomID domain.RoomID, role domain.Role, clients int) {
	data, err := json.Marshal(welcomeMessage{Type: "welcome", RoomID: roomID, Role: role, Clients: clients})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("marshal welcome")
		return
	}
	_ = conn.TrySend(core.Frame(data))
}

func (ctl *SignalController) writePump(ctx context.Context, sid core.SessionID, c *wsSignalConn) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns the connection teardown: whatever ends the read loop
// (client close, network reset, kick) removes the member and announces
// the departure exactly once.
func (ctl *SignalController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, room core.RoomService, c *wsSignalConn) {
	defer func() {
		cancel()
		c.Close()
		ctl.Orch.Leave(room, sid)
		metrics.ActiveConnections.Dec()
		log.Info().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("signal connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(sid, room, data)
		}
	}
}

func (ctl *SignalController) handleFrame(sid core.SessionID, room core.RoomService, data []byte) {
	if !isJSONObject(data) {
		log.Debug().Str("module", "adapters.signal").Str("sid", string(sid)).Msg("dropping malformed payload")
		return
	}
	ctl.Orch.Relay(room, sid, core.Frame(data))
}

// isJSONObject reports whether data parses as a single JSON object. That
// is the relay's entire notion of well-formedness; the message vocabulary
// stays opaque.
func isJSONObject(data []byte) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(data, &obj) == nil && obj != nil
}

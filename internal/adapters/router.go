package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"signalhub/internal/app"
	"signalhub/internal/config"
	"signalhub/internal/domain"
	"signalhub/internal/metrics"
)

// SetupRouter wires HTTP routes (REST + WS) with the orchestrator.
// - Room provisioning and status are under /api/*
// - WebSocket upgrade lives at /ws/signal
func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// GET /api/new-room — provision a fresh room id
	api.GET("/new-room", func(c *gin.Context) {
		id, err := app.NewRoomID()
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("room id generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "room id generation failed"})
			return
		}
		orch.Registry.GetOrCreate(id)
		c.JSON(http.StatusOK, gin.H{"roomId": id})
	})

	// GET /api/rooms — list rooms
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Registry.List()})
	})

	// GET /api/rooms/:id — room status; a status query never creates
	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		room, ok := orch.Registry.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"roomId": id, "clients": room.MemberCount()})
	})

	// DELETE /api/rooms/:id — drop a room from the registry; live
	// connections are untouched, same as a TTL reap
	api.DELETE("/rooms/:id", func(c *gin.Context) {
		orch.Registry.Remove(domain.RoomID(c.Param("id")))
		c.Status(http.StatusNoContent)
	})

	ctl := &SignalController{Orch: orch, Cfg: cfg}

	// GET /ws/signal?room={roomId}&role={role}
	r.GET("/ws/signal", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}

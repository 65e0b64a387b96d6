package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper periodically sweeps the registry for empty or expired rooms.
// It never touches live connections; a room reaped for TTL while occupied
// keeps relaying for its remaining members until they disconnect.
type Reaper struct {
	Registry *RoomRegistry
	Interval time.Duration
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.reaper").Dur("interval", r.Interval).Msg("reaper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case now := <-ticker.C:
			if n := r.Registry.Sweep(now); n > 0 {
				log.Info().Str("module", "app.reaper").Int("reaped", n).Msg("sweep finished")
			}
		}
	}
}

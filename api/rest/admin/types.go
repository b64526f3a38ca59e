package admin

import (
	"context"

	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// runs sweeps on demand and remembers the last one
type Sweeper interface {
	Sweep(ctx context.Context) sessions.Stats
	LastStats() (sessions.Stats, bool)
}

type SweepResponse struct {
	Stats sessions.Stats `json:"stats"`
}

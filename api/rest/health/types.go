package health

import "codeberg.org/moodcanvas/server/moodcanvas/sessions"

// Response represents the health check response
type Response struct {
	Status      string          `json:"status"`
	Service     string          `json:"service"`
	Version     string          `json:"version,omitempty"`
	Sessions    int             `json:"sessions"`
	Connections int             `json:"connections"`
	LastSweep   *sessions.Stats `json:"last_sweep"`
}

type PingResponse struct {
	Message string `json:"message"`
}

// the live counts and sweep stats reported by the health check
type Source struct {
	Sessions    interface{ Count() int }
	Connections interface{ ClientCount() int }
	Sweeps      interface {
		LastStats() (sessions.Stats, bool)
	}
}

package websocket

import (
	"net/http"
	"slices"

	"github.com/google/uuid"

	"codeberg.org/moodcanvas/server/internal/logger"
)

// which browser origins may open a websocket
type OriginPolicy struct {
	Production bool
	Allowed    []string
}

// any origin passes outside production. In production the Origin header
// must be present and listed.
func (p OriginPolicy) Check(r *http.Request) bool {
	if !p.Production {
		return true
	}

	origin := r.Header.Get("Origin")

	switch {
	case origin == "":
		logger.Warn("websocket connection with no origin header")
		return false
	case slices.Contains(p.Allowed, origin):
		return true
	case len(p.Allowed) == 0:
		logger.Warn("websocket origin rejected, no allowed origins configured", "origin", origin)
	default:
		logger.Warn("websocket origin rejected", "origin", origin)
	}

	return false
}

func GenerateClientID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

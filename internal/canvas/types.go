package canvas

import "errors"

// maximum number of snapshots kept for undo/redo
const MaxHistory = 20

var ErrInvalidElement = errors.New("invalid canvas element")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	ID         string  `json:"id"`
	Points     []Point `json:"points"`
	Color      string  `json:"color"`
	Width      float64 `json:"width"`
	Opacity    float64 `json:"opacity"`
	SketchType string  `json:"sketch_type,omitempty"`
	UserID     string  `json:"user_id,omitempty"`
	Timestamp  int64   `json:"timestamp"` // unix milliseconds
}

type StickyNote struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Color     string  `json:"color"`
	UserID    string  `json:"user_id,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type TextElement struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	FontSize  float64 `json:"font_size"`
	Color     string  `json:"color"`
	UserID    string  `json:"user_id,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// full drawing state at one point in time
type Snapshot struct {
	Strokes      []Stroke               `json:"strokes"`
	StickyNotes  map[string]StickyNote  `json:"sticky_notes"`
	TextElements map[string]TextElement `json:"text_elements"`
}

// ordered snapshots plus an undo cursor; the zero value is an empty history
type History struct {
	snapshots []Snapshot
	index     int
}

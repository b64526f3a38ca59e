package canvas

import "fmt"

// returns a snapshot with no elements and non-nil collections
func Empty() Snapshot {
	return Snapshot{
		Strokes:      []Stroke{},
		StickyNotes:  map[string]StickyNote{},
		TextElements: map[string]TextElement{},
	}
}

// deep copy; stored snapshots never share memory with callers
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Strokes:      make([]Stroke, len(s.Strokes)),
		StickyNotes:  make(map[string]StickyNote, len(s.StickyNotes)),
		TextElements: make(map[string]TextElement, len(s.TextElements)),
	}

	for i, stroke := range s.Strokes {
		stroke.Points = append([]Point(nil), stroke.Points...)
		out.Strokes[i] = stroke
	}

	for id, note := range s.StickyNotes {
		out.StickyNotes[id] = note
	}

	for id, el := range s.TextElements {
		out.TextElements[id] = el
	}

	return out
}

// rejects elements without ids and map entries keyed differently from their id
func (s Snapshot) Validate() error {
	for i, stroke := range s.Strokes {
		if stroke.ID == "" {
			return fmt.Errorf("%w: stroke %d has no id", ErrInvalidElement, i)
		}
	}

	for key, note := range s.StickyNotes {
		if note.ID == "" || note.ID != key {
			return fmt.Errorf("%w: sticky note %q id mismatch", ErrInvalidElement, key)
		}
	}

	for key, el := range s.TextElements {
		if el.ID == "" || el.ID != key {
			return fmt.Errorf("%w: text element %q id mismatch", ErrInvalidElement, key)
		}
	}

	return nil
}

// total number of drawn elements
func (s Snapshot) ElementCount() int {
	return len(s.Strokes) + len(s.StickyNotes) + len(s.TextElements)
}

package canvas

// returns a history seeded with one empty snapshot at cursor 0
func NewHistory() *History {
	return &History{snapshots: []Snapshot{Empty()}}
}

// rebuilds a history from persisted state: the latest snapshot becomes the
// only entry
func Restore(latest Snapshot) *History {
	return &History{snapshots: []Snapshot{latest.Clone()}}
}

// records s as the newest state. Redo-able snapshots past the cursor are
// discarded first; when the history overflows MaxHistory the oldest entry
// is dropped. The cursor always ends on s.
func (h *History) Push(s Snapshot) {
	if len(h.snapshots) > 0 {
		h.snapshots = h.snapshots[:h.index+1]
	}

	h.snapshots = append(h.snapshots, s.Clone())

	if len(h.snapshots) > MaxHistory {
		trimmed := make([]Snapshot, MaxHistory)
		copy(trimmed, h.snapshots[len(h.snapshots)-MaxHistory:])
		h.snapshots = trimmed
	}

	h.index = len(h.snapshots) - 1
}

// moves the cursor back one step; a no-op at the oldest snapshot
func (h *History) Undo() (Snapshot, bool) {
	if len(h.snapshots) == 0 {
		return Empty(), false
	}

	if h.index > 0 {
		h.index--
	}

	return h.snapshots[h.index].Clone(), true
}

// moves the cursor forward one step; a no-op at the newest snapshot
func (h *History) Redo() (Snapshot, bool) {
	if len(h.snapshots) == 0 {
		return Empty(), false
	}

	if h.index < len(h.snapshots)-1 {
		h.index++
	}

	return h.snapshots[h.index].Clone(), true
}

// returns the snapshot under the cursor, or an empty one
func (h *History) Current() Snapshot {
	if len(h.snapshots) == 0 {
		return Empty()
	}

	return h.snapshots[h.index].Clone()
}

func (h *History) Index() int {
	return h.index
}

func (h *History) Len() int {
	return len(h.snapshots)
}

func (h *History) CanUndo() bool {
	return h.index > 0
}

func (h *History) CanRedo() bool {
	return len(h.snapshots) > 0 && h.index < len(h.snapshots)-1
}

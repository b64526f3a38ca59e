package buffer

// redis key patterns
const (
	// moodcanvas:session:{sessionID}:record - latest session record as JSON
	keySessionRecord = "moodcanvas:session:%s:record"

	// moodcanvas:dirty_sessions - set of session IDs with unflushed records
	keyDirtySessions = "moodcanvas:dirty_sessions"
)

package sessions

const (
	queryCreateSessionsTable = `
		CREATE TABLE IF NOT EXISTS moodcanvas_sessions (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			last_activity TIMESTAMPTZ NOT NULL,
			canvas        JSONB NOT NULL,
			messages      JSONB NOT NULL,
			samples       JSONB NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	queryUpsertSession = `
		INSERT INTO moodcanvas_sessions (id, name, created_at, last_activity, canvas, messages, samples, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			last_activity = EXCLUDED.last_activity,
			canvas = EXCLUDED.canvas,
			messages = EXCLUDED.messages,
			samples = EXCLUDED.samples,
			updated_at = NOW()
	`

	queryLoadSessions = `
		SELECT id, name, created_at, last_activity, canvas, messages, samples
		FROM moodcanvas_sessions
		ORDER BY created_at
	`

	queryDeleteSession = `DELETE FROM moodcanvas_sessions WHERE id = $1`

	sqliteCreateSessionsTable = `
		CREATE TABLE IF NOT EXISTS sessions (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			last_activity INTEGER NOT NULL,
			canvas_json   TEXT NOT NULL,
			messages_json TEXT NOT NULL,
			samples_json  TEXT NOT NULL,
			updated_at    INTEGER NOT NULL
		)
	`

	sqliteUpsertSession = `
		INSERT INTO sessions (id, name, created_at, last_activity, canvas_json, messages_json, samples_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_activity = excluded.last_activity,
			canvas_json = excluded.canvas_json,
			messages_json = excluded.messages_json,
			samples_json = excluded.samples_json,
			updated_at = excluded.updated_at
	`

	sqliteLoadSessions = `
		SELECT id, name, created_at, last_activity, canvas_json, messages_json, samples_json
		FROM sessions
		ORDER BY created_at, id
	`

	sqliteDeleteSession = `DELETE FROM sessions WHERE id = ?`
)

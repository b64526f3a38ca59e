package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"codeberg.org/moodcanvas/server/internal/logger"
)

// SQLiteRepository persists sessions in a single SQLite file.
type SQLiteRepository struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens (and creates if needed) a session store at path.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(sqliteCreateSessionsTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLiteRepository{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *SQLiteRepository) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteRepository) SaveSession(ctx context.Context, record *Record) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	enc, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		sqliteUpsertSession,
		record.Session.ID,
		record.Session.Name,
		timeToUnixMillis(record.Session.CreatedAt),
		timeToUnixMillis(record.Session.LastActivity),
		string(enc.canvas),
		string(enc.messages),
		string(enc.samples),
		timeToUnixMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", record.Session.ID, err)
	}

	return nil
}

func (s *SQLiteRepository) LoadSessions(ctx context.Context) ([]*Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx, sqliteLoadSessions)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record                   Record
			createdAt, lastActivity  int64
			canvasJSON, messagesJSON string
			samplesJSON              string
		)

		if err := rows.Scan(
			&record.Session.ID,
			&record.Session.Name,
			&createdAt,
			&lastActivity,
			&canvasJSON,
			&messagesJSON,
			&samplesJSON,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		record.Session.CreatedAt = unixMillisToTime(createdAt)
		record.Session.LastActivity = unixMillisToTime(lastActivity)

		enc := encodedRecord{
			canvas:   []byte(canvasJSON),
			messages: []byte(messagesJSON),
			samples:  []byte(samplesJSON),
		}
		if err := decodeRecord(&record, enc); err != nil {
			logger.ErrorErr(err, "skipping undecodable stored session", "session_id", record.Session.ID)
			continue
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return records, nil
}

func (s *SQLiteRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.sqlDB.ExecContext(ctx, sqliteDeleteSession, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	return nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ Repository = (*SQLiteRepository)(nil)

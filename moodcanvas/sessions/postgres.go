package sessions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/moodcanvas/server/internal/logger"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// returns a Repository backed by Postgres. The table is created if missing.
func NewPostgresRepository(ctx context.Context, db *pgxpool.Pool) (Repository, error) {
	if _, err := db.Exec(ctx, queryCreateSessionsTable); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &postgresRepository{db: db}, nil
}

// opens a pool for connString and verifies it answers
func ConnectPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func (r *postgresRepository) SaveSession(ctx context.Context, record *Record) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	enc, err := encodeRecord(record)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		queryUpsertSession,
		record.Session.ID,
		record.Session.Name,
		record.Session.CreatedAt,
		record.Session.LastActivity,
		enc.canvas,
		enc.messages,
		enc.samples,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", record.Session.ID, err)
	}

	return nil
}

func (r *postgresRepository) LoadSessions(ctx context.Context) ([]*Record, error) {
	rows, err := r.db.Query(ctx, queryLoadSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record Record
			enc    encodedRecord
		)

		if err := rows.Scan(
			&record.Session.ID,
			&record.Session.Name,
			&record.Session.CreatedAt,
			&record.Session.LastActivity,
			&enc.canvas,
			&enc.messages,
			&enc.samples,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if err := decodeRecord(&record, enc); err != nil {
			logger.ErrorErr(err, "skipping undecodable stored session", "session_id", record.Session.ID)
			continue
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return records, nil
}

func (r *postgresRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.Exec(ctx, queryDeleteSession, sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	return nil
}

// the pool is owned by the caller
func (r *postgresRepository) Close() error {
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playperu/imposter/internal/imposter"
)

// SQLiteStore keeps each room as a JSONB document next to a few indexed
// columns. Writes are conditional on the version column so concurrent
// instances never overwrite each other.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Insert writes a brand new room at version 1.
func (s *SQLiteStore) Insert(ctx context.Context, room *imposter.Room) (*imposter.Room, error) {
	r := room.Clone()
	r.Version = 1
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (code, host_id, state, version, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, jsonb(?), ?, ?)`,
		r.Code, r.HostID, string(r.State), r.Version, string(data), stamp(r.CreatedAt), stamp(r.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("inserting room: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) Get(ctx context.Context, code string) (*imposter.Room, error) {
	var data string
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data), version FROM rooms WHERE code = ?`, code,
	).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, imposter.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	var r imposter.Room
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decoding room %s: %w", code, err)
	}
	r.Version = version
	return &r, nil
}

// Update loads the room, applies fn and writes the result only if nobody
// else committed in between. On a lost race the whole cycle is retried
// against the fresh snapshot, so fn must be free of side effects.
func (s *SQLiteStore) Update(ctx context.Context, code string, fn func(*imposter.Room) error) (*imposter.Room, error) {
	for range updateAttempts {
		cur, err := s.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		next := cur.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		next.Version = cur.Version + 1
		next.UpdatedAt = s.now().UTC()

		data, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		result, err := s.db.ExecContext(ctx,
			`UPDATE rooms SET host_id = ?, state = ?, version = ?, data = jsonb(?), updated_at = ?
			 WHERE code = ? AND version = ?`,
			next.HostID, string(next.State), next.Version, string(data), stamp(next.UpdatedAt),
			code, cur.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("updating room %s: %w", code, err)
		}
		n, err := rowsAffected(result, "updating room "+code)
		if err != nil {
			return nil, err
		}
		if n == 1 {
			return next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, ErrConflict
}

func (s *SQLiteStore) Delete(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
	if err != nil {
		return err
	}
	n, err := rowsAffected(result, "deleting room "+code)
	if err != nil {
		return err
	}
	if n == 0 {
		return imposter.ErrRoomNotFound
	}
	return nil
}

// DeleteIdle removes rooms whose last write is older than before and
// returns their codes.
func (s *SQLiteStore) DeleteIdle(ctx context.Context, before time.Time) ([]string, error) {
	cutoff := stamp(before)
	rows, err := s.db.QueryContext(ctx,
		`SELECT code FROM rooms WHERE updated_at < ? ORDER BY code`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	var candidates []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var removed []string
	for _, code := range candidates {
		// A room touched after the scan survives.
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM rooms WHERE code = ? AND updated_at < ?`, code, cutoff,
		)
		if err != nil {
			return removed, err
		}
		n, err := rowsAffected(result, "deleting idle room "+code)
		if err != nil {
			return removed, err
		}
		if n == 1 {
			removed = append(removed, code)
		}
	}
	return removed, nil
}

// Ping reports whether the database answers.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// rowsAffected reports the rows a statement touched. A driver error is
// returned, never read as zero rows.
func rowsAffected(result sql.Result, op string) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

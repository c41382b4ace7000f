// Package pgx is a SessionStore backed by PostgreSQL.
package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/annograph/backend/internal/util"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

const (
	loadSession = `SELECT data FROM sessions WHERE handle = $1`

	saveSession = `
INSERT INTO sessions (handle, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (handle) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	deleteSession = `DELETE FROM sessions WHERE handle = $1`
)

// SessionDBStorage keeps one JSONB row per handle in the sessions table.
type SessionDBStorage struct {
	conn pgxIConn
}

var _ store.SessionStore = (*SessionDBStorage)(nil)

// NewSessionDBStorageWithConnection creates a store on an existing
// connection or pool.
func NewSessionDBStorageWithConnection(conn pgxIConn) *SessionDBStorage {
	return &SessionDBStorage{conn: conn}
}

func (s *SessionDBStorage) Load(ctx context.Context, handle string) ([]common.QuestionAndAnswer, error) {
	var data []byte
	err := s.conn.QueryRow(ctx, loadSession, handle).Scan(&data)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return store.Decode(data)
}

func (s *SessionDBStorage) Save(ctx context.Context, handle string, items []common.QuestionAndAnswer) error {
	data, err := store.Encode(items)
	if err != nil {
		return err
	}
	text := util.SanitizeJSONB(string(data))

	if _, err := s.conn.Exec(ctx, saveSession, handle, text); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logger.Debug("[Store] session written", "handle", handle, "bytes", len(text))
	return nil
}

func (s *SessionDBStorage) Delete(ctx context.Context, handle string) error {
	if _, err := s.conn.Exec(ctx, deleteSession, handle); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

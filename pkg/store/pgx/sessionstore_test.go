package pgx

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	data []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.data
	return nil
}

// fakeConn interprets the three session statements against a map.
type fakeConn struct {
	rows map[string]string
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	handle := args[0].(string)
	switch {
	case strings.Contains(sql, "INSERT INTO sessions"):
		c.rows[handle] = args[1].(string)
	case strings.Contains(sql, "DELETE FROM sessions"):
		delete(c.rows, handle)
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgxv5.Row {
	data, ok := c.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgxv5.ErrNoRows}
	}
	return fakeRow{data: []byte(data)}
}

func TestSessionDBStorage(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{rows: map[string]string{}}
	s := NewSessionDBStorageWithConnection(conn)
	handle := store.Handle("42")

	if _, err := s.Load(ctx, handle); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load() error = %v, want %v", err, store.ErrNotFound)
	}

	qa := common.NewQuestionAndAnswer("qa", "q\x00")
	qa.Answer = "[Cats ($N1)] sleep."
	if err := s.Save(ctx, handle, []common.QuestionAndAnswer{qa}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(conn.rows[handle], `\u0000`) {
		t.Fatalf("NUL character written: %s", conn.rows[handle])
	}

	got, err := s.Load(ctx, handle)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Answer != qa.Answer || got[0].Question != "q" || !reflect.DeepEqual(got[0].Synced, qa.Synced) {
		t.Fatalf("Load() = %+v", got)
	}

	if err := s.Delete(ctx, handle); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Load(ctx, handle); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load() after Delete error = %v", err)
	}
}

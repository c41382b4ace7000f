package pgx

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrLeaseLost is the cancel cause of a lease context whose lease expired
// or was taken over.
var ErrLeaseLost = errors.New("session lease lost")

const (
	defaultLeaseTTL   = time.Minute
	leaseWaitInterval = 250 * time.Millisecond
	leaseWaitJitter   = 250 * time.Millisecond
)

const (
	tryAcquireLease = `
INSERT INTO session_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE session_locks.expires_at < now()
   OR session_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key`

	renewLease = `
UPDATE session_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key`

	releaseLease = `DELETE FROM session_locks WHERE lock_key = $1 AND locked_by = $2`
)

// Locker hands out expiring leases stored in the session_locks table, so
// that only one process works on a session at a time.
type Locker struct {
	conn pgxIConn
	ttl  time.Duration
}

// Locker returns a Locker on the connection of the store. A lease that is
// not renewed expires after ttl.
func (s *SessionDBStorage) Locker(ttl time.Duration) *Locker {
	return NewLocker(s.conn, ttl)
}

func NewLocker(conn pgxIConn, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Locker{conn: conn, ttl: ttl}
}

// WithLease waits for the lease on key and runs fn while holding it. The
// lease is renewed every half TTL; the context passed to fn is canceled
// with ErrLeaseLost when renewing fails.
func (l *Locker) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return errors.New("lease key is empty")
	}

	token, err := gonanoid.New()
	if err != nil {
		return err
	}
	ttlMs := l.ttl.Milliseconds()

	for {
		ok, err := l.exchange(ctx, tryAcquireLease, key, token, ttlMs)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if err := sleepWithJitter(ctx, leaseWaitInterval, leaseWaitJitter); err != nil {
			return err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})
	go l.renew(leaseCtx, cancel, done, key, token, ttlMs)

	defer func() {
		close(done)
		cancel(context.Canceled)
		if _, err := l.conn.Exec(context.Background(), releaseLease, key, token); err != nil {
			logger.Warn("[Store] failed to release lease", "key", key, "err", err)
		}
	}()

	return fn(leaseCtx)
}

func (l *Locker) renew(ctx context.Context, cancel context.CancelCauseFunc, done <-chan struct{}, key, token string, ttlMs int64) {
	t := time.NewTicker(max(l.ttl/2, time.Millisecond))
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			ok, err := l.exchange(ctx, renewLease, key, token, ttlMs)
			if err == nil && !ok {
				err = ErrLeaseLost
			}
			if err != nil {
				logger.Warn("[Store] lease lost", "key", key, "err", err)
				cancel(ErrLeaseLost)
				return
			}
		}
	}
}

// exchange runs an acquire or renew statement and reports whether the row
// now belongs to token.
func (l *Locker) exchange(ctx context.Context, sql, key, token string, ttlMs int64) (bool, error) {
	var returned string
	err := l.conn.QueryRow(ctx, sql, key, token, ttlMs).Scan(&returned)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return returned == key, nil
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

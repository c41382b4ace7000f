package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
)

// Locker serializes work on a key across processes.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ProcessArchiveMessage copies the session named in body from src to dst.
// A session that no longer exists in src is removed from dst. With a
// non-nil locker the copy runs under the lease "archive:<handle>".
func ProcessArchiveMessage(ctx context.Context, src, dst store.SessionStore, locker Locker, body string) error {
	var msg ArchiveMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal archive message: %w", err)
	}
	if msg.Handle == "" {
		return errors.New("archive message without handle")
	}

	if locker == nil {
		return archive(ctx, src, dst, msg.Handle)
	}
	return locker.WithLease(ctx, "archive:"+msg.Handle, func(ctx context.Context) error {
		return archive(ctx, src, dst, msg.Handle)
	})
}

func archive(ctx context.Context, src, dst store.SessionStore, handle string) error {
	items, err := src.Load(ctx, handle)
	if errors.Is(err, store.ErrNotFound) {
		logger.Info("[Queue] session gone, deleting archive", "handle", handle)
		if err := dst.Delete(ctx, handle); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to delete archived session: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := dst.Save(ctx, handle, items); err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}

	logger.Info("[Queue] archived session", "handle", handle, "questions", len(items))
	return nil
}

// SweepArchive re-archives every session found in dst, so archives of
// sessions deleted while no worker was running are removed.
func SweepArchive(ctx context.Context, src store.SessionStore, dst store.Lister, locker Locker) error {
	handles, err := dst.Handles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list archived sessions: %w", err)
	}

	var errs []error
	for _, handle := range handles {
		body, err := json.Marshal(ArchiveMessage{Handle: handle})
		if err != nil {
			return err
		}
		if err := ProcessArchiveMessage(ctx, src, dst, locker, string(body)); err != nil {
			errs = append(errs, err)
		}
	}
	logger.Info("[Queue] archive sweep finished", "sessions", len(handles), "failed", len(errs))
	return errors.Join(errs...)
}

// Package s3 is a SessionStore that keeps one JSON object per handle in a bucket.
package s3

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/internal/storage"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
)

const contentType = "application/json"

type Store struct {
	bucket *storage.Bucket
	prefix string
}

var _ store.Lister = (*Store)(nil)

// New stores sessions below prefix in bucket.
func New(bucket *storage.Bucket, prefix string) *Store {
	return &Store{bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) key(handle string) string {
	return path.Join(s.prefix, handle+".json")
}

func (s *Store) Load(ctx context.Context, handle string) ([]common.QuestionAndAnswer, error) {
	data, err := s.bucket.GetFile(ctx, s.key(handle))
	if errors.Is(err, storage.ErrNoSuchKey) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return store.Decode(data)
}

func (s *Store) Save(ctx context.Context, handle string, items []common.QuestionAndAnswer) error {
	data, err := store.Encode(items)
	if err != nil {
		return err
	}
	return s.bucket.PutFile(ctx, s.key(handle), contentType, data)
}

func (s *Store) Delete(ctx context.Context, handle string) error {
	return s.bucket.DeleteFile(ctx, s.key(handle))
}

// Handles lists every handle stored below the prefix.
func (s *Store) Handles(ctx context.Context) ([]string, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	keys, err := s.bucket.ListFilesWithPrefix(ctx, prefix+store.HandlePrefix)
	if err != nil {
		return nil, err
	}

	handles := make([]string, 0, len(keys))
	for _, k := range keys {
		if h, ok := strings.CutSuffix(path.Base(k), ".json"); ok {
			handles = append(handles, h)
		}
	}
	return handles, nil
}

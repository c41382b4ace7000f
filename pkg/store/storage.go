// Package store persists the questions of a user between sessions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// HandlePrefix is prepended to every user id to form a storage handle.
const HandlePrefix = "__annograph__"

// ErrNotFound is returned by Load when nothing was saved under a handle.
var ErrNotFound = errors.New("session not found")

// SessionStore saves and loads the full question collection under a handle.
type SessionStore interface {
	Load(ctx context.Context, handle string) ([]common.QuestionAndAnswer, error)
	Save(ctx context.Context, handle string, items []common.QuestionAndAnswer) error
	Delete(ctx context.Context, handle string) error
}

// Lister is a SessionStore that can enumerate its handles.
type Lister interface {
	SessionStore
	Handles(ctx context.Context) ([]string, error)
}

// Handle returns the storage handle of a user.
func Handle(userID string) string {
	return HandlePrefix + userID
}

// Encode serializes a question collection.
func Encode(items []common.QuestionAndAnswer) ([]byte, error) {
	if items == nil {
		items = []common.QuestionAndAnswer{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// Decode parses a collection written by Encode.
func Decode(data []byte) ([]common.QuestionAndAnswer, error) {
	var items []common.QuestionAndAnswer
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if items == nil {
		items = []common.QuestionAndAnswer{}
	}
	return items, nil
}

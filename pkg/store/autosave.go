package store

import (
	"context"
	"sync"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/internal/util"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
)

const saveTries = 3

// Autosaver debounces saves: only the latest collection scheduled for a
// handle within the delay is written.
type Autosaver struct {
	store SessionStore
	delay time.Duration

	mu      sync.Mutex
	pending map[string][]common.QuestionAndAnswer
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewAutosaver returns an Autosaver writing to s after delay.
func NewAutosaver(s SessionStore, delay time.Duration) *Autosaver {
	return &Autosaver{
		store:   s,
		delay:   delay,
		pending: map[string][]common.QuestionAndAnswer{},
		timers:  map[string]*time.Timer{},
	}
}

// Schedule replaces the pending collection of handle and restarts its timer.
func (a *Autosaver) Schedule(handle string, items []common.QuestionAndAnswer) {
	snapshot := make([]common.QuestionAndAnswer, len(items))
	for i, qa := range items {
		snapshot[i] = qa.Clone()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending[handle] = snapshot
	if t, ok := a.timers[handle]; ok {
		t.Reset(a.delay)
		return
	}
	a.timers[handle] = time.AfterFunc(a.delay, func() {
		a.save(context.Background(), handle)
	})
}

// Flush writes every pending collection now and waits for running saves.
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	handles := make([]string, 0, len(a.pending))
	for h, t := range a.timers {
		t.Stop()
		handles = append(handles, h)
	}
	a.mu.Unlock()

	for _, h := range handles {
		a.save(ctx, h)
	}
	a.wg.Wait()
}

func (a *Autosaver) save(ctx context.Context, handle string) {
	a.mu.Lock()
	items, ok := a.pending[handle]
	delete(a.pending, handle)
	delete(a.timers, handle)
	if ok {
		a.wg.Add(1)
	}
	a.mu.Unlock()
	if !ok {
		return
	}
	defer a.wg.Done()

	err := util.RetryErrWithContext(ctx, saveTries, func(ctx context.Context) error {
		return a.store.Save(ctx, handle, items)
	})
	if err != nil {
		logger.Error("[Store] autosave failed", "handle", handle, "err", err)
		return
	}
	logger.Debug("[Store] session saved", "handle", handle, "questions", len(items))
}

// Package answer turns streamed model answers into annotated answer objects
// and keeps the published collection of questions.
package answer

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// ErrNotFound is returned when a question id is unknown.
var ErrNotFound = errors.New("question not found")

// Event describes one published change. Removed is set when the question
// was deleted; QA then holds its last state.
type Event struct {
	QA      common.QuestionAndAnswer
	Removed bool
}

// Listener observes every published change of a question.
type Listener func(ev Event)

// Repository is the ordered collection of questions. The collection is
// replaced copy-on-write on every change and readers always get clones.
//
// Listeners run synchronously after each change, in change order. They may
// read from the repository but must not write to it.
type Repository struct {
	mu    sync.RWMutex
	items []common.QuestionAndAnswer

	// serializes writes together with their notifications
	writeMu   sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		items:     []common.QuestionAndAnswer{},
		listeners: map[int]Listener{},
	}
}

// Subscribe registers l and returns a function that removes it again.
func (r *Repository) Subscribe(l Listener) func() {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = l

	return func() {
		r.writeMu.Lock()
		defer r.writeMu.Unlock()
		delete(r.listeners, id)
	}
}

// List returns clones of all questions in insertion order.
func (r *Repository) List() []common.QuestionAndAnswer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.QuestionAndAnswer, len(r.items))
	for i, qa := range r.items {
		out[i] = qa.Clone()
	}
	return out
}

// Get returns a clone of the question with the given id.
func (r *Repository) Get(id string) (common.QuestionAndAnswer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, qa := range r.items {
		if qa.ID == id {
			return qa.Clone(), true
		}
	}
	return common.QuestionAndAnswer{}, false
}

// Add appends a question.
func (r *Repository) Add(qa common.QuestionAndAnswer) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	stored := qa.Clone()
	r.mu.Lock()
	next := make([]common.QuestionAndAnswer, 0, len(r.items)+1)
	next = append(next, r.items...)
	r.items = append(next, stored)
	r.mu.Unlock()

	r.notify(stored)
}

// Replace swaps the whole collection, e.g. after loading a saved session.
// Listeners are notified for every question.
func (r *Repository) Replace(items []common.QuestionAndAnswer) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next := make([]common.QuestionAndAnswer, len(items))
	for i, qa := range items {
		next[i] = qa.Clone()
	}
	r.mu.Lock()
	r.items = next
	r.mu.Unlock()

	for _, qa := range next {
		r.notify(qa)
	}
}

// Remove deletes the question with the given id.
func (r *Repository) Remove(id string) bool {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	idx := slices.IndexFunc(r.items, func(qa common.QuestionAndAnswer) bool { return qa.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	next := make([]common.QuestionAndAnswer, 0, len(r.items)-1)
	next = append(next, r.items[:idx]...)
	removed := r.items[idx]
	r.items = append(next, r.items[idx+1:]...)
	r.mu.Unlock()

	r.notifyEvent(Event{QA: removed, Removed: true})
	return true
}

// UpdateByID applies fn to a clone of the question with the given id and
// publishes the result. It returns false without calling fn when the id is
// unknown.
func (r *Repository) UpdateByID(id string, fn func(qa *common.QuestionAndAnswer)) (common.QuestionAndAnswer, bool) {
	return r.update(id, func(qa *common.QuestionAndAnswer) bool {
		fn(qa)
		return true
	})
}

// UpdateObject applies fn to a clone of one answer object. Unknown question
// or object ids leave the collection untouched.
func (r *Repository) UpdateObject(qaID, objectID string, fn func(obj *common.AnswerObject)) (common.QuestionAndAnswer, bool) {
	return r.update(qaID, func(qa *common.QuestionAndAnswer) bool {
		i := qa.ObjectIndex(objectID)
		if i < 0 {
			return false
		}
		fn(&qa.AnswerObjects[i])
		return true
	})
}

// update publishes the change made by fn unless fn reports that nothing
// was changed.
func (r *Repository) update(id string, fn func(qa *common.QuestionAndAnswer) bool) (common.QuestionAndAnswer, bool) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	idx := slices.IndexFunc(r.items, func(qa common.QuestionAndAnswer) bool { return qa.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return common.QuestionAndAnswer{}, false
	}

	updated := r.items[idx].Clone()
	if !fn(&updated) {
		r.mu.Unlock()
		return updated, false
	}
	updated.ID = id

	next := slices.Clone(r.items)
	next[idx] = updated
	r.items = next
	r.mu.Unlock()

	r.notify(updated)
	return updated.Clone(), true
}

// UpsertObject publishes obj, replacing the object with the same id or
// appending it.
func (r *Repository) UpsertObject(qaID string, obj common.AnswerObject) (common.QuestionAndAnswer, bool) {
	return r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.UpsertObject(obj.Clone())
	})
}

func (r *Repository) notify(qa common.QuestionAndAnswer) {
	r.notifyEvent(Event{QA: qa})
}

func (r *Repository) notifyEvent(ev Event) {
	for _, id := range slices.Sorted(maps.Keys(r.listeners)) {
		r.listeners[id](Event{QA: ev.QA.Clone(), Removed: ev.Removed})
	}
}

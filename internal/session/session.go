// Package session binds the answer pipeline of one user to persistence,
// diagrams and event delivery.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/answer"
	"github.com/OFFIS-RIT/annograph/backend/pkg/canvas"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/flow"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
	"github.com/OFFIS-RIT/annograph/backend/pkg/timemachine"
)

const (
	DirectionUndo = "undo"
	DirectionRedo = "redo"
)

// Publisher forwards session changes to other services.
type Publisher interface {
	ChatUpdated(userID string, qa common.QuestionAndAnswer, removed bool) error
	FlowTransition(userID, qaID, direction string, t flow.Transition) error
	EnqueueArchive(handle string) error
}

type Config struct {
	Store     store.SessionStore
	Autosaver *store.Autosaver
	// Publisher is optional.
	Publisher Publisher
	Client    ai.ModelClient
	Answer    answer.Config
	History   []timemachine.Option
	// NewID replaces the id generator of the orchestrators.
	NewID func() (string, error)
}

type ChatEvent struct {
	QA      common.QuestionAndAnswer `json:"qa"`
	Removed bool                     `json:"removed"`
}

type GraphEvent struct {
	QuestionID string     `json:"question_id"`
	Graph      flow.Graph `json:"graph"`
	CanUndo    bool       `json:"can_undo"`
	CanRedo    bool       `json:"can_redo"`
}

type TransitionEvent struct {
	QuestionID string          `json:"question_id"`
	Direction  string          `json:"direction"`
	Transition flow.Transition `json:"transition"`
}

type TextEvent struct {
	QuestionID string `json:"question_id"`
	ObjectID   string `json:"object_id"`
	Text       string `json:"text"`
}

// Manager keeps one session per user. Sessions are loaded from the store
// on first use.
type Manager struct {
	ctx context.Context
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager whose background requests run with ctx.
func NewManager(ctx context.Context, cfg Config) *Manager {
	return &Manager{
		ctx:      ctx,
		cfg:      cfg,
		sessions: map[string]*Session{},
	}
}

// Get returns the session of userID.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	handle := store.Handle(userID)
	items, err := m.cfg.Store.Load(ctx, handle)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s := newSession(m.ctx, userID, handle, m.cfg, items)
	m.sessions[userID] = s
	logger.Info("[Session] opened", "user", userID, "questions", len(items))
	return s, nil
}

// Close waits for running requests and writes pending saves.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.orch.Wait()
	}
	if m.cfg.Autosaver != nil {
		m.cfg.Autosaver.Flush(ctx)
	}
}

// Session is the state of one user.
type Session struct {
	UserID string
	Handle string

	ctx       context.Context
	repo      *answer.Repository
	orch      *answer.Orchestrator
	canvases  *canvas.Manager
	hub       *Hub
	autosaver *store.Autosaver
	publisher Publisher

	mu        sync.Mutex
	strippers map[string]*annotation.StreamStripper
}

func newSession(ctx context.Context, userID, handle string, cfg Config, items []common.QuestionAndAnswer) *Session {
	s := &Session{
		UserID:    userID,
		Handle:    handle,
		ctx:       ctx,
		repo:      answer.NewRepository(),
		canvases:  canvas.NewManager(cfg.History...),
		hub:       NewHub(),
		autosaver: cfg.Autosaver,
		publisher: cfg.Publisher,
		strippers: map[string]*annotation.StreamStripper{},
	}

	opts := []answer.Option{
		answer.WithOnDelta(s.onDelta),
		answer.WithOnComplete(s.onComplete),
	}
	if cfg.NewID != nil {
		opts = append(opts, answer.WithIDGenerator(cfg.NewID))
	}
	s.orch = answer.NewOrchestrator(s.repo, cfg.Client, cfg.Answer, opts...)

	s.repo.Replace(items)
	for _, qa := range s.repo.List() {
		s.canvases.Get(qa.ID).Load(qa)
	}
	s.repo.Subscribe(s.onChange)
	return s
}

func (s *Session) Repository() *answer.Repository {
	return s.repo
}

func (s *Session) Orchestrator() *answer.Orchestrator {
	return s.orch
}

// Subscribe returns the event stream of the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	return s.hub.Subscribe()
}

// Go runs a model request in the background. It outlives the HTTP request
// that started it.
func (s *Session) Go(name string, fn func(ctx context.Context) error) {
	s.orch.Go(s.ctx, name, fn)
}

// Canvas returns the diagram of a known question.
func (s *Session) Canvas(qaID string) (*canvas.Canvas, bool) {
	if _, ok := s.repo.Get(qaID); !ok {
		return nil, false
	}
	return s.canvases.Get(qaID), true
}

// PublishGraph sends the diagram of qaID to subscribers.
func (s *Session) PublishGraph(qaID string, c *canvas.Canvas, g flow.Graph) {
	s.hub.Publish(Event{Name: EventGraph, Data: GraphEvent{
		QuestionID: qaID,
		Graph:      g,
		CanUndo:    c.CanUndo(),
		CanRedo:    c.CanRedo(),
	}})
}

// Travel undoes or redoes the last diagram change of qaID.
func (s *Session) Travel(qaID, direction string) (flow.Graph, flow.Transition, bool) {
	c, ok := s.Canvas(qaID)
	if !ok {
		return flow.Graph{}, flow.Transition{}, false
	}

	var (
		g  flow.Graph
		tr flow.Transition
	)
	switch direction {
	case DirectionUndo:
		g, tr, ok = c.Undo()
	case DirectionRedo:
		g, tr, ok = c.Redo()
	default:
		return c.Graph(), tr, false
	}
	if !ok {
		return g, tr, false
	}

	s.hub.Publish(Event{Name: EventTransition, Data: TransitionEvent{
		QuestionID: qaID,
		Direction:  direction,
		Transition: tr,
	}})
	s.PublishGraph(qaID, c, g)
	if s.publisher != nil {
		if err := s.publisher.FlowTransition(s.UserID, qaID, direction, tr); err != nil {
			logger.Warn("[Session] failed to publish transition", "user", s.UserID, "err", err)
		}
	}
	return g, tr, true
}

func (s *Session) onChange(ev answer.Event) {
	if ev.Removed {
		s.canvases.Remove(ev.QA.ID)
		s.hub.Publish(Event{Name: EventChat, Data: ChatEvent{QA: ev.QA, Removed: true}})
	} else {
		c := s.canvases.Get(ev.QA.ID)
		g, _ := c.Sync(ev.QA)
		s.hub.Publish(Event{Name: EventChat, Data: ChatEvent{QA: ev.QA}})
		s.PublishGraph(ev.QA.ID, c, g)
	}

	if s.autosaver != nil {
		s.autosaver.Schedule(s.Handle, s.repo.List())
	}
	if s.publisher != nil {
		if err := s.publisher.ChatUpdated(s.UserID, ev.QA, ev.Removed); err != nil {
			logger.Warn("[Session] failed to publish change", "user", s.UserID, "err", err)
		}
	}
}

func (s *Session) onDelta(qaID, objectID, delta string) {
	key := qaID + "/" + objectID

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.strippers[key]
	if !ok {
		p = &annotation.StreamStripper{}
		s.strippers[key] = p
	}
	_ = p.Consume(delta, s.emitText(qaID, objectID))
}

func (s *Session) onComplete(qaID string) {
	prefix := qaID + "/"

	s.mu.Lock()
	for key, p := range s.strippers {
		if objectID, ok := strings.CutPrefix(key, prefix); ok {
			_ = p.Flush(s.emitText(qaID, objectID))
			delete(s.strippers, key)
		}
	}
	s.mu.Unlock()

	if s.publisher == nil {
		return
	}
	if s.autosaver != nil {
		s.autosaver.Flush(s.ctx)
	}
	if err := s.publisher.EnqueueArchive(s.Handle); err != nil {
		logger.Warn("[Session] failed to enqueue archive job", "user", s.UserID, "err", err)
	}
}

func (s *Session) emitText(qaID, objectID string) func(string) error {
	return func(text string) error {
		s.hub.Publish(Event{Name: EventText, Data: TextEvent{
			QuestionID: qaID,
			ObjectID:   objectID,
			Text:       text,
		}})
		return nil
	}
}

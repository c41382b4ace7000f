package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/flow"
)

const (
	TopicChatUpdated    = "chat.updated"
	TopicFlowTransition = "flow.transition"
)

// ChatUpdated is published on every change of a question.
type ChatUpdated struct {
	UserID        string             `json:"user_id"`
	QuestionID    string             `json:"question_id"`
	Removed       bool               `json:"removed"`
	AnswerObjects int                `json:"answer_objects"`
	ModelStatus   common.ModelStatus `json:"model_status"`
}

// FlowTransition is published when a diagram travels through its history.
type FlowTransition struct {
	UserID     string          `json:"user_id"`
	QuestionID string          `json:"question_id"`
	Direction  string          `json:"direction"`
	Transition flow.Transition `json:"transition"`
}

// ArchiveMessage asks the worker to archive the session behind Handle.
type ArchiveMessage struct {
	Handle string `json:"handle"`
}

// Publisher serializes publishing on a single channel.
type Publisher struct {
	mu sync.Mutex
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) ChatUpdated(userID string, qa common.QuestionAndAnswer, removed bool) error {
	return p.topic(TopicChatUpdated, ChatUpdated{
		UserID:        userID,
		QuestionID:    qa.ID,
		Removed:       removed,
		AnswerObjects: len(qa.AnswerObjects),
		ModelStatus:   qa.ModelStatus,
	})
}

func (p *Publisher) FlowTransition(userID, qaID, direction string, t flow.Transition) error {
	return p.topic(TopicFlowTransition, FlowTransition{
		UserID:     userID,
		QuestionID: qaID,
		Direction:  direction,
		Transition: t,
	})
}

// EnqueueArchive schedules an archive job for handle.
func (p *Publisher) EnqueueArchive(handle string) error {
	data, err := json.Marshal(ArchiveMessage{Handle: handle})
	if err != nil {
		return fmt.Errorf("failed to marshal archive message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishFIFO(p.ch, ArchiveQueue, data)
}

func (p *Publisher) topic(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishTopic(p.ch, topic, data)
}

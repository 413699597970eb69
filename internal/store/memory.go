package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
)

// Memory is an in-process session store. Sessions vanish with the process;
// that loss is acceptable and reported rather than engineered around.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*interview.Session
}

func NewMemory() *Memory {
	return &Memory{sessions: map[string]*interview.Session{}}
}

func (m *Memory) Create(_ context.Context, profile interview.ResumeProfile, resumeText string) (string, error) {
	now := time.Now().UTC()
	sess := &interview.Session{
		ID:         uuid.NewString(),
		Profile:    profile,
		ResumeText: resumeText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess.ID, nil
}

// Get returns a deep copy so readers never alias the stored history slice.
// A missing session returns (nil, nil).
func (m *Memory) Get(_ context.Context, sessionID string) (*interview.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.ConversationHistory = make([]interview.Message, len(sess.ConversationHistory))
	copy(cp.ConversationHistory, sess.ConversationHistory)
	return &cp, nil
}

func (m *Memory) AppendHistory(_ context.Context, sessionID string, entries []interview.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return interview.ErrSessionNotFound
	}
	sess.ConversationHistory = append(sess.ConversationHistory, entries...)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) MarkStarted(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return interview.ErrSessionNotFound
	}
	sess.InterviewStarted = true
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

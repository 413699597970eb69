package interview

import "sync"

// TurnEvent types pushed to a session's live feed.
const (
	EventInterviewStarted = "interview_started"
	EventTurnCompleted    = "turn_completed"
	EventReprompt         = "reprompt"
)

// TurnEvent is a lifecycle notification for one session.
type TurnEvent struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript,omitempty"`
	Response   string `json:"response,omitempty"`
}

// Events routes turn events to at most one subscriber per session. A new
// Subscribe replaces the previous subscriber for that session, and Publish
// never blocks a turn: events are dropped when the consumer lags.
type Events struct {
	mu   sync.Mutex
	subs map[string]chan TurnEvent
}

func NewEvents() *Events {
	return &Events{subs: map[string]chan TurnEvent{}}
}

// Subscribe registers the single consumer for a session and returns its
// channel plus a cancel function. Cancelling closes the channel unless a
// newer subscriber has already taken over.
func (e *Events) Subscribe(sessionID string) (<-chan TurnEvent, func()) {
	ch := make(chan TurnEvent, 16)
	e.mu.Lock()
	if prev, ok := e.subs[sessionID]; ok {
		close(prev)
	}
	e.subs[sessionID] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if e.subs[sessionID] == ch {
			delete(e.subs, sessionID)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to the session's subscriber, if any. The send
// happens under the same lock that closes channels, so a concurrent cancel
// can never close the channel mid-send.
func (e *Events) Publish(ev TurnEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.subs[ev.SessionID]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

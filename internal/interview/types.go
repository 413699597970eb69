package interview

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Message roles. History alternates assistant/user starting from the
// opening assistant greeting.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

var (
	// ErrSessionNotFound is returned when no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInterviewNotStarted is returned by ProcessTurn before Start succeeded.
	ErrInterviewNotStarted = errors.New("interview not started")
)

// Message is one entry of the conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResumeProfile is the structured candidate data extracted upstream from the
// resume. Read-only to this package.
type ResumeProfile struct {
	Skills            []string `json:"skills"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	Projects          []string `json:"projects"`
	Technologies      []string `json:"technologies"`
	SeniorityLevel    string   `json:"seniorityLevel"`
	Summary           string   `json:"summary"`
}

// Session is the durable per-interview state.
type Session struct {
	ID                  string        `json:"sessionId"`
	Profile             ResumeProfile `json:"resumeProfile"`
	ResumeText          string        `json:"-"`
	ConversationHistory []Message     `json:"conversationHistory"`
	InterviewStarted    bool          `json:"interviewStarted"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// LastAssistantMessage returns the content of the most recent assistant entry,
// or "" when none exists.
func (s *Session) LastAssistantMessage() string {
	for i := len(s.ConversationHistory) - 1; i >= 0; i-- {
		if s.ConversationHistory[i].Role == RoleAssistant {
			return s.ConversationHistory[i].Content
		}
	}
	return ""
}

// Transcriber converts an audio segment into text. An unintelligible segment
// yields an empty string, not an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// Generator produces interviewer utterances.
type Generator interface {
	FirstQuestion(ctx context.Context, profile ResumeProfile) (string, error)
	NextResponse(ctx context.Context, transcript, priorQuestion string, profile ResumeProfile, history []Message) (string, bool, error)
}

// Synthesizer converts an utterance into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Store is the key-value session store. AppendHistory must apply all entries
// atomically and in order.
type Store interface {
	Create(ctx context.Context, profile ResumeProfile, resumeText string) (string, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	AppendHistory(ctx context.Context, sessionID string, entries []Message) error
	MarkStarted(ctx context.Context, sessionID string) error
}

// StartResult is the outcome of Start: the opening question and its audio.
type StartResult struct {
	Question string
	Audio    []byte
}

// TurnResult is the outcome of one ProcessTurn invocation.
type TurnResult struct {
	Transcript     string
	Response       string
	Audio          []byte
	ShouldContinue bool
}

package interview

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Reprompt is spoken when transcription yields nothing usable. A failed
// transcription is not part of the transcript, so the turn leaves no trace
// in the conversation history.
const Reprompt = "I didn't catch that. Could you please repeat?"

// defaultQuestion is the fallback question-under-answer when the history has
// no assistant entry yet. Should not occur after Start.
const defaultQuestion = "Tell me about yourself."

// Orchestrator drives one full interview turn: transcribe, generate,
// synthesize, append. Turns are strictly serialized per session: the
// per-session lock is held from before the session read until after the
// history append, so two near-simultaneous submissions can never interleave
// their appends.
type Orchestrator struct {
	store       Store
	transcriber Transcriber
	generator   Generator
	synthesizer Synthesizer
	events      *Events

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator constructs an Orchestrator. events may be nil.
func NewOrchestrator(store Store, t Transcriber, g Generator, s Synthesizer, events *Events) *Orchestrator {
	return &Orchestrator{
		store:       store,
		transcriber: t,
		generator:   g,
		synthesizer: s,
		events:      events,
		locks:       map[string]*sync.Mutex{},
	}
}

// sessionLock returns the mutex serializing turns for the given session.
// Locks are never reclaimed; sessions are few and short-lived.
func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[sessionID] = l
	}
	return l
}

func (o *Orchestrator) publish(ev TurnEvent) {
	if o.events != nil {
		o.events.Publish(ev)
	}
}

// Start marks the interview started, generates the opening utterance with no
// prior history, appends it as an assistant turn and returns it with its
// audio. Calling Start twice for the same session appends a second greeting;
// callers must not retry it.
func (o *Orchestrator) Start(ctx context.Context, sessionID string) (*StartResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	if err := o.store.MarkStarted(ctx, sessionID); err != nil {
		return nil, errors.Wrap(err, "mark interview started")
	}

	question, err := o.generator.FirstQuestion(ctx, sess.Profile)
	if err != nil {
		return nil, errors.Wrap(err, "generate first question")
	}

	if err := o.store.AppendHistory(ctx, sessionID, []Message{
		{Role: RoleAssistant, Content: question},
	}); err != nil {
		return nil, errors.Wrap(err, "append first question")
	}

	audio, err := o.synthesizer.Synthesize(ctx, question)
	if err != nil {
		return nil, errors.Wrap(err, "synthesize first question")
	}

	log.Info().Str("session_id", sessionID).Msg("interview started")
	o.publish(TurnEvent{Type: EventInterviewStarted, SessionID: sessionID, Response: question})
	return &StartResult{Question: question, Audio: audio}, nil
}

// ProcessTurn runs one answer-and-next-question cycle. Either the full turn
// (restated question, candidate transcript, new utterance) is appended, or
// nothing is: transcription and generation must both succeed before any
// history mutation happens.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID string, audio []byte, format string) (*TurnResult, error) {
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if !sess.InterviewStarted {
		return nil, ErrInterviewNotStarted
	}

	transcript, err := o.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		return nil, errors.Wrap(err, "transcribe answer")
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		repromptAudio, err := o.synthesizer.Synthesize(ctx, Reprompt)
		if err != nil {
			return nil, errors.Wrap(err, "synthesize reprompt")
		}
		log.Debug().Str("session_id", sessionID).Msg("empty transcript, reprompting")
		o.publish(TurnEvent{Type: EventReprompt, SessionID: sessionID, Response: Reprompt})
		return &TurnResult{Response: Reprompt, Audio: repromptAudio, ShouldContinue: true}, nil
	}

	question := sess.LastAssistantMessage()
	if question == "" {
		question = defaultQuestion
	}

	response, shouldContinue, err := o.generator.NextResponse(ctx, transcript, question, sess.Profile, sess.ConversationHistory)
	if err != nil {
		return nil, errors.Wrap(err, "generate response")
	}

	// The answered question is restated ahead of the transcript so future
	// context windows keep the question/answer pairing intact.
	if err := o.store.AppendHistory(ctx, sessionID, []Message{
		{Role: RoleAssistant, Content: question},
		{Role: RoleUser, Content: transcript},
		{Role: RoleAssistant, Content: response},
	}); err != nil {
		return nil, errors.Wrap(err, "append turn")
	}

	responseAudio, err := o.synthesizer.Synthesize(ctx, response)
	if err != nil {
		// The turn is already committed; a late synthesis failure must not
		// drop the candidate's words from history.
		return nil, errors.Wrap(err, "synthesize response")
	}

	log.Info().
		Str("session_id", sessionID).
		Int("transcript_len", len(transcript)).
		Bool("continue", shouldContinue).
		Msg("turn completed")
	o.publish(TurnEvent{Type: EventTurnCompleted, SessionID: sessionID, Transcript: transcript, Response: response})

	return &TurnResult{
		Transcript:     transcript,
		Response:       response,
		Audio:          responseAudio,
		ShouldContinue: shouldContinue,
	}, nil
}

// GetSession is a pure read. It may run concurrently with an in-flight turn
// and observe the session either before or after that turn's append.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

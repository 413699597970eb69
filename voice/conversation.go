package voice

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TurnOutcome is what the server returns for one submitted answer.
type TurnOutcome struct {
	Transcript     string
	Response       string
	Audio          []byte
	ShouldContinue bool
}

// TurnClient reaches the server-side turn orchestrator.
type TurnClient interface {
	Start(ctx context.Context, sessionID string) (question string, audio []byte, err error)
	SubmitAudio(ctx context.Context, sessionID string, seg Segment) (*TurnOutcome, error)
}

// Hooks observe conversation progress. All are optional.
type Hooks struct {
	OnQuestion   func(text string)
	OnTranscript func(text string)
	OnError      func(err error)
}

// Conversation wires the playback guard and capture controller to the turn
// client: captured segments are submitted directly and the response audio is
// handed straight to the guard, with no broadcast layer in between. The
// guard's speaking flag gates the controller, so the candidate can never
// record over the interviewer.
type Conversation struct {
	client     TurnClient
	guard      *Guard
	controller *Controller
	sessionID  string
	hooks      Hooks

	mu       sync.Mutex
	ctx      context.Context
	finished bool
}

// NewConversation assembles the client side for one session.
func NewConversation(sessionID string, client TurnClient, player Player, device InputDevice, hooks Hooks, opts ...ControllerOption) *Conversation {
	c := &Conversation{
		client:    client,
		sessionID: sessionID,
		hooks:     hooks,
		ctx:       context.Background(),
	}
	c.guard = NewGuard(player, nil)
	c.controller = NewController(device, c.guard.Speaking, c.submit, opts...)
	return c
}

// Begin starts the interview and plays the opening question. Begin must not
// be retried: a second call appends a second greeting server-side.
func (c *Conversation) Begin(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	question, audio, err := c.client.Start(ctx, c.sessionID)
	if err != nil {
		return errors.Wrap(err, "start interview")
	}
	if c.hooks.OnQuestion != nil {
		c.hooks.OnQuestion(question)
	}
	c.guard.Play(audio)
	return nil
}

// StartAnswer begins recording the candidate's answer. Refused while the
// interviewer is speaking or a recording is already in flight.
func (c *Conversation) StartAnswer() error {
	c.mu.Lock()
	ctx := c.ctx
	finished := c.finished
	c.mu.Unlock()
	if finished {
		return errors.New("interview already finished")
	}
	return c.controller.StartRecording(ctx)
}

// StopAnswer finalizes the recording; the segment flows through submit.
func (c *Conversation) StopAnswer() error {
	return c.controller.StopRecording()
}

// submit sends one finalized segment through the orchestrator and plays the
// reply. On failure the segment is simply dropped client-side: no server
// state changed, the current question stands, and the candidate may record
// again.
func (c *Conversation) submit(seg Segment) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	outcome, err := c.client.SubmitAudio(ctx, c.sessionID, seg)
	if err != nil {
		log.Error().Err(err).Str("session_id", c.sessionID).Msg("answer submission failed")
		if c.hooks.OnError != nil {
			c.hooks.OnError(err)
		}
		return
	}

	if c.hooks.OnTranscript != nil {
		c.hooks.OnTranscript(outcome.Transcript)
	}
	if c.hooks.OnQuestion != nil {
		c.hooks.OnQuestion(outcome.Response)
	}
	if !outcome.ShouldContinue {
		c.mu.Lock()
		c.finished = true
		c.mu.Unlock()
	}
	c.guard.Play(outcome.Audio)
}

// Speaking reports the playback guard's flag.
func (c *Conversation) Speaking() bool { return c.guard.Speaking() }

// Recording reports whether an answer is being captured.
func (c *Conversation) Recording() bool { return c.controller.State() == StateRecording }

// Finished reports whether the interviewer has ended the conversation.
func (c *Conversation) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// Close interrupts any active playback.
func (c *Conversation) Close() {
	c.guard.Stop()
}

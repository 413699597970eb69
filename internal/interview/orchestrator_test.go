package interview

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// appendDelay widens the read-modify-append window to expose
	// serialization bugs.
	appendDelay time.Duration
	appendErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*Session{}}
}

func (f *fakeStore) seed(id string, started bool, history ...Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &Session{
		ID:                  id,
		Profile:             ResumeProfile{SeniorityLevel: "mid", Skills: []string{"go"}},
		ConversationHistory: history,
		InterviewStarted:    started,
	}
}

func (f *fakeStore) Create(context.Context, ResumeProfile, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeStore) Get(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.ConversationHistory = append([]Message(nil), sess.ConversationHistory...)
	return &cp, nil
}

func (f *fakeStore) AppendHistory(_ context.Context, id string, entries []Message) error {
	if f.appendDelay > 0 {
		time.Sleep(f.appendDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	sess, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.ConversationHistory = append(sess.ConversationHistory, entries...)
	return nil
}

func (f *fakeStore) MarkStarted(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.InterviewStarted = true
	return nil
}

func (f *fakeStore) history(id string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sessions[id].ConversationHistory...)
}

type fakeTranscriber struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return "", nil
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	return text, nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	first    string
	next     string
	cont     bool
	err      error
	numCalls int
}

func (f *fakeGenerator) FirstQuestion(context.Context, ResumeProfile) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.first, nil
}

func (f *fakeGenerator) NextResponse(_ context.Context, transcript, priorQuestion string, _ ResumeProfile, _ []Message) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.mu.Lock()
	f.numCalls++
	n := f.numCalls
	f.mu.Unlock()
	if f.next != "" {
		return f.next, f.cont, nil
	}
	return fmt.Sprintf("Q%d after %q", n, transcript), true, nil
}

type fakeSynthesizer struct {
	err error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + text), nil
}

func newTestOrchestrator(st *fakeStore) (*Orchestrator, *fakeTranscriber, *fakeGenerator, *fakeSynthesizer) {
	tr := &fakeTranscriber{}
	gen := &fakeGenerator{first: "Q0", next: "Q1", cont: true}
	syn := &fakeSynthesizer{}
	return NewOrchestrator(st, tr, gen, syn, nil), tr, gen, syn
}

func TestStart_AppendsGreetingAndReturnsAudio(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", false)
	o, _, _, _ := newTestOrchestrator(st)

	res, err := o.Start(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Q0", res.Question)
	assert.Equal(t, []byte("audio:Q0"), res.Audio)

	history := st.history("s1")
	require.Len(t, history, 1)
	assert.Equal(t, Message{Role: RoleAssistant, Content: "Q0"}, history[0])

	sess, err := o.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sess.InterviewStarted)
}

func TestStart_SessionNotFound(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(newFakeStore())
	_, err := o.Start(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcessTurn_AppendsRestatedQuestionAnswerAndResponse(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, _, _ := newTestOrchestrator(st)
	tr.texts = []string{"I have 5 years experience"}

	res, err := o.ProcessTurn(context.Background(), "s1", []byte("blob"), "webm")
	require.NoError(t, err)
	assert.Equal(t, "I have 5 years experience", res.Transcript)
	assert.Equal(t, "Q1", res.Response)
	assert.Equal(t, []byte("audio:Q1"), res.Audio)
	assert.True(t, res.ShouldContinue)

	want := []Message{
		{Role: RoleAssistant, Content: "Q0"},
		{Role: RoleAssistant, Content: "Q0"},
		{Role: RoleUser, Content: "I have 5 years experience"},
		{Role: RoleAssistant, Content: "Q1"},
	}
	assert.Equal(t, want, st.history("s1"))
}

func TestProcessTurn_GrowsHistoryByThreePerTurn(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", false)
	o, tr, gen, _ := newTestOrchestrator(st)
	gen.next = ""

	_, err := o.Start(context.Background(), "s1")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		tr.texts = append(tr.texts, fmt.Sprintf("answer %d", i))
		_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
		require.NoError(t, err)
		assert.Len(t, st.history("s1"), 1+3*(i+1))
	}
}

func TestProcessTurn_EmptyTranscriptReprompts(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, _, _ := newTestOrchestrator(st)
	tr.texts = []string{"   "}

	res, err := o.ProcessTurn(context.Background(), "s1", []byte("silence"), "webm")
	require.NoError(t, err)
	assert.Empty(t, res.Transcript)
	assert.Equal(t, Reprompt, res.Response)
	assert.Equal(t, []byte("audio:"+Reprompt), res.Audio)
	assert.True(t, res.ShouldContinue)

	// A failed transcription is not part of the transcript.
	assert.Len(t, st.history("s1"), 1)
}

func TestProcessTurn_SessionNotFound(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(newFakeStore())
	_, err := o.ProcessTurn(context.Background(), "unknown-id", []byte("a"), "webm")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcessTurn_RefusedBeforeStart(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", false)
	o, tr, _, _ := newTestOrchestrator(st)
	tr.texts = []string{"hello"}

	_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
	assert.ErrorIs(t, err, ErrInterviewNotStarted)
	assert.Empty(t, st.history("s1"))
}

func TestProcessTurn_NoAppendOnGeneratorError(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, gen, _ := newTestOrchestrator(st)
	tr.texts = []string{"a fine answer"}
	gen.err = errors.New("backend down")

	_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
	require.Error(t, err)
	// All-or-nothing: no partial append when generation fails.
	assert.Len(t, st.history("s1"), 1)
}

func TestProcessTurn_NoAppendOnTranscriberError(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, _, _ := newTestOrchestrator(st)
	tr.err = errors.New("stt unreachable")

	_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
	require.Error(t, err)
	assert.Len(t, st.history("s1"), 1)
}

func TestProcessTurn_AppendStandsWhenSynthesisFails(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, _, syn := newTestOrchestrator(st)
	tr.texts = []string{"my answer"}
	syn.err = errors.New("tts down")

	_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
	require.Error(t, err)
	// The committed turn must not be dropped by a late synthesis failure.
	assert.Len(t, st.history("s1"), 4)
}

func TestProcessTurn_SerializesConcurrentSubmissions(t *testing.T) {
	st := newFakeStore()
	st.appendDelay = 5 * time.Millisecond
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, tr, gen, _ := newTestOrchestrator(st)
	gen.next = ""

	const turns = 8
	tr.texts = make([]string, turns)
	for i := range tr.texts {
		tr.texts[i] = fmt.Sprintf("answer %d", i)
	}

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.ProcessTurn(context.Background(), "s1", []byte("a"), "webm")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history := st.history("s1")
	require.Len(t, history, 1+3*turns)
	// Turns may land in any order, but each turn's three entries must be
	// contiguous: restated question, user answer, new question.
	for i := 1; i < len(history); i += 3 {
		assert.Equal(t, RoleAssistant, history[i].Role)
		assert.Equal(t, RoleUser, history[i+1].Role)
		assert.Equal(t, RoleAssistant, history[i+2].Role)
		// The restated question is whatever the previous turn asked.
		assert.Equal(t, history[i-1].Content, history[i].Content)
	}
}

func TestGetSession_IdempotentWithoutInterveningTurn(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", true, Message{Role: RoleAssistant, Content: "Q0"})
	o, _, _, _ := newTestOrchestrator(st)

	first, err := o.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	second, err := o.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationHistory, second.ConversationHistory)
}

func TestLastAssistantMessage(t *testing.T) {
	sess := &Session{ConversationHistory: []Message{
		{Role: RoleAssistant, Content: "Q0"},
		{Role: RoleUser, Content: "A0"},
		{Role: RoleAssistant, Content: "Q1"},
		{Role: RoleUser, Content: "A1"},
	}}
	assert.Equal(t, "Q1", sess.LastAssistantMessage())
	assert.Empty(t, (&Session{}).LastAssistantMessage())
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
)

func TestMemory_CreateAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	profile := interview.ResumeProfile{SeniorityLevel: "senior", Skills: []string{"go", "redis"}}
	id, err := m.Create(ctx, profile, "raw resume text")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, profile, sess.Profile)
	assert.Equal(t, "raw resume text", sess.ResumeText)
	assert.False(t, sess.InterviewStarted)
	assert.Empty(t, sess.ConversationHistory)
	assert.False(t, sess.CreatedAt.IsZero())
}

func TestMemory_GetMissingReturnsNil(t *testing.T) {
	m := NewMemory()
	sess, err := m.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemory_AppendHistoryKeepsOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, interview.ResumeProfile{}, "")
	require.NoError(t, err)

	entries := []interview.Message{
		{Role: interview.RoleAssistant, Content: "Q0"},
		{Role: interview.RoleUser, Content: "A0"},
		{Role: interview.RoleAssistant, Content: "Q1"},
	}
	require.NoError(t, m.AppendHistory(ctx, id, entries))

	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entries, sess.ConversationHistory)
	assert.True(t, sess.UpdatedAt.After(sess.CreatedAt) || sess.UpdatedAt.Equal(sess.CreatedAt))
}

func TestMemory_AppendHistoryMissingSession(t *testing.T) {
	m := NewMemory()
	err := m.AppendHistory(context.Background(), "missing", []interview.Message{{Role: interview.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

func TestMemory_GetReturnsIsolatedCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, interview.ResumeProfile{}, "")
	require.NoError(t, err)
	require.NoError(t, m.AppendHistory(ctx, id, []interview.Message{{Role: interview.RoleAssistant, Content: "Q0"}}))

	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	sess.ConversationHistory[0].Content = "mutated"
	sess.ConversationHistory = append(sess.ConversationHistory, interview.Message{Role: interview.RoleUser, Content: "sneaky"})

	fresh, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, fresh.ConversationHistory, 1)
	assert.Equal(t, "Q0", fresh.ConversationHistory[0].Content)
}

func TestMemory_MarkStarted(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, interview.ResumeProfile{}, "")
	require.NoError(t, err)

	require.NoError(t, m.MarkStarted(ctx, id))
	sess, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, sess.InterviewStarted)

	assert.ErrorIs(t, m.MarkStarted(ctx, "missing"), interview.ErrSessionNotFound)
}

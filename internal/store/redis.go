package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Adarshprakash123/aui-interview/internal/interview"
)

const (
	sessionKeyPrefix = "interview:sess:"
	historySuffix    = ":history"
)

// Redis stores each session as a hash of scalar fields plus a list of JSON
// history entries. Multi-entry appends go through a MULTI/EXEC pipeline so
// a turn's three entries land atomically and in order.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }
func historyKey(id string) string { return sessionKeyPrefix + id + historySuffix }

func (r *Redis) Create(ctx context.Context, profile interview.ResumeProfile, resumeText string) (string, error) {
	id := uuid.NewString()
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", errors.Wrap(err, "marshal resume profile")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := r.rdb.HSet(ctx, sessionKey(id), map[string]any{
		"profile":     string(profileJSON),
		"resume_text": resumeText,
		"started":     "0",
		"created_at":  now,
		"updated_at":  now,
	}).Err(); err != nil {
		return "", errors.Wrap(err, "create session")
	}
	return id, nil
}

func (r *Redis) Get(ctx context.Context, sessionID string) (*interview.Session, error) {
	pipe := r.rdb.Pipeline()
	hashCmd := pipe.HGetAll(ctx, sessionKey(sessionID))
	listCmd := pipe.LRange(ctx, historyKey(sessionID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "read session")
	}

	fields := hashCmd.Val()
	if len(fields) == 0 {
		return nil, nil
	}

	sess := &interview.Session{
		ID:               sessionID,
		ResumeText:       fields["resume_text"],
		InterviewStarted: fields["started"] == "1",
	}
	if raw := fields["profile"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.Profile); err != nil {
			return nil, errors.Wrap(err, "decode resume profile")
		}
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields["updated_at"])

	for _, raw := range listCmd.Val() {
		var msg interview.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, errors.Wrap(err, "decode history entry")
		}
		sess.ConversationHistory = append(sess.ConversationHistory, msg)
	}
	return sess, nil
}

func (r *Redis) AppendHistory(ctx context.Context, sessionID string, entries []interview.Message) error {
	exists, err := r.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return errors.Wrap(err, "check session")
	}
	if exists == 0 {
		return interview.ErrSessionNotFound
	}

	raws := make([]any, 0, len(entries))
	for _, msg := range entries {
		b, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "marshal history entry")
		}
		raws = append(raws, string(b))
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, historyKey(sessionID), raws...)
	pipe.HSet(ctx, sessionKey(sessionID), "updated_at", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "append history")
	}
	return nil
}

func (r *Redis) MarkStarted(ctx context.Context, sessionID string) error {
	exists, err := r.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return errors.Wrap(err, "check session")
	}
	if exists == 0 {
		return interview.ErrSessionNotFound
	}
	return errors.Wrap(r.rdb.HSet(ctx, sessionKey(sessionID),
		"started", "1",
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err(), "mark started")
}

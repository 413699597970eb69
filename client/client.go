// Package client is a small HTTP client for the interview API, usable as the
// TurnClient behind the voice conversation loop.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Adarshprakash123/aui-interview/voice"
)

// Client talks to a running interview server.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func New(baseURL string) *Client {
	return &Client{
		// Turns run several adapter calls server-side; give up waiting
		// after a fixed bound. The server still completes and commits the
		// turn even if we stop waiting.
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type startRequest struct {
	SessionID string `json:"sessionId"`
}

type startResponse struct {
	Question    string `json:"question"`
	AudioBase64 string `json:"audioBase64"`
}

type audioRequest struct {
	SessionID   string `json:"sessionId"`
	AudioBase64 string `json:"audioBase64"`
	AudioFormat string `json:"audioFormat"`
}

type audioResponse struct {
	TranscribedText string `json:"transcribedText"`
	Response        string `json:"response"`
	AudioBase64     string `json:"audioBase64"`
	ShouldContinue  bool   `json:"shouldContinue"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SessionMessage is one conversation history entry.
type SessionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionState is the server's view of one interview session.
type SessionState struct {
	SessionID           string           `json:"sessionId"`
	InterviewStarted    bool             `json:"interviewStarted"`
	ConversationHistory []SessionMessage `json:"conversationHistory"`
}

type sessionResponse struct {
	Session SessionState `json:"session"`
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var er errorResponse
		if json.Unmarshal(b, &er) == nil && er.Error != "" {
			return fmt.Errorf("%s: %s", path, er.Error)
		}
		return fmt.Errorf("%s: status=%d body=%s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Start begins the interview and returns the opening question with its audio.
func (c *Client) Start(ctx context.Context, sessionID string) (string, []byte, error) {
	var res startResponse
	if err := c.post(ctx, "/api/interview/start", startRequest{SessionID: sessionID}, &res); err != nil {
		return "", nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(res.AudioBase64)
	if err != nil {
		return "", nil, fmt.Errorf("decode question audio: %w", err)
	}
	return res.Question, audio, nil
}

// GetSession fetches the current session state. Useful for resynchronizing
// after a timed-out submit: the server may have committed the turn even
// though the response never arrived.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/interview/session/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var er errorResponse
		if json.Unmarshal(b, &er) == nil && er.Error != "" {
			return nil, fmt.Errorf("get session: %s", er.Error)
		}
		return nil, fmt.Errorf("get session: status=%d body=%s", resp.StatusCode, string(b))
	}
	var res sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res.Session, nil
}

// SubmitAudio sends one finalized recording and returns the turn outcome.
func (c *Client) SubmitAudio(ctx context.Context, sessionID string, seg voice.Segment) (*voice.TurnOutcome, error) {
	req := audioRequest{
		SessionID:   sessionID,
		AudioBase64: base64.StdEncoding.EncodeToString(seg.Data),
		AudioFormat: seg.Format,
	}
	var res audioResponse
	if err := c.post(ctx, "/api/interview/audio", req, &res); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(res.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("decode response audio: %w", err)
	}
	return &voice.TurnOutcome{
		Transcript:     res.TranscribedText,
		Response:       res.Response,
		Audio:          audio,
		ShouldContinue: res.ShouldContinue,
	}, nil
}

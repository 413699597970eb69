package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const speechEndpoint = "https://api.openai.com/v1/audio/speech"

// OpenAIClient synthesizes utterances with the OpenAI speech API and returns
// MP3 bytes. Voice selection is a fixed default, overridable by config.
type OpenAIClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	Voice      string
}

type speechRequest struct {
	Model string  `json:"model"`
	Voice string  `json:"voice"`
	Input string  `json:"input"`
	Speed float64 `json:"speed,omitempty"`
}

func NewOpenAIClient(apiKey, model, voice string) *OpenAIClient {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "nova"
	}
	return &OpenAIClient{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		APIKey:     apiKey,
		Model:      model,
		Voice:      voice,
	}
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}

	reqBody, _ := json.Marshal(speechRequest{Model: c.Model, Voice: c.Voice, Input: text, Speed: 1.0})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speechEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai tts error: status=%d body=%s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

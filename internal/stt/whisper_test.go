package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// redirectTo rewrites every request to the given test server.
func redirectTo(ts *httptest.Server) *http.Client {
	target, _ := url.Parse(ts.URL)
	return &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		return ts.Client().Transport.RoundTrip(r)
	})}
}

func TestWhisperClient_Transcribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.webm", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"  I have five years of experience  "}`))
	}))
	defer ts.Close()

	c := NewWhisperClient("test-key", "")
	c.HTTPClient = redirectTo(ts)

	text, err := c.Transcribe(context.Background(), []byte("fake-webm"), "webm")
	require.NoError(t, err)
	assert.Equal(t, "I have five years of experience", text)
}

func TestWhisperClient_EmptyTranscriptIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer ts.Close()

	c := NewWhisperClient("test-key", "")
	c.HTTPClient = redirectTo(ts)

	text, err := c.Transcribe(context.Background(), []byte("silence"), "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWhisperClient_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad audio"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewWhisperClient("test-key", "")
	c.HTTPClient = redirectTo(ts)

	_, err := c.Transcribe(context.Background(), []byte("garbage"), "webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestWhisperClient_MissingAPIKey(t *testing.T) {
	c := NewWhisperClient("", "")
	_, err := c.Transcribe(context.Background(), []byte("audio"), "webm")
	assert.Error(t, err)
}

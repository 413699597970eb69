package voice

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrAISpeaking is returned when recording is requested while the
	// playback guard reports active AI speech.
	ErrAISpeaking = errors.New("cannot record while the interviewer is speaking")
	// ErrNotIdle is returned when StartRecording is called outside Idle.
	ErrNotIdle = errors.New("recorder is not idle")
	// ErrNotRecording is returned when StopRecording is called outside Recording.
	ErrNotRecording = errors.New("recorder is not recording")
)

// Segment is one finalized contiguous capture, ready for submission.
type Segment struct {
	Data   []byte
	Format string
}

// Player performs blocking playback of one synthesized utterance on the
// audio output device. It must return promptly when ctx is cancelled and
// release any decoded buffers on every exit path.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// InputDevice is the microphone. Start acquires the device and begins
// capturing; Stop finalizes the captured segment and releases the device.
type InputDevice interface {
	Start(ctx context.Context) error
	Stop() (Segment, error)
}

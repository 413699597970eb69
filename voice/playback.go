package voice

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Guard owns the audio output device as used for AI speech and guarantees at
// most one utterance is audible at a time. A Play call while playback is
// active tears down the current item first: the last submitted utterance
// wins, stale ones are discarded rather than queued. Overlapping playback is
// a correctness bug in a voice UI, not a cosmetic one.
type Guard struct {
	player Player
	// onDone fires after the speaking flag drops, on any exit path. Used by
	// the conversation loop to re-enable the capture side.
	onDone func()

	mu       sync.Mutex
	speaking bool
	cancel   context.CancelFunc
	gen      uint64
}

func NewGuard(player Player, onDone func()) *Guard {
	return &Guard{player: player, onDone: onDone}
}

// Play starts playback of one utterance. It returns immediately; the
// speaking flag stays true until the utterance finishes, errors, or is
// replaced or stopped.
func (g *Guard) Play(audio []byte) {
	g.mu.Lock()
	if g.cancel != nil {
		// Tear down the currently playing item before starting the new one.
		g.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.gen++
	gen := g.gen
	g.speaking = true
	g.mu.Unlock()

	go func() {
		err := g.player.Play(ctx, audio)
		g.finish(gen, err)
	}()
}

// finish clears the speaking flag exactly once per playback generation. A
// superseded playback finds gen stale and leaves the flag to its successor.
func (g *Guard) finish(gen uint64, err error) {
	g.mu.Lock()
	if gen != g.gen {
		g.mu.Unlock()
		return
	}
	g.speaking = false
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("playback ended with error")
	}
	if g.onDone != nil {
		g.onDone()
	}
}

// Stop explicitly interrupts the current playback, if any.
func (g *Guard) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Speaking reports whether AI audio is currently audible. This flag is the
// only coupling surface the capture side may read.
func (g *Guard) Speaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.speaking
}

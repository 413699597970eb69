package voice

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Recording state machine: Idle -> Recording -> Stopping -> Idle.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// DefaultMaxDuration is the hard recording ceiling. It is backpressure for
// the transcription backend and the transport, not a UX nicety: without it a
// forgotten microphone produces an unbounded payload.
const DefaultMaxDuration = 120 * time.Second

// Controller owns the microphone lifecycle. Entry into Recording is refused
// while the playback guard's speaking flag (the injected gate) is true; a
// tick counter auto-stops capture when the ceiling is reached without
// operator input.
type Controller struct {
	device InputDevice
	// speaking is the playback guard's flag. The controller never reads
	// guard internals, only this.
	speaking func() bool
	// onSegment receives each finalized capture.
	onSegment func(Segment)

	maxDuration time.Duration
	tick        time.Duration

	mu         sync.Mutex
	state      State
	elapsed    time.Duration
	cancelTick context.CancelFunc
	stopOnce   *sync.Once
}

// ControllerOption tweaks construction.
type ControllerOption func(*Controller)

// WithMaxDuration overrides the recording ceiling.
func WithMaxDuration(d time.Duration) ControllerOption {
	return func(c *Controller) { c.maxDuration = d }
}

// WithTick overrides the counter granularity (tests use a short tick).
func WithTick(d time.Duration) ControllerOption {
	return func(c *Controller) { c.tick = d }
}

func NewController(device InputDevice, speaking func() bool, onSegment func(Segment), opts ...ControllerOption) *Controller {
	c := &Controller{
		device:      device,
		speaking:    speaking,
		onSegment:   onSegment,
		maxDuration: DefaultMaxDuration,
		tick:        time.Second,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartRecording acquires the input device and begins the duration counter.
// Only valid from Idle. Device acquisition failure leaves the controller
// Idle and is recoverable by retrying.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	if c.speaking != nil && c.speaking() {
		c.mu.Unlock()
		return ErrAISpeaking
	}
	if err := c.device.Start(ctx); err != nil {
		c.mu.Unlock()
		return errors.Wrap(err, "failed to access microphone, check permissions")
	}
	tickCtx, cancel := context.WithCancel(ctx)
	c.cancelTick = cancel
	c.stopOnce = &sync.Once{}
	once := c.stopOnce
	c.state = StateRecording
	c.elapsed = 0
	c.mu.Unlock()

	go c.countDuration(tickCtx, once)
	return nil
}

// countDuration advances the per-recording counter once per tick and forces
// the Recording -> Stopping transition at the ceiling.
func (c *Controller) countDuration(ctx context.Context, once *sync.Once) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state != StateRecording || c.stopOnce != once {
				c.mu.Unlock()
				return
			}
			c.elapsed += c.tick
			ceilingHit := c.elapsed >= c.maxDuration
			c.mu.Unlock()
			if ceilingHit {
				log.Info().Dur("elapsed", c.maxDuration).Msg("recording ceiling reached, auto-stopping")
				if err := c.stop(once); err != nil && !errors.Is(err, ErrNotRecording) {
					log.Error().Err(err).Msg("auto-stop failed")
				}
				return
			}
		}
	}
}

// StopRecording finalizes the captured segment and hands it to onSegment.
// Only valid from Recording.
func (c *Controller) StopRecording() error {
	c.mu.Lock()
	once := c.stopOnce
	c.mu.Unlock()
	if once == nil {
		return ErrNotRecording
	}
	return c.stop(once)
}

// stop performs the Recording -> Stopping -> Idle transition exactly once
// per recording, whether triggered manually or by the ceiling.
func (c *Controller) stop(once *sync.Once) error {
	err := ErrNotRecording
	once.Do(func() {
		c.mu.Lock()
		if c.state != StateRecording {
			c.mu.Unlock()
			return
		}
		c.state = StateStopping
		cancel := c.cancelTick
		c.cancelTick = nil
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		seg, stopErr := c.device.Stop()

		c.mu.Lock()
		c.state = StateIdle
		c.stopOnce = nil
		c.mu.Unlock()

		if stopErr != nil {
			err = errors.Wrap(stopErr, "finalize recording")
			return
		}
		err = nil
		if c.onSegment != nil {
			c.onSegment(seg)
		}
	})
	return err
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed reports how long the current recording has been running.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

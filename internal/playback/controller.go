package playback

import (
	"go.uber.org/zap"

	"github.com/wicara-ai/wicara/domain/repositories"
)

// Controller enforces single-flight audio playback: at most one handle is
// active at any instant, and starting a new playback unconditionally stops
// the previous one first.
//
// All methods must be called from the coordinator's control loop. Natural
// completion callbacks from the speaker arrive on arbitrary goroutines and
// are rescheduled onto the loop through post, tagged with the generation of
// the playback they belong to; a completion from a superseded playback is
// discarded so it can never clear a newer handle.
type Controller struct {
	speaker repositories.Speaker
	post    func(func())
	logger  *zap.Logger

	active repositories.PlaybackHandle
	gen    uint64
}

// NewController creates a playback controller. post schedules a function
// onto the control loop that calls the controller's methods.
func NewController(speaker repositories.Speaker, post func(func()), logger *zap.Logger) *Controller {
	return &Controller{
		speaker: speaker,
		post:    post,
		logger:  logger,
	}
}

// Play stops whatever is active, then prepares and starts playback of the
// given payload. Failures to decode or start are absorbed here: the active
// handle ends up cleared and no error reaches the caller.
func (c *Controller) Play(data []byte) {
	// The previous playback stops even when the new payload turns out to
	// be unplayable.
	c.stopActive()
	c.gen++

	handle, err := c.speaker.Prepare(data)
	if err != nil {
		c.logger.Debug("Discarding unplayable audio payload",
			zap.Int("bytes", len(data)), zap.Error(err))
		return
	}

	gen := c.gen
	c.active = handle
	if err := handle.Start(func() {
		c.post(func() { c.finished(gen) })
	}); err != nil {
		c.logger.Debug("Playback failed to start", zap.Error(err))
		c.active = nil
	}
}

// Stop ends the active playback, if any. Safe to call when nothing plays.
func (c *Controller) Stop() {
	c.stopActive()
}

// Playing reports whether a handle is currently active.
func (c *Controller) Playing() bool {
	return c.active != nil
}

func (c *Controller) stopActive() {
	if c.active == nil {
		return
	}
	c.active.Stop()
	c.active = nil
}

// finished handles a natural completion. A stale generation means the
// playback was superseded or stopped; the current handle is left alone.
func (c *Controller) finished(gen uint64) {
	if gen != c.gen {
		return
	}
	c.active = nil
}

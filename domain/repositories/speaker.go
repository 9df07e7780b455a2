package repositories

// Speaker turns an encoded audio payload into a playable handle. Prepare
// validates the payload; a payload that cannot be decoded returns an error
// and no handle.
type Speaker interface {
	Prepare(data []byte) (PlaybackHandle, error)
}

// PlaybackHandle is one prepared audio stream. A handle is single use:
// Start begins playback at most once, and Stop ends it for good.
type PlaybackHandle interface {
	// Start begins playback. done is invoked at most once, when the
	// stream finishes naturally rather than by Stop.
	Start(done func()) error

	// Stop pauses playback, rewinds to the start, and releases the stream.
	// Safe to call on a handle that never started or already stopped.
	Stop()
}

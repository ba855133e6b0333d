package device

import (
	"errors"

	"speakpipe/internal/pkg/speakpipe/engine"
)

// ErrUnavailable reports that no usable audio device is present. The
// pipeline treats it as a transient environment issue: the chunk is
// dropped and playback continues.
var ErrUnavailable = errors.New("audio device unavailable")

// Device is the output side of the pipeline: a single always-open PCM
// stream of a fixed format. Stop must be callable concurrently with a
// blocked Write.
type Device interface {
	// Write hands raw PCM to the device. It may block on buffer space.
	Write(pcm []byte) error
	// Feed registers a zero-length write whose done callback fires once
	// all audio written before it has actually been played.
	Feed(done func()) error
	// Idle lets the device drain its buffer and go quiet.
	Idle()
	// Pause suspends or resumes playback.
	Pause(on bool)
	// Stop discards buffered audio immediately. Thread-safe.
	Stop()
	Close() error
}

// Format is the PCM format of the session's stream.
type Format = engine.Format

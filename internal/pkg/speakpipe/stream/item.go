package stream

// Kind discriminates the items flowing through the delivery queue.
type Kind int

const (
	// KindAudio carries a raw PCM payload. Data is never empty.
	KindAudio Kind = iota
	// KindMarker carries a callback that must fire once the audio queued
	// before it has actually reached the output device.
	KindMarker
	// KindIdle tells the feeder no more audio is coming for this epoch.
	KindIdle
	// KindDone terminates one synthesis run. Final reports whether the
	// run completed normally.
	KindDone
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindMarker:
		return "marker"
	case KindIdle:
		return "idle"
	case KindDone:
		return "done"
	default:
		return "unknown"
	}
}

// Item is one unit of work handed from producer to consumer. Items are
// created once, consumed once (or discarded as stale) and never mutated.
type Item struct {
	Kind     Kind
	Data     []byte
	Callback func()
	Final    bool
	Epoch    int64
}

// Audio wraps a PCM payload in an item stamped with the given epoch.
func Audio(data []byte, epoch int64) Item {
	return Item{Kind: KindAudio, Data: data, Epoch: epoch}
}

// Marker wraps a drain callback in an item stamped with the given epoch.
func Marker(cb func(), epoch int64) Item {
	return Item{Kind: KindMarker, Callback: cb, Epoch: epoch}
}

// Idle signals the feeder to let the device drain and go idle.
func Idle(epoch int64) Item {
	return Item{Kind: KindIdle, Epoch: epoch}
}

// Done terminates a synthesis run. final is false when the run was
// aborted by an error or a forced stop.
func Done(final bool, epoch int64) Item {
	return Item{Kind: KindDone, Final: final, Epoch: epoch}
}

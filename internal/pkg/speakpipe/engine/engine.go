package engine

// EventKind discriminates the results of a PollNext call.
type EventKind int

const (
	// EventNone means no data yet; poll again after a short backoff.
	EventNone EventKind = iota
	// EventAudio means N bytes of PCM were written into the poll buffer.
	EventAudio
	// EventIndex is an engine-side index notification. The streaming core
	// ignores these; marker placement is owned by the orchestrator.
	EventIndex
	// EventDone means synthesis of the submitted text completed.
	EventDone
	// EventError means synthesis failed with the engine code in Value.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventAudio:
		return "audio"
	case EventIndex:
		return "index"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one pull from the engine's output stream.
type Event struct {
	Kind EventKind
	// N is the number of bytes written into the caller's buffer for
	// EventAudio.
	N int
	// Value carries the index id for EventIndex and the engine error
	// code for EventError.
	Value int
}

// Format describes the PCM stream an engine produces. Queried once at
// initialization and constant for the session.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// BytesPerSecond returns the PCM data rate for this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// Param identifies a voice parameter forwarded verbatim to the engine.
// Values are percentages in [0, 100].
type Param int

const (
	ParamRate Param = iota
	ParamPitch
	ParamVolume
	ParamInflection
	ParamHeadSize
	ParamRoughness
	ParamBreathiness
)

func (p Param) String() string {
	switch p {
	case ParamRate:
		return "rate"
	case ParamPitch:
		return "pitch"
	case ParamVolume:
		return "volume"
	case ParamInflection:
		return "inflection"
	case ParamHeadSize:
		return "headsize"
	case ParamRoughness:
		return "roughness"
	case ParamBreathiness:
		return "breathiness"
	default:
		return "unknown"
	}
}

// Info describes an engine backend.
type Info struct {
	Name   string
	Format Format
	// LegacyCharset names a single-byte charset the engine expects text
	// in ("windows-1252"), or is empty for UTF-8 engines. The driver
	// transcodes submitted text accordingly.
	LegacyCharset string
}

// Engine is the synchronous boundary to a black-box speech synthesizer.
// Submit starts synthesis of one block of text; PollNext pulls the next
// audio or control event; RequestStop is safe to call concurrently with
// an in-flight PollNext. The engine buffers nothing beyond the
// caller-supplied poll buffer; all flow control lives in the pump.
type Engine interface {
	Submit(text []byte) error
	PollNext(buf []byte) Event
	RequestStop()
	SetParam(p Param, v int) error
	Param(p Param) int
	Info() Info
	Shutdown() error
}

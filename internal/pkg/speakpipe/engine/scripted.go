package engine

import (
	"sync"
	"sync/atomic"
)

// Step is one scripted PollNext result. Data is copied into the poll
// buffer for audio steps.
type Step struct {
	Event Event
	Data  []byte
}

// AudioStep builds a scripted audio event for the given payload.
func AudioStep(data []byte) Step {
	return Step{Event: Event{Kind: EventAudio, N: len(data)}, Data: data}
}

// Scripted is an Engine whose PollNext replays a fixed list of steps per
// Submit. Tests use it to drive the pump through every event shape
// without a real synthesizer. Safe for concurrent use.
type Scripted struct {
	// SubmitErr, when set, is returned by every Submit.
	SubmitErr error
	// Charset is reported as the engine's legacy charset.
	Charset string

	mu        sync.Mutex
	scripts   [][]Step
	cursor    int
	submitted [][]byte
	params    map[Param]int
	stops     atomic.Int64
	exhausted Event
}

// NewScripted builds a scripted engine. Each call to Submit consumes the
// next script in order; polls past the end of a script (or past the last
// script) return EventDone.
func NewScripted(scripts ...[]Step) *Scripted {
	return &Scripted{
		scripts:   scripts,
		params:    make(map[Param]int),
		exhausted: Event{Kind: EventDone},
	}
}

func (s *Scripted) Submit(text []byte) error {
	if s.SubmitErr != nil {
		return s.SubmitErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, append([]byte(nil), text...))
	s.cursor = 0
	return nil
}

func (s *Scripted) PollNext(buf []byte) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := len(s.submitted) - 1
	if run < 0 || run >= len(s.scripts) || s.cursor >= len(s.scripts[run]) {
		return s.exhausted
	}
	step := s.scripts[run][s.cursor]
	s.cursor++
	if step.Event.Kind == EventAudio {
		n := copy(buf, step.Data)
		return Event{Kind: EventAudio, N: n}
	}
	return step.Event
}

func (s *Scripted) RequestStop() {
	s.stops.Add(1)
}

// Stops returns how many times RequestStop was called.
func (s *Scripted) Stops() int {
	return int(s.stops.Load())
}

// Submitted returns the texts passed to Submit, in order.
func (s *Scripted) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.submitted))
	for i, b := range s.submitted {
		out[i] = string(b)
	}
	return out
}

func (s *Scripted) SetParam(p Param, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[p] = v
	return nil
}

func (s *Scripted) Param(p Param) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params[p]
}

func (s *Scripted) Info() Info {
	return Info{
		Name: "scripted",
		Format: Format{
			SampleRate:    22050,
			Channels:      1,
			BitsPerSample: 16,
		},
		LegacyCharset: s.Charset,
	}
}

func (s *Scripted) Shutdown() error {
	return nil
}

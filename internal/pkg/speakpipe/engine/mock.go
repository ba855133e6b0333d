package engine

import (
	"fmt"
	"sync"
)

func init() {
	Register("mock", newMock)
}

const (
	mockSampleRate = 22050
	// One mock audio chunk per rune of submitted text, 20ms each.
	mockChunkBytes = mockSampleRate * 2 / 50
)

// mockEngine is an offline stand-in synthesizer: it emits one short
// square-wave chunk per character of submitted text, then EventDone.
// It never reports "no data yet", which makes it useful both for demo
// runs without a synthesizer installed and for exercising the pipeline
// at full speed.
type mockEngine struct {
	mu      sync.Mutex
	params  map[Param]int
	remain  int
	active  bool
	stopped bool
}

func newMock(cfg Config) (Engine, error) {
	return &mockEngine{
		params: map[Param]int{
			ParamRate:   50,
			ParamPitch:  50,
			ParamVolume: 90,
		},
	}, nil
}

func (m *mockEngine) Submit(text []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remain = len([]rune(string(text)))
	m.active = true
	m.stopped = false
	return nil
}

func (m *mockEngine) PollNext(buf []byte) Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || m.stopped || m.remain == 0 {
		m.active = false
		return Event{Kind: EventDone}
	}
	m.remain--

	n := mockChunkBytes
	if n > len(buf) {
		n = len(buf)
	}
	// Square wave at roughly 220Hz scaled by the pitch param.
	period := mockSampleRate / (110 + 2*m.params[ParamPitch]) * 2
	if period < 4 {
		period = 4
	}
	for i := 0; i < n; i += 2 {
		var s int16 = 6000
		if (i/2)%period >= period/2 {
			s = -6000
		}
		buf[i] = byte(s)
		buf[i+1] = byte(s >> 8)
	}
	return Event{Kind: EventAudio, N: n}
}

func (m *mockEngine) RequestStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *mockEngine) SetParam(p Param, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("mock: %s value %d out of range [0, 100]", p, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[p] = v
	return nil
}

func (m *mockEngine) Param(p Param) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params[p]
}

func (m *mockEngine) Info() Info {
	return Info{
		Name: "mock",
		Format: Format{
			SampleRate:    mockSampleRate,
			Channels:      1,
			BitsPerSample: 16,
		},
	}
}

func (m *mockEngine) Shutdown() error {
	m.RequestStop()
	return nil
}

package device

import "sync"

// MemoryDevice records every interaction for inspection in tests.
// Markers fire synchronously inside Feed.
type MemoryDevice struct {
	// WriteErr, when set, is returned by every Write.
	WriteErr error

	mu     sync.Mutex
	writes [][]byte
	feeds  int
	idles  int
	stops  int
	pauses []bool
}

func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{}
}

func (d *MemoryDevice) Write(pcm []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.WriteErr != nil {
		return d.WriteErr
	}
	d.writes = append(d.writes, append([]byte(nil), pcm...))
	return nil
}

func (d *MemoryDevice) Feed(done func()) error {
	d.mu.Lock()
	d.feeds++
	d.mu.Unlock()
	done()
	return nil
}

func (d *MemoryDevice) Idle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.idles++
}

func (d *MemoryDevice) Pause(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pauses = append(d.pauses, on)
}

func (d *MemoryDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
}

func (d *MemoryDevice) Close() error { return nil }

// Written returns the concatenation of all committed PCM.
func (d *MemoryDevice) Written() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []byte
	for _, w := range d.writes {
		out = append(out, w...)
	}
	return out
}

// Writes returns the number of Write calls that succeeded.
func (d *MemoryDevice) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

func (d *MemoryDevice) Feeds() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feeds
}

func (d *MemoryDevice) Idles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idles
}

func (d *MemoryDevice) StopCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

func (d *MemoryDevice) Pauses() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.pauses...)
}

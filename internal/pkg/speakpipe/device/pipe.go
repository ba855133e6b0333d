package device

import "sync"

type pipeMarker struct {
	at int64
	fn func()
}

// pcmPipe adapts push-style writes to the pull-style io.Reader the oto
// player consumes. When starved it yields silence instead of EOF so the
// player never tears the stream down between utterances. Markers are
// keyed to the byte offset at which they were fed and fire once the
// reader has consumed past that offset, which is as close to "actually
// played" as a pull player allows.
type pcmPipe struct {
	mu       sync.Mutex
	buf      []byte
	consumed int64
	written  int64
	markers  []pipeMarker
	paused   bool
}

func newPCMPipe() *pcmPipe {
	return &pcmPipe{}
}

// Read implements io.Reader for the audio backend. It never returns an
// error and always fills dst, padding with silence when no PCM is
// buffered or playback is paused.
func (p *pcmPipe) Read(dst []byte) (int, error) {
	p.mu.Lock()
	var n int
	if !p.paused {
		n = copy(dst, p.buf)
		p.buf = p.buf[n:]
		p.consumed += int64(n)
	}
	fired := p.takeDueLocked()
	p.mu.Unlock()

	for _, fn := range fired {
		fn()
	}

	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), nil
}

// takeDueLocked removes and returns markers at or before the consumed
// offset. Caller holds p.mu and invokes them after unlocking.
func (p *pcmPipe) takeDueLocked() []func() {
	var due []func()
	i := 0
	for ; i < len(p.markers); i++ {
		if p.markers[i].at > p.consumed {
			break
		}
		due = append(due, p.markers[i].fn)
	}
	p.markers = p.markers[i:]
	return due
}

func (p *pcmPipe) write(pcm []byte) {
	p.mu.Lock()
	p.buf = append(p.buf, pcm...)
	p.written += int64(len(pcm))
	p.mu.Unlock()
}

func (p *pcmPipe) feed(done func()) {
	p.mu.Lock()
	if p.consumed >= p.written {
		p.mu.Unlock()
		done()
		return
	}
	p.markers = append(p.markers, pipeMarker{at: p.written, fn: done})
	p.mu.Unlock()
}

// flush drops buffered audio and pending markers without invoking them.
func (p *pcmPipe) flush() {
	p.mu.Lock()
	p.consumed += int64(len(p.buf))
	p.buf = nil
	p.markers = nil
	p.mu.Unlock()
}

func (p *pcmPipe) pause(on bool) {
	p.mu.Lock()
	p.paused = on
	p.mu.Unlock()
}

func (p *pcmPipe) buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

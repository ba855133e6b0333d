//go:build cgo

package device

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

func init() {
	Register("portaudio", newPortAudio)
}

const paFramesPerBuffer = 1024

// paDevice plays through portaudio with blocking buffer writes. Stop
// aborts the stream out of band, which unblocks a Write stuck waiting
// for buffer space.
type paDevice struct {
	stream  *portaudio.Stream
	frames  []int16
	mu      sync.Mutex // serializes Write/Feed/Pause; never held by Stop
	stopped atomic.Bool
	paused  bool
}

func newPortAudio(f Format, cfg Config) (Device, error) {
	if f.BitsPerSample != 16 {
		return nil, fmt.Errorf("portaudio device requires 16-bit PCM, got %d", f.BitsPerSample)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	frames := make([]int16, paFramesPerBuffer*f.Channels)
	stream, err := portaudio.OpenDefaultStream(0, f.Channels, float64(f.SampleRate), paFramesPerBuffer, frames)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	return &paDevice{stream: stream, frames: frames}, nil
}

func (d *paDevice) Write(pcm []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for off := 0; off < len(pcm)-1; off += len(d.frames) * 2 {
		if d.stopped.Load() {
			return nil
		}
		for i := range d.frames {
			p := off + i*2
			if p+1 < len(pcm) {
				d.frames[i] = int16(binary.LittleEndian.Uint16(pcm[p : p+2]))
			} else {
				d.frames[i] = 0
			}
		}
		if err := d.stream.Write(); err != nil {
			if d.stopped.Load() {
				return nil
			}
			return fmt.Errorf("portaudio write: %w", err)
		}
	}
	return nil
}

// Feed acquires the write lock, so by the time it runs every prior Write
// has been handed to the device; the device-side buffer is at most one
// period deep.
func (d *paDevice) Feed(done func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	done()
	return nil
}

func (d *paDevice) Idle() {}

func (d *paDevice) Pause(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if on == d.paused {
		return
	}
	d.paused = on
	if on {
		d.stream.Stop()
	} else {
		d.stream.Start()
	}
}

func (d *paDevice) Stop() {
	d.stopped.Store(true)
	// Abort discards queued buffers and unblocks a pending Write.
	d.stream.Abort()
	d.stream.Start()
	d.stopped.Store(false)
}

func (d *paDevice) Close() error {
	d.stopped.Store(true)
	err := d.stream.Close()
	portaudio.Terminate()
	return err
}

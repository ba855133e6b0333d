package device

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func init() {
	Register("wav", newWavSink)
}

// wavSink captures the session's PCM stream to a WAV file instead of a
// live device. Useful for offline runs and for inspecting exactly what
// the feeder committed.
type wavSink struct {
	mu     sync.Mutex
	f      *os.File
	enc    *wav.Encoder
	format Format
	closed bool
}

func newWavSink(f Format, cfg Config) (Device, error) {
	path := cfg.Path
	if path == "" {
		path = "output.wav"
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}
	enc := wav.NewEncoder(file, f.SampleRate, f.BitsPerSample, f.Channels, 1)
	return &wavSink{f: file, enc: enc, format: f}, nil
}

func (d *wavSink) Write(pcm []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}

	n := len(pcm) / 2
	data := make([]int, n)
	for i := 0; i < n; i++ {
		data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: d.format.Channels,
			SampleRate:  d.format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: d.format.BitsPerSample,
	}
	if err := d.enc.Write(buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	return nil
}

// Feed fires immediately: a file sink has no playback latency to wait
// out.
func (d *wavSink) Feed(done func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	done()
	return nil
}

func (d *wavSink) Idle()         {}
func (d *wavSink) Pause(on bool) {}
func (d *wavSink) Stop()         {}

func (d *wavSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.enc.Close(); err != nil {
		d.f.Close()
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return d.f.Close()
}

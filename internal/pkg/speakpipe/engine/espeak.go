package engine

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
)

func init() {
	Register("espeak", newEspeak)
}

const (
	espeakSampleRate = 22050
	espeakReadChunk  = 4096
	// espeak-ng speed range in words per minute.
	espeakMinWPM = 80
	espeakMaxWPM = 450
)

type espeakChunk struct {
	data []byte
	err  error
	done bool
}

// espeakEngine adapts the espeak-ng command line synthesizer to the pull
// contract. Each Submit spawns one `espeak-ng --stdout` process; a reader
// goroutine drains its WAV output into a channel that PollNext consumes
// without blocking.
type espeakEngine struct {
	binary string
	voice  string

	mu      sync.Mutex
	params  map[Param]int
	proc    *exec.Cmd
	chunks  chan espeakChunk
	quit    chan struct{}
	pending []byte
	active  bool
}

func newEspeak(cfg Config) (Engine, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "espeak-ng"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("espeak binary not found: %w", err)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = "en"
	}
	return &espeakEngine{
		binary: path,
		voice:  voice,
		params: map[Param]int{
			ParamRate:   50,
			ParamPitch:  50,
			ParamVolume: 90,
		},
	}, nil
}

func (e *espeakEngine) Submit(text []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.killLocked()

	rate := espeakMinWPM + (espeakMaxWPM-espeakMinWPM)*e.params[ParamRate]/100
	pitch := e.params[ParamPitch] * 99 / 100
	amp := e.params[ParamVolume] * 2

	cmd := exec.Command(e.binary,
		"--stdout",
		"-v", e.voice,
		"-s", fmt.Sprintf("%d", rate),
		"-p", fmt.Sprintf("%d", pitch),
		"-a", fmt.Sprintf("%d", amp),
		"--", string(text),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open espeak stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start espeak: %w", err)
	}

	chunks := make(chan espeakChunk, 64)
	quit := make(chan struct{})
	go readEspeak(cmd, stdout, chunks, quit)

	e.proc = cmd
	e.chunks = chunks
	e.quit = quit
	e.pending = nil
	e.active = true
	return nil
}

// readEspeak drains one process's stdout into the chunk channel. The
// 44-byte WAV header espeak writes before the PCM data is skipped. quit
// unblocks the goroutine when the consumer goes away mid-stream.
func readEspeak(cmd *exec.Cmd, stdout io.Reader, chunks chan<- espeakChunk, quit <-chan struct{}) {
	send := func(c espeakChunk) bool {
		select {
		case chunks <- c:
			return true
		case <-quit:
			return false
		}
	}

	if _, err := io.CopyN(io.Discard, stdout, 44); err != nil {
		cmd.Wait()
		send(espeakChunk{err: err})
		return
	}
	for {
		buf := make([]byte, espeakReadChunk)
		n, err := stdout.Read(buf)
		if n > 0 {
			if !send(espeakChunk{data: buf[:n]}) {
				cmd.Wait()
				return
			}
		}
		if err != nil {
			waitErr := cmd.Wait()
			if err == io.EOF && waitErr == nil {
				send(espeakChunk{done: true})
			} else if err == io.EOF {
				send(espeakChunk{err: waitErr})
			} else {
				send(espeakChunk{err: err})
			}
			return
		}
	}
}

func (e *espeakEngine) PollNext(buf []byte) Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return Event{Kind: EventDone}
	}
	if len(e.pending) > 0 {
		return e.fillLocked(buf)
	}

	select {
	case c := <-e.chunks:
		switch {
		case c.done:
			e.active = false
			e.proc = nil
			return Event{Kind: EventDone}
		case c.err != nil:
			e.active = false
			e.proc = nil
			return Event{Kind: EventError, Value: 1}
		default:
			e.pending = c.data
			return e.fillLocked(buf)
		}
	default:
		return Event{Kind: EventNone}
	}
}

func (e *espeakEngine) fillLocked(buf []byte) Event {
	n := copy(buf, e.pending)
	e.pending = e.pending[n:]
	return Event{Kind: EventAudio, N: n}
}

func (e *espeakEngine) RequestStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killLocked()
}

func (e *espeakEngine) killLocked() {
	if e.proc != nil && e.proc.Process != nil {
		e.proc.Process.Kill()
	}
	if e.quit != nil {
		close(e.quit)
		e.quit = nil
	}
	e.proc = nil
	e.chunks = nil
	e.pending = nil
	e.active = false
}

func (e *espeakEngine) SetParam(p Param, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("espeak: %s value %d out of range [0, 100]", p, v)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params[p] = v
	return nil
}

func (e *espeakEngine) Param(p Param) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params[p]
}

func (e *espeakEngine) Info() Info {
	return Info{
		Name: "espeak",
		Format: Format{
			SampleRate:    espeakSampleRate,
			Channels:      1,
			BitsPerSample: 16,
		},
	}
}

func (e *espeakEngine) Shutdown() error {
	e.RequestStop()
	return nil
}

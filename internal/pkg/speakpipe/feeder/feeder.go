package feeder

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"speakpipe/internal/pkg/speakpipe/device"
	"speakpipe/internal/pkg/speakpipe/stream"
)

const popTimeout = 100 * time.Millisecond

// Options configures a Feeder.
type Options struct {
	// AutoIdle makes a final Done item idle the device and invoke OnDone
	// directly, for sessions that do not drive completion via markers.
	AutoIdle bool
	// OnDone is the session-wide completion hook used with AutoIdle.
	OnDone func()
}

// Feeder is the consumer half of the pipeline: one long-lived loop per
// session draining the delivery queue into the output device. Staleness
// is re-checked immediately before every side-effecting action, not just
// at dequeue, so an epoch advance mid-item still suppresses it.
//
// The device mutex serializes Write/Feed/Idle/Pause. Interrupt calls
// device.Stop without taking it: the device's stop must be able to cut
// short a Write the feeder is currently blocked in, and holding the lock
// around both would deadlock.
type Feeder struct {
	queue    *stream.Queue
	seq      *stream.Sequencer
	dev      device.Device
	log      zerolog.Logger
	autoIdle bool
	onDone   func()

	mu       sync.Mutex
	stopping atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(queue *stream.Queue, seq *stream.Sequencer, dev device.Device, opts Options, log zerolog.Logger) *Feeder {
	return &Feeder{
		queue:    queue,
		seq:      seq,
		dev:      dev,
		log:      log,
		autoIdle: opts.AutoIdle,
		onDone:   opts.OnDone,
		done:     make(chan struct{}),
	}
}

// Start launches the feed loop. Call once per session.
func (f *Feeder) Start() {
	f.wg.Add(1)
	go f.run()
}

func (f *Feeder) run() {
	defer f.wg.Done()
	for {
		select {
		case <-f.done:
			return
		default:
		}
		it, ok := f.queue.Pop(popTimeout)
		if !ok {
			continue
		}
		f.dispatch(it)
	}
}

func (f *Feeder) dispatch(it stream.Item) {
	if f.seq.Stale(it.Epoch) {
		return
	}

	switch it.Kind {
	case stream.KindAudio:
		f.writeAudio(it)
	case stream.KindMarker:
		f.feedMarker(it)
	case stream.KindIdle:
		f.mu.Lock()
		if !f.stopping.Load() && !f.seq.Stale(it.Epoch) {
			f.dev.Idle()
		}
		f.mu.Unlock()
	case stream.KindDone:
		if it.Final && f.autoIdle {
			f.mu.Lock()
			if !f.stopping.Load() && !f.seq.Stale(it.Epoch) {
				f.dev.Idle()
			}
			f.mu.Unlock()
			if !f.stopping.Load() {
				f.invoke(f.onDone)
			}
		}
	}
}

func (f *Feeder) writeAudio(it stream.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopping.Load() || f.seq.Stale(it.Epoch) {
		return
	}
	err := f.dev.Write(it.Data)
	switch {
	case err == nil:
	case errors.Is(err, device.ErrUnavailable):
		f.log.Warn().Msg("audio device unavailable, chunk dropped")
	default:
		// A single bad chunk must not halt the stream.
		f.log.Error().Err(err).Msg("device write failed, chunk dropped")
	}
}

func (f *Feeder) feedMarker(it stream.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopping.Load() || f.seq.Stale(it.Epoch) {
		return
	}
	cb := it.Callback
	if err := f.dev.Feed(func() { f.invoke(cb) }); err != nil {
		f.log.Error().Err(err).Msg("marker feed failed")
	}
}

// invoke runs a caller-supplied callback, containing any panic so a
// faulty callback cannot take the feed loop down.
func (f *Feeder) invoke(cb func()) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().Interface("panic", r).Msg("callback failed")
		}
	}()
	cb()
}

// SetStopping gates markers and idle signals. The orchestrator sets it
// during cancellation and clears it before the next utterance.
func (f *Feeder) SetStopping(on bool) {
	f.stopping.Store(on)
}

// Interrupt stops the device immediately. The device lock is
// deliberately not taken: Stop must be free to interrupt a Write that is
// currently holding it.
func (f *Feeder) Interrupt() {
	f.stopping.Store(true)
	f.dev.Stop()
}

// Pause suspends or resumes the device.
func (f *Feeder) Pause(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dev.Pause(on)
}

// Shutdown terminates the feed loop and waits for it. Idempotent.
func (f *Feeder) Shutdown() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
	f.queue.Close()
	f.wg.Wait()
}

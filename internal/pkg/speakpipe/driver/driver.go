package driver

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"speakpipe/internal/pkg/speakpipe/device"
	"speakpipe/internal/pkg/speakpipe/engine"
	"speakpipe/internal/pkg/speakpipe/feeder"
	"speakpipe/internal/pkg/speakpipe/pump"
	"speakpipe/internal/pkg/speakpipe/stream"
)

const jobQueueDepth = 32

// Notifications are the two asynchronous signals the core raises back
// to its caller. Both may be invoked from internal goroutines; panics
// are contained.
type Notifications struct {
	OnIndexReached func(index int)
	OnDoneSpeaking func()
}

// Options tunes a session.
type Options struct {
	// PollBackoff is the pump's sleep when the engine has no data yet.
	PollBackoff time.Duration
	// AutoIdle lets the feeder idle the device and fire done directly
	// from a final Done item instead of the driver's marker pair.
	AutoIdle bool
	Logger   zerolog.Logger
}

// Driver is the caller-facing session: it owns the whole pipeline for
// one engine plus one output device and serializes speak requests
// through a single worker. Cancellation invalidates twice over: the
// generation kills deferred callbacks and the epoch kills queued stream
// items, since either can outlive the request that created it.
type Driver struct {
	eng    engine.Engine
	dev    device.Device
	queue  *stream.Queue
	seq    *stream.Sequencer
	pump   *pump.Pump
	feeder *feeder.Feeder
	proc   *preprocessor
	notify Notifications
	log    zerolog.Logger

	generation atomic.Int64
	speaking   atomic.Bool
	state      atomic.Int32

	jobs      chan func()
	closed    chan struct{}
	workerWg  sync.WaitGroup
	closeOnce sync.Once

	mu        sync.Mutex
	basePitch int
}

// New wires a session around an initialized engine and an open device
// and starts its feeder and worker. The caller owns both collaborators'
// lifetimes beyond Close.
func New(eng engine.Engine, dev device.Device, notify Notifications, opts Options) *Driver {
	queue := stream.NewQueue()
	seq := stream.NewSequencer()
	log := opts.Logger

	d := &Driver{
		eng:       eng,
		dev:       dev,
		queue:     queue,
		seq:       seq,
		proc:      newPreprocessor(eng.Info().LegacyCharset),
		notify:    notify,
		log:       log,
		jobs:      make(chan func(), jobQueueDepth),
		closed:    make(chan struct{}),
		basePitch: eng.Param(engine.ParamPitch),
	}
	d.pump = pump.New(eng, queue, seq, opts.PollBackoff, log)
	d.feeder = feeder.New(queue, seq, dev, feeder.Options{
		AutoIdle: opts.AutoIdle,
		OnDone:   func() { d.notifyDone() },
	}, log)
	d.feeder.Start()

	d.workerWg.Add(1)
	go d.worker()
	return d
}

// worker runs queued jobs strictly in order. Cancellation empties the
// channel rather than filtering here, so a request queued behind a slow
// one still runs.
func (d *Driver) worker() {
	defer d.workerWg.Done()
	for {
		select {
		case <-d.closed:
			return
		case fn := <-d.jobs:
			fn()
		}
	}
}

func (d *Driver) enqueue(fn func()) {
	select {
	case <-d.closed:
	case d.jobs <- fn:
	}
}

func (d *Driver) drainJobs() {
	for {
		select {
		case <-d.jobs:
		default:
			return
		}
	}
}

// Speak segments the utterance and schedules it. A call while speaking
// cancels the current utterance first. Non-blocking; progress is
// reported through the notification hooks.
func (d *Driver) Speak(u Utterance) {
	if d.speaking.Load() {
		d.Cancel()
	}

	blocks, anyText, allIndexes := segment(u)
	if !anyText {
		// Nothing to synthesize: release the indexes and finish without
		// touching the pipeline.
		d.enqueue(func() {
			d.setState(StateSpeaking)
			d.notifyIndexes(allIndexes)
			d.setState(StateCompleted)
			d.notifyDone()
		})
		return
	}
	d.enqueue(func() { d.speakJob(blocks) })
}

func (d *Driver) speakJob(blocks []Block) {
	gen := d.generation.Add(1)
	d.feeder.SetStopping(false)
	d.speaking.Store(true)
	d.setState(StateSpeaking)

	d.mu.Lock()
	basePitch := d.basePitch
	d.mu.Unlock()
	lastPitch := -1
	failed := false

	for _, b := range blocks {
		if !d.speaking.Load() {
			break
		}

		pitch := basePitch
		if b.PitchOffset != 0 {
			pitch = clampPitch(basePitch + basePitch*b.PitchOffset/100)
		}
		if pitch != lastPitch {
			if err := d.eng.SetParam(engine.ParamPitch, pitch); err != nil {
				d.log.Warn().Err(err).Int("pitch", pitch).Msg("pitch change rejected")
			}
			lastPitch = pitch
		}

		if b.Text != "" {
			if !d.pump.Speak(d.proc.prepare(b.Text)) {
				d.speaking.Store(false)
				failed = true
				break
			}
		}

		// Release this block's indexes as soon as its audio is fully
		// queued: the marker rides behind the audio, so the callback
		// fires at the right playback position while synthesis of the
		// next block already runs ahead.
		if d.speaking.Load() && len(b.IndexesAfter) > 0 {
			idxs := b.IndexesAfter
			d.queue.Push(stream.Marker(func() {
				if d.generation.Load() == gen {
					d.notifyIndexes(idxs)
				}
			}, d.seq.Current()))
		}
	}

	if lastPitch != -1 && lastPitch != basePitch {
		d.eng.SetParam(engine.ParamPitch, basePitch)
	}

	if !d.speaking.Load() {
		// A cancelled run still owes its caller the terminal done; only
		// the state transition stays with the superseding request.
		if failed && d.generation.Load() == gen {
			d.setState(StateFailed)
		}
		d.notifyDone()
		return
	}

	d.queue.Push(stream.Marker(func() {
		if d.generation.Load() == gen {
			d.speaking.Store(false)
			d.setState(StateCompleted)
			d.notifyDone()
		}
	}, d.seq.Current()))
	d.queue.Push(stream.Idle(d.seq.Current()))
}

func clampPitch(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Cancel abandons the current utterance and everything queued behind
// it. It returns as soon as the invalidations are issued; in-flight
// audio drains asynchronously as the feeder discards stale items.
// Calling it while idle is harmless.
func (d *Driver) Cancel() {
	d.generation.Add(1)
	d.drainJobs()
	wasSpeaking := d.speaking.Swap(false)
	d.seq.Advance()
	d.pump.RequestStop()
	d.feeder.Interrupt()

	d.mu.Lock()
	basePitch := d.basePitch
	d.mu.Unlock()
	d.eng.SetParam(engine.ParamPitch, basePitch)

	if wasSpeaking {
		d.setState(StateCancelled)
		d.log.Debug().Msg("utterance cancelled")
	}
}

// Pause suspends or resumes playback without losing buffered audio.
func (d *Driver) Pause(on bool) {
	d.feeder.Pause(on)
}

// SetParam forwards a voice parameter to the engine. The pitch value is
// also tracked as the session's base pitch for offset arithmetic.
func (d *Driver) SetParam(p engine.Param, v int) error {
	if err := d.eng.SetParam(p, v); err != nil {
		return fmt.Errorf("failed to set %s: %w", p, err)
	}
	if p == engine.ParamPitch {
		d.mu.Lock()
		d.basePitch = v
		d.mu.Unlock()
	}
	return nil
}

// Param reads a voice parameter back from the engine.
func (d *Driver) Param(p engine.Param) int {
	return d.eng.Param(p)
}

// Speaking reports whether an utterance is currently in flight.
func (d *Driver) Speaking() bool {
	return d.speaking.Load()
}

// State returns the current utterance state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
}

func (d *Driver) notifyIndexes(indexes []int) {
	if d.notify.OnIndexReached == nil {
		return
	}
	for _, idx := range indexes {
		idx := idx
		d.invoke(func() { d.notify.OnIndexReached(idx) })
	}
}

func (d *Driver) notifyDone() {
	d.invoke(d.notify.OnDoneSpeaking)
}

func (d *Driver) invoke(cb func()) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("notification callback failed")
		}
	}()
	cb()
}

// Close tears the session down: cancel, stop the worker and feeder,
// shut the engine down and close the device. Idempotent.
func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.Cancel()
		close(d.closed)
		d.workerWg.Wait()
		d.feeder.Shutdown()
		if e := d.eng.Shutdown(); e != nil {
			err = fmt.Errorf("engine shutdown: %w", e)
		}
		if e := d.dev.Close(); e != nil && err == nil {
			err = fmt.Errorf("device close: %w", e)
		}
	})
	return err
}

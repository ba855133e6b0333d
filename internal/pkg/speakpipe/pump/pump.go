package pump

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"speakpipe/internal/pkg/speakpipe/engine"
	"speakpipe/internal/pkg/speakpipe/stream"
)

const (
	// DefaultBackoff is how long the pump sleeps when the engine has no
	// data yet. Configurable so tests with a mock engine can drop it.
	DefaultBackoff = time.Millisecond
	pollBufSize    = 64 * 1024
)

// Pump drives the engine's pull interface for one speak request at a
// time, translating events into epoch-stamped stream items. It runs on
// the orchestrator's worker goroutine; RequestStop may be called from
// any other goroutine and takes effect within one loop iteration.
type Pump struct {
	eng     engine.Engine
	queue   *stream.Queue
	seq     *stream.Sequencer
	backoff time.Duration
	log     zerolog.Logger
	stop    atomic.Bool
}

func New(eng engine.Engine, queue *stream.Queue, seq *stream.Sequencer, backoff time.Duration, log zerolog.Logger) *Pump {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Pump{
		eng:     eng,
		queue:   queue,
		seq:     seq,
		backoff: backoff,
		log:     log,
	}
}

// Speak submits one block of text and pumps the engine until it reports
// done, fails, or is stopped. A terminal Done item is always pushed so
// the feeder's bookkeeping is never left hanging. Returns true when
// synthesis completed normally.
func (p *Pump) Speak(text []byte) bool {
	p.stop.Store(false)
	epoch := p.seq.Current()

	if err := p.eng.Submit(text); err != nil {
		p.log.Error().Err(err).Msg("engine submit failed")
		p.queue.Push(stream.Done(false, epoch))
		return false
	}

	buf := make([]byte, pollBufSize)
	chunks, bytes := 0, 0
	for {
		if p.stop.Load() {
			p.log.Debug().Int("chunks", chunks).Int("bytes", bytes).Msg("pump stopped")
			p.queue.Push(stream.Done(false, epoch))
			return false
		}

		ev := p.pollNext(buf)
		switch ev.Kind {
		case engine.EventAudio:
			if ev.N > 0 {
				chunks++
				bytes += ev.N
				p.queue.Push(stream.Audio(append([]byte(nil), buf[:ev.N]...), epoch))
			}
		case engine.EventIndex:
			// Engine-side index granularity is ignored; the orchestrator
			// places markers itself after each block.
		case engine.EventNone:
			time.Sleep(p.backoff)
		case engine.EventDone:
			p.log.Debug().Int("chunks", chunks).Int("bytes", bytes).Msg("pump done")
			p.queue.Push(stream.Done(true, epoch))
			return true
		case engine.EventError:
			p.log.Error().Int("code", ev.Value).Msg("engine reported error")
			p.queue.Push(stream.Done(false, epoch))
			return false
		}
	}
}

// pollNext shields the loop from a panicking adapter: a fault is logged
// and reported as an engine error.
func (p *Pump) pollNext(buf []byte) (ev engine.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Msg("engine poll crashed")
			ev = engine.Event{Kind: engine.EventError}
		}
	}()
	return p.eng.PollNext(buf)
}

// RequestStop asks the running Speak loop to exit promptly and tells the
// engine to abandon synthesis. Safe from any goroutine.
func (p *Pump) RequestStop() {
	p.stop.Store(true)
	p.eng.RequestStop()
}

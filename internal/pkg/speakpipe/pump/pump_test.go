package pump

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"speakpipe/internal/pkg/speakpipe/engine"
	"speakpipe/internal/pkg/speakpipe/stream"
)

func drain(t *testing.T, q *stream.Queue) []stream.Item {
	t.Helper()
	var items []stream.Item
	for {
		it, ok := q.Pop(10 * time.Millisecond)
		if !ok {
			return items
		}
		items = append(items, it)
	}
}

func TestSpeakTranslatesEvents(t *testing.T) {
	eng := engine.NewScripted([]engine.Step{
		engine.AudioStep([]byte{1, 2}),
		{Event: engine.Event{Kind: engine.EventIndex, Value: 4}},
		{Event: engine.Event{Kind: engine.EventNone}},
		engine.AudioStep([]byte{3}),
		{Event: engine.Event{Kind: engine.EventDone}},
	})
	q := stream.NewQueue()
	seq := stream.NewSequencer()
	seq.Advance() // non-zero epoch so stamping is visible
	p := New(eng, q, seq, time.Microsecond, zerolog.Nop())

	if !p.Speak([]byte("hello")) {
		t.Fatal("expected successful run")
	}

	items := drain(t, q)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 (index event must not produce one)", len(items))
	}
	if items[0].Kind != stream.KindAudio || string(items[0].Data) != "\x01\x02" {
		t.Fatalf("item 0: %+v", items[0])
	}
	if items[1].Kind != stream.KindAudio || string(items[1].Data) != "\x03" {
		t.Fatalf("item 1: %+v", items[1])
	}
	last := items[2]
	if last.Kind != stream.KindDone || !last.Final {
		t.Fatalf("terminal item: %+v", last)
	}
	for i, it := range items {
		if it.Epoch != seq.Current() {
			t.Fatalf("item %d stamped %d, want %d", i, it.Epoch, seq.Current())
		}
	}
}

func TestSpeakSubmitFailure(t *testing.T) {
	eng := engine.NewScripted()
	eng.SubmitErr = errors.New("bad status")
	q := stream.NewQueue()
	p := New(eng, q, stream.NewSequencer(), time.Microsecond, zerolog.Nop())

	if p.Speak([]byte("x")) {
		t.Fatal("expected failure")
	}
	items := drain(t, q)
	if len(items) != 1 || items[0].Kind != stream.KindDone || items[0].Final {
		t.Fatalf("expected single non-final done, got %+v", items)
	}
}

func TestSpeakEngineErrorMidStream(t *testing.T) {
	eng := engine.NewScripted([]engine.Step{
		engine.AudioStep([]byte{1}),
		{Event: engine.Event{Kind: engine.EventError, Value: 3}},
	})
	q := stream.NewQueue()
	p := New(eng, q, stream.NewSequencer(), time.Microsecond, zerolog.Nop())

	if p.Speak([]byte("x")) {
		t.Fatal("expected failure")
	}
	items := drain(t, q)
	if len(items) != 2 {
		t.Fatalf("got %d items, want audio then done", len(items))
	}
	if items[0].Kind != stream.KindAudio {
		t.Fatalf("partial audio before the error must still be queued, got %s", items[0].Kind)
	}
	if items[1].Kind != stream.KindDone || items[1].Final {
		t.Fatalf("terminal item: %+v", items[1])
	}
}

type panickyEngine struct {
	*engine.Scripted
}

func (panickyEngine) PollNext(buf []byte) engine.Event {
	panic("adapter fault")
}

func TestSpeakPollPanicIsContained(t *testing.T) {
	eng := panickyEngine{engine.NewScripted([]engine.Step{})}
	q := stream.NewQueue()
	p := New(eng, q, stream.NewSequencer(), time.Microsecond, zerolog.Nop())

	if p.Speak([]byte("x")) {
		t.Fatal("expected failure")
	}
	items := drain(t, q)
	if len(items) != 1 || items[0].Kind != stream.KindDone || items[0].Final {
		t.Fatalf("expected single non-final done, got %+v", items)
	}
}

type neverDone struct {
	*engine.Scripted
}

func (neverDone) PollNext(buf []byte) engine.Event {
	return engine.Event{Kind: engine.EventNone}
}

func TestRequestStopExitsLoopAndPushesDone(t *testing.T) {
	eng := neverDone{engine.NewScripted()}
	q := stream.NewQueue()
	p := New(eng, q, stream.NewSequencer(), 100*time.Microsecond, zerolog.Nop())

	result := make(chan bool, 1)
	go func() { result <- p.Speak([]byte("x")) }()

	time.Sleep(5 * time.Millisecond)
	p.RequestStop()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("stopped run must report failure")
		}
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
	if eng.Stops() != 1 {
		t.Fatalf("engine stop calls = %d, want 1", eng.Stops())
	}
	items := drain(t, q)
	if len(items) != 1 || items[0].Kind != stream.KindDone || items[0].Final {
		t.Fatalf("expected single non-final done, got %+v", items)
	}
}

package stream

import (
	"testing"
	"time"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	q.Push(Audio([]byte{1}, 0))
	q.Push(Marker(func() {}, 0))
	q.Push(Done(true, 0))

	want := []Kind{KindAudio, KindMarker, KindDone}
	for i, k := range want {
		it, ok := q.Pop(time.Second)
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if it.Kind != k {
			t.Fatalf("pop %d: got %s, want %s", i, it.Kind, k)
		}
	}
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue()
	start := time.Now()
	_, ok := q.Pop(20 * time.Millisecond)
	if ok {
		t.Fatal("expected timeout on empty queue")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("pop returned before the timeout elapsed")
	}
}

func TestQueuePopWakesOnPush(t *testing.T) {
	q := NewQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(Idle(3))
	}()
	it, ok := q.Pop(time.Second)
	if !ok {
		t.Fatal("pop timed out waiting for push")
	}
	if it.Kind != KindIdle || it.Epoch != 3 {
		t.Fatalf("got %s epoch %d", it.Kind, it.Epoch)
	}
}

func TestQueueCloseDrainsAndWakes(t *testing.T) {
	q := NewQueue()
	q.Push(Audio([]byte{1}, 0))
	q.Close()
	q.Close() // idempotent

	if _, ok := q.Pop(10 * time.Millisecond); ok {
		t.Fatal("expected closed queue to be empty")
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}

	q.Push(Audio([]byte{2}, 0))
	if q.Len() != 0 {
		t.Fatal("push after close should be dropped")
	}
}

func TestSequencerStaleness(t *testing.T) {
	s := NewSequencer()
	e := s.Current()
	if s.Stale(e) {
		t.Fatal("current epoch must not be stale")
	}
	if got := s.Advance(); got != e+1 {
		t.Fatalf("advance returned %d, want %d", got, e+1)
	}
	if !s.Stale(e) {
		t.Fatal("prior epoch must be stale after advance")
	}
	if s.Stale(s.Current()) {
		t.Fatal("new epoch must not be stale")
	}
}

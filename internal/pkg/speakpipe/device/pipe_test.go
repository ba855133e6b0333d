package device

import "testing"

func TestPipeReadPadsWithSilence(t *testing.T) {
	p := newPCMPipe()
	p.write([]byte{1, 2, 3, 4})

	dst := make([]byte, 8)
	n, err := p.Read(dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 8 {
		t.Fatalf("read returned %d, want full buffer", n)
	}
	want := []byte{1, 2, 3, 4, 0, 0, 0, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
	if p.buffered() != 0 {
		t.Fatalf("expected drained pipe, %d bytes left", p.buffered())
	}
}

func TestPipeMarkerFiresAfterPrecedingAudio(t *testing.T) {
	p := newPCMPipe()
	p.write(make([]byte, 10))

	fired := false
	p.feed(func() { fired = true })

	dst := make([]byte, 6)
	p.Read(dst)
	if fired {
		t.Fatal("marker fired before preceding audio was consumed")
	}
	p.Read(dst)
	if !fired {
		t.Fatal("marker did not fire after audio drained")
	}
}

func TestPipeMarkerOnEmptyPipeFiresImmediately(t *testing.T) {
	p := newPCMPipe()
	fired := false
	p.feed(func() { fired = true })
	if !fired {
		t.Fatal("marker on drained pipe must fire immediately")
	}
}

func TestPipeFlushDropsAudioAndMarkers(t *testing.T) {
	p := newPCMPipe()
	p.write(make([]byte, 100))
	fired := false
	p.feed(func() { fired = true })

	p.flush()
	if p.buffered() != 0 {
		t.Fatal("flush left audio buffered")
	}

	dst := make([]byte, 200)
	p.Read(dst)
	if fired {
		t.Fatal("flushed marker must never fire")
	}
}

func TestPipePauseYieldsSilenceWithoutConsuming(t *testing.T) {
	p := newPCMPipe()
	p.write([]byte{9, 9, 9, 9})
	p.pause(true)

	dst := make([]byte, 4)
	p.Read(dst)
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("dst[%d] = %d, want silence while paused", i, b)
		}
	}
	if p.buffered() != 4 {
		t.Fatal("paused read must not consume buffered audio")
	}

	p.pause(false)
	p.Read(dst)
	if dst[0] != 9 {
		t.Fatal("resume did not restore playback")
	}
}

func TestMemoryDeviceRecords(t *testing.T) {
	d := NewMemoryDevice()
	d.Write([]byte{1, 2})
	d.Write([]byte{3})
	fired := false
	d.Feed(func() { fired = true })
	d.Idle()
	d.Stop()
	d.Pause(true)

	if !fired {
		t.Fatal("feed callback did not fire")
	}
	if got := d.Written(); len(got) != 3 || got[2] != 3 {
		t.Fatalf("written = %v", got)
	}
	if d.Feeds() != 1 || d.Idles() != 1 || d.StopCalls() != 1 {
		t.Fatal("counters wrong")
	}
	if p := d.Pauses(); len(p) != 1 || !p[0] {
		t.Fatalf("pauses = %v", p)
	}
}

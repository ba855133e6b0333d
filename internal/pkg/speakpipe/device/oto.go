//go:build cgo

package device

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

func init() {
	Register("oto", newOto)
}

// otoDevice plays through the system mixer via oto. A single long-lived
// player pulls from a pcmPipe for the whole session; Stop and Pause act
// on the pipe, so they take effect even while the player is mid-read.
type otoDevice struct {
	ctx    *oto.Context
	player *oto.Player
	pipe   *pcmPipe
}

func newOto(f Format, cfg Config) (Device, error) {
	if f.BitsPerSample != 16 {
		return nil, fmt.Errorf("oto device requires 16-bit PCM, got %d", f.BitsPerSample)
	}

	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	<-ready

	pipe := newPCMPipe()
	player := ctx.NewPlayer(pipe)
	player.Play()

	return &otoDevice{ctx: ctx, player: player, pipe: pipe}, nil
}

func (d *otoDevice) Write(pcm []byte) error {
	d.pipe.write(pcm)
	return nil
}

func (d *otoDevice) Feed(done func()) error {
	d.pipe.feed(done)
	return nil
}

func (d *otoDevice) Idle() {
	// The pipe keeps feeding silence once drained; nothing to do.
}

func (d *otoDevice) Pause(on bool) {
	d.pipe.pause(on)
}

func (d *otoDevice) Stop() {
	d.pipe.flush()
}

func (d *otoDevice) Close() error {
	d.pipe.flush()
	return d.player.Close()
}

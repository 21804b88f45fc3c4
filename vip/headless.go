package vip

import (
	"io"
	"time"

	"github.com/nf/c8/chip8"
)

// Headless is a Frontend without a display. It lets the program run for
// a number of 60Hz frames, then writes the display contents to Out as
// text.
type Headless struct {
	Frames int // zero runs until the program halts
	Out    io.Writer
}

func (h Headless) Run(r *Runner, exit <-chan bool) error {
	t := time.NewTicker(time.Second / chip8.TimerHz)
	defer t.Stop()
loop:
	for n := 0; h.Frames <= 0 || n < h.Frames; n++ {
		select {
		case <-exit:
			break loop
		case <-t.C:
		}
	}
	f, _ := r.Machine().Screen.Snapshot()
	_, err := io.WriteString(h.Out, f.String())
	return err
}

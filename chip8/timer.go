package chip8

import (
	"sync"
	"time"
)

// TimerHz is the rate at which the delay and sound timers count down.
const TimerHz = 60

// Timers holds the delay and sound timers. They are decremented by a
// timer driver running independently of instruction execution, so access
// is guarded.
type Timers struct {
	mu           sync.Mutex
	delay, sound byte
}

// Tick decrements both timers, stopping at zero.
func (t *Timers) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.delay > 0 {
		t.delay--
	}
	if t.sound > 0 {
		t.sound--
	}
}

func (t *Timers) Delay() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

func (t *Timers) Sound() byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sound
}

func (t *Timers) SetDelay(v byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = v
}

func (t *Timers) SetSound(v byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sound = v
}

// SoundOn reports whether the tone should be playing.
func (t *Timers) SoundOn() bool { return t.Sound() > 0 }

// Pacer converts elapsed wall-clock time into a number of whole events at
// a fixed rate. The fractional remainder is carried between calls, so
// callers observe every event exactly once however irregularly they call
// Advance.
type Pacer struct {
	hz    int
	start time.Time
	done  int64 // events reported so far
}

// NewPacer returns a pacer for hz events per second starting at start.
func NewPacer(hz int, start time.Time) *Pacer {
	if hz <= 0 {
		panic("chip8: pacer rate must be positive")
	}
	return &Pacer{hz: hz, start: start}
}

// Advance returns the number of events due between the previous call
// (or the start time) and now. Times before the last observed time yield 0.
func (p *Pacer) Advance(now time.Time) int {
	elapsed := now.Sub(p.start)
	if elapsed < 0 {
		return 0
	}
	secs := int64(elapsed / time.Second)
	rem := int64(elapsed % time.Second)
	due := secs*int64(p.hz) + rem*int64(p.hz)/int64(time.Second)
	n := due - p.done
	if n <= 0 {
		return 0
	}
	p.done = due
	return int(n)
}

// Interval returns the duration of one event.
func (p *Pacer) Interval() time.Duration { return time.Second / time.Duration(p.hz) }

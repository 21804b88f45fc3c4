// Package vip runs CHIP-8 programs the way the COSMAC VIP did: an
// interpreter executing at a fixed instruction rate, timers counting down
// at 60Hz, and a display and keypad attached to it.
package vip

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nf/c8/chip8"
)

// DefaultSpeed is the default instruction rate, in instructions per second.
const DefaultSpeed = 700

// Config holds the runner settings.
type Config struct {
	// Speed is the number of instructions executed per second.
	Speed int

	// Watch keeps the runner alive after the program halts so that a
	// new machine may be supplied with Reset.
	Watch bool
}

// Frontend displays the machine and feeds it input.
type Frontend interface {
	// Run drives the frontend until the user quits or exit is closed.
	Run(r *Runner, exit <-chan bool) error
}

// Runner executes a machine and drives its timers.
type Runner struct {
	cfg  Config
	keys *chip8.Keypad

	mu     sync.Mutex
	m      *chip8.Machine
	status chip8.State

	reset     chan *chip8.Machine
	resetDone chan bool

	log backlog
}

func NewRunner(cfg Config) *Runner {
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	return &Runner{
		cfg:       cfg,
		keys:      chip8.NewKeypad(),
		reset:     make(chan *chip8.Machine),
		resetDone: make(chan bool),
	}
}

// Keys returns the keypad shared by every machine the runner executes.
func (r *Runner) Keys() *chip8.Keypad { return r.keys }

// Speed returns the instruction rate.
func (r *Runner) Speed() int { return r.cfg.Speed }

// Machine returns the machine currently being executed. Callers other
// than the runner may only use its Screen and Timers.
func (r *Runner) Machine() *chip8.Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m
}

// Status returns the state of the current machine as of the last batch
// of instructions.
func (r *Runner) Status() chip8.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setMachine(m *chip8.Machine) {
	m.Keys = r.keys
	r.mu.Lock()
	r.m = m
	r.status = m.State()
	r.mu.Unlock()
}

func (r *Runner) setStatus(s chip8.State) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Reset replaces the running machine with m, for instance after the
// program has been reloaded. It may only be called in watch mode.
func (r *Runner) Reset(m *chip8.Machine) {
	if !r.cfg.Watch {
		panic("Reset called while not running in watch mode")
	}
	r.reset <- m
	<-r.resetDone
}

// Run executes m until it halts, ctx is done, or the frontend returns.
// A nil frontend runs until halt or cancellation. Run returns the halt
// error, if any.
func (r *Runner) Run(ctx context.Context, m *chip8.Machine, f Frontend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.setMachine(m)
	var (
		exit    = make(chan bool)
		execErr error
	)
	go func() {
		defer close(exit)
		execErr = r.exec(ctx)
	}()

	var frontErr error
	if f != nil {
		frontErr = f.Run(r, exit)
		cancel()
	}
	<-exit

	if execErr != nil {
		if !r.cfg.Watch {
			r.log.Emit()
		}
		return execErr
	}
	return frontErr
}

// exec is the CPU goroutine. It runs the current machine, switching to a
// new one on Reset.
func (r *Runner) exec(ctx context.Context) error {
	m := r.Machine()
	for {
		next, err := r.execMachine(ctx, m)
		if err != nil {
			r.setStatus(chip8.Halted)
			if !r.cfg.Watch {
				return err
			}
			log.Printf("chip8: %v", err)
			r.log.Emit()
			select {
			case next = <-r.reset:
			case <-ctx.Done():
				return nil
			}
		}
		if next == nil {
			return nil
		}
		m = next
		r.log.Reset()
		r.setMachine(m)
		r.resetDone <- true
	}
}

// execMachine runs m until it halts, ctx is done (returning nil, nil),
// or a replacement machine arrives on r.reset (returning it).
func (r *Runner) execMachine(ctx context.Context, m *chip8.Machine) (*chip8.Machine, error) {
	stop := make(chan bool)
	defer close(stop)
	go tickTimers(&m.Timers, stop)

	t := time.NewTicker(time.Second / chip8.TimerHz)
	defer t.Stop()
	cpu := chip8.NewPacer(r.cfg.Speed, time.Now())

	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case next := <-r.reset:
			return next, nil
		case now := <-t.C:
			for n := cpu.Advance(now); n > 0; n-- {
				if m.State() == chip8.Running {
					if op, ok := m.OpAt(m.PC); ok {
						r.log.LazyPrintf("%.3x  %.4x  %v", m.PC, uint16(op), op)
					}
				}
				if err := m.Step(); err != nil {
					return nil, err
				}
			}
		}
		r.setStatus(m.State())
		if m.State() != chip8.AwaitingKey {
			continue
		}
		// Park until a key goes down. Timers keep running meanwhile.
		select {
		case <-ctx.Done():
			return nil, nil
		case next := <-r.reset:
			return next, nil
		case <-r.keys.Ready:
		}
		cpu = chip8.NewPacer(r.cfg.Speed, time.Now())
	}
}

// tickTimers decrements the timers at 60Hz until stop is closed.
func tickTimers(t *chip8.Timers, stop <-chan bool) {
	tk := time.NewTicker(time.Second / chip8.TimerHz)
	defer tk.Stop()
	p := chip8.NewPacer(chip8.TimerHz, time.Now())
	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			for n := p.Advance(now); n > 0; n-- {
				t.Tick()
			}
		}
	}
}

type backlog struct {
	entries []logEntry
	n       int
}

type logEntry struct {
	format string
	args   []any
}

const maxBacklog = 100

func (b *backlog) LazyPrintf(format string, args ...any) {
	if b.n < len(b.entries) {
		b.entries[b.n] = logEntry{format, args}
	} else {
		b.entries = append(b.entries, logEntry{format, args})
	}
	b.n = (b.n + 1) % maxBacklog
}

func (b *backlog) Emit() {
	if len(b.entries) == 0 {
		return
	}
	for i := b.n; ; i++ {
		i %= len(b.entries)
		log.Printf(b.entries[i].format, b.entries[i].args...)
		if (i+1)%len(b.entries) == b.n%len(b.entries) {
			break
		}
	}
}

func (b *backlog) Reset() {
	b.entries = b.entries[:0]
	b.n = 0
}

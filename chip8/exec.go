// Package chip8 provides an implementation of a CHIP-8 interpreter,
// called Machine, that can be used to execute CHIP-8 programs.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	// MemSize is the size of the address space in bytes.
	MemSize = 0x1000

	// ProgramAddr is where programs are loaded and execution begins.
	// Memory below it is reserved for the interpreter.
	ProgramAddr = 0x200

	// MaxROMSize is the largest program that fits in memory.
	MaxROMSize = MemSize - ProgramAddr
)

// ErrROMTooLarge is returned by NewMachine if the program does not fit
// in memory.
var ErrROMTooLarge = fmt.Errorf("rom larger than %d bytes", MaxROMSize)

// Machine is an implementation of a CHIP-8 interpreter.
// All fields other than Screen, Timers and Keys must only be accessed by
// the goroutine calling Step.
type Machine struct {
	Mem    [MemSize]byte
	PC     uint16
	I      uint16
	V      [16]byte
	Stack  Stack
	Timers Timers
	Screen Screen
	Keys   *Keypad
	Quirks Quirks
	Rand   *rand.Rand

	state   State
	waitReg byte // register receiving the key while AwaitingKey
	halted  error
}

// NewMachine returns a machine with the digit glyphs stored at FontAddr and
// the given rom loaded at ProgramAddr, ready to execute from ProgramAddr.
func NewMachine(rom []byte, q Quirks) (*Machine, error) {
	if len(rom) > MaxROMSize {
		return nil, ErrROMTooLarge
	}
	m := &Machine{
		PC:     ProgramAddr,
		Keys:   NewKeypad(),
		Quirks: q,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	copy(m.Mem[FontAddr:], font[:])
	copy(m.Mem[ProgramAddr:], rom)
	return m, nil
}

// State describes what Step will do next.
type State byte

const (
	// Running machines fetch and execute the instruction at PC.
	Running State = iota
	// AwaitingKey machines are suspended in FX0A until a key goes down.
	AwaitingKey
	// Halted machines stopped on a HaltError.
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// State reports whether the machine is running, waiting for a key, or
// halted.
func (m *Machine) State() State { return m.state }

// OpAt returns the instruction at addr and reports whether addr is a
// valid instruction address.
func (m *Machine) OpAt(addr uint16) (Op, bool) {
	if int(addr) >= len(m.Mem)-1 {
		return 0, false
	}
	return Op(short(m.Mem[addr], m.Mem[addr+1])), true
}

// Step executes the instruction at m.PC, or, while the machine is
// AwaitingKey, checks the keypad for a newly pressed key.
// It returns a non-nil error only if it encounters a halt condition;
// once halted, every later call returns the same error.
func (m *Machine) Step() (err error) {
	if m.halted != nil {
		return m.halted
	}
	var (
		op   Op
		opPC = m.PC
	)
	defer func() {
		if e := recover(); e != nil {
			code, ok := e.(HaltCode)
			if !ok {
				panic(e)
			}
			err = HaltError{HaltCode: code, Op: op, Addr: opPC}
			m.halted = err
			m.state = Halted
		}
	}()

	if m.state == AwaitingKey {
		m.pollKey()
		return nil
	}

	op, ok := m.OpAt(m.PC)
	if !ok {
		panic(OutOfBounds)
	}
	m.PC += 2
	m.exec(op)
	if m.PC >= MemSize {
		panic(OutOfBounds)
	}
	return nil
}

func (m *Machine) exec(op Op) {
	var (
		x, y = op.X(), op.Y()
		vx   = m.V[x]
		vy   = m.V[y]
	)
	switch op.Kind() {
	case 0x0:
		switch op {
		case 0x00e0:
			m.Screen.Clear()
		case 0x00ee:
			m.jump(m.Stack.Pop())
		default:
			panic(IllegalInstruction)
		}
	case 0x1:
		m.jump(op.NNN())
	case 0x2:
		// Validate the target before touching the stack.
		checkJump(op.NNN())
		m.Stack.Push(m.PC)
		m.PC = op.NNN()
	case 0x3:
		m.skipIf(vx == op.NN())
	case 0x4:
		m.skipIf(vx != op.NN())
	case 0x5:
		if op.N() != 0 {
			panic(IllegalInstruction)
		}
		m.skipIf(vx == vy)
	case 0x6:
		m.V[x] = op.NN()
	case 0x7:
		m.V[x] += op.NN()
	case 0x8:
		m.execALU(op, x, vx, vy)
	case 0x9:
		if op.N() != 0 {
			panic(IllegalInstruction)
		}
		m.skipIf(vx != vy)
	case 0xa:
		m.I = op.NNN()
	case 0xb:
		base := m.V[0]
		if m.Quirks.JumpVX {
			base = vx
		}
		m.jump(op.NNN() + uint16(base))
	case 0xc:
		m.V[x] = byte(m.Rand.Intn(0x100)) & op.NN()
	case 0xd:
		sprite := m.span(m.I, int(op.N()))
		hit := m.Screen.DrawSprite(vx, vy, sprite, m.Quirks.WrapSprites)
		m.V[0xf] = flag(hit)
	case 0xe:
		switch op.NN() {
		case 0x9e:
			m.skipIf(m.Keys.Pressed(vx))
		case 0xa1:
			m.skipIf(!m.Keys.Pressed(vx))
		default:
			panic(IllegalInstruction)
		}
	case 0xf:
		m.execMisc(op, x, vx)
	}
}

// execALU executes the 8XYN register operations. Flags are written after
// the result, so VF as a destination holds the flag.
func (m *Machine) execALU(op Op, x, vx, vy byte) {
	switch op.N() {
	case 0x0:
		m.V[x] = vy
	case 0x1, 0x2, 0x3:
		switch op.N() {
		case 0x1:
			m.V[x] = vx | vy
		case 0x2:
			m.V[x] = vx & vy
		case 0x3:
			m.V[x] = vx ^ vy
		}
		if m.Quirks.ResetVF {
			m.V[0xf] = 0
		}
	case 0x4:
		sum := uint16(vx) + uint16(vy)
		m.V[x] = byte(sum)
		m.V[0xf] = flag(sum > 0xff)
	case 0x5:
		m.V[x] = vx - vy
		m.V[0xf] = flag(vx >= vy)
	case 0x6:
		src := vx
		if m.Quirks.ShiftVY {
			src = vy
		}
		m.V[x] = src >> 1
		m.V[0xf] = src & 0x01
	case 0x7:
		m.V[x] = vy - vx
		m.V[0xf] = flag(vy >= vx)
	case 0xe:
		src := vx
		if m.Quirks.ShiftVY {
			src = vy
		}
		m.V[x] = src << 1
		m.V[0xf] = src >> 7
	default:
		panic(IllegalInstruction)
	}
}

func (m *Machine) execMisc(op Op, x, vx byte) {
	switch op.NN() {
	case 0x07:
		m.V[x] = m.Timers.Delay()
	case 0x0a:
		m.state = AwaitingKey
		m.waitReg = x
		m.Keys.TakePresses()
	case 0x15:
		m.Timers.SetDelay(vx)
	case 0x18:
		m.Timers.SetSound(vx)
	case 0x1e:
		m.I += uint16(vx)
	case 0x29:
		m.I = GlyphAddr(vx)
	case 0x33:
		b := m.writable(m.I, 3)
		b[0], b[1], b[2] = vx/100, vx/10%10, vx%10
	case 0x55:
		copy(m.writable(m.I, int(x)+1), m.V[:x+1])
		if m.Quirks.IncrementI {
			m.I += uint16(x) + 1
		}
	case 0x65:
		copy(m.V[:x+1], m.span(m.I, int(x)+1))
		if m.Quirks.IncrementI {
			m.I += uint16(x) + 1
		}
	default:
		panic(IllegalInstruction)
	}
}

// pollKey completes a pending FX0A if a key has gone down since the
// wait began, even if it has been released again.
func (m *Machine) pollKey() {
	for k, pressed := range m.Keys.TakePresses() {
		if pressed {
			m.V[m.waitReg] = byte(k)
			m.state = Running
			return
		}
	}
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC += 2
	}
}

func (m *Machine) jump(addr uint16) {
	checkJump(addr)
	m.PC = addr
}

// checkJump halts unless addr is an even address in program memory.
func checkJump(addr uint16) {
	if addr < ProgramAddr || addr >= MemSize || addr&1 != 0 {
		panic(OutOfBounds)
	}
}

// span returns n bytes of memory starting at addr.
func (m *Machine) span(addr uint16, n int) []byte {
	if int(addr)+n > len(m.Mem) {
		panic(OutOfBounds)
	}
	return m.Mem[addr : int(addr)+n]
}

// writable is like span but also halts if the range touches the
// reserved interpreter area.
func (m *Machine) writable(addr uint16, n int) []byte {
	if addr < ProgramAddr {
		panic(OutOfBounds)
	}
	return m.span(addr, n)
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func short(hi, lo byte) uint16 {
	return uint16(hi)<<8 + uint16(lo)
}

// HaltError is returned by Step if execution is halted.
type HaltError struct {
	HaltCode
	Op   Op
	Addr uint16
}

func (e HaltError) Error() string {
	return fmt.Sprintf("%s executing %.4x (%s) at %.3x", e.HaltCode, uint16(e.Op), e.Op, e.Addr)
}

// Unwrap returns the halt code, so errors.Is(err, StackOverflow) works.
func (e HaltError) Unwrap() error { return e.HaltCode }

// HaltCode signifies the type of condition that halted execution.
type HaltCode byte

const (
	OutOfBounds        HaltCode = 0x01
	StackOverflow      HaltCode = 0x02
	StackUnderflow     HaltCode = 0x03
	IllegalInstruction HaltCode = 0x04
)

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		OutOfBounds:        "out of bounds access",
		StackOverflow:      "stack overflow",
		StackUnderflow:     "stack underflow",
		IllegalInstruction: "illegal instruction",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}

func (c HaltCode) Error() string { return c.String() }

var _ error = HaltError{}

// IsHalt reports whether err is a HaltError, returning it if so.
func IsHalt(err error) (HaltError, bool) {
	var h HaltError
	ok := errors.As(err, &h)
	return h, ok
}

package chip8

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewMachine(t *testing.T) {
	for _, c := range []struct {
		romSize int
		err     error
	}{
		{0x000, nil},
		{0x001, nil},
		{0xdff, nil},
		{0xe00, nil},
		{0xe01, ErrROMTooLarge},
	} {
		t.Run(fmt.Sprintf("%.3x", c.romSize), func(t *testing.T) {
			rom := make([]byte, c.romSize)
			for i := range rom {
				rom[i] = 1
			}
			m, err := NewMachine(rom, VIPQuirks)
			if err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if err != nil {
				return
			}
			if m.PC != ProgramAddr {
				t.Errorf("PC = %.3x, want %.3x", m.PC, ProgramAddr)
			}
			for i := range m.Mem {
				var w byte
				switch {
				case i >= FontAddr && i < FontAddr+len(font):
					w = font[i-FontAddr]
				case i >= ProgramAddr && i < ProgramAddr+c.romSize:
					w = 1
				}
				if g := m.Mem[i]; g != w {
					t.Fatalf("Mem[%.3x] == %.2x, want %.2x", i, g, w)
				}
			}
		})
	}
}

func TestExec(t *testing.T) {
	c := newExecTestCase
	full := make([]uint16, StackDepth)
	for i := range full {
		full[i] = 0x300 + uint16(i)*2
	}
	for i, c := range []*execTestCase{
		c(0x00ee).stack(0x204).want().pc(0x204),
		c(0x00ee).want().
			error(HaltError{HaltCode: StackUnderflow, Op: 0x00ee, Addr: 0x200}),

		c(0x1300).want().pc(0x300),
		c(0x1201).want().
			error(HaltError{HaltCode: OutOfBounds, Op: 0x1201, Addr: 0x200}),
		c(0x1100).want().
			error(HaltError{HaltCode: OutOfBounds, Op: 0x1100, Addr: 0x200}),

		c(0x2300).want().stack(0x202).pc(0x300),
		c(0x2300).stack(full...).want().stack(full...).
			error(HaltError{HaltCode: StackOverflow, Op: 0x2300, Addr: 0x200}),

		c(0x3a05).v(0xa, 5).want().v(0xa, 5).pc(0x204),
		c(0x3a05).v(0xa, 4).want().v(0xa, 4),
		c(0x4a05).v(0xa, 5).want().v(0xa, 5),
		c(0x4a05).v(0xa, 4).want().v(0xa, 4).pc(0x204),
		c(0x5ab0).v(0xa, 7).v(0xb, 7).want().v(0xa, 7).v(0xb, 7).pc(0x204),
		c(0x5ab0).v(0xa, 7).want().v(0xa, 7),
		c(0x5ab1).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0x5ab1, Addr: 0x200}),
		c(0x9ab0).v(0xa, 7).want().v(0xa, 7).pc(0x204),
		c(0x9ab0).want(),
		c(0x9ab1).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0x9ab1, Addr: 0x200}),

		c(0x6a05).want().v(0xa, 5),
		c(0x7a03).v(0xa, 5).want().v(0xa, 8),
		c(0x7aff).v(0xa, 2).v(0xf, 7).want().v(0xa, 1).v(0xf, 7),

		c(0x8ab0).v(0xb, 3).want().v(0xa, 3).v(0xb, 3),
		c(0x8ab1).v(0xa, 0x0f).v(0xb, 0xf0).v(0xf, 1).
			want().v(0xa, 0xff).v(0xb, 0xf0),
		c(0x8ab1).quirks(SCHIPQuirks).v(0xa, 0x0f).v(0xb, 0xf0).v(0xf, 1).
			want().v(0xa, 0xff).v(0xb, 0xf0).v(0xf, 1),
		c(0x8ab2).v(0xa, 0x3c).v(0xb, 0x0f).want().v(0xa, 0x0c).v(0xb, 0x0f),
		c(0x8ab3).v(0xa, 0x3c).v(0xb, 0x0f).want().v(0xa, 0x33).v(0xb, 0x0f),

		c(0x8ab4).v(0xa, 1).v(0xb, 2).want().v(0xa, 3).v(0xb, 2),
		c(0x8ab4).v(0xa, 0xff).v(0xb, 2).want().v(0xa, 1).v(0xb, 2).v(0xf, 1),
		c(0x8fb4).v(0xf, 0xff).v(0xb, 2).want().v(0xb, 2).v(0xf, 1),

		c(0x8ab5).v(0xa, 5).v(0xb, 3).want().v(0xa, 2).v(0xb, 3).v(0xf, 1),
		c(0x8ab5).v(0xa, 5).v(0xb, 5).want().v(0xb, 5).v(0xf, 1),
		c(0x8ab5).v(0xa, 3).v(0xb, 5).v(0xf, 1).want().v(0xa, 0xfe).v(0xb, 5),
		c(0x8ab7).v(0xa, 3).v(0xb, 5).want().v(0xa, 2).v(0xb, 5).v(0xf, 1),
		c(0x8ab7).v(0xa, 5).v(0xb, 3).v(0xf, 1).want().v(0xa, 0xfe).v(0xb, 3),

		c(0x8ab6).v(0xa, 0xff).v(0xb, 0x05).
			want().v(0xa, 0x02).v(0xb, 0x05).v(0xf, 1),
		c(0x8ab6).quirks(SCHIPQuirks).v(0xa, 0x04).v(0xb, 0x05).v(0xf, 1).
			want().v(0xa, 0x02).v(0xb, 0x05),
		c(0x8abe).v(0xb, 0x81).want().v(0xa, 0x02).v(0xb, 0x81).v(0xf, 1),
		c(0x8abe).quirks(SCHIPQuirks).v(0xa, 0x40).v(0xb, 0x81).v(0xf, 1).
			want().v(0xa, 0x80).v(0xb, 0x81),
		c(0x8ab8).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0x8ab8, Addr: 0x200}),

		c(0xa123).want().i(0x123),
		c(0xb300).v(0, 4).want().v(0, 4).pc(0x304),
		c(0xb310).quirks(SCHIPQuirks).v(0x3, 2).v(0, 8).
			want().v(0x3, 2).v(0, 8).pc(0x312),
		c(0xbfff).v(0, 4).want().v(0, 4).
			error(HaltError{HaltCode: OutOfBounds, Op: 0xbfff, Addr: 0x200}),

		c(0xea9e).v(0xa, 5).keys(5).want().v(0xa, 5).pc(0x204),
		c(0xea9e).v(0xa, 5).keys(4).want().v(0xa, 5),
		c(0xeaa1).v(0xa, 5).keys(4).want().v(0xa, 5).pc(0x204),
		c(0xeaa1).v(0xa, 5).keys(5).want().v(0xa, 5),
		c(0xea00).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0xea00, Addr: 0x200}),

		c(0xfa07).delay(9).want().delay(9).v(0xa, 9),
		c(0xfa15).v(0xa, 7).want().v(0xa, 7).delay(7),
		c(0xfa18).v(0xa, 7).want().v(0xa, 7).sound(7),
		c(0xfa1e).i(0x300).v(0xa, 2).want().v(0xa, 2).i(0x302),
		c(0xfa29).v(0xa, 0xb).want().v(0xa, 0xb).i(FontAddr + 0xb*5),
		c(0xfa29).v(0xa, 0x1b).want().v(0xa, 0x1b).i(FontAddr + 0xb*5),
		c(0xfa33).i(0x300).v(0xa, 123).want().v(0xa, 123).i(0x300).mem(0x300, 1, 2, 3),
		c(0xfa33).i(0x300).v(0xa, 7).want().v(0xa, 7).i(0x300).mem(0x300, 0, 0, 7),
		c(0xfa33).i(0x100).want().i(0x100).
			error(HaltError{HaltCode: OutOfBounds, Op: 0xfa33, Addr: 0x200}),
		c(0xfa33).i(0xffe).want().i(0xffe).
			error(HaltError{HaltCode: OutOfBounds, Op: 0xfa33, Addr: 0x200}),

		c(0xf255).i(0x300).v(0, 1).v(1, 2).v(2, 3).
			want().v(0, 1).v(1, 2).v(2, 3).i(0x303).mem(0x300, 1, 2, 3),
		c(0xf255).quirks(SCHIPQuirks).i(0x300).v(0, 1).v(1, 2).v(2, 3).
			want().v(0, 1).v(1, 2).v(2, 3).i(0x300).mem(0x300, 1, 2, 3),
		c(0xf265).i(0x300).mem(0x300, 4, 5, 6, 7).
			want().v(0, 4).v(1, 5).v(2, 6).i(0x303),
		c(0xfa65).i(0xffe).want().i(0xffe).
			error(HaltError{HaltCode: OutOfBounds, Op: 0xfa65, Addr: 0x200}),
		c(0xfa55).i(0x1f0).want().i(0x1f0).
			error(HaltError{HaltCode: OutOfBounds, Op: 0xfa55, Addr: 0x200}),

		c(0xffff).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0xffff, Addr: 0x200}),
		c(0x0123).want().
			error(HaltError{HaltCode: IllegalInstruction, Op: 0x0123, Addr: 0x200}),
	} {
		t.Run(fmt.Sprintf("%.4x_%d", uint16(c.op), i), func(t *testing.T) {
			if err := c.m.Step(); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if g, w := c.m.V, c.w.V; g != w {
				t.Errorf("V is\n\t% x\nwant\n\t% x", g, w)
			}
			if g, w := c.m.I, c.w.I; g != w {
				t.Errorf("I is %.3x, want %.3x", g, w)
			}
			if g, w := c.m.PC, c.w.PC; g != w {
				t.Errorf("PC is %.3x, want %.3x", g, w)
			}
			if g, w := c.m.Stack, c.w.Stack; g != w {
				t.Errorf("stack is %v (%x), want %v (%x)", g, g.Addrs, w, w.Addrs)
			}
			if g, w := c.m.Timers.Delay(), c.w.Timers.Delay(); g != w {
				t.Errorf("delay timer is %d, want %d", g, w)
			}
			if g, w := c.m.Timers.Sound(), c.w.Timers.Sound(); g != w {
				t.Errorf("sound timer is %d, want %d", g, w)
			}
			if g, w := c.m.Mem, c.w.Mem; g != w {
				for i := range g {
					if g[i] != w[i] {
						t.Errorf("memory[%.3x] = %.2x, want %.2x", i, g[i], w[i])
					}
				}
			}
		})
	}
}

func TestHaltIsSticky(t *testing.T) {
	m := newMachine(t, 0x00ee, 0x6a05)
	err := m.Step()
	if !errors.Is(err, StackUnderflow) {
		t.Fatalf("got error %v, want stack underflow", err)
	}
	if m.State() != Halted {
		t.Errorf("state is %v, want %v", m.State(), Halted)
	}
	if err2 := m.Step(); err2 != err {
		t.Errorf("second Step returned %v, want %v", err2, err)
	}
	if m.V[0xa] != 0 {
		t.Errorf("VA = %d after halt, want 0", m.V[0xa])
	}
	if h, ok := IsHalt(err); !ok || h.Addr != 0x200 {
		t.Errorf("IsHalt(%v) = %v, %v", err, h, ok)
	}
}

func TestFetchOutOfBounds(t *testing.T) {
	m := newMachine(t)
	m.PC = MemSize - 1
	err := m.Step()
	if h, ok := IsHalt(err); !ok || h.HaltCode != OutOfBounds || h.Addr != MemSize-1 {
		t.Fatalf("got error %v, want out of bounds at %.3x", err, MemSize-1)
	}

	// Falling off the end of memory halts in the step that does it,
	// so PC never holds MemSize after a successful step.
	for _, c := range []struct {
		pc       uint16
		op       uint16
		v0       byte
		wantHalt bool
	}{
		{MemSize - 2, 0x6a01, 0, true},  // any instruction in the last slot
		{MemSize - 2, 0x1300, 0, false}, // unless it jumps back
		{MemSize - 4, 0x3000, 0, true},  // skip over the last slot
		{MemSize - 4, 0x3000, 1, false}, // skip not taken
	} {
		m = newMachine(t)
		m.PC = c.pc
		m.V[0] = c.v0
		m.Mem[c.pc], m.Mem[c.pc+1] = byte(c.op>>8), byte(c.op)
		err := m.Step()
		if !c.wantHalt {
			if err != nil {
				t.Errorf("%.4x at %.3x: %v", c.op, c.pc, err)
			}
			continue
		}
		if h, ok := IsHalt(err); !ok || h.HaltCode != OutOfBounds || h.Addr != c.pc || h.Op != Op(c.op) {
			t.Errorf("%.4x at %.3x: got error %v, want out of bounds", c.op, c.pc, err)
		}
	}
}

func TestRandom(t *testing.T) {
	m := newMachine(t, 0xca0f, 0xca0f, 0xca0f, 0xca0f)
	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
		if v := m.V[0xa]; v&0xf0 != 0 {
			t.Fatalf("VA = %.2x, want high nibble masked", v)
		}
	}
}

type execTestCase struct {
	op   Op
	m, w *Machine
	err  error
	set  *Machine
}

func newExecTestCase(op uint16) *execTestCase {
	c := &execTestCase{op: Op(op)}
	rom := []byte{byte(op >> 8), byte(op)}
	c.m, _ = NewMachine(rom, VIPQuirks)
	c.w, _ = NewMachine(rom, VIPQuirks)
	c.w.PC += 2
	c.set = c.m
	return c
}

func (c *execTestCase) v(reg, val byte) *execTestCase {
	c.set.V[reg] = val
	return c
}

func (c *execTestCase) i(addr uint16) *execTestCase {
	c.set.I = addr
	return c
}

func (c *execTestCase) pc(addr uint16) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) stack(addrs ...uint16) *execTestCase {
	c.set.Stack = Stack{}
	for _, a := range addrs {
		c.set.Stack.Push(a)
	}
	return c
}

func (c *execTestCase) mem(addr uint16, bytes ...byte) *execTestCase {
	copy(c.set.Mem[addr:], bytes)
	if c.set == c.m {
		copy(c.w.Mem[addr:], bytes)
	}
	return c
}

func (c *execTestCase) delay(v byte) *execTestCase {
	c.set.Timers.SetDelay(v)
	return c
}

func (c *execTestCase) sound(v byte) *execTestCase {
	c.set.Timers.SetSound(v)
	return c
}

func (c *execTestCase) keys(keys ...byte) *execTestCase {
	for _, k := range keys {
		c.set.Keys.Set(k, true)
	}
	return c
}

func (c *execTestCase) quirks(q Quirks) *execTestCase {
	c.m.Quirks = q
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

func newMachine(t *testing.T, ops ...uint16) *Machine {
	t.Helper()
	var rom []byte
	for _, op := range ops {
		rom = append(rom, byte(op>>8), byte(op))
	}
	m, err := NewMachine(rom, VIPQuirks)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

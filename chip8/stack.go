package chip8

import (
	"fmt"
	"strings"
)

// StackDepth is the number of return addresses the call stack can hold.
const StackDepth = 16

// Stack implements the CHIP-8 call stack.
type Stack struct {
	Addrs [StackDepth]uint16
	Ptr   byte
}

// Push pushes a return address onto the stack,
// halting with StackOverflow if the stack is full.
func (s *Stack) Push(addr uint16) {
	if int(s.Ptr) == StackDepth {
		panic(StackOverflow)
	}
	s.Addrs[s.Ptr] = addr
	s.Ptr++
}

// Pop pops a return address from the stack,
// halting with StackUnderflow if the stack is empty.
func (s *Stack) Pop() uint16 {
	if s.Ptr == 0 {
		panic(StackUnderflow)
	}
	s.Ptr--
	addr := s.Addrs[s.Ptr]
	s.Addrs[s.Ptr] = 0
	return addr
}

// Depth returns the number of addresses on the stack.
func (s *Stack) Depth() int { return int(s.Ptr) }

func (s Stack) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, v := range s.Addrs[:s.Ptr] {
		fmt.Fprintf(&b, " %.3x", v)
	}
	b.WriteString(" )")
	return b.String()
}

package vip

import (
	"time"
	"unicode"

	"github.com/nf/c8/chip8"
)

// keymap maps the left-hand block of a QWERTY keyboard onto the VIP's
// hexadecimal keypad:
//
//	1 2 3 4      1 2 3 C
//	q w e r  ->  4 5 6 D
//	a s d f      7 8 9 E
//	z x c v      A 0 B F
var keymap = map[rune]byte{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// KeyFor returns the keypad key for a keyboard rune.
func KeyFor(r rune) (byte, bool) {
	k, ok := keymap[unicode.ToLower(r)]
	return k, ok
}

// DefaultKeyHold is how long a key stays down after the last press event.
const DefaultKeyHold = 150 * time.Millisecond

// keyHolder turns the press-only key events delivered by terminals into
// down and up transitions: a key is released once hold has elapsed
// without another press (auto-repeat keeps held keys down).
type keyHolder struct {
	keys *chip8.Keypad
	hold time.Duration
	last [16]time.Time
	down [16]bool
}

func (h *keyHolder) Press(k byte, now time.Time) {
	k &= 0xf
	h.last[k] = now
	if !h.down[k] {
		h.down[k] = true
		h.keys.Set(k, true)
	}
}

// Expire releases the keys whose hold time has elapsed at now.
func (h *keyHolder) Expire(now time.Time) {
	for k := range h.down {
		if h.down[k] && now.Sub(h.last[k]) >= h.hold {
			h.down[k] = false
			h.keys.Set(byte(k), false)
		}
	}
}

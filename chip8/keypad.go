package chip8

import "sync"

// Keypad holds the state of the 16-key hexadecimal keypad.
// The input adapter is its only writer; the interpreter only reads it.
type Keypad struct {
	// Ready receives a value whenever a key goes down.
	Ready <-chan bool

	mu      sync.Mutex
	keys    [16]bool
	presses [16]bool // down transitions not yet taken
	ready   chan bool
}

// NewKeypad returns a keypad with every key up.
func NewKeypad() *Keypad {
	ready := make(chan bool, 1)
	return &Keypad{Ready: ready, ready: ready}
}

// Set records key k (0x0-0xf) as down or up.
func (k *Keypad) Set(key byte, down bool) {
	key &= 0xf
	k.mu.Lock()
	changed := k.keys[key] != down
	k.keys[key] = down
	if changed && down {
		k.presses[key] = true
	}
	k.mu.Unlock()
	if changed && down {
		k.updated()
	}
}

// Pressed reports whether key k (only its low nibble is used) is down.
func (k *Keypad) Pressed(key byte) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[key&0xf]
}

// State returns the state of all 16 keys.
func (k *Keypad) State() [16]bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys
}

// TakePresses returns the keys that went down since the previous call,
// including those released again since, and forgets them.
func (k *Keypad) TakePresses() [16]bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	p := k.presses
	k.presses = [16]bool{}
	return p
}

// Release marks every key as up.
func (k *Keypad) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = [16]bool{}
}

func (k *Keypad) updated() {
	select {
	case k.ready <- true:
	default:
	}
}

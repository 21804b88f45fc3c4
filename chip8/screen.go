package chip8

import (
	"image"
	"image/color"
	"strings"
	"sync"
)

// Display dimensions in pixels.
const (
	Width  = 64
	Height = 32
)

// Frame is a copy of the display contents. Each pixel is 0 or 1.
type Frame [Height][Width]byte

// Palette maps pixel values to colors: 0 is off, 1 is on.
var Palette = color.Palette{color.Black, color.White}

// Image returns the frame as a paletted image using Palette.
func (f *Frame) Image() *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, Width, Height), Palette)
	for y := range f {
		copy(m.Pix[y*m.Stride:], f[y][:])
	}
	return m
}

// String renders the frame as text, one line per row,
// using '#' for lit pixels and '.' for dark ones.
func (f *Frame) String() string {
	var b strings.Builder
	b.Grow((Width + 1) * Height)
	for y := range f {
		for _, px := range f[y] {
			if px != 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Screen is the monochrome framebuffer. The interpreter is its only
// writer; display adapters read it through Snapshot.
type Screen struct {
	mu  sync.RWMutex
	px  Frame
	ops int // total count of clear and draw operations
}

// Clear turns every pixel off.
func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.px = Frame{}
	s.ops++
}

// DrawSprite XORs the sprite rows onto the screen with its top-left corner
// at (x mod Width, y mod Height). Each row is 8 pixels wide, most
// significant bit leftmost. Pixels falling off the right or bottom edge
// wrap around if wrap is set and are clipped otherwise. DrawSprite reports
// whether any lit pixel was turned off.
func (s *Screen) DrawSprite(x, y byte, sprite []byte, wrap bool) (collision bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x0, y0 := int(x)%Width, int(y)%Height
	for r, row := range sprite {
		py := y0 + r
		if py >= Height {
			if !wrap {
				break
			}
			py %= Height
		}
		for c := 0; c < 8; c++ {
			px := x0 + c
			if px >= Width {
				if !wrap {
					break
				}
				px %= Width
			}
			if row&(0x80>>c) == 0 {
				continue
			}
			if s.px[py][px] == 1 {
				collision = true
			}
			s.px[py][px] ^= 1
		}
	}
	s.ops++
	return collision
}

// Pixel returns the value of the pixel at (x, y).
func (s *Screen) Pixel(x, y int) byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.px[y][x]
}

// Snapshot returns a copy of the display contents together with the
// number of operations applied so far, which readers can compare to
// decide whether anything changed since their last snapshot.
func (s *Screen) Snapshot() (f Frame, ops int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.px, s.ops
}

package chip8

import "fmt"

// Op represents a CHIP-8 instruction word.
type Op uint16

// Kind returns the high nibble of the instruction.
func (o Op) Kind() byte { return byte(o >> 12) }

// X returns the first register operand (0X00).
func (o Op) X() byte { return byte(o>>8) & 0xf }

// Y returns the second register operand (00Y0).
func (o Op) Y() byte { return byte(o>>4) & 0xf }

// N returns the low nibble (000N).
func (o Op) N() byte { return byte(o) & 0xf }

// NN returns the low byte (00NN).
func (o Op) NN() byte { return byte(o) }

// NNN returns the address operand (0NNN).
func (o Op) NNN() uint16 { return uint16(o) & 0xfff }

// Valid reports whether o decodes to one of the 35 supported instructions.
func (o Op) Valid() bool { return o.Mnemonic() != "" }

// Mnemonic returns the assembler name of the instruction,
// or the empty string if o is not a valid instruction.
func (o Op) Mnemonic() string {
	switch o.Kind() {
	case 0x0:
		switch o {
		case 0x00e0:
			return "CLS"
		case 0x00ee:
			return "RET"
		}
	case 0x1, 0xb:
		return "JP"
	case 0x2:
		return "CALL"
	case 0x3:
		return "SE"
	case 0x4:
		return "SNE"
	case 0x5:
		if o.N() == 0 {
			return "SE"
		}
	case 0x6, 0xa:
		return "LD"
	case 0x7:
		return "ADD"
	case 0x8:
		if m, ok := aluMnemonics[o.N()]; ok {
			return m
		}
	case 0x9:
		if o.N() == 0 {
			return "SNE"
		}
	case 0xc:
		return "RND"
	case 0xd:
		return "DRW"
	case 0xe:
		switch o.NN() {
		case 0x9e:
			return "SKP"
		case 0xa1:
			return "SKNP"
		}
	case 0xf:
		switch o.NN() {
		case 0x07, 0x0a, 0x15, 0x18, 0x29, 0x33, 0x55, 0x65:
			return "LD"
		case 0x1e:
			return "ADD"
		}
	}
	return ""
}

var aluMnemonics = map[byte]string{
	0x0: "LD",
	0x1: "OR",
	0x2: "AND",
	0x3: "XOR",
	0x4: "ADD",
	0x5: "SUB",
	0x6: "SHR",
	0x7: "SUBN",
	0xe: "SHL",
}

// String returns the instruction in assembler form, for example
// "DRW V0, V1, 5". Invalid instructions are printed as a data word.
func (o Op) String() string {
	m := o.Mnemonic()
	if m == "" {
		return fmt.Sprintf("DW $%.4X", uint16(o))
	}
	x, y := o.X(), o.Y()
	switch o.Kind() {
	case 0x0:
		return m
	case 0x1, 0x2:
		return fmt.Sprintf("%s $%.3X", m, o.NNN())
	case 0x3, 0x4, 0x6, 0x7:
		return fmt.Sprintf("%s V%X, $%.2X", m, x, o.NN())
	case 0x5, 0x9:
		return fmt.Sprintf("%s V%X, V%X", m, x, y)
	case 0x8:
		switch o.N() {
		case 0x6, 0xe:
			return fmt.Sprintf("%s V%X {, V%X}", m, x, y)
		}
		return fmt.Sprintf("%s V%X, V%X", m, x, y)
	case 0xa:
		return fmt.Sprintf("%s I, $%.3X", m, o.NNN())
	case 0xb:
		return fmt.Sprintf("%s V0, $%.3X", m, o.NNN())
	case 0xc:
		return fmt.Sprintf("%s V%X, $%.2X", m, x, o.NN())
	case 0xd:
		return fmt.Sprintf("%s V%X, V%X, %d", m, x, y, o.N())
	case 0xe:
		return fmt.Sprintf("%s V%X", m, x)
	}
	switch o.NN() {
	case 0x07:
		return fmt.Sprintf("LD V%X, DT", x)
	case 0x0a:
		return fmt.Sprintf("LD V%X, K", x)
	case 0x15:
		return fmt.Sprintf("LD DT, V%X", x)
	case 0x18:
		return fmt.Sprintf("LD ST, V%X", x)
	case 0x1e:
		return fmt.Sprintf("ADD I, V%X", x)
	case 0x29:
		return fmt.Sprintf("LD F, V%X", x)
	case 0x33:
		return fmt.Sprintf("LD B, V%X", x)
	case 0x55:
		return fmt.Sprintf("LD [I], V%X", x)
	default: // 0x65
		return fmt.Sprintf("LD V%X, [I]", x)
	}
}

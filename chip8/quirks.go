package chip8

import "fmt"

// Quirks selects between the behaviours of historical CHIP-8 interpreters
// where they disagree.
type Quirks struct {
	// ShiftVY makes 8XY6 and 8XYE shift VY into VX, as the COSMAC VIP
	// interpreter did. When false VX is shifted in place (CHIP-48, SCHIP).
	ShiftVY bool

	// IncrementI makes FX55 and FX65 leave I pointing past the last
	// register transferred (COSMAC VIP). When false I is unchanged.
	IncrementI bool

	// ResetVF makes 8XY1, 8XY2 and 8XY3 clear VF (COSMAC VIP).
	ResetVF bool

	// JumpVX makes BXNN jump to XNN + VX instead of NNN + V0 (SCHIP).
	JumpVX bool

	// WrapSprites makes sprite pixels that fall off the right or bottom
	// edge reappear on the opposite edge instead of being clipped.
	// The starting position always wraps.
	WrapSprites bool
}

var (
	// VIPQuirks matches the original COSMAC VIP interpreter.
	VIPQuirks = Quirks{ShiftVY: true, IncrementI: true, ResetVF: true}

	// SCHIPQuirks matches SUPER-CHIP 1.1 on the HP48.
	SCHIPQuirks = Quirks{JumpVX: true}
)

// ParseQuirks returns the preset with the given name, "vip" or "schip".
func ParseQuirks(name string) (Quirks, error) {
	switch name {
	case "vip", "":
		return VIPQuirks, nil
	case "schip":
		return SCHIPQuirks, nil
	}
	return Quirks{}, fmt.Errorf("unknown quirks preset %q (want vip or schip)", name)
}

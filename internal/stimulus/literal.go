package stimulus

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Mode selects how data input values are generated
type Mode string

const (
	// Random draws width-masked values from a seeded generator.
	Random Mode = "random"
	// Vectors cycles through all-ones, 1010..., 0101... and zero.
	Vectors Mode = "vectors"
)

const hexDigits = "0123456789abcdef"

// valueSource produces sized literals masked to a signal width
type valueSource struct {
	mode Mode
	rng  *rand.Rand
}

func newValueSource(mode Mode, seed uint64) *valueSource {
	return &valueSource{
		mode: mode,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// next returns the literal for the round-th vector of a width-bit signal
func (v *valueSource) next(width, round int) string {
	digits := make([]byte, hexWidth(width))
	for i := range digits {
		switch v.mode {
		case Vectors:
			digits[i] = "fa50"[round%4]
		default:
			digits[i] = hexDigits[v.rng.IntN(16)]
		}
	}
	return sized(width, digits)
}

// Zero returns the all-zero literal of the given width
func Zero(width int) string {
	return Fill(width, '0')
}

// Fill returns a literal of the given width with every hex digit set to
// digit, masked to the width
func Fill(width int, digit byte) string {
	return sized(width, []byte(strings.Repeat(string(digit), hexWidth(width))))
}

// sized masks the most significant digit to width and formats a sized
// literal. Single-bit values use binary notation.
func sized(width int, digits []byte) string {
	if width < 1 {
		width = 1
	}
	top := width - 4*(len(digits)-1)
	mask := byte(1<<top - 1)
	digits[0] = hexDigits[hexValue(digits[0])&mask]
	if width == 1 {
		return fmt.Sprintf("1'b%c", digits[0])
	}
	return fmt.Sprintf("%d'h%s", width, digits)
}

func hexWidth(width int) int {
	if width < 1 {
		return 1
	}
	return (width + 3) / 4
}

func hexValue(c byte) byte {
	return byte(strings.IndexByte(hexDigits, c))
}

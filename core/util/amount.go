package util

import (
	"math"

	"github.com/pkg/errors"
)

// ErrAmountOutOfBounds is returned when checked u64 arithmetic overflows.
// It mirrors the out-of-bounds failures the on-chain program raises, so a
// local computation never silently diverges from the program by wrapping.
var ErrAmountOutOfBounds = errors.New("amount out of bounds")

// CheckedAdd returns a + b or ErrAmountOutOfBounds on overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrAmountOutOfBounds
	}
	return a + b, nil
}

// CheckedMul returns a * b or ErrAmountOutOfBounds on overflow.
func CheckedMul(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, ErrAmountOutOfBounds
	}
	return a * b, nil
}

// SaturatingSub returns a - b, or 0 if b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// MinU64 returns the smaller of a and b.
func MinU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

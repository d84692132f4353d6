// Package math32 provides float32 scalar helpers for geometry kernels.
// This is an internal package - external users should use the box package.
package math32

import "math"

// Sqrt returns the square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Round returns the nearest integer to x, rounding half away from zero.
func Round(x float32) float32 {
	return float32(math.Round(float64(x)))
}

// Abs returns the absolute value of x.
func Abs(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

// Min returns the smaller of a and b.
func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// IsNaN reports whether x is a "not-a-number" value.
func IsNaN(x float32) bool {
	return x != x
}

package common

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SilenceFloorDB is the level reported for zero or near-zero signals.
const SilenceFloorDB = -100.0

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// AmplitudeToDB converts a linear amplitude to decibels relative to full
// scale, clamped at SilenceFloorDB so that silence stays finite.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude < 1e-10 {
		return SilenceFloorDB
	}

	db := 20.0 * math.Log10(amplitude)
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopulationStdDev calculates the population (ddof=0) standard deviation
func PopulationStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// Range returns max - min of the slice
func Range(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data) - floats.Min(data)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is not positive
func CoefficientOfVariation(data []float64) float64 {
	mean := Mean(data)
	if mean <= 0 {
		return 0.0
	}
	return PopulationStdDev(data) / mean
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

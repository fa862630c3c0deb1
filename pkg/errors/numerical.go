package errors

import (
	"math"
)

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckMatrix checks all values in a matrix for NaN or Inf and reports
// the first offending row.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	for i := 0; i < rows; i++ {
		var unstable []float64
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				unstable = append(unstable, v)
			}
		}
		if len(unstable) > 0 {
			return NewNumericalInstabilityError(operation, unstable, iteration)
		}
	}
	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 0 if denominator is zero or close to zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}

// LogEpsilon is the lower clip used by StabilizeLog.
const LogEpsilon = 1e-12

// StabilizeLog computes log with protection against log(0).
// Values are clipped to [LogEpsilon, 1], so the result is never positive
// for a probability input.
func StabilizeLog(value float64) float64 {
	if value < LogEpsilon {
		return math.Log(LogEpsilon)
	}
	if value > 1 {
		return 0
	}
	return math.Log(value)
}

// Softmax overwrites row with softmax(row). The row max is subtracted
// before exponentiating so large logits do not overflow.
// A +Inf logit takes the whole mass, shared equally among all +Inf entries.
func Softmax(row []float64) {
	if len(row) == 0 {
		return
	}
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(maxVal, 1) {
		count := 0
		for _, v := range row {
			if math.IsInf(v, 1) {
				count++
			}
		}
		share := 1 / float64(count)
		for i, v := range row {
			if math.IsInf(v, 1) {
				row[i] = share
			} else {
				row[i] = 0
			}
		}
		return
	}
	sum := 0.0
	for i, v := range row {
		e := math.Exp(v - maxVal)
		row[i] = e
		sum += e
	}
	for i := range row {
		row[i] /= sum
	}
}

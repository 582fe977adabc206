package nn

import (
	"fmt"
	"math"
)

// AggregationFunc combines a node's weighted inputs into one value before the
// activation function is applied.
type AggregationFunc func(values []float64) float64

// AggregationFunctions maps symbolic names to aggregation functions.
var AggregationFunctions = map[string]AggregationFunc{
	"sum":     SumAggregation,
	"product": ProductAggregation,
	"mean":    MeanAggregation,
	"max":     MaxAggregation,
	"min":     MinAggregation,
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationFunc, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// SumAggregation adds all inputs.
func SumAggregation(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// ProductAggregation multiplies all inputs. Empty input yields 1.
func ProductAggregation(values []float64) float64 {
	product := 1.0
	for _, v := range values {
		product *= v
	}
	return product
}

// MeanAggregation averages all inputs. Empty input yields 0.
func MeanAggregation(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return SumAggregation(values) / float64(len(values))
}

// MaxAggregation returns the largest input, or 0 for empty input.
func MaxAggregation(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	maxVal := values[0]
	for _, v := range values[1:] {
		maxVal = math.Max(maxVal, v)
	}
	return maxVal
}

// MinAggregation returns the smallest input, or 0 for empty input.
func MinAggregation(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	minVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
	}
	return minVal
}

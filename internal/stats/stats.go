// Package stats provides the absent-tolerant arithmetic shared by the
// aggregation and scoring stages. Absent values are nil pointers, never NaN
// or zero sentinels.
package stats

// WeightedMean computes the weighted mean over the pairs whose value is
// present, Σ(v·w)/Σ(w). Pairs with a nil value are dropped along with their
// weight, so the remaining weights implicitly rescale; they are never
// renormalized against the full table. Returns nil when every value is
// absent. values and weights must have equal length.
func WeightedMean(values []*float64, weights []float64) *float64 {
	if len(values) != len(weights) {
		panic("stats: values and weights length mismatch")
	}
	var total, totalWeight float64
	for i, v := range values {
		if v == nil {
			continue
		}
		total += *v * weights[i]
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return nil
	}
	return F(total / totalWeight)
}

// Mean computes the unweighted mean of the present values, nil if none are.
func Mean(values []*float64) *float64 {
	var total float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		total += *v
		n++
	}
	if n == 0 {
		return nil
	}
	return F(total / float64(n))
}

// Ratio returns num/den, or nil when the denominator is zero. Rate
// computations guard their denominators through this instead of checking
// inline.
func Ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	return F(float64(num) / float64(den))
}

// Clamp01 clamps x into [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// F returns a pointer to v. Feature rows and tests build optional values
// through this.
func F(v float64) *float64 {
	return &v
}

// Scale multiplies a present value by k, passing nil through.
func Scale(v *float64, k float64) *float64 {
	if v == nil {
		return nil
	}
	return F(*v * k)
}

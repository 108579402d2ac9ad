// package mle implements the engine's multilinear-polynomial layer:
// dense multilinear extensions over the scalar field, evaluation-vector
// construction, univariate interpolation, and composite
// (sum-of-products) polynomials used as the sumcheck input.
package mle

import "github.com/spaceandtimelabs/provsql/scalar"

// ComputeEvaluationVector fills v (len(v) must be a power of two, <= 2^len(r))
// with v[i] = prod_{k: i_k=1} r_k * prod_{k: i_k=0} (1-r_k). For any
// dense MLE f over 2^nu points with evaluations a,
// <a, v> = f(r).
func ComputeEvaluationVector(v []scalar.S, r []scalar.S) {
	if len(v) == 0 {
		return
	}
	v[0] = scalar.One()
	size := 1
	for _, ri := range r {
		oneMinus := scalar.One().Sub(ri)
		for i := size - 1; i >= 0; i-- {
			if i+size >= len(v) {
				continue
			}
			v[i+size] = v[i].Mul(ri)
			v[i] = v[i].Mul(oneMinus)
		}
		size *= 2
		if size >= len(v) {
			break
		}
	}
	for i := size; i < len(v); i++ {
		v[i] = scalar.Zero()
	}
}

// EvaluationVector is a convenience wrapper returning a freshly allocated
// vector of length 1<<len(r).
func EvaluationVector(r []scalar.S) []scalar.S {
	v := make([]scalar.S, 1<<uint(len(r)))
	ComputeEvaluationVector(v, r)
	return v
}

// InnerProduct computes sum_i a[i]*b[i]; both slices must have equal
// length (the caller pads the shorter side with the column's encoding
// zero-extension used for commitments).
func InnerProduct(a, b []scalar.S) scalar.S {
	sum := scalar.Zero()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

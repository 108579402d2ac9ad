package mle

import "github.com/spaceandtimelabs/provsql/scalar"

// InterpolateUniPoly evaluates at x the unique degree-len(evals)-1
// univariate polynomial whose values at 0,1,...,len(evals)-1 are evals,
// via barycentric interpolation.
func InterpolateUniPoly(evals []scalar.S, x scalar.S) scalar.S {
	n := len(evals)
	if n == 0 {
		return scalar.Zero()
	}
	if n == 1 {
		return evals[0]
	}

	// Check for an exact hit at an integer node to avoid dividing by zero.
	for i := 0; i < n; i++ {
		if x.Equal(scalar.FromInt64(int64(i))) {
			return evals[i]
		}
	}

	// w_i = 1 / prod_{j != i} (i - j), each computed as a direct product
	// over the other nodes.
	weights := barycentricWeights(n)

	// numerator = prod_i (x - i)
	numerator := scalar.One()
	for i := 0; i < n; i++ {
		numerator = numerator.Mul(x.Sub(scalar.FromInt64(int64(i))))
	}

	sum := scalar.Zero()
	for i := 0; i < n; i++ {
		denom := x.Sub(scalar.FromInt64(int64(i)))
		term := evals[i].Mul(weights[i]).Mul(denom.Inverse())
		sum = sum.Add(term)
	}
	return numerator.Mul(sum)
}

// barycentricWeights computes w_i = 1 / prod_{j != i} (i - j) for nodes
// 0, 1, ..., n-1.
func barycentricWeights(n int) []scalar.S {
	w := make([]scalar.S, n)
	for i := 0; i < n; i++ {
		prod := scalar.One()
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			prod = prod.Mul(scalar.FromInt64(int64(i - j)))
		}
		w[i] = prod.Inverse()
	}
	return w
}

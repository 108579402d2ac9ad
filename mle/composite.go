package mle

import "github.com/spaceandtimelabs/provsql/scalar"

// Product is one term c_j * prod_k mle_{jk} of a CompositePolynomial,
// referencing shared MLE handles by index into the polynomial's Flattened
// list.
type Product struct {
	Coefficient scalar.S
	MLEIndices  []int
}

// Degree returns the number of factors in the product, i.e. its degree as
// a polynomial in any single variable.
func (p Product) Degree() int { return len(p.MLEIndices) }

// CompositePolynomial is a sum of products over shared MLE handles with a
// declared max degree d, the input to the sumcheck subprotocol.
type CompositePolynomial struct {
	NumVars   int
	MaxDegree int
	Flattened []*Dense
	Products  []Product

	handleIndex map[*Dense]int
}

// NewCompositePolynomial creates an empty composite over nu variables.
// MaxDegree starts at 1 so a product-free polynomial still emits the two
// round evaluations the sumcheck verifier's g(0)+g(1) check reads.
func NewCompositePolynomial(numVars int) *CompositePolynomial {
	return &CompositePolynomial{
		NumVars:     numVars,
		MaxDegree:   1,
		handleIndex: make(map[*Dense]int),
	}
}

// AddProduct registers a product coeff * prod(mles), reusing handle
// indices for MLEs already referenced by an earlier product so that
// FixVariable only folds each distinct MLE once per round.
func (c *CompositePolynomial) AddProduct(coeff scalar.S, mles []*Dense) {
	indices := make([]int, len(mles))
	for i, m := range mles {
		if idx, ok := c.handleIndex[m]; ok {
			indices[i] = idx
			continue
		}
		idx := len(c.Flattened)
		c.Flattened = append(c.Flattened, m)
		c.handleIndex[m] = idx
		indices[i] = idx
	}
	if len(mles) > c.MaxDegree {
		c.MaxDegree = len(mles)
	}
	c.Products = append(c.Products, Product{Coefficient: coeff, MLEIndices: indices})
}

// roundSize returns the current (post-fold) evaluation-table length shared
// by every live MLE.
func (c *CompositePolynomial) roundSize() int {
	if len(c.Flattened) == 0 {
		return 1 << uint(c.NumVars)
	}
	return len(c.Flattened[0].Evals)
}

// EvaluateRoundPoly computes g_i(t) = sum_b g(r_1,...,r_{i-1}, t, b) for
// t = 0, 1, ..., MaxDegree, the d+1 evaluations the sumcheck prover appends
// to the transcript each round.
func (c *CompositePolynomial) EvaluateRoundPoly() []scalar.S {
	half := c.roundSize() / 2
	out := make([]scalar.S, c.MaxDegree+1)
	for t := 0; t <= c.MaxDegree; t++ {
		tScalar := scalar.FromInt64(int64(t))
		oneMinusT := scalar.One().Sub(tScalar)
		total := scalar.Zero()
		for _, prod := range c.Products {
			sum := scalar.Zero()
			for b := 0; b < half; b++ {
				term := scalar.One()
				for _, idx := range prod.MLEIndices {
					mle := c.Flattened[idx]
					lo := mle.Evals[2*b]
					hi := mle.Evals[2*b+1]
					val := lo.Mul(oneMinusT).Add(hi.Mul(tScalar))
					term = term.Mul(val)
				}
				sum = sum.Add(term)
			}
			total = total.Add(prod.Coefficient.Mul(sum))
		}
		out[t] = total
	}
	return out
}

// FixVariable folds every distinct MLE referenced by this polynomial at r,
// advancing to the next sumcheck round.
func (c *CompositePolynomial) FixVariable(r scalar.S) {
	for _, m := range c.Flattened {
		m.FixVariable(r)
	}
	c.NumVars--
}

// Evaluate returns sum_j c_j * prod_k mle_jk.Evals[0], valid once every
// variable has been fixed (NumVars == 0).
func (c *CompositePolynomial) Evaluate() scalar.S {
	total := scalar.Zero()
	for _, prod := range c.Products {
		term := scalar.One()
		for _, idx := range prod.MLEIndices {
			term = term.Mul(c.Flattened[idx].Evals[0])
		}
		total = total.Add(prod.Coefficient.Mul(term))
	}
	return total
}

// Sum computes sum_{b in {0,1}^NumVars} g(b) directly, used by the prover
// to derive the initial sumcheck claim T.
func (c *CompositePolynomial) Sum() scalar.S {
	size := 1 << uint(c.NumVars)
	total := scalar.Zero()
	for _, prod := range c.Products {
		sum := scalar.Zero()
		for b := 0; b < size; b++ {
			term := scalar.One()
			for _, idx := range prod.MLEIndices {
				term = term.Mul(c.Flattened[idx].Evals[b])
			}
			sum = sum.Add(term)
		}
		total = total.Add(prod.Coefficient.Mul(sum))
	}
	return total
}

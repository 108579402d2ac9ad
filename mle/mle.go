package mle

import "github.com/spaceandtimelabs/provsql/scalar"

// Dense is a dense multilinear extension over 2^NumVars Boolean points,
// represented by its evaluation table. Evals is padded with zeros to the
// next power of two, matching the ColumnCommitment zero-padding rule.
type Dense struct {
	Evals   []scalar.S
	NumVars int
}

// NewDense builds a Dense MLE from a values slice, zero-padding to the next
// power of two and recording NumVars = ceil(log2(len(padded))).
func NewDense(values []scalar.S) *Dense {
	n := len(values)
	size := 1
	nv := 0
	for size < n {
		size *= 2
		nv++
	}
	if size == 0 {
		size = 1
	}
	evals := make([]scalar.S, size)
	copy(evals, values)
	return &Dense{Evals: evals, NumVars: nv}
}

// FixVariable fixes the lowest-indexed remaining variable to r, halving the
// table in place; this is the operation the sumcheck prover performs once
// per round: fixing x_i := r_i across all MLEs halves their size.
func (d *Dense) FixVariable(r scalar.S) {
	half := len(d.Evals) / 2
	oneMinus := scalar.One().Sub(r)
	for i := 0; i < half; i++ {
		lo := d.Evals[2*i]
		hi := d.Evals[2*i+1]
		d.Evals[i] = lo.Mul(oneMinus).Add(hi.Mul(r))
	}
	d.Evals = d.Evals[:half]
	d.NumVars--
}

// Clone returns a deep copy so independent sumcheck rounds can fold a
// shared MLE without mutating the original.
func (d *Dense) Clone() *Dense {
	cp := make([]scalar.S, len(d.Evals))
	copy(cp, d.Evals)
	return &Dense{Evals: cp, NumVars: d.NumVars}
}

// Evaluate computes f(r) for a point r of length NumVars via the inner
// product with the evaluation vector.
func (d *Dense) Evaluate(r []scalar.S) scalar.S {
	v := EvaluationVector(r)
	return InnerProduct(d.Evals, v)
}

// package pcs declares the narrow polynomial-commitment-scheme interface
// the proof-plan engine consumes:
// commit(column) -> C, open(poly, point) -> (y, pi),
// verify(C, point, y, pi) -> bool. The engine never depends on a concrete
// backend directly; kzgpcs provides the one pluggable implementation this
// repo ships.
package pcs

import "github.com/spaceandtimelabs/provsql/scalar"

// Commitment is an opaque handle produced by Commit; its only required
// capability is a stable byte encoding for transcript binding.
type Commitment interface {
	Bytes() []byte
}

// OpeningProof is an opaque proof that a committed MLE evaluates to a
// claimed value at a claimed point.
type OpeningProof interface {
	Bytes() ([]byte, error)
}

// Adapter is the capability set {commit, open, verify} operators take as
// a dependency rather than hard-wiring a commitment scheme. Every call
// handles a single MLE; there is no batched opening or verification.
type Adapter interface {
	// Commit commits to the dense evaluation table of an MLE, zero-padded
	// to the next power of two.
	Commit(evals []scalar.S) (Commitment, error)

	// Open proves that the MLE with evaluation table evals evaluates to
	// y = MLE(point) at point, returning y and the opening proof.
	Open(evals []scalar.S, point []scalar.S) (scalar.S, OpeningProof, error)

	// Verify checks that commitment opens to y at point via proof.
	Verify(commitment Commitment, point []scalar.S, y scalar.S, proof OpeningProof) error

	// MaxDegree reports the largest number of evaluation-table rows (as a
	// power of two) this adapter's structured reference string supports.
	MaxDegree() int
}

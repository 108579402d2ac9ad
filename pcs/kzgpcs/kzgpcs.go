// package kzgpcs is the concrete, pluggable PCS backend behind the pcs.
// Adapter interface: a univariate KZG commitment to a column's dense
// evaluation table (treated as the coefficient vector of a formal
// polynomial), together with a Gemini-style even/odd-split reduction that
// proves a multilinear evaluation of that same table at an arbitrary point
// without ever revealing the table itself. gnark-crypto's kzg package
// supplies the commit/open/verify backend, generalized here from a single
// evaluation point to the multilinear case the sumcheck layer needs.
package kzgpcs

import (
	"crypto/sha256"
	"fmt"

	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bn254kzg "github.com/consensys/gnark-crypto/ecc/bn254/kzg"

	"github.com/spaceandtimelabs/provsql/pcs"
	"github.com/spaceandtimelabs/provsql/scalar"
)

// Adapter implements pcs.Adapter over a fixed SRS.
type Adapter struct {
	srs *bn254kzg.SRS
}

// New wraps an SRS (see pcs/setup) as a pcs.Adapter.
func New(srs *bn254kzg.SRS) *Adapter {
	return &Adapter{srs: srs}
}

func (a *Adapter) MaxDegree() int { return len(a.srs.Pk.G1) }

// Commitment wraps a bn254 KZG digest.
type Commitment struct {
	digest bn254kzg.Digest
}

func (c Commitment) Bytes() []byte {
	b := c.digest.Bytes()
	return b[:]
}

// OpeningProof is the Gemini-style fold proof: nu-1 intermediate fold
// commitments and, for each of the nu levels, a pair of KZG openings at
// +rho_i and -rho_i.
type OpeningProof struct {
	FoldCommitments []bn254kzg.Digest
	PlusOpenings    []bn254kzg.OpeningProof
	MinusOpenings   []bn254kzg.OpeningProof
}

func (p OpeningProof) Bytes() ([]byte, error) {
	var buf []byte
	for _, c := range p.FoldCommitments {
		b := c.Bytes()
		buf = append(buf, b[:]...)
	}
	for i := range p.PlusOpenings {
		buf = append(buf, marshalOpening(p.PlusOpenings[i])...)
		buf = append(buf, marshalOpening(p.MinusOpenings[i])...)
	}
	return buf, nil
}

func marshalOpening(o bn254kzg.OpeningProof) []byte {
	h := o.H.Bytes()
	v := o.ClaimedValue.Bytes()
	return append(h[:], v[:]...)
}

func toFr(s []scalar.S) []fr.Element {
	out := make([]fr.Element, len(s))
	for i, v := range s {
		out[i] = v.FrElement()
	}
	return out
}

// Commit commits to evals' coefficient-vector polynomial, padded to a
// power of two.
func (a *Adapter) Commit(evals []scalar.S) (pcs.Commitment, error) {
	padded := padToPow2(evals)
	d, err := bn254kzg.Commit(toFr(padded), a.srs.Pk)
	if err != nil {
		return nil, fmt.Errorf("kzgpcs: error committing: %v", err)
	}
	return Commitment{digest: d}, nil
}

func padToPow2(evals []scalar.S) []scalar.S {
	n := len(evals)
	size := 1
	for size < n {
		size *= 2
	}
	if size == n {
		return evals
	}
	out := make([]scalar.S, size)
	copy(out, evals)
	return out
}

// deriveRho computes the shared Gemini folding base point, a public value
// reproducible by prover and verifier from the commitment and the
// multilinear evaluation point alone.
func deriveRho(commitmentBytes []byte, point []scalar.S) (scalar.S, error) {
	tr := fiatshamir.NewTranscript(sha256.New(), "rho")
	if err := tr.Bind("rho", commitmentBytes); err != nil {
		return scalar.S{}, err
	}
	for _, r := range point {
		b := r.Bytes()
		if err := tr.Bind("rho", b[:]); err != nil {
			return scalar.S{}, err
		}
	}
	b, err := tr.ComputeChallenge("rho")
	if err != nil {
		return scalar.S{}, err
	}
	return scalar.SetBytes(b), nil
}

// Open proves that evals' multilinear extension equals y at point, via the
// even/odd-split reduction described in the package doc.
func (a *Adapter) Open(evals []scalar.S, point []scalar.S) (scalar.S, pcs.OpeningProof, error) {
	padded := padToPow2(evals)
	nu := len(point)
	if 1<<uint(nu) != len(padded) {
		return scalar.S{}, nil, fmt.Errorf(
			"kzgpcs: point length %d inconsistent with table size %d", nu, len(padded))
	}

	commitment, err := a.Commit(evals)
	if err != nil {
		return scalar.S{}, nil, err
	}
	rho, err := deriveRho(commitment.Bytes(), point)
	if err != nil {
		return scalar.S{}, nil, fmt.Errorf("kzgpcs: error deriving rho: %v", err)
	}

	proof := OpeningProof{}
	cur := append([]scalar.S(nil), padded...)
	rhoPow := rho

	for i := 0; i < nu; i++ {
		curFr := toFr(cur)
		pk := a.srs.Pk
		if len(curFr) > len(pk.G1) {
			return scalar.S{}, nil, fmt.Errorf("kzgpcs: SRS too small for level %d", i)
		}
		plusOpen, err := bn254kzg.Open(curFr, rhoPow.FrElement(), pk)
		if err != nil {
			return scalar.S{}, nil, fmt.Errorf("kzgpcs: error opening level %d at +rho: %v", i, err)
		}
		minusOpen, err := bn254kzg.Open(curFr, rhoPow.Neg().FrElement(), pk)
		if err != nil {
			return scalar.S{}, nil, fmt.Errorf("kzgpcs: error opening level %d at -rho: %v", i, err)
		}
		proof.PlusOpenings = append(proof.PlusOpenings, plusOpen)
		proof.MinusOpenings = append(proof.MinusOpenings, minusOpen)

		half := len(cur) / 2
		next := make([]scalar.S, half)
		r := point[i]
		for j := 0; j < half; j++ {
			lo := cur[2*j]
			hi := cur[2*j+1]
			next[j] = lo.Mul(scalar.One().Sub(r)).Add(hi.Mul(r))
		}
		cur = next

		if i < nu-1 {
			nextDigest, err := bn254kzg.Commit(toFr(cur), pk)
			if err != nil {
				return scalar.S{}, nil, fmt.Errorf("kzgpcs: error committing fold %d: %v", i, err)
			}
			proof.FoldCommitments = append(proof.FoldCommitments, nextDigest)
		}
		rhoPow = rhoPow.Mul(rhoPow)
	}

	y := cur[0]
	return y, proof, nil
}

// Verify checks that commitment opens to y at point via proof, replaying
// the even/odd-split reduction without ever seeing the underlying table.
func (a *Adapter) Verify(commitment pcs.Commitment, point []scalar.S, y scalar.S, proof pcs.OpeningProof) error {
	c, ok := commitment.(Commitment)
	if !ok {
		return fmt.Errorf("kzgpcs: commitment is not a kzgpcs.Commitment")
	}
	p, ok := proof.(OpeningProof)
	if !ok {
		return fmt.Errorf("kzgpcs: proof is not a kzgpcs.OpeningProof")
	}
	nu := len(point)
	if len(p.PlusOpenings) != nu || len(p.MinusOpenings) != nu {
		return fmt.Errorf("kzgpcs: expected %d opening levels, got %d", nu, len(p.PlusOpenings))
	}
	if len(p.FoldCommitments) != nu-1 {
		return fmt.Errorf("kzgpcs: expected %d fold commitments, got %d", nu-1, len(p.FoldCommitments))
	}

	rho, err := deriveRho(c.Bytes(), point)
	if err != nil {
		return fmt.Errorf("kzgpcs: error deriving rho: %v", err)
	}

	curDigest := c.digest
	rhoPow := rho
	var expectedPlus *scalar.S

	for i := 0; i < nu; i++ {
		plusVal := scalar.FromFrElement(p.PlusOpenings[i].ClaimedValue)
		minusVal := scalar.FromFrElement(p.MinusOpenings[i].ClaimedValue)

		if expectedPlus != nil && !plusVal.Equal(*expectedPlus) {
			return fmt.Errorf("kzgpcs: level %d plus-evaluation inconsistent with prior fold", i)
		}

		plusPoint := rhoPow
		if err := bn254kzg.Verify(&curDigest, &p.PlusOpenings[i], plusPoint.FrElement(), a.srs.Vk); err != nil {
			return fmt.Errorf("kzgpcs: level %d +rho opening rejected: %v", i, err)
		}
		minusPoint := rhoPow.Neg()
		if err := bn254kzg.Verify(&curDigest, &p.MinusOpenings[i], minusPoint.FrElement(), a.srs.Vk); err != nil {
			return fmt.Errorf("kzgpcs: level %d -rho opening rejected: %v", i, err)
		}

		two := scalar.FromInt64(2)
		eEval := plusVal.Add(minusVal).Mul(two.Inverse())
		oEval := plusVal.Sub(minusVal).Mul(rhoPow.Mul(two).Inverse())
		r := point[i]
		nextPlus := eEval.Mul(scalar.One().Sub(r)).Add(oEval.Mul(r))
		expectedPlus = &nextPlus

		if i < nu-1 {
			curDigest = p.FoldCommitments[i]
		}
		rhoPow = rhoPow.Mul(rhoPow)
	}

	if expectedPlus == nil || !expectedPlus.Equal(y) {
		return fmt.Errorf("kzgpcs: final folded value does not match claimed evaluation")
	}
	return nil
}

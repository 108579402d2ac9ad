// package postprocessing implements the non-provable tail of the query
// pipeline: steps applied to an already-published, already-verified result
// table that carry no soundness guarantee of their own. A Step never
// touches a committed table or a transcript; it only reshapes the public
// Table a
// proofplan.Plan (or a chain of them) has already produced.
package postprocessing

import "github.com/spaceandtimelabs/provsql/database"

// Step is one postprocessing transformation.
type Step interface {
	Apply(t *database.Table) (*database.Table, error)
}

// Pipeline runs a sequence of Steps in order, each consuming the
// previous step's output.
type Pipeline []Step

func (p Pipeline) Apply(t *database.Table) (*database.Table, error) {
	cur := t
	for _, step := range p {
		next, err := step.Apply(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

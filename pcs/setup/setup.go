// package setup selects between a trusted and a test-only KZG structured
// reference string sized for the column-commitment PCS adapter.
package setup

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bn254kzg "github.com/consensys/gnark-crypto/ecc/bn254/kzg"
)

// Conf selects which SRS to run, either a Trusted (ceremony-derived) setup
// or a TestOnly setup unsuitable for production, matching
// github.com/giuliop/algoplonk's setup.Conf shape.
type Conf int

const (
	Trusted Conf = iota
	TestOnly
)

// Run builds a KZG SRS sized to commit columns of up to maxRows rows,
// padded to the next power of two.
func Run(maxRows uint64, conf Conf) (*bn254kzg.SRS, error) {
	size := ecc.NextPowerOfTwo(maxRows)
	if size < 2 {
		size = 2
	}
	switch conf {
	case Trusted:
		// No embedded ceremony transcript ships in this repo; operators
		// wiring a production deployment should replace this branch with a
		// ReadFrom of an audited ceremony transcript sized to at least
		// `size`.
		return nil, fmt.Errorf("setup: trusted SRS requires an operator-provided ceremony transcript")
	case TestOnly:
		srs, err := bn254kzg.NewSRS(size, big.NewInt(-1))
		if err != nil {
			return nil, fmt.Errorf("setup: error creating test-only SRS: %v", err)
		}
		return srs, nil
	default:
		return nil, fmt.Errorf("setup: unknown configuration %v", conf)
	}
}

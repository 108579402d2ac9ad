package scalar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldArithmetic(t *testing.T) {
	a := FromInt64(7)
	b := FromInt64(5)
	require.True(t, a.Add(b).Equal(FromInt64(12)))
	require.True(t, a.Sub(b).Equal(FromInt64(2)))
	require.True(t, a.Mul(b).Equal(FromInt64(35)))
}

func TestInverse(t *testing.T) {
	a := FromInt64(42)
	inv := a.Inverse()
	require.True(t, a.Mul(inv).Equal(One()))
	require.True(t, Zero().Inverse().IsZero())
}

func TestSignedInterpretation(t *testing.T) {
	pos := FromInt64(5)
	neg := FromBigInt(Modulus()).Sub(FromInt64(5)) // p - 5, represents -5
	require.Equal(t, 1, pos.Sign())
	require.Equal(t, -1, neg.Sign())
	require.Equal(t, -1, SignedCmp(neg, pos))
	require.True(t, neg.Abs().Equal(FromInt64(5)))
}

func TestBytesRoundTrip(t *testing.T) {
	a := FromInt64(123456789)
	b := a.Bytes()
	require.Equal(t, a, SetBytes(b[:]))
}

func TestU256RoundTrip(t *testing.T) {
	a := FromInt64(999)
	u := a.ToU256()
	require.True(t, a.Equal(FromU256(u)))
}

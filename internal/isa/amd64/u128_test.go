package amd64

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU128AddMatchesExtendedPrecisionSemantics(t *testing.T) {
	lo, hi := U128Add(1, 0, 1, 0)
	require.Equal(t, uint64(2), lo)
	require.Equal(t, uint64(0), hi)

	lo, hi = U128Add(math.MaxUint64, 0, 1, 0)
	require.Equal(t, uint64(0), lo)
	require.Equal(t, uint64(1), hi)
}

func TestU128MulSmallProductStaysInLowWord(t *testing.T) {
	lo, hi := U128Mul(6, 0, 7, 0)
	require.Equal(t, uint64(42), lo)
	require.Equal(t, uint64(0), hi)
}

func TestU128ShlCrossesWordBoundary(t *testing.T) {
	lo, hi := U128Shl(1, 0, 64)
	require.Equal(t, uint64(0), lo)
	require.Equal(t, uint64(1), hi)
}

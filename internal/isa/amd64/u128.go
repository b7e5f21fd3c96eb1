package amd64

import "math/bits"

// U128Add, U128Mul and U128Shl are the reference extended-precision
// semantics for spec §8 scenario 5. Select tiles only 128-bit add and sub
// (lowerBinOp128's ADD/ADC and SUB/SBB, matching U128Add); it has no
// 128-bit MUL or shift tiling for U128Mul/U128Shl to match. Each value is split as a
// (lo, hi) pair of 64-bit words the way a GPREX argument/return travels
// through the SysV AMD64 ABI (spec §4.7 ComputeArguments/ComputeReturnValues).

// U128Add adds (aLo,aHi) and (bLo,bHi), propagating the low word's carry
// into the high word exactly as an ADD/ADC instruction pair would.
func U128Add(aLo, aHi, bLo, bHi uint64) (lo, hi uint64) {
	var carry uint64
	lo, carry = bits.Add64(aLo, bLo, 0)
	hi, _ = bits.Add64(aHi, bHi, carry)
	return lo, hi
}

// U128Mul computes the low 128 bits of (aLo,aHi)*(bLo,bHi): the full
// 256-bit product's top 128 bits are discarded, matching a 64x64->128
// MUL tiling that only ever materializes the low half plus the
// lo*hi + hi*lo cross terms added into the high word.
func U128Mul(aLo, aHi, bLo, bHi uint64) (lo, hi uint64) {
	hiProd, loProd := bits.Mul64(aLo, bLo)
	return loProd, hiProd + aLo*bHi + aHi*bLo
}

// U128Shl shifts (lo,hi) left by n bits (0 <= n < 128), matching the
// SHLD/SHL pair a backend emits for a shift amount that may cross the
// 64-bit word boundary.
func U128Shl(lo, hi uint64, n uint) (rLo, rHi uint64) {
	switch {
	case n == 0:
		return lo, hi
	case n < 64:
		return lo << n, (hi << n) | (lo >> (64 - n))
	case n < 128:
		return 0, lo << (n - 64)
	default:
		return 0, 0
	}
}

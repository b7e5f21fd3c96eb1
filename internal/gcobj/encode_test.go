package gcobj

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeTinyRoundTrips(t *testing.T) {
	e := EncodeTiny(24, []WordKind{WordRef, WordNonRef, WordTaggedRef})
	require.Equal(t, 24, e.Size())
	require.Equal(t, 3, e.NFields())
	require.Equal(t, WordRef, e.Field(0))
	require.Equal(t, WordNonRef, e.Field(1))
	require.Equal(t, WordTaggedRef, e.Field(2))
}

func TestEncodeTinySixteenBytes(t *testing.T) {
	e := EncodeTiny(16, []WordKind{WordWeakRef, WordNonRef})
	require.Equal(t, 16, e.Size())
	require.Equal(t, 2, e.NFields())
}

func TestEncodeSmallRoundTrips(t *testing.T) {
	for _, size := range []int{32, 40, 48, 56} {
		e := EncodeSmall(size, 4095)
		require.True(t, e.IsSmall())
		require.Equal(t, size, e.Size())
		require.Equal(t, uint32(4095), e.TypeID())
	}
}

func TestEncodeMediumRoundTrips(t *testing.T) {
	e := EncodeMedium(64+8*7, 12345)
	require.True(t, e.IsMedium())
	require.Equal(t, 64+8*7, e.Size())
	require.Equal(t, uint32(12345), e.TypeID())
}

func TestEncodeLargeRoundTrips(t *testing.T) {
	e := EncodeLarge(1<<20, 77, 9)
	require.Equal(t, uint64(1<<20), e.Size())
	require.Equal(t, uint32(77), e.TypeID())
	require.Equal(t, uint32(9), e.HybridLength())
}

func TestClassOfBoundaries(t *testing.T) {
	require.Equal(t, ClassTiny, ClassOf(16))
	require.Equal(t, ClassSmall, ClassOf(MaxTinyObject))
	require.Equal(t, ClassMedium, ClassOf(MaxSmallObject))
	require.Equal(t, ClassLarge, ClassOf(MaxMediumObject))
}

func TestPackUnpackWordsRoundTrip(t *testing.T) {
	words := []WordKind{WordNonRef, WordRef, WordWeakRef, WordTaggedRef, WordRef}
	packed := PackWords(words)
	for i, w := range words {
		require.Equal(t, w, UnpackWord(packed, i))
	}
}

func TestGlobalTypeEntryRoundTrip(t *testing.T) {
	layout := TypeLayout{
		Align: 8,
		Fixed: []WordKind{WordNonRef, WordRef},
		Var:   []WordKind{WordTaggedRef},
	}
	entry := NewGlobalTypeEntry(layout)
	require.Equal(t, uint8(2), entry.FixLen)
	require.Equal(t, uint8(1), entry.VarLen)
	require.Equal(t, WordNonRef, entry.FixWord(0))
	require.Equal(t, WordRef, entry.FixWord(1))
	require.Equal(t, WordTaggedRef, entry.VarWord(0))
}

func TestGlobalTypeTableAddGet(t *testing.T) {
	var table GlobalTypeTable
	id := table.Add(NewGlobalTypeEntry(TypeLayout{Align: 8, Fixed: []WordKind{WordRef}}))
	require.Equal(t, uint32(0), id)
	require.Equal(t, 1, table.Len())
	require.Equal(t, WordRef, table.Get(id).FixWord(0))
}

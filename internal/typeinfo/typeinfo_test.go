package typeinfo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/gcobj"
	"github.com/mu-vm/muc/internal/ir"
)

func TestIntSizeAndAlignment(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	i8 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 8})
	i64 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})

	info8 := cache.Get(i8)
	require.Equal(t, uint64(1), info8.Size)
	require.Equal(t, uint64(1), info8.Alignment)

	info64 := cache.Get(i64)
	require.Equal(t, uint64(8), info64.Size)
	require.Equal(t, uint64(8), info64.Alignment)
}

func TestRefIsOneTracedWord(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	refTy := reg.InternType(ir.Type{Kind: ir.TypeKindRef, Elem: reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 32})})
	info := cache.Get(refTy)
	require.Equal(t, uint64(8), info.Size)
	require.Equal(t, []gcobj.WordKind{gcobj.WordRef}, info.GCType.Fixed)
}

func TestUPtrIsUntraced(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	uptr := reg.InternType(ir.Type{Kind: ir.TypeKindUPtr, Elem: reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 8})})
	info := cache.Get(uptr)
	require.Equal(t, []gcobj.WordKind{gcobj.WordNonRef}, info.GCType.Fixed)
}

func TestStructOffsetsRespectFieldAlignment(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	i8 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 8})
	i64 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	require.NoError(t, reg.DeclareStructTag("pair", []ir.TypeID{i8, i64}))

	structTy := reg.InternType(ir.Type{Kind: ir.TypeKindStruct, StructTag: "pair"})
	info := cache.Get(structTy)

	require.Equal(t, []uint64{0, 8}, info.FieldOffsets)
	require.Equal(t, uint64(16), info.Size)
	require.Equal(t, uint64(8), info.Alignment)
}

func TestArrayStridesByElementAlignment(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	i64 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	arrTy := reg.InternType(ir.Type{Kind: ir.TypeKindArray, Elem: i64, Len: 4})
	info := cache.Get(arrTy)

	require.Equal(t, uint64(32), info.Size)
	require.Equal(t, uint64(8), info.Alignment)
}

func TestGetIsMemoizedPerTypeID(t *testing.T) {
	reg := ir.NewRegistry()
	cache := NewCache(reg)

	i64 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	a := cache.Get(i64)
	b := cache.Get(i64)
	require.Same(t, a, b)
}

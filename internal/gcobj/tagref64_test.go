package gcobj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagRef64Classification(t *testing.T) {
	require.True(t, TagRef64(0x7ff0000000000001).IsInt())
	require.True(t, TagRef64(0xfff0000000000001).IsInt())
	require.True(t, TagRef64(0xffffffffffffffff).IsInt())

	require.True(t, TagRef64(0x7ff0000000000002).IsRef())
	require.True(t, TagRef64(0xfff0000000000002).IsRef())
	require.True(t, TagRef64(0xfffffffffffffffe).IsRef())

	require.True(t, TagRef64(0x0).IsFP())
	require.True(t, TagRef64(0x123456789abcdef0).IsFP())
	require.True(t, TagRef64(0x7ff123456789abcc).IsFP())
	require.True(t, TagRef64(0xfffffffffffffffc).IsFP())
	require.True(t, FromFP(3.1415927).IsFP())
}

func TestTagRef64FromInt(t *testing.T) {
	require.Equal(t, uint64(0x7ff0000000000001), uint64(FromInt(0x0000000000000)))
	require.Equal(t, uint64(0xffffffffffffffff), uint64(FromInt(0xfffffffffffff)))
	require.Equal(t, uint64(0x7ffaaaaaaaaaaaab), uint64(FromInt(0x5555555555555)))
	require.Equal(t, uint64(0xfff5555555555555), uint64(FromInt(0xaaaaaaaaaaaaa)))
}

func TestTagRef64FromFP(t *testing.T) {
	require.Equal(t, math.Float64bits(3.14), uint64(FromFP(3.14)))
	require.Equal(t, math.Float64bits(-3.14), uint64(FromFP(-3.14)))
	require.Equal(t, uint64(0x7ff0000000000000), uint64(FromFP(math.Inf(1))))

	weirdNaN := math.Float64frombits(0x7ff123456789abcd)
	got := FromFP(weirdNaN)
	require.Equal(t, uint64(0x7ff0000000000008), uint64(got))
	require.True(t, math.IsNaN(got.ToFP()))
}

func TestTagRef64FromRef(t *testing.T) {
	require.Equal(t, uint64(0x7ff0000000000002), uint64(FromRef(0x000000000000, 0x00)))
	require.Equal(t, uint64(0x7ff07ffffffffffa), uint64(FromRef(0x7ffffffffff8, 0x00)))
	require.Equal(t, uint64(0xfff07ffffffffffa), uint64(FromRef(0xfffffffffffffff8, 0x00)))
	require.Equal(t, uint64(0x7fff800000000006), uint64(FromRef(0x000000000000, 0x3f)))
}

func TestTagRef64ToInt(t *testing.T) {
	require.Equal(t, uint64(0), TagRef64(0x7ff0000000000001).ToInt())
	require.Equal(t, uint64(0x8000000000000), TagRef64(0xfff0000000000001).ToInt())
	require.Equal(t, uint64(0xaaaaaaaaaaaaa), TagRef64(0xfff5555555555555).ToInt())
	require.Equal(t, uint64(0x5555555555555), TagRef64(0x7ffaaaaaaaaaaaab).ToInt())
}

func TestTagRef64ToFP(t *testing.T) {
	require.Equal(t, 0.0, TagRef64(0x0000000000000000).ToFP())
	require.Equal(t, math.Float64frombits(0x8000000000000000), TagRef64(0x8000000000000000).ToFP())
	require.Equal(t, 1.0, TagRef64(0x3ff0000000000000).ToFP())
	require.True(t, math.IsNaN(TagRef64(0x7ff0000000000008).ToFP()))
}

func TestTagRef64ToRefAndTag(t *testing.T) {
	addr, tag := TagRef64(0x7ff0555555555552).ToRef()
	require.Equal(t, uint64(0x555555555550), addr)
	require.Equal(t, uint8(0x0), tag)

	addr, _ = TagRef64(0xfff02aaaaaaaaaaa).ToRef()
	require.Equal(t, uint64(0xffffaaaaaaaaaaa8), addr)

	require.Equal(t, uint8(0x0), TagRef64(0x7ff0555555555552).ToTag())
	require.Equal(t, uint8(0x3f), TagRef64(0x7fff800000000006).ToTag())
	require.Equal(t, uint8(0x2a), TagRef64(0x7ffa800000000002).ToTag())
	require.Equal(t, uint8(0x15), TagRef64(0x7ff5000000000006).ToTag())
}

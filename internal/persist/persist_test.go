package persist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := &Context{
		Symbol:    "fib",
		Code:      []byte{0x55, 0x48, 0x89, 0xe5, 0xc3},
		FrameSize: 32,
		Callsites: []CallsiteEntry{
			{ReturnAddr: 4, LandingPad: 64},
			{ReturnAddr: 12, LandingPad: 80},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ctx))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, ctx, got)
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("GARBAGE!")))
	require.Error(t, err)
}

func TestReadRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Context{Symbol: "x"}))
	raw := buf.Bytes()
	raw[len(magic)] = 0xFF // corrupt the version byte
	_, err := Read(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestWriteRejectsOversizedSymbol(t *testing.T) {
	big := make([]byte, 300)
	err := Write(&bytes.Buffer{}, &Context{Symbol: string(big)})
	require.Error(t, err)
}

func TestRoundTripWithEmptyCallsitesAndCode(t *testing.T) {
	ctx := &Context{Symbol: "noop", FrameSize: 0}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ctx))
	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, ctx.Symbol, got.Symbol)
	require.Empty(t, got.Callsites)
	require.Empty(t, got.Code)
}

package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/machine"
)

func TestAllocSlotGrowsDownwardAndAligns(t *testing.T) {
	f := New()
	r0 := machine.VReg{ID: 0, Bank: machine.BankGPR}
	r1 := machine.VReg{ID: 1, Bank: machine.BankFPR}

	s0 := f.AllocSlot(r0, 8, 8)
	require.Equal(t, int64(-8), s0.Offset)

	s1 := f.AllocSlot(r1, 16, 16)
	require.Equal(t, int64(-32), s1.Offset)
	require.Zero(t, s1.Offset%16)
}

func TestSizeIsSixteenByteAligned(t *testing.T) {
	f := New()
	r0 := machine.VReg{ID: 0, Bank: machine.BankGPR}
	f.AllocSlot(r0, 8, 8)
	require.Equal(t, int64(16), f.Size())
}

func TestForgetRemovesCalleeSavedSlot(t *testing.T) {
	f := New()
	r0 := machine.VReg{ID: 0, Bank: machine.BankGPR}
	f.AllocSlot(r0, 8, 8)
	_, ok := f.SlotFor(r0)
	require.True(t, ok)

	f.Forget(r0)
	_, ok = f.SlotFor(r0)
	require.False(t, ok)
}

func TestCallsitesRecorded(t *testing.T) {
	f := New()
	f.AddCallsite(Callsite{ReturnAddr: 0x100, LandingPad: 0x200})
	require.Len(t, f.Callsites(), 1)
	require.Equal(t, int64(0x200), f.Callsites()[0].LandingPad)
}

package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mu-vm/muc/internal/machine"
)

func v(id uint32) machine.VReg { return machine.VReg{ID: id, Bank: machine.BankGPR} }

// threeWayInterference builds a single block defining r0, r1, r2, all
// simultaneously live at a final use, so all three must receive distinct
// colors when K == 3 but force a spill when K == 2.
func threeWayInterference() *machine.Function {
	r0, r1, r2 := v(0), v(1), v(2)
	b := &machine.Block{ID: 0, Instrs: []*machine.Instr{
		{Defs: []machine.VReg{r0}},
		{Defs: []machine.VReg{r1}},
		{Defs: []machine.VReg{r2}},
		{Uses: []machine.VReg{r0, r1, r2}, IsReturn: true},
	}}
	return machine.NewFunction([]*machine.Block{b})
}

func TestAllocateColorsDisjointRegistersWithEnoughK(t *testing.T) {
	fn := threeWayInterference()
	result := Bank(fn, machine.BankGPR, Config{NumAllocatable: 3, CalleeSavedStart: 2})

	require.Empty(t, result.Spilled)
	colors := map[int]bool{}
	for _, c := range result.Color {
		colors[c] = true
	}
	require.Len(t, colors, 3)
}

func TestAllocateSpillsWhenRegistersExhausted(t *testing.T) {
	fn := threeWayInterference()
	result := Bank(fn, machine.BankGPR, Config{NumAllocatable: 2, CalleeSavedStart: 1})

	require.NotEmpty(t, result.Spilled)
}

func TestCoalescingMergesMoveRelatedNonInterferingRegs(t *testing.T) {
	r0, r1 := v(0), v(1)
	b := &machine.Block{ID: 0, Instrs: []*machine.Instr{
		{Defs: []machine.VReg{r0}},
		{Defs: []machine.VReg{r1}, Uses: []machine.VReg{r0}, IsMove: true, MoveDst: r1, MoveSrc: r0},
		{Uses: []machine.VReg{r1}, IsReturn: true},
	}}
	fn := machine.NewFunction([]*machine.Block{b})

	result := Bank(fn, machine.BankGPR, Config{NumAllocatable: 4, CalleeSavedStart: 2})
	k0, ok0 := result.Color[machine.Key(r0)]
	k1, ok1 := result.Color[machine.Key(r1)]
	require.True(t, ok0)
	require.True(t, ok1)
	require.Equal(t, k0, k1)
}

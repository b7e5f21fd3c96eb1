package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func v(id uint32) VReg { return VReg{ID: id, Bank: BankGPR} }

// buildLoopFunction builds entry -> loop -> exit, loop -> loop (self
// back edge), where loop defines r1 from r0 and entry defines r0; r0
// must be live across the whole loop.
func buildLoopFunction() *Function {
	entry := &Block{ID: 0}
	loop := &Block{ID: 1}
	exit := &Block{ID: 2}

	entry.Succs = []*Block{loop}
	loop.Preds = []*Block{entry, loop}
	loop.Succs = []*Block{loop, exit}
	exit.Preds = []*Block{loop}

	r0, r1 := v(0), v(1)
	entry.Instrs = []*Instr{{Defs: []VReg{r0}}}
	loop.Instrs = []*Instr{
		{Defs: []VReg{r1}, Uses: []VReg{r0}},
		{Uses: []VReg{r1}},
	}
	exit.Instrs = []*Instr{{IsReturn: true}}

	return NewFunction([]*Block{entry, loop, exit})
}

func TestRegSetOps(t *testing.T) {
	s1 := NewRegSet()
	s1.Add(v(1))
	s1.Add(v(2))
	s2 := NewRegSet()
	s2.Add(v(2))
	s2.Add(v(3))

	require.True(t, s1.Union(s2).Contains(v(3)))
	require.False(t, s1.Minus(s2).Contains(v(2)))
	require.True(t, s1.Minus(s2).Contains(v(1)))
	require.True(t, s1.Clone().Equal(s1))
}

func TestPostOrderVisitsSuccessorsFirst(t *testing.T) {
	fn := buildLoopFunction()
	po := fn.PostOrder()
	require.Equal(t, 3, len(po))
	require.Equal(t, 2, po[0].ID) // exit visited before its predecessors finish

	rpo := fn.ReversePostOrder()
	require.Equal(t, 0, rpo[0].ID)
}

func TestAnalyzeLivenessAcrossLoopBackedge(t *testing.T) {
	fn := buildLoopFunction()
	l := AnalyzeLiveness(fn)

	// r0 defined in entry, used every iteration of loop: live out of entry
	// and live across the whole loop block.
	require.True(t, l.BlockOut[0].Contains(v(0)))
	require.True(t, l.BlockIn[1].Contains(v(0)))
	require.True(t, l.BlockOut[1].Contains(v(0)))

	// r1 is defined and fully consumed within loop; never live into exit.
	require.False(t, l.BlockOut[1].Contains(v(1)))
}

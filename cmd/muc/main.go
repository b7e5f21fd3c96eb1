// Command muc is the compiler driver's command-line entry point: it runs
// a function version through the compile pipeline (package driver) and
// writes the result as a persisted context blob (package persist). Flag parsing follows the teacher's own cmd/ralph-cc
// structure (a single cobra root command carrying its flags as package
// vars, Version/SilenceUsage/SilenceErrors set, RunE doing the work),
// and logging uses logrus the way the rest of this module's ambient
// stack does.
//
// Loading a real Mu bundle (spec §6.1's load_bundle) is out of this
// module's scope (spec.md §1, "external collaborator"): muc's compile
// subcommand instead runs the pipeline against a small self-test
// function, so the CLI still exercises Select -> RegAlloc -> Peephole ->
// persist end to end without a bundle parser this module does not build.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mu-vm/muc/internal/driver"
	"github.com/mu-vm/muc/internal/ir"
	"github.com/mu-vm/muc/internal/machine"
	"github.com/mu-vm/muc/internal/persist"
	"github.com/mu-vm/muc/internal/typeinfo"
)

var version = "0.1.0"

var (
	targetFlag  string
	outputFlag  string
	verboseFlag bool
)

var log = logrus.New()

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "muc",
		Short:         "muc is the Mu micro-VM ahead-of-time compiler driver",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newCompileCmd())
	return rootCmd
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "run the compile pipeline against a self-test function and emit a context blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag {
				log.SetLevel(logrus.DebugLevel)
			}
			return runCompile(cmd)
		},
	}
	cmd.Flags().StringVar(&targetFlag, "target", "amd64", "instruction-selection target: amd64 or arm64")
	cmd.Flags().StringVar(&outputFlag, "output", "a.muctx", "path to write the persisted context blob to")
	return cmd
}

func runCompile(cmd *cobra.Command) error {
	target, err := parseTarget(targetFlag)
	if err != nil {
		return err
	}

	fv, reg, info := selfTestFunction()
	log.WithField("target", targetFlag).Debug("running compile pipeline")

	result, err := driver.Compile(fv, reg, info, target)
	if err != nil {
		return fmt.Errorf("muc: compile failed: %w", err)
	}
	log.WithFields(logrus.Fields{
		"blocks":    len(result.Function.Blocks),
		"frameSize": result.Frame.Size(),
	}).Info("compiled")

	ctx := driver.ToContext(fv.Name, encodePlaceholder(result.Function), result)

	f, err := os.Create(outputFlag)
	if err != nil {
		return fmt.Errorf("muc: creating %s: %w", outputFlag, err)
	}
	defer f.Close()

	if err := persist.Write(f, ctx); err != nil {
		return fmt.Errorf("muc: writing context blob: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "muc: wrote %s (%d bytes of code, frame size %d)\n",
		outputFlag, len(ctx.Code), ctx.FrameSize)
	return nil
}

func parseTarget(s string) (driver.Target, error) {
	switch s {
	case "amd64":
		return driver.TargetAMD64, nil
	case "arm64":
		return driver.TargetARM64, nil
	default:
		return 0, fmt.Errorf("muc: unknown target %q (want amd64 or arm64)", s)
	}
}

// encodePlaceholder stands in for the not-yet-built byte encoder: it
// emits one zero byte per selected instruction so persist.Write has a
// non-empty, size-correlated Code segment to serialize. A real encoder
// belongs to each isa package once this module grows actual machine-code
// emission.
func encodePlaceholder(fn *machine.Function) []byte {
	var n int
	for _, b := range fn.Blocks {
		n += len(b.Instrs)
	}
	return make([]byte, n)
}

// selfTestFunction builds `fn add(i64, i64) -> i64 { return a + b }`, used
// to exercise the pipeline end to end without a bundle loader.
func selfTestFunction() (*ir.FuncVersion, *ir.Registry, *typeinfo.Cache) {
	reg := ir.NewRegistry()
	i64 := reg.InternType(ir.Type{Kind: ir.TypeKindInt, IntBits: 64})
	sig := reg.InternFuncSig(ir.FuncSig{Rets: []ir.TypeID{i64}, Args: []ir.TypeID{i64, i64}})
	fv := ir.NewFuncVersion(0, 0, "add", sig)

	entry := fv.NewBlock("entry")
	a := fv.NewValue(i64, ir.InstIDInvalid)
	b := fv.NewValue(i64, ir.InstIDInvalid)
	sum := fv.NewValue(i64, ir.InstIDInvalid)
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{
		Opcode: ir.OpAdd, Defs: []ir.ValueID{sum},
		Ops: []ir.Operand{ir.ValueOperand(a), ir.ValueOperand(b)}, Type: i64,
	}))
	fv.AppendInst(entry, fv.NewInst(ir.Instruction{Opcode: ir.OpReturn, Ops: []ir.Operand{ir.ValueOperand(sum)}}))

	return fv, reg, typeinfo.NewCache(reg)
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionNotEmpty(t *testing.T) {
	require.NotEmpty(t, version)
}

func TestCompileFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	compile, _, err := root.Find([]string{"compile"})
	require.NoError(t, err)

	require.NotNil(t, compile.Flags().Lookup("target"))
	require.NotNil(t, compile.Flags().Lookup("output"))
}

func TestParseTargetRejectsUnknown(t *testing.T) {
	_, err := parseTarget("riscv64")
	require.Error(t, err)
}

func TestParseTargetAcceptsAMD64AndARM64(t *testing.T) {
	target, err := parseTarget("amd64")
	require.NoError(t, err)
	require.Equal(t, 0, int(target))

	_, err = parseTarget("arm64")
	require.NoError(t, err)
}

func TestCompileCommandWritesContextBlob(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.muctx")

	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"compile", "--output", outPath})
	require.NoError(t, root.Execute())

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestCompileCommandRejectsUnknownTarget(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"compile", "--target", "bogus"})
	require.Error(t, root.Execute())
}
